// Package backup exports and restores the complete application state as a
// single JSON document, optionally zstd-compressed.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/settings"
	"stockroom/pkg/logger"
)

// FormatVersion is the document version written by Export.
const FormatVersion = 1

// MaxDocumentBytes bounds a decompressed backup.
const MaxDocumentBytes = 256 << 20

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// User is a user account as stored in a backup, password hash included.
type User struct {
	auth.User
	PasswordHash string `json:"passwordHash"`
}

// Document is the backup file layout.
type Document struct {
	Version          int                         `json:"version"`
	CreatedAt        time.Time                   `json:"createdAt"`
	Settings         json.RawMessage             `json:"settings"`
	Products         []inventory.Product         `json:"products"`
	Sales            []inventory.Sale            `json:"sales"`
	Purchases        []inventory.Purchase        `json:"purchases"`
	Movements        []inventory.Movement        `json:"movements"`
	PurchaseRequests []inventory.PurchaseRequest `json:"purchaseRequests"`
	Users            []User                      `json:"users,omitempty"`
}

// Options controls Export.
type Options struct {
	Compress bool
}

// Summary counts the records of a restored backup.
type Summary struct {
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"createdAt"`
	Products         int       `json:"products"`
	Sales            int       `json:"sales"`
	Purchases        int       `json:"purchases"`
	Movements        int       `json:"movements"`
	PurchaseRequests int       `json:"purchaseRequests"`
	Users            int       `json:"users"`
}

// InventoryStore reads and replaces warehouse documents.
type InventoryStore interface {
	Export(ctx context.Context) (*inventory.Dataset, error)
	Restore(ctx context.Context, ds *inventory.Dataset) error
}

// UserStore reads and replaces user accounts.
type UserStore interface {
	List(ctx context.Context, filter auth.UserFilter) ([]auth.User, error)
	ReplaceAll(ctx context.Context, users []auth.User) error
}

// Service creates and restores backups.
type Service struct {
	inventory InventoryStore
	users     UserStore
	settings  *settings.Store
	txManager tx.Manager

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewService creates a backup service.
func NewService(inv InventoryStore, users UserStore, store *settings.Store, txManager tx.Manager) (*Service, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Service{
		inventory: inv,
		users:     users,
		settings:  store,
		txManager: txManager,
		encoder:   encoder,
		decoder:   decoder,
	}, nil
}

// Export writes a backup of every store to w.
func (s *Service) Export(ctx context.Context, w io.Writer, opts Options) error {
	ds, err := s.inventory.Export(ctx)
	if err != nil {
		return err
	}
	users, err := s.users.List(ctx, auth.UserFilter{})
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	st, err := json.Marshal(s.settings.Current().Settings())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	doc := Document{
		Version:          FormatVersion,
		CreatedAt:        time.Now().UTC(),
		Settings:         st,
		Products:         ds.Products,
		Sales:            ds.Sales,
		Purchases:        ds.Purchases,
		Movements:        ds.Movements,
		PurchaseRequests: ds.PurchaseRequests,
		Users:            make([]User, len(users)),
	}
	for i, u := range users {
		doc.Users[i] = User{User: u, PasswordHash: u.PasswordHash}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if opts.Compress {
		raw = s.encoder.EncodeAll(raw, nil)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	logger.Info(ctx, "backup exported",
		"bytes", len(raw),
		"compressed", opts.Compress,
		"products", len(doc.Products),
		"users", len(doc.Users))
	return nil
}

// Decode reads a backup, decompressing it when it starts with the zstd
// magic number. Unreadable documents fail with IMPORT_PARSE_ERROR.
func (s *Service) Decode(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxDocumentBytes+1))
	if err != nil {
		return nil, apperror.NewImportParse("cannot read backup", err)
	}
	if len(raw) > MaxDocumentBytes {
		return nil, apperror.NewPayloadTooLarge(int64(len(raw)), MaxDocumentBytes)
	}
	if bytes.HasPrefix(raw, zstdMagic) {
		raw, err = s.decoder.DecodeAll(raw, nil)
		if err != nil {
			return nil, apperror.NewImportParse("backup is not valid zstd data", err)
		}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.NewImportParse("backup is not valid JSON", err)
	}
	if doc.Version < 1 || doc.Version > FormatVersion {
		return nil, apperror.NewImportParse(fmt.Sprintf("unsupported backup version %d", doc.Version), nil).
			WithDetail("version", doc.Version)
	}
	return &doc, nil
}

// Import replaces all data with the backup read from r. Either everything
// is restored or nothing is. Backups without users keep the current
// accounts.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Summary, error) {
	doc, err := s.Decode(r)
	if err != nil {
		return nil, err
	}
	st, err := settings.Decode(doc.Settings)
	if err != nil {
		return nil, apperror.NewImportParse("backup settings are malformed", err)
	}

	users := make([]auth.User, len(doc.Users))
	for i, u := range doc.Users {
		users[i] = u.User
		users[i].PasswordHash = u.PasswordHash
		if err := users[i].Validate(); err != nil {
			return nil, apperror.NewImportParse("backup contains an invalid user", err).
				WithDetail("username", u.Username)
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.inventory.Restore(ctx, &inventory.Dataset{
			Products:         doc.Products,
			Sales:            doc.Sales,
			Purchases:        doc.Purchases,
			Movements:        doc.Movements,
			PurchaseRequests: doc.PurchaseRequests,
		}); err != nil {
			return err
		}
		if len(users) > 0 {
			if err := s.users.ReplaceAll(ctx, users); err != nil {
				return fmt.Errorf("restore users: %w", err)
			}
		}
		_, err := s.settings.Replace(ctx, st)
		return err
	})
	if err != nil {
		// The settings snapshot may have been published before the rollback.
		if _, rerr := s.settings.Reload(ctx); rerr != nil {
			logger.Error(ctx, "reload settings after failed restore", "error", rerr)
		}
		return nil, err
	}

	summary := &Summary{
		Version:          doc.Version,
		CreatedAt:        doc.CreatedAt,
		Products:         len(doc.Products),
		Sales:            len(doc.Sales),
		Purchases:        len(doc.Purchases),
		Movements:        len(doc.Movements),
		PurchaseRequests: len(doc.PurchaseRequests),
		Users:            len(users),
	}
	logger.Info(ctx, "backup imported",
		"version", summary.Version,
		"products", summary.Products,
		"sales", summary.Sales,
		"users", summary.Users)
	return summary, nil
}
