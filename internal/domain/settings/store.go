package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/pkg/logger"
)

// DefaultQuotaBytes caps the encoded settings document.
const DefaultQuotaBytes = 5 << 20

// Repository persists the encoded settings document.
type Repository interface {
	// Load returns the stored document and its version. A store that has
	// never been written returns a nil document and version 0.
	Load(ctx context.Context) ([]byte, int64, error)

	// Save writes doc and returns the new version. Writes are last-write-wins.
	Save(ctx context.Context, doc []byte) (int64, error)
}

// Snapshot is one immutable version of the settings.
type Snapshot struct {
	Version   int64
	UpdatedAt time.Time
	value     Settings
}

// Settings returns a copy of the snapshot's settings.
func (s *Snapshot) Settings() Settings {
	return s.value.Clone()
}

// Store serves the current settings snapshot and serializes updates.
// Readers never see a partially applied update.
type Store struct {
	repo  Repository
	quota int64

	mu      sync.RWMutex
	current *Snapshot

	// updateMu serializes Update so read-modify-write cycles do not interleave.
	updateMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]func(*Snapshot)
	nextSub int
}

// NewStore creates a store. quota <= 0 uses DefaultQuotaBytes.
func NewStore(repo Repository, quota int64) *Store {
	if quota <= 0 {
		quota = DefaultQuotaBytes
	}
	return &Store{
		repo:    repo,
		quota:   quota,
		current: &Snapshot{value: Defaults()},
		subs:    make(map[int]func(*Snapshot)),
	}
}

// Decode parses a settings document. Missing fields take their defaults and
// documents with only name arrays get structured client/vendor entries.
func Decode(doc []byte) (Settings, error) {
	st := Defaults()
	if len(doc) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(doc, &st); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	st.upgrade()
	st.normalize()
	return st, nil
}

// Current returns the latest snapshot.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload reads the document from the repository, typically after another
// process changed it.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	doc, version, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	st, err := Decode(doc)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Version: version, UpdatedAt: time.Now().UTC(), value: st}
	s.publish(snap)
	return snap, nil
}

// Update applies fn to a copy of the current settings, persists the result
// and publishes it as a new snapshot. Encoded documents larger than the
// quota fail with STORAGE_QUOTA_EXCEEDED and leave the store unchanged.
func (s *Store) Update(ctx context.Context, fn func(*Settings) error) (*Snapshot, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	next := s.Current().Settings()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.normalize()
	if err := next.Validate(); err != nil {
		return nil, err
	}

	doc, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if size := int64(len(doc)); size > s.quota {
		return nil, apperror.NewStorageQuotaExceeded(size, s.quota)
	}

	version, err := s.repo.Save(ctx, doc)
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("save settings: %w", err)
	}

	snap := &Snapshot{Version: version, UpdatedAt: time.Now().UTC(), value: next}
	s.publish(snap)

	logger.Info(ctx, "settings updated", "version", version, "bytes", len(doc))
	return snap, nil
}

// Replace persists st as the whole document, saved reports included.
func (s *Store) Replace(ctx context.Context, st Settings) (*Snapshot, error) {
	return s.Update(ctx, func(cur *Settings) error {
		*cur = st.Clone()
		return nil
	})
}

// Subscribe registers fn to receive every new snapshot. fn runs
// synchronously inside Update and must not call Update itself. The
// returned function cancels the subscription.
func (s *Store) Subscribe(fn func(*Snapshot)) (cancel func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, key)
	}
}

func (s *Store) publish(snap *Snapshot) {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	s.subsMu.Lock()
	subs := make([]func(*Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// MemoryRepository keeps the document in process memory.
type MemoryRepository struct {
	mu      sync.Mutex
	doc     []byte
	version int64
}

// NewMemoryRepository creates a repository holding doc at version 1, or an
// empty repository when doc is nil.
func NewMemoryRepository(doc []byte) *MemoryRepository {
	r := &MemoryRepository{}
	if doc != nil {
		r.doc = append([]byte(nil), doc...)
		r.version = 1
	}
	return r
}

// Load implements Repository.
func (r *MemoryRepository) Load(context.Context) ([]byte, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.doc...), r.version, nil
}

// Save implements Repository.
func (r *MemoryRepository) Save(_ context.Context, doc []byte) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = append([]byte(nil), doc...)
	r.version++
	return r.version, nil
}
