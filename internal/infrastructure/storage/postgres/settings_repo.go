package postgres

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/domain/settings"
)

// SettingsChannel is the NOTIFY channel announcing a new settings version.
// The payload is the version number.
const SettingsChannel = "settings_changed"

// SettingsRepo stores the settings document in the single-row app_settings table.
type SettingsRepo struct {
	txm *TxManager
}

var _ settings.Repository = (*SettingsRepo)(nil)

// NewSettingsRepo creates the settings repository.
func NewSettingsRepo(txm *TxManager) *SettingsRepo {
	return &SettingsRepo{txm: txm}
}

type settingsRow struct {
	Data    []byte `db:"data"`
	Version int64  `db:"version"`
}

// Load returns the document and its version, or nil and 0 before the first save.
func (r *SettingsRepo) Load(ctx context.Context) ([]byte, int64, error) {
	var row settingsRow
	err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, `SELECT data, version FROM app_settings WHERE id = 1`)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("load settings: %w", err)
	}
	return row.Data, row.Version, nil
}

// Save writes doc, bumps the version and notifies other processes.
// Writes the database refuses for lack of space fail with STORAGE_QUOTA_EXCEEDED.
func (r *SettingsRepo) Save(ctx context.Context, doc []byte) (int64, error) {
	q := r.txm.GetQuerier(ctx)

	var version int64
	err := q.QueryRow(ctx, `
		INSERT INTO app_settings (id, data, version)
		VALUES (1, $1, 1)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, version = app_settings.version + 1, updated_at = now()
		RETURNING version
	`, doc).Scan(&version)
	if err != nil {
		return 0, MapError(fmt.Errorf("save settings: %w", err), "settings", int64(len(doc)))
	}

	if _, err := q.Exec(ctx, "SELECT pg_notify($1, $2)", SettingsChannel, fmt.Sprint(version)); err != nil {
		return 0, fmt.Errorf("notify settings change: %w", err)
	}
	return version, nil
}
