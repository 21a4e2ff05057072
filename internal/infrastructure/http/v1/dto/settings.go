package dto

import (
	"stockroom/internal/domain/backup"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/settings"
)

// SettingsResponse is the settings document with its store version.
type SettingsResponse struct {
	Settings settings.Settings `json:"settings"`
	Version  int64             `json:"version"`
}

// ImportResponse reports a finished spreadsheet import.
type ImportResponse struct {
	inventory.ImportResult
}

// RestoreResponse reports a finished backup restore.
type RestoreResponse struct {
	Summary *backup.Summary `json:"summary"`
	// Reload tells clients to drop cached state and reload.
	Reload bool `json:"reload"`
}
