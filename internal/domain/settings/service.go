package settings

import (
	"context"
	"slices"

	"stockroom/internal/core/apperror"
	"stockroom/internal/domain/reports"
	"stockroom/pkg/logger"
)

// Service exposes settings operations and stores report definitions for
// the report builder.
type Service struct {
	store *Store
}

var _ reports.DefinitionStore = (*Service)(nil)

// NewService creates a settings service over store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Store returns the underlying snapshot store.
func (s *Service) Store() *Store { return s.store }

// Get returns the current settings and their version.
func (s *Service) Get(context.Context) (Settings, int64) {
	snap := s.store.Current()
	return snap.Settings(), snap.Version
}

// Replace overwrites the editable settings. Saved reports and their
// placements are managed by the report builder and kept as they are.
func (s *Service) Replace(ctx context.Context, in Settings) (Settings, int64, error) {
	snap, err := s.store.Update(ctx, func(st *Settings) error {
		kept := st.CustomReports
		placements := st.ReportPlacements
		*st = in.Clone()
		st.CustomReports = kept
		st.ReportPlacements = placements
		return nil
	})
	if err != nil {
		return Settings{}, 0, err
	}
	return snap.Settings(), snap.Version, nil
}

// SaveCustomReport implements reports.ReportSaver.
func (s *Service) SaveCustomReport(ctx context.Context, cfg reports.CustomReportConfig, placement string) error {
	_, err := s.store.Update(ctx, func(st *Settings) error {
		if _, exists := st.Report(cfg.ID); exists {
			return apperror.NewDuplicate("report", "id", cfg.ID)
		}
		st.CustomReports = append(st.CustomReports, cfg.Clone())
		if placement != "" {
			st.ReportPlacements[cfg.ID] = placement
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "custom report saved",
		"report_id", cfg.ID,
		"source", cfg.DataSource,
		"placement", placement)
	return nil
}

// CustomReports implements reports.DefinitionStore.
func (s *Service) CustomReports(context.Context) ([]reports.SavedReport, error) {
	st := s.store.Current().Settings()
	out := make([]reports.SavedReport, 0, len(st.CustomReports))
	for _, cfg := range st.CustomReports {
		out = append(out, reports.SavedReport{
			CustomReportConfig: cfg,
			Placement:          st.ReportPlacements[cfg.ID],
		})
	}
	return out, nil
}

// DeleteCustomReport implements reports.DefinitionStore.
func (s *Service) DeleteCustomReport(ctx context.Context, reportID string) error {
	_, err := s.store.Update(ctx, func(st *Settings) error {
		n := len(st.CustomReports)
		st.CustomReports = slices.DeleteFunc(st.CustomReports, func(r reports.CustomReportConfig) bool {
			return r.ID == reportID
		})
		if len(st.CustomReports) == n {
			return apperror.NewNotFound("report", reportID)
		}
		delete(st.ReportPlacements, reportID)
		return nil
	})
	return err
}

// PrintSettings implements reports.DefinitionStore.
func (s *Service) PrintSettings(context.Context) (reports.PrintSettings, error) {
	company := s.store.Current().Settings().Company
	return reports.PrintSettings{
		CompanyName:    company.Name,
		CompanyPhone:   company.Phone,
		CompanyAddress: company.Address,
		Currency:       company.Currency,
		Locale:         company.Locale,
		LogoLeft:       company.Logo,
	}, nil
}
