package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/i18n"
	"stockroom/pkg/logger"
)

// SavedReport is a stored definition with the screen it is placed on.
type SavedReport struct {
	CustomReportConfig
	Placement string `json:"placement,omitempty"`
}

// DefinitionStore owns saved report definitions. It is backed by the
// application settings.
type DefinitionStore interface {
	ReportSaver
	CustomReports(ctx context.Context) ([]SavedReport, error)
	DeleteCustomReport(ctx context.Context, reportID string) error
	PrintSettings(ctx context.Context) (PrintSettings, error)
}

// DataReader loads the current dataset of a source.
type DataReader interface {
	Load(ctx context.Context, source DataSource) (*Snapshot, error)
}

// SourceInfo describes a data source for selection lists.
type SourceInfo struct {
	ID    DataSource `json:"id"`
	Label string     `json:"label"`
}

// Service runs saved and draft reports.
type Service struct {
	store     DefinitionStore
	data      DataReader
	catalog   *SubSourceCatalog
	evaluator *Evaluator
	bundle    *i18n.Bundle
	printer   Printer
	loc       *time.Location
}

// NewService creates the reports service.
func NewService(
	store DefinitionStore,
	data DataReader,
	catalog *SubSourceCatalog,
	bundle *i18n.Bundle,
	printer Printer,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:     store,
		data:      data,
		catalog:   catalog,
		evaluator: NewEvaluator(catalog, loc),
		bundle:    bundle,
		printer:   printer,
		loc:       loc,
	}
}

// Location is the timezone dates are filtered and rendered in.
func (s *Service) Location() *time.Location { return s.loc }

// NewBuilder starts a new report draft.
func (s *Service) NewBuilder() *Builder {
	return NewBuilder(s.catalog)
}

// --- Schema ---

// Sources lists the data sources with localized labels.
func (s *Service) Sources(locale string) []SourceInfo {
	out := make([]SourceInfo, 0, len(Sources))
	for _, src := range Sources {
		out = append(out, SourceInfo{ID: src, Label: s.bundle.T(locale, "source."+string(src))})
	}
	return out
}

// Fields lists the selectable fields of source.
func (s *Service) Fields(source DataSource, locale string) ([]Field, error) {
	if !source.IsValid() {
		return nil, apperror.NewValidation("unknown data source").WithDetail("dataSource", source)
	}
	return FieldsFor(source, s.bundle.Translator(locale)), nil
}

// SubSources lists the predefined filters of source.
func (s *Service) SubSources(source DataSource, locale string) ([]SubSourceInfo, error) {
	if !source.IsValid() {
		return nil, apperror.NewValidation("unknown data source").WithDetail("dataSource", source)
	}
	return s.catalog.List(source, s.bundle.Translator(locale)), nil
}

// --- Definitions ---

// ListReports returns every saved report.
func (s *Service) ListReports(ctx context.Context) ([]SavedReport, error) {
	return s.store.CustomReports(ctx)
}

// GetReport returns one saved report.
func (s *Service) GetReport(ctx context.Context, reportID string) (SavedReport, error) {
	reports, err := s.store.CustomReports(ctx)
	if err != nil {
		return SavedReport{}, err
	}
	for _, r := range reports {
		if r.ID == reportID {
			return r, nil
		}
	}
	return SavedReport{}, apperror.NewNotFound("report", reportID)
}

// DeleteReport removes a saved report.
func (s *Service) DeleteReport(ctx context.Context, reportID string) error {
	if _, err := s.GetReport(ctx, reportID); err != nil {
		return err
	}
	if err := s.store.DeleteCustomReport(ctx, reportID); err != nil {
		return err
	}
	logger.Info(ctx, "custom report deleted", "report_id", reportID)
	return nil
}

// --- Evaluation ---

// Run evaluates a saved report.
func (s *Service) Run(ctx context.Context, reportID string, filters RuntimeFilters) (SavedReport, *Result, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return SavedReport{}, nil, err
	}
	res, err := s.RunConfig(ctx, report.CustomReportConfig, filters)
	if err != nil {
		return SavedReport{}, nil, err
	}
	return report, res, nil
}

// RunConfig evaluates a definition that need not be saved, such as a draft preview.
func (s *Service) RunConfig(ctx context.Context, cfg CustomReportConfig, filters RuntimeFilters) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := s.data.Load(ctx, cfg.DataSource)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.DataSource, err)
	}

	res, err := s.evaluator.Evaluate(ctx, cfg, snapshot.Rows(cfg.DataSource), filters)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "report evaluated",
		"report_id", cfg.ID,
		"source", cfg.DataSource,
		"sub_source", cfg.EffectiveSubSource(),
		"matched", res.Matched,
		"rows", len(res.Rows),
	)
	return res, nil
}

// PrintPayload evaluates a saved report and builds its print payload.
func (s *Service) PrintPayload(ctx context.Context, reportID string, filters RuntimeFilters, locale string) (PrintPayload, error) {
	report, res, err := s.Run(ctx, reportID, filters)
	if err != nil {
		return PrintPayload{}, err
	}

	settings, err := s.store.PrintSettings(ctx)
	if err != nil {
		return PrintPayload{}, err
	}
	locale = s.bundle.Normalize(locale)
	settings.Locale = locale
	settings.Direction = s.bundle.Direction(locale)

	return BuildPrintPayload(report.CustomReportConfig, res, PrintOptions{
		TotalLabel: s.bundle.T(locale, "report.total"),
		Location:   s.loc,
		Settings:   settings,
	}), nil
}

// Print renders a saved report into w.
func (s *Service) Print(ctx context.Context, reportID string, filters RuntimeFilters, locale string, w io.Writer) error {
	payload, err := s.PrintPayload(ctx, reportID, filters, locale)
	if err != nil {
		return err
	}
	if err := s.printer.RenderReport(w, payload); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
