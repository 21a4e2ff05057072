package reports

import (
	"context"
	"encoding/base64"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
)

// Step is a state of the report builder wizard.
type Step int

const (
	StepBasicInfo Step = iota
	StepColumnSelection
	StepOptionsAndPlacement
)

func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "basic_info"
	case StepColumnSelection:
		return "column_selection"
	case StepOptionsAndPlacement:
		return "options_and_placement"
	}
	return "unknown"
}

// LogoSide selects the header logo slot.
type LogoSide string

const (
	LogoLeft  LogoSide = "left"
	LogoRight LogoSide = "right"
)

// MaxLogoBytes is the largest accepted logo upload.
const MaxLogoBytes = 500 * 1024

// ColumnField names an editable attribute of a selected column.
type ColumnField string

const (
	ColumnLabel       ColumnField = "label"
	ColumnType        ColumnField = "type"
	ColumnAggregation ColumnField = "aggregation"
)

// ReportSaver persists a finished definition together with the screen it
// should be shown on. Implementations return a STORAGE_QUOTA_EXCEEDED
// AppError when the store rejects the write for size.
type ReportSaver interface {
	SaveCustomReport(ctx context.Context, cfg CustomReportConfig, placement string) error
}

// Builder is the report definition wizard. It moves linearly through
// BasicInfo, ColumnSelection and OptionsAndPlacement. A Builder is not safe
// for concurrent use.
type Builder struct {
	id               string
	step             Step
	title            string
	source           DataSource
	subSource        string
	columns          []ReportColumn
	sortBy           string
	sortDirection    SortDirection
	limit            int
	enableDateFilter bool
	dateColumn       string
	logoLeft         string
	logoRight        string
	placement        string
	savedID          string
	updatedAt        time.Time

	catalog *SubSourceCatalog
}

// NewBuilder starts a draft on the sales source.
func NewBuilder(catalog *SubSourceCatalog) *Builder {
	return &Builder{
		id:            id.NewString(),
		step:          StepBasicInfo,
		source:        SourceSales,
		subSource:     DefaultSubSource,
		sortDirection: SortAsc,
		catalog:       catalog,
		updatedAt:     time.Now(),
	}
}

// ID identifies the draft.
func (b *Builder) ID() string { return b.id }

// Step returns the current wizard state.
func (b *Builder) Step() Step { return b.step }

// UpdatedAt is the time of the last change.
func (b *Builder) UpdatedAt() time.Time { return b.updatedAt }

func (b *Builder) touch() { b.updatedAt = time.Now() }

// --- Navigation ---

// Next advances one step if the current step is complete.
func (b *Builder) Next() error {
	switch b.step {
	case StepBasicInfo:
		if err := b.checkTitle(); err != nil {
			return err
		}
		b.step = StepColumnSelection
	case StepColumnSelection:
		if err := b.checkColumns(); err != nil {
			return err
		}
		b.step = StepOptionsAndPlacement
	default:
		return apperror.NewValidation("already on the last step")
	}
	b.touch()
	return nil
}

// Back returns to the previous step. It is a no-op on the first step.
func (b *Builder) Back() {
	if b.step > StepBasicInfo {
		b.step--
		b.touch()
	}
}

func (b *Builder) checkTitle() error {
	if strings.TrimSpace(b.title) == "" {
		return apperror.NewValidation("report title is required").WithDetail("field", "title")
	}
	return nil
}

func (b *Builder) checkColumns() error {
	if len(b.columns) == 0 {
		return apperror.NewValidation("select at least one column").WithDetail("field", "columns")
	}
	return nil
}

// --- Basic info ---

// SetTitle sets the report title.
func (b *Builder) SetTitle(title string) {
	b.title = strings.TrimSpace(title)
	b.touch()
}

// SetDataSource switches the source. A change resets the sub-source to "all"
// and drops the selected columns, the sort field and the date column, since
// they refer to the old source's fields.
func (b *Builder) SetDataSource(source DataSource) error {
	if !source.IsValid() {
		return apperror.NewValidation("unknown data source").WithDetail("dataSource", source)
	}
	if source == b.source {
		return nil
	}
	b.source = source
	b.subSource = DefaultSubSource
	b.columns = nil
	b.sortBy = ""
	b.dateColumn = ""
	b.enableDateFilter = false
	b.touch()
	return nil
}

// SetSubSource selects a predefined filter of the current source.
func (b *Builder) SetSubSource(subSource string) error {
	ss, err := b.catalog.Lookup(b.source, subSource)
	if err != nil {
		return err
	}
	b.subSource = ss.ID
	b.touch()
	return nil
}

// --- Columns ---

// AddColumn appends a column with a fresh id and no aggregation. The same key
// may be added any number of times. An empty label defaults to the key and an
// empty type to the schema type of the key.
func (b *Builder) AddColumn(key, label string, typ ValueType) (ReportColumn, error) {
	key = strings.TrimSpace(key)
	if _, err := ParsePath(key); err != nil {
		return ReportColumn{}, apperror.NewValidation("invalid field key").WithDetail("key", key)
	}
	if typ == "" {
		typ = TypeText
		if t, ok := FieldType(b.source, key); ok {
			typ = t
		}
	}
	if !typ.IsValid() {
		return ReportColumn{}, apperror.NewValidation("invalid column type").WithDetail("type", typ)
	}
	if strings.TrimSpace(label) == "" {
		label = key
	}

	col := ReportColumn{
		ID:          id.NewString(),
		Key:         key,
		Label:       label,
		Type:        typ,
		Aggregation: AggNone,
	}
	b.columns = append(b.columns, col)
	b.touch()
	return col, nil
}

// RemoveColumn deletes the column with id. Unknown ids are ignored.
func (b *Builder) RemoveColumn(columnID string) {
	before := len(b.columns)
	b.columns = slices.DeleteFunc(b.columns, func(c ReportColumn) bool { return c.ID == columnID })
	if len(b.columns) != before {
		b.touch()
	}
}

// UpdateColumn changes the label, type or aggregation of one column.
func (b *Builder) UpdateColumn(columnID string, field ColumnField, value string) error {
	i := slices.IndexFunc(b.columns, func(c ReportColumn) bool { return c.ID == columnID })
	if i < 0 {
		return apperror.NewNotFound("column", columnID)
	}

	col := &b.columns[i]
	switch field {
	case ColumnLabel:
		col.Label = value
	case ColumnType:
		t := ValueType(value)
		if !t.IsValid() {
			return apperror.NewValidation("invalid column type").WithDetail("type", value)
		}
		col.Type = t
	case ColumnAggregation:
		a := Aggregation(value)
		if !a.IsValid() {
			return apperror.NewValidation("invalid aggregation").WithDetail("aggregation", value)
		}
		if a == "" {
			a = AggNone
		}
		col.Aggregation = a
	default:
		return apperror.NewValidation("unknown column field").WithDetail("field", field)
	}
	b.touch()
	return nil
}

// MoveColumn moves the column with id to position to.
func (b *Builder) MoveColumn(columnID string, to int) error {
	i := slices.IndexFunc(b.columns, func(c ReportColumn) bool { return c.ID == columnID })
	if i < 0 {
		return apperror.NewNotFound("column", columnID)
	}
	if to < 0 || to >= len(b.columns) {
		return apperror.NewValidation("position out of range").WithDetail("position", to)
	}
	col := b.columns[i]
	b.columns = slices.Delete(b.columns, i, i+1)
	b.columns = slices.Insert(b.columns, to, col)
	b.touch()
	return nil
}

// --- Options ---

// SetSort sets the sort field (a column key, empty for none) and direction.
func (b *Builder) SetSort(sortBy string, dir SortDirection) error {
	if dir == "" {
		dir = SortAsc
	}
	if dir != SortAsc && dir != SortDesc {
		return apperror.NewValidation("sortDirection must be asc or desc").WithDetail("sortDirection", dir)
	}
	sortBy = strings.TrimSpace(sortBy)
	if sortBy != "" {
		if _, err := ParsePath(sortBy); err != nil {
			return apperror.NewValidation("invalid sort field").WithDetail("sortBy", sortBy)
		}
	}
	b.sortBy = sortBy
	b.sortDirection = dir
	b.touch()
	return nil
}

// SetLimit caps the number of rows. Zero means unbounded.
func (b *Builder) SetLimit(limit int) error {
	if limit < 0 {
		return apperror.NewValidation("limit cannot be negative").WithDetail("field", "limit")
	}
	b.limit = limit
	b.touch()
	return nil
}

// SetDateFilter toggles the runtime date filter on column.
func (b *Builder) SetDateFilter(enabled bool, column string) {
	b.enableDateFilter = enabled
	b.dateColumn = strings.TrimSpace(column)
	b.touch()
}

// SetPlacement sets the screen the report is shown on after saving.
func (b *Builder) SetPlacement(screen string) {
	b.placement = strings.TrimSpace(screen)
	b.touch()
}

// UploadLogo stores an image as an inline data URI. contentType may be empty,
// in which case it is sniffed from data.
func (b *Builder) UploadLogo(side LogoSide, data []byte, contentType string) error {
	if side != LogoLeft && side != LogoRight {
		return apperror.NewValidation("logo side must be left or right").WithDetail("side", side)
	}
	if len(data) > MaxLogoBytes {
		return apperror.NewPayloadTooLarge(int64(len(data)), MaxLogoBytes)
	}
	if len(data) == 0 {
		return apperror.NewValidation("logo file is empty")
	}

	mediaType := contentType
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = mt
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return apperror.NewValidation("logo must be an image").WithDetail("contentType", mediaType)
	}

	uri := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
	if side == LogoLeft {
		b.logoLeft = uri
	} else {
		b.logoRight = uri
	}
	b.touch()
	return nil
}

// ClearLogo removes the logo of side.
func (b *Builder) ClearLogo(side LogoSide) {
	switch side {
	case LogoLeft:
		b.logoLeft = ""
	case LogoRight:
		b.logoRight = ""
	}
	b.touch()
}

// --- Output ---

// Config assembles the current definition without validating it. The draft
// id is used as report id, which makes it suitable for previews.
func (b *Builder) Config() CustomReportConfig {
	return CustomReportConfig{
		ID:               b.id,
		Title:            b.title,
		DataSource:       b.source,
		SubSource:        b.subSource,
		Columns:          slices.Clone(b.columns),
		EnableDateFilter: b.enableDateFilter,
		DateColumn:       b.dateColumn,
		CustomLogoLeft:   b.logoLeft,
		CustomLogoRight:  b.logoRight,
		SortBy:           b.sortBy,
		SortDirection:    b.sortDirection,
		Limit:            b.limit,
	}
}

// Save validates the draft and hands an immutable definition to saver.
// A missing title moves the wizard back to BasicInfo and missing columns to
// ColumnSelection. placement overrides the draft placement when set.
func (b *Builder) Save(ctx context.Context, saver ReportSaver, placement string) (CustomReportConfig, error) {
	if err := b.checkTitle(); err != nil {
		b.step = StepBasicInfo
		return CustomReportConfig{}, err
	}
	if err := b.checkColumns(); err != nil {
		b.step = StepColumnSelection
		return CustomReportConfig{}, err
	}
	if b.enableDateFilter && b.dateColumn == "" {
		return CustomReportConfig{}, apperror.NewValidation("select the date column to filter on").
			WithDetail("field", "dateColumn")
	}
	if b.step != StepOptionsAndPlacement {
		return CustomReportConfig{}, apperror.NewValidation("report can only be saved from the last step")
	}

	cfg := b.Config()
	cfg.ID = id.NewString()
	cfg.CreatedAt = time.Now().UTC()
	if err := cfg.Validate(); err != nil {
		return CustomReportConfig{}, err
	}

	if placement == "" {
		placement = b.placement
	}
	if err := saver.SaveCustomReport(ctx, cfg, placement); err != nil {
		if apperror.IsAppError(err) {
			return CustomReportConfig{}, err
		}
		return CustomReportConfig{}, apperror.NewInternal(err)
	}

	b.savedID = cfg.ID
	b.placement = placement
	return cfg, nil
}

// SavedID is the id of the last saved definition, empty before the first save.
func (b *Builder) SavedID() string { return b.savedID }

// Draft is a read-only view of the builder state.
type Draft struct {
	ID               string         `json:"id"`
	Step             string         `json:"step"`
	Title            string         `json:"title"`
	DataSource       DataSource     `json:"dataSource"`
	SubSource        string         `json:"subSource"`
	Columns          []ReportColumn `json:"columns"`
	SortBy           string         `json:"sortBy,omitempty"`
	SortDirection    SortDirection  `json:"sortDirection"`
	Limit            int            `json:"limit"`
	EnableDateFilter bool           `json:"enableDateFilter"`
	DateColumn       string         `json:"dateColumn,omitempty"`
	HasLogoLeft      bool           `json:"hasLogoLeft"`
	HasLogoRight     bool           `json:"hasLogoRight"`
	Placement        string         `json:"placement,omitempty"`
	SavedID          string         `json:"savedId,omitempty"`
}

// View returns a snapshot of the draft.
func (b *Builder) View() Draft {
	return Draft{
		ID:               b.id,
		Step:             b.step.String(),
		Title:            b.title,
		DataSource:       b.source,
		SubSource:        b.subSource,
		Columns:          slices.Clone(b.columns),
		SortBy:           b.sortBy,
		SortDirection:    b.sortDirection,
		Limit:            b.limit,
		EnableDateFilter: b.enableDateFilter,
		DateColumn:       b.dateColumn,
		HasLogoLeft:      b.logoLeft != "",
		HasLogoRight:     b.logoRight != "",
		Placement:        b.placement,
		SavedID:          b.savedID,
	}
}
