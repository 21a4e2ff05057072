// Package reports implements user-defined custom reports: the field schema per
// data source, the sub-source filter catalog, the report builder wizard, the
// evaluator (filter, group, aggregate, sort, limit) and the print payload.
package reports

import (
	"slices"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
)

// DataSource is one of the reportable entity streams.
type DataSource string

const (
	SourceSales            DataSource = "sales"
	SourcePurchases        DataSource = "purchases"
	SourceProducts         DataSource = "products"
	SourceMovements        DataSource = "movements"
	SourcePurchaseRequests DataSource = "purchase_requests"
	SourceUsers            DataSource = "users"
)

// Sources lists every data source in display order.
var Sources = []DataSource{
	SourceSales,
	SourcePurchases,
	SourceProducts,
	SourceMovements,
	SourcePurchaseRequests,
	SourceUsers,
}

// IsValid reports whether s is a known data source.
func (s DataSource) IsValid() bool {
	return slices.Contains(Sources, s)
}

// ValueType drives formatting of a column.
type ValueType string

const (
	TypeText     ValueType = "text"
	TypeNumber   ValueType = "number"
	TypeCurrency ValueType = "currency"
	TypeDate     ValueType = "date"
)

// IsValid reports whether t is a known value type.
func (t ValueType) IsValid() bool {
	switch t {
	case TypeText, TypeNumber, TypeCurrency, TypeDate:
		return true
	}
	return false
}

// Aggregation is the reducer applied to a column across grouped rows.
type Aggregation string

const (
	AggNone  Aggregation = "none"
	AggSum   Aggregation = "sum"
	AggCount Aggregation = "count"
	AggAvg   Aggregation = "avg"
)

// IsValid reports whether a is a known aggregation. Empty means none.
func (a Aggregation) IsValid() bool {
	switch a {
	case "", AggNone, AggSum, AggCount, AggAvg:
		return true
	}
	return false
}

// IsAggregate reports whether the column is reduced rather than grouped on.
func (a Aggregation) IsAggregate() bool {
	return a == AggSum || a == AggCount || a == AggAvg
}

// SortDirection orders evaluated rows.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// DefaultSubSource selects every row of a source.
const DefaultSubSource = "all"

// Row is a flattened source record: JSON-shaped values keyed by field name.
type Row = map[string]any

// ReportColumn is one selected field of a report.
// ID is unique within a report even when Key repeats.
type ReportColumn struct {
	ID          string      `json:"id"`
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Type        ValueType   `json:"type"`
	Aggregation Aggregation `json:"aggregation"`
}

// CustomReportConfig is a saved report definition. Values are never mutated
// after creation; they are replaced or deleted as a whole.
type CustomReportConfig struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	DataSource       DataSource     `json:"dataSource"`
	SubSource        string         `json:"subSource"`
	Columns          []ReportColumn `json:"columns"`
	CreatedAt        time.Time      `json:"createdAt"`
	EnableDateFilter bool           `json:"enableDateFilter"`
	DateColumn       string         `json:"dateColumn,omitempty"`
	CustomLogoLeft   string         `json:"customLogoLeft,omitempty"`
	CustomLogoRight  string         `json:"customLogoRight,omitempty"`
	SortBy           string         `json:"sortBy,omitempty"`
	SortDirection    SortDirection  `json:"sortDirection,omitempty"`
	Limit            int            `json:"limit,omitempty"`
}

// Clone returns a deep copy.
func (c CustomReportConfig) Clone() CustomReportConfig {
	c.Columns = slices.Clone(c.Columns)
	return c
}

// EffectiveSubSource returns SubSource or "all" when unset.
func (c *CustomReportConfig) EffectiveSubSource() string {
	if c.SubSource == "" {
		return DefaultSubSource
	}
	return c.SubSource
}

// IsDescending reports whether rows sort in descending order.
func (c *CustomReportConfig) IsDescending() bool {
	return c.SortDirection == SortDesc
}

// Validate checks the definition is complete and consistent.
func (c *CustomReportConfig) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return apperror.NewValidation("report title is required").WithDetail("field", "title")
	}
	if !c.DataSource.IsValid() {
		return apperror.NewValidation("unknown data source").WithDetail("dataSource", c.DataSource)
	}
	if len(c.Columns) == 0 {
		return apperror.NewValidation("at least one column is required").WithDetail("field", "columns")
	}

	seen := make(map[string]struct{}, len(c.Columns))
	for _, col := range c.Columns {
		if col.ID == "" {
			return apperror.NewValidation("column id is required").WithDetail("key", col.Key)
		}
		if _, dup := seen[col.ID]; dup {
			return apperror.NewValidation("duplicate column id").WithDetail("id", col.ID)
		}
		seen[col.ID] = struct{}{}

		if _, err := ParsePath(col.Key); err != nil {
			return apperror.NewValidation("invalid column key").WithDetail("key", col.Key)
		}
		if !col.Type.IsValid() {
			return apperror.NewValidation("invalid column type").WithDetail("type", col.Type)
		}
		if !col.Aggregation.IsValid() {
			return apperror.NewValidation("invalid aggregation").WithDetail("aggregation", col.Aggregation)
		}
	}

	switch c.SortDirection {
	case "", SortAsc, SortDesc:
	default:
		return apperror.NewValidation("sortDirection must be asc or desc").WithDetail("sortDirection", c.SortDirection)
	}
	if c.Limit < 0 {
		return apperror.NewValidation("limit cannot be negative").WithDetail("field", "limit")
	}
	if c.SortBy != "" {
		if _, err := ParsePath(c.SortBy); err != nil {
			return apperror.NewValidation("invalid sort field").WithDetail("sortBy", c.SortBy)
		}
	}
	if c.EnableDateFilter && c.DateColumn == "" {
		return apperror.NewValidation("date column is required when date filter is enabled").
			WithDetail("field", "dateColumn")
	}
	return nil
}
