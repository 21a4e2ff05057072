package reports

import (
	"fmt"
	"strconv"

	"github.com/google/cel-go/cel"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/i18n"
	"stockroom/internal/domain/inventory"
)

// SubSource is a named predefined filter narrowing a data source.
// ItemLevel sub-sources explode every matching parent row into one row per
// line item.
type SubSource struct {
	ID        string
	ItemLevel bool
	Expr      string

	program cel.Program
}

// Match evaluates the predicate. A sub-source without predicate matches
// everything; evaluation errors (missing or mistyped fields) do not match.
func (s *SubSource) Match(row Row) bool {
	if s.program == nil {
		return true
	}
	out, _, err := s.program.Eval(map[string]any{"row": row})
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

// SubSourceInfo describes a sub-source for selection lists.
type SubSourceInfo struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	ItemLevel bool   `json:"itemLevel"`
}

type subSourceDef struct {
	id        string
	expr      string
	itemLevel bool
}

var (
	negativeTotal    = `has(row.total) && row.total < 0.0`
	nonNegativeTotal = `has(row.total) && row.total >= 0.0`
	lowStock         = `has(row.stock) && row.stock > 0.0 && row.stock <= ` +
		`(has(row.minStock) && row.minStock > 0.0 ? row.minStock : ` +
		strconv.Itoa(inventory.DefaultMinStock) + `.0)`
)

func fieldEquals(field, value string) string {
	return fmt.Sprintf(`has(row.%s) && row.%s == %q`, field, field, value)
}

var subSourceDefs = map[DataSource][]subSourceDef{
	SourceSales: {
		{id: DefaultSubSource},
		{id: "sales_only", expr: nonNegativeTotal},
		{id: "returns", expr: negativeTotal},
		{id: "items", itemLevel: true},
		{id: "return_items", expr: negativeTotal, itemLevel: true},
		{id: "cash", expr: fieldEquals("paymentMethod", "cash")},
		{id: "credit", expr: fieldEquals("paymentMethod", "credit")},
	},
	SourcePurchases: {
		{id: DefaultSubSource},
		{id: "purchases_only", expr: nonNegativeTotal},
		{id: "returns", expr: negativeTotal},
		{id: "items", itemLevel: true},
	},
	SourceProducts: {
		{id: DefaultSubSource},
		{id: "low_stock", expr: lowStock},
		{id: "out_of_stock", expr: `has(row.stock) && row.stock <= 0.0`},
		{id: "in_stock", expr: `has(row.stock) && row.stock > 0.0`},
	},
	SourceMovements: {
		{id: DefaultSubSource},
		{id: "in", expr: fieldEquals("type", string(inventory.MovementIn))},
		{id: "out", expr: fieldEquals("type", string(inventory.MovementOut))},
		{id: "adjustment", expr: fieldEquals("type", string(inventory.MovementAdjustment))},
	},
	SourcePurchaseRequests: {
		{id: DefaultSubSource},
		{id: "pending", expr: fieldEquals("status", string(inventory.RequestPending))},
		{id: "approved", expr: fieldEquals("status", string(inventory.RequestApproved))},
		{id: "rejected", expr: fieldEquals("status", string(inventory.RequestRejected))},
		{id: "ordered", expr: fieldEquals("status", string(inventory.RequestOrdered))},
	},
	SourceUsers: {
		{id: DefaultSubSource},
		{id: "active", expr: `has(row.isActive) && row.isActive == true`},
		{id: "inactive", expr: `!has(row.isActive) || row.isActive == false`},
	},
}

// SubSourceCatalog holds the compiled sub-source predicates of every source.
type SubSourceCatalog struct {
	bySource map[DataSource][]*SubSource
}

// NewSubSourceCatalog compiles every predicate once.
func NewSubSourceCatalog() (*SubSourceCatalog, error) {
	env, err := cel.NewEnv(cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	catalog := &SubSourceCatalog{bySource: make(map[DataSource][]*SubSource, len(subSourceDefs))}
	for source, defs := range subSourceDefs {
		for _, d := range defs {
			ss := &SubSource{ID: d.id, ItemLevel: d.itemLevel, Expr: d.expr}
			if d.expr != "" {
				ast, iss := env.Compile(d.expr)
				if iss != nil && iss.Err() != nil {
					return nil, fmt.Errorf("compile sub-source %s/%s: %w", source, d.id, iss.Err())
				}
				prg, err := env.Program(ast)
				if err != nil {
					return nil, fmt.Errorf("program sub-source %s/%s: %w", source, d.id, err)
				}
				ss.program = prg
			}
			catalog.bySource[source] = append(catalog.bySource[source], ss)
		}
	}
	return catalog, nil
}

// MustSubSourceCatalog is NewSubSourceCatalog for wiring code and tests.
func MustSubSourceCatalog() *SubSourceCatalog {
	c, err := NewSubSourceCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the sub-source id of source. Empty id means "all".
func (c *SubSourceCatalog) Lookup(source DataSource, subSourceID string) (*SubSource, error) {
	if subSourceID == "" {
		subSourceID = DefaultSubSource
	}
	for _, ss := range c.bySource[source] {
		if ss.ID == subSourceID {
			return ss, nil
		}
	}
	return nil, apperror.NewValidation("unknown sub-source").
		WithDetail("dataSource", source).
		WithDetail("subSource", subSourceID)
}

// List returns the sub-sources of source with localized labels.
func (c *SubSourceCatalog) List(source DataSource, translate i18n.Translator) []SubSourceInfo {
	subs := c.bySource[source]
	out := make([]SubSourceInfo, 0, len(subs))
	for _, ss := range subs {
		label := ss.ID
		if translate != nil {
			if l, ok := translate("subsource." + ss.ID); ok {
				label = l
			}
		}
		out = append(out, SubSourceInfo{ID: ss.ID, Label: label, ItemLevel: ss.ItemLevel})
	}
	return out
}
