package reports

import (
	"strings"
	"time"

	"stockroom/internal/core/types"
)

// EmptyPlaceholder is rendered for missing values.
const EmptyPlaceholder = "-"

// DisplayDateLayout is the day/month/year layout of rendered dates.
const DisplayDateLayout = "02/01/2006"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	DisplayDateLayout,
}

// ParseDate reads a row value as a point in time. Layouts without a zone are
// interpreted in loc.
func ParseDate(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// FormatValue renders a cell for display. Values that do not parse as the
// column type are rendered as they are.
func FormatValue(v any, typ ValueType, loc *time.Location) string {
	if v == nil {
		return EmptyPlaceholder
	}
	if loc == nil {
		loc = time.UTC
	}

	switch typ {
	case TypeDate:
		if t, ok := ParseDate(v, loc); ok {
			return t.In(loc).Format(DisplayDateLayout)
		}
	case TypeNumber, TypeCurrency:
		if d, ok := types.ToDecimal(v); ok {
			return d.StringFixed(2)
		}
	}

	s := stringify(v)
	if s == "" {
		return EmptyPlaceholder
	}
	return s
}
