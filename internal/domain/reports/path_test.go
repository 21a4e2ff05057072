package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRawValue_IndexedPath(t *testing.T) {
	row := Row{"items": []any{map[string]any{"quantity": 5}}}

	v, ok := GetRawValue(row, "items[0].quantity")
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestGetRawValue_EmptyArrayIsUndefined(t *testing.T) {
	row := Row{"items": []any{}}

	assert.NotPanics(t, func() {
		v, ok := GetRawValue(row, "items[0].quantity")
		assert.False(t, ok)
		assert.Nil(t, v)
	})
}

func TestGetRawValue_Forms(t *testing.T) {
	row := Row{
		"name":     "Cola",
		"customer": map[string]any{"address": map[string]any{"city": "Cairo"}},
		"items": []map[string]any{
			{"name": "first"},
			{"name": "second"},
		},
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"name", "Cola", true},
		{"customer.address.city", "Cairo", true},
		{"items[1].name", "second", true},
		{"items[2].name", nil, false},
		{"missing", nil, false},
		{"name.length", nil, false},
		{"customer.address.zip", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, ok := GetRawValue(row, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestParsePath_RejectsUnsupportedForms(t *testing.T) {
	for _, raw := range []string{
		"",
		"a..b",
		".a",
		"a.",
		"items[]",
		"items[-1]",
		"items[x]",
		"items[0][1]",
		"[0]",
		"items[0",
		"items]0[",
		"items['a']",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParsePath(raw)
			assert.ErrorIs(t, err, ErrUnsupportedPath)

			v, ok := GetRawValue(Row{"items": []any{1}}, raw)
			assert.False(t, ok)
			assert.Nil(t, v)
		})
	}
}

func TestCompilePath(t *testing.T) {
	p := CompilePath("a[3].b")
	assert.Equal(t, "a[3].b", p.String())

	bad := CompilePath("a..b")
	assert.Equal(t, "a..b", bad.String())
	v, ok := bad.Resolve(Row{"a": map[string]any{"b": 1.0}})
	assert.False(t, ok)
	assert.Nil(t, v)
}
