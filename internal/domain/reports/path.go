package reports

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnsupportedPath is returned by ParsePath for keys outside the grammar
//
//	path    = segment { "." segment }
//	segment = name [ "[" index "]" ]
var ErrUnsupportedPath = errors.New("unsupported field path")

type pathSegment struct {
	name     string
	index    int
	hasIndex bool
}

// Path is a parsed field accessor. The zero value resolves nothing.
type Path struct {
	raw      string
	segments []pathSegment
}

// ParsePath parses a plain key, a dotted path or an indexed path such as
// "items[0].quantity".
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, ErrUnsupportedPath
	}

	parts := strings.Split(raw, ".")
	segments := make([]pathSegment, 0, len(parts))
	for _, part := range parts {
		seg, ok := parseSegment(part)
		if !ok {
			return Path{}, ErrUnsupportedPath
		}
		segments = append(segments, seg)
	}
	return Path{raw: raw, segments: segments}, nil
}

func parseSegment(part string) (pathSegment, bool) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if part == "" || strings.ContainsAny(part, "]") {
			return pathSegment{}, false
		}
		return pathSegment{name: part}, true
	}

	name := part[:open]
	rest := part[open+1:]
	if name == "" || strings.ContainsAny(name, "]") || !strings.HasSuffix(rest, "]") {
		return pathSegment{}, false
	}
	digits := strings.TrimSuffix(rest, "]")
	if digits == "" || strings.ContainsAny(digits, "[]") {
		return pathSegment{}, false
	}
	idx, err := strconv.Atoi(digits)
	if err != nil || idx < 0 || digits[0] == '+' {
		return pathSegment{}, false
	}
	return pathSegment{name: name, index: idx, hasIndex: true}, true
}

// String returns the source text of the path.
func (p Path) String() string {
	return p.raw
}

// Resolve walks v along the path. ok is false when any step is missing,
// out of range, or not a container.
func (p Path) Resolve(v any) (any, bool) {
	if len(p.segments) == 0 {
		return nil, false
	}
	cur := v
	for _, seg := range p.segments {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, false
		}
		next, found := m[seg.name]
		if !found {
			return nil, false
		}
		if seg.hasIndex {
			next, found = indexValue(next, seg.index)
			if !found {
				return nil, false
			}
		}
		cur = next
	}
	return cur, true
}

func indexValue(v any, i int) (any, bool) {
	switch s := v.(type) {
	case []any:
		if i < len(s) {
			return s[i], true
		}
	case []map[string]any:
		if i < len(s) {
			return s[i], true
		}
	}
	return nil, false
}

// CompilePath parses raw for use in a single evaluation. Unsupported paths
// compile to the zero Path, which never resolves.
func CompilePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		return Path{raw: raw}
	}
	return p
}

// GetRawValue resolves a field path against a row. Missing values and
// unsupported paths return nil, false.
func GetRawValue(row Row, path string) (any, bool) {
	return CompilePath(path).Resolve(row)
}
