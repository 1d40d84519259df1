// Package path implements the small selector language computed fields use
// to name another field's bytes, position or size (spec §4.9): a plain
// field name, a parent-scope escape (`parent.x` or `../x`), a root-scope
// anchor (`_root.x`), an array correlation selector
// (`sections[first<T>]`, `sections[corresponding<T>]`,
// `sections[same_index<T>]`), and dotted subfield continuations
// (`target.subfield`).
package path

import (
	"fmt"
	"strings"
)

// SegmentKind discriminates the closed set of path segment shapes.
type SegmentKind string

const (
	SegField SegmentKind = "field" // plain field name
	SegUp    SegmentKind = "up"    // "parent" or ".."  — one scope up
	SegRoot  SegmentKind = "root"  // "_root" — outermost record
	SegIndex SegmentKind = "index" // "arrayField[selector<Type>]"
)

// IndexKind is the correlation selector used inside an index segment.
type IndexKind string

const (
	IndexFirst         IndexKind = "first"
	IndexCorresponding IndexKind = "corresponding"
	IndexSameIndex     IndexKind = "same_index" // alias of corresponding
)

// Segment is one step of a resolved Path.
type Segment struct {
	Kind SegmentKind

	Name string // SegField: the field name

	ArrayField  string    // SegIndex: the array's field name ("sections")
	IndexKind   IndexKind // SegIndex: first | corresponding | same_index
	ElementType string    // SegIndex: the "<T>" type name
}

// Path is a parsed target selector: a left-to-right walk of scope escapes,
// field accesses and array correlation lookups.
type Path []Segment

// String renders a Path back to a textual form.
func (p Path) String() string {
	var parts []string
	for _, s := range p {
		switch s.Kind {
		case SegUp:
			parts = append(parts, "..")
		case SegRoot:
			parts = append(parts, "_root")
		case SegField:
			parts = append(parts, s.Name)
		case SegIndex:
			parts = append(parts, fmt.Sprintf("%s[%s<%s>]", s.ArrayField, s.IndexKind, s.ElementType))
		}
	}
	return strings.Join(parts, ".")
}

var indexKindAliases = map[string]IndexKind{
	"first":         IndexFirst,
	"corresponding": IndexCorresponding,
	"same_index":    IndexSameIndex,
}

// Parse compiles a target path string into a Path.
func Parse(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}

	var segs Path
	for len(s) > 0 {
		if strings.HasPrefix(s, "../") {
			segs = append(segs, Segment{Kind: SegUp})
			s = s[3:]
			continue
		}
		if s == ".." {
			segs = append(segs, Segment{Kind: SegUp})
			s = ""
			continue
		}

		token, rest := splitNextToken(s)
		s = rest

		switch {
		case token == "_root":
			segs = append(segs, Segment{Kind: SegRoot})
		case token == "parent":
			segs = append(segs, Segment{Kind: SegUp})
		case strings.Contains(token, "["):
			seg, err := parseIndexToken(token)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
		default:
			if token == "" {
				return nil, fmt.Errorf("empty path segment in %q", s)
			}
			segs = append(segs, Segment{Kind: SegField, Name: token})
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("path %q resolved to no segments", s)
	}
	return segs, nil
}

// splitNextToken splits s at the first top-level '.' — one that is not
// inside a '[...]' bracket pair — and returns (token, rest-without-dot).
func splitNextToken(s string) (string, string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

func parseIndexToken(token string) (Segment, error) {
	open := strings.IndexByte(token, '[')
	close := strings.LastIndexByte(token, ']')
	if open < 0 || close < 0 || close < open {
		return Segment{}, fmt.Errorf("malformed index selector %q", token)
	}
	arrayField := token[:open]
	inner := token[open+1 : close]
	lt := strings.IndexByte(inner, '<')
	gt := strings.LastIndexByte(inner, '>')
	if lt < 0 || gt < 0 || gt < lt {
		return Segment{}, fmt.Errorf("malformed correlation selector %q", inner)
	}
	kindName := inner[:lt]
	elemType := inner[lt+1 : gt]
	kind, ok := indexKindAliases[kindName]
	if !ok {
		return Segment{}, fmt.Errorf("unknown correlation selector %q", kindName)
	}
	if arrayField == "" || elemType == "" {
		return Segment{}, fmt.Errorf("malformed index selector %q", token)
	}
	return Segment{Kind: SegIndex, ArrayField: arrayField, IndexKind: kind, ElementType: elemType}, nil
}
