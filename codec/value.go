// Package codec implements the runtime that walks a validated schema
// document against a bitstream.Stream: the primitive, string/array,
// discriminated-union, back-reference, instance and computed-field layers,
// composed by a single Driver that performs whole-message encode/decode
// (spec §4 and §5).
//
// Decoded values are represented the way the teacher schema package
// represents them (decodeFields returning map[string]any, decodeRepeat
// returning []any) rather than as generated Go structs: BinSchema documents
// are loaded at runtime, so there is no static type to decode into.
package codec

import (
	"fmt"
	"strings"

	"github.com/serialexp/binschema-sub003/expr"
)

// Value is one decoded field's value. Composite types decode to
// map[string]any, arrays to []any, primitives to the closest native Go type
// (uint64/int64/float32/float64/string/bool/[]byte).
type Value = any

// scope adapts a decode-time value tree to expr.Scope so that conditional,
// count_expr and discriminator `when` expressions can resolve dotted field
// references against values already produced earlier in the same record
// (spec §4.3, invariant 3).
type scope struct {
	// frames holds one map[string]any per enclosing composite, innermost
	// last, mirroring how a recursive decode naturally nests scopes.
	frames []map[string]any
	root   map[string]any
}

func newScope(root map[string]any) *scope {
	return &scope{frames: []map[string]any{root}, root: root}
}

func (s *scope) push(frame map[string]any) *scope {
	frames := make([]map[string]any, len(s.frames)+1)
	copy(frames, s.frames)
	frames[len(frames)-1] = frame
	root := s.root
	if len(s.frames) == 1 && len(s.root) == 0 {
		// The first record pushed onto an empty starting scope is the
		// outermost record that `_root.` names resolve against.
		root = frame
	}
	return &scope{frames: frames, root: root}
}

// Lookup implements expr.Scope: it resolves a dotted identifier against the
// innermost frame first, then each enclosing frame, then the root record —
// the same precedence a nested Go closure would give a shadowed variable.
func (s *scope) Lookup(name string) (int64, bool) {
	if rest, ok := strings.CutPrefix(name, "_root."); ok {
		return lookupPath(s.root, strings.Split(rest, "."))
	}
	parts := strings.Split(name, ".")
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := lookupPath(s.frames[i], parts); ok {
			return v, true
		}
	}
	if v, ok := lookupPath(s.root, parts); ok {
		return v, true
	}
	return 0, false
}

func lookupPath(frame map[string]any, parts []string) (int64, bool) {
	if frame == nil {
		return 0, false
	}
	var cur any = frame
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0, false
		}
		cur, ok = m[p]
		if !ok {
			return 0, false
		}
	}
	return toInt64(cur)
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case uint64:
		return int64(t), true
	case int:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// evalExpr evaluates expression e against sc, converting a non-successful
// Result into a Go error annotated with the offending expression text.
func evalExpr(e string, sc *scope) (int64, error) {
	res := expr.Eval(e, sc)
	if !res.Success {
		return 0, fmt.Errorf("evaluating %q: %w", e, res.Err)
	}
	return res.Value, nil
}
