package schema

import (
	"fmt"
	"strings"

	"github.com/serialexp/binschema-sub003/expr"
	"github.com/serialexp/binschema-sub003/path"
)

// ReservedIteratorSubstring is the substring the generator reserves for its
// own internal iteration variables across target languages (spec §3
// invariant 1, §9 "Reserved names").
const ReservedIteratorSubstring = "__iter"

// Diagnostic is one precise validation failure: a type path, an optional
// field path, and an English message (spec §4.2).
type Diagnostic struct {
	TypePath  string
	FieldPath string
	Message   string
}

func (d Diagnostic) String() string {
	if d.FieldPath == "" {
		return fmt.Sprintf("%s: %s", d.TypePath, d.Message)
	}
	return fmt.Sprintf("%s.%s: %s", d.TypePath, d.FieldPath, d.Message)
}

// Validated is a Document that has passed Validate and is safe to hand to
// the codec/driver packages. Schemas are immutable once validated (spec §3
// "Lifecycle").
type Validated struct {
	Doc *Document
}

// Validate checks the invariants of spec §3 and returns either a Validated
// handle or the full list of diagnostics found (validation does not stop at
// the first error, so every ill-formed part of a schema is reported in one
// pass).
func Validate(doc *Document) (*Validated, []Diagnostic) {
	v := &validator{doc: doc}
	v.run()
	if len(v.diags) > 0 {
		return nil, v.diags
	}
	return &Validated{Doc: doc}, nil
}

type validator struct {
	doc   *Document
	diags []Diagnostic
}

func (v *validator) fail(typePath, fieldPath, format string, args ...any) {
	v.diags = append(v.diags, Diagnostic{TypePath: typePath, FieldPath: fieldPath, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) run() {
	for _, name := range v.doc.TypeOrder {
		def := v.doc.Types[name]
		switch def.Kind {
		case DefComposite:
			v.validateComposite(def)
		case DefAlias:
			v.validateAlias(def)
		case DefUnion:
			v.validateUnion(def)
		default:
			v.fail(name, "", "type has no recognizable definition (sequence, alias or discriminator)")
		}
	}
}

func (v *validator) validateAlias(def *TypeDef) {
	if def.AliasOf == nil {
		v.fail(def.Name, "", "alias type has no wrapped field definition")
		return
	}
	v.validateField(def.Name, *def.AliasOf, nil)
}

func (v *validator) validateUnion(def *TypeDef) {
	switch def.Discriminator.Kind {
	case DiscriminatorField:
		if def.Discriminator.Field == "" {
			v.fail(def.Name, "", "field-discriminated union requires a field name")
		}
	case DiscriminatorPeek:
		if def.Discriminator.PeekType == "" {
			v.fail(def.Name, "", "peek-discriminated union requires peek_type")
		}
	default:
		v.fail(def.Name, "", "union discriminator must be \"field\" or \"peek\"")
	}
	if len(def.Variants) == 0 {
		v.fail(def.Name, "", "discriminated union has no variants")
	}
	for i, variant := range def.Variants {
		if variant.Type == "" {
			v.fail(def.Name, fmt.Sprintf("variants[%d]", i), "variant has no type")
			continue
		}
		if v.doc.Lookup(variant.Type) == nil && !FieldType(variant.Type).IsPrimitive() {
			v.fail(def.Name, fmt.Sprintf("variants[%d]", i), "variant type %q is not defined", variant.Type)
		}
		if variant.When != "" {
			if _, err := parseExprForValidation(variant.When); err != nil {
				v.fail(def.Name, fmt.Sprintf("variants[%d].when", i), "invalid expression: %v", err)
			}
		}
	}
}

func (v *validator) validateComposite(def *TypeDef) {
	seen := make(map[string]int) // name -> index, for invariant 3's ordering check
	for i, f := range def.Sequence {
		v.checkReservedAndUnique(def.Name, f.Name, seen, i)
		v.validateField(def.Name, f, seen)
	}
	for _, inst := range def.Instances {
		v.checkReservedName(def.Name, inst.Name)
		if inst.Position == "" {
			v.fail(def.Name, "instances."+inst.Name, "instance has no position")
		}
		v.validateField(def.Name, inst.Type, seen)
	}
	v.checkRecursion(def, map[string]bool{def.Name: true})
}

func (v *validator) checkReservedAndUnique(typeName, name string, seen map[string]int, idx int) {
	v.checkReservedName(typeName, name)
	if _, dup := seen[name]; dup {
		v.fail(typeName, name, "duplicate field name in sequence")
	}
	seen[name] = idx
}

func (v *validator) checkReservedName(typeName, name string) {
	if strings.Contains(name, ReservedIteratorSubstring) {
		v.fail(typeName, name, "field name contains reserved substring %q", ReservedIteratorSubstring)
	}
}

func (v *validator) validateField(typeName string, f Field, priorFields map[string]int) {
	if f.HasConst && f.Computed != nil {
		v.fail(typeName, f.Name, "field has both const and computed (mutually exclusive, spec invariant 4)")
	}

	if f.Conditional != "" {
		if _, err := parseExprForValidation(f.Conditional); err != nil {
			v.fail(typeName, f.Name, "invalid conditional expression: %v", err)
		}
	}

	switch f.Type {
	case TypeRef:
		if v.doc.Lookup(f.RefType) == nil {
			v.fail(typeName, f.Name, "references undefined type %q", f.RefType)
		}
	case TypeBitfield:
		total := 0
		for _, slice := range f.BitfieldFields {
			total += slice.Size
		}
		if total > f.BitfieldSize {
			v.fail(typeName, f.Name, "bitfield slices sum to %d bits, exceeding declared size %d", total, f.BitfieldSize)
		}
	case TypeArray:
		v.validateArray(typeName, f, priorFields)
	case TypeOptional:
		if f.ValueType == nil {
			v.fail(typeName, f.Name, "optional field has no value_type")
		} else {
			v.validateField(typeName, *f.ValueType, priorFields)
		}
	case TypePadding:
		if f.AlignTo < 2 {
			v.fail(typeName, f.Name, "padding align_to must be >= 2")
		}
	case TypeBackReference:
		if v.doc.Lookup(f.TargetType) == nil {
			v.fail(typeName, f.Name, "back_reference target_type %q is not defined", f.TargetType)
		}
	case TypeVarlength:
		if f.VarlengthEncoding != VarlengthDER && f.VarlengthEncoding != VarlengthLEB128 {
			v.fail(typeName, f.Name, "varlength encoding must be \"der\" or \"leb128\"")
		}
	}

	if f.Computed != nil {
		if _, err := path.Parse(firstNonEmptyPath(f.Computed)); err != nil {
			v.fail(typeName, f.Name, "invalid computed target %q: %v", f.Computed.Target, err)
		}
	}
}

func firstNonEmptyPath(c *Computed) string {
	if c.Target != "" {
		return c.Target
	}
	if c.FromAfterField != "" {
		return c.FromAfterField
	}
	return "."
}

func (v *validator) validateArray(typeName string, f Field, priorFields map[string]int) {
	if f.Items == nil {
		v.fail(typeName, f.Name, "array field has no items definition")
		return
	}
	v.validateField(typeName, *f.Items, priorFields)

	switch f.ArrayKind {
	case ArrayFieldReferenced:
		if f.LengthField == "" {
			v.fail(typeName, f.Name, "field_referenced array has no length_field")
		} else if priorFields != nil && !strings.HasPrefix(f.LengthField, "_root.") {
			if _, ok := priorFields[f.LengthField]; !ok {
				v.fail(typeName, f.Name, "length_field %q must name a field earlier in the same sequence (spec invariant 3)", f.LengthField)
			}
		}
	case ArrayComputedCount:
		if f.CountExpr == "" {
			v.fail(typeName, f.Name, "computed_count array has no count_expr")
		} else if _, err := parseExprForValidation(f.CountExpr); err != nil {
			v.fail(typeName, f.Name, "invalid count_expr: %v", err)
		}
	case ArraySignatureTerminated:
		if f.TerminatorType == "" {
			v.fail(typeName, f.Name, "signature_terminated array has no terminator_type")
		}
	case ArrayNullTerminated, ArrayVariantTerminated:
		for _, tv := range f.TerminalVariants {
			if v.doc.Lookup(tv) == nil {
				v.fail(typeName, f.Name, "terminal_variants references undefined type %q", tv)
			}
		}
	case ArrayFixed, ArrayLengthPrefixed, ArrayLengthPrefixedItems, ArrayByteLengthPrefixed, ArrayEOFTerminated, ArrayGreedy:
		// no additional structural requirement beyond having items.
	default:
		v.fail(typeName, f.Name, "unknown array kind %q", f.ArrayKind)
	}
}

// checkRecursion rejects direct recursion through `sequence` (spec §3
// invariant 6 / §9): a type may not contain itself as a nested composite
// field without passing through a pointer (back_reference) or an instance
// boundary, both of which bound recursion depth by re-entering the stream
// rather than the call stack.
func (v *validator) checkRecursion(def *TypeDef, stack map[string]bool) {
	var walk func(name string, p []string)
	walk = func(name string, p []string) {
		target := v.doc.Lookup(name)
		if target == nil || target.Kind != DefComposite {
			return
		}
		for _, f := range target.Sequence {
			if f.Type == TypeBackReference {
				continue // pointer boundary breaks the cycle
			}
			if f.Type == TypeRef {
				if f.RefType == def.Name {
					v.fail(def.Name, "", "cyclic type reference through sequence: %s", strings.Join(append(p, f.RefType), " -> "))
					continue
				}
				if !stack[f.RefType] {
					stack[f.RefType] = true
					walk(f.RefType, append(p, f.RefType))
					delete(stack, f.RefType)
				}
			}
		}
		// Instance fields are resolved via a seek+fork, not call-stack
		// recursion, so they never need to be walked here.
	}
	walk(def.Name, []string{def.Name})
}

func parseExprForValidation(s string) (expr.Node, error) {
	return expr.Parse(s)
}
