package codec

import (
	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
	"github.com/serialexp/binschema-sub003/schema"
)

// Driver orchestrates a type's sequence, conditional and optional fields,
// padding and const validation, dispatching each field's attribute group to
// the primitive, string/array, union, back-reference, instance and
// computed-field layers, which call back into the Driver for nested types
// (spec §2 "Driver", §4.9 control-flow paragraph).
type Driver struct {
	v *Validated
}

// NewDriver returns a Driver bound to a validated schema. Validate must be
// called before constructing one; an unvalidated document can reference
// undefined types and would panic deep in a recursive decode instead of
// failing cleanly up front.
func NewDriver(v *Validated) *Driver { return &Driver{v: v} }

func (d *Driver) doc() *schema.Document { return d.v.Doc }

// Decode reads one value of the named root type from data.
func (d *Driver) Decode(typeName string, data []byte) (map[string]any, error) {
	cfg := d.doc().Config
	s := bitstream.NewReader(data, cfg.Endianness, cfg.BitOrder)
	sc := newScope(map[string]any{})
	v, err := d.decodeType(s, typeName, typeName, sc)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, bserr.New(bserr.KindSchemaInvalid, typeName, "root type %q does not decode to a record", typeName)
	}
	return m, nil
}

// Encode writes one value of the named root type, running the
// measurement-then-real two-pass computed-field planner (spec §4.9) even
// when the type has no computed fields — the measurement pass degenerates
// to an ordinary encode in that case, and its discarded output costs
// nothing the caller can observe.
func (d *Driver) Encode(typeName string, value map[string]any) ([]byte, error) {
	cfg := d.doc().Config

	measure := bitstream.NewWriter(cfg.Endianness, cfg.BitOrder)
	mctx := &encCtx{p: newMeasurementPass()}
	if err := d.encodeType(measure, typeName, typeName, value, mctx); err != nil {
		return nil, err
	}

	real := bitstream.NewWriter(cfg.Endianness, cfg.BitOrder)
	rctx := &encCtx{p: newRealPass(mctx.p.layout)}
	rctx.p.buf = measure.Bytes()
	// Start from the measured array frames so a computed field that precedes
	// its array in wire order can still find that array's items.
	rctx.p.arrays = mctx.p.arrays
	if err := d.encodeType(real, typeName, typeName, value, rctx); err != nil {
		return nil, err
	}
	return real.Bytes(), nil
}

func (d *Driver) decodeType(s *bitstream.Stream, typeName, path string, sc *scope) (Value, error) {
	def := d.doc().Lookup(typeName)
	if def == nil {
		return nil, bserr.New(bserr.KindTypeNotFound, path, "undefined type %q", typeName)
	}
	switch def.Kind {
	case schema.DefComposite:
		return d.decodeComposite(s, def, path, sc)
	case schema.DefAlias:
		return d.decodeField(s, *def.AliasOf, path, sc)
	case schema.DefUnion:
		return d.decodeUnion(s, def, path, sc)
	}
	return nil, bserr.New(bserr.KindSchemaInvalid, path, "type %q has no recognizable definition", typeName)
}

func (d *Driver) decodeComposite(s *bitstream.Stream, def *TypeDef, path string, sc *scope) (Value, error) {
	out := map[string]any{}
	inner := sc.push(out)

	for _, f := range def.Sequence {
		if f.Conditional != "" {
			present, err := evalExpr(f.Conditional, inner)
			if err != nil {
				return nil, bserr.Wrap(bserr.KindExpressionError, path+"."+f.Name, err)
			}
			if present == 0 {
				continue
			}
		}
		fv, err := d.decodeField(s, f, path+"."+f.Name, inner)
		if err != nil {
			return nil, err
		}
		if f.Type == TypePadding {
			continue
		}
		if f.HasConst {
			if err := checkConst(f, fv, path+"."+f.Name); err != nil {
				return nil, err
			}
		}
		out[f.Name] = fv
	}

	for _, inst := range def.Instances {
		v, err := d.decodeInstance(s, inst, path, inner)
		if err != nil {
			return nil, err
		}
		out[inst.Name] = v
	}

	return out, nil
}

// decodeField dispatches a single field by its attribute group. Callers
// supply the field's fully qualified path for error reporting.
func (d *Driver) decodeField(s *bitstream.Stream, f Field, path string, sc *scope) (Value, error) {
	switch f.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeFloat32, TypeFloat64, TypeBit, TypeBitfield:
		return decodePrimitive(s, f, path)

	case TypeVarlength:
		v, _, err := DecodeVarlength(s, f.VarlengthEncoding)
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		return v, nil

	case TypeString:
		return decodeString(s, f, path, sc)

	case TypeArray:
		return d.decodeArray(s, f, path, sc)

	case TypeOptional:
		return d.decodeOptional(s, f, path, sc)

	case TypePadding:
		if f.AlignTo > 1 {
			if err := s.AlignTo(f.AlignTo); err != nil {
				return nil, bserr.WithPath(path, err)
			}
		}
		return nil, nil

	case TypeBackReference:
		return d.decodeBackReference(s, f, path, sc)

	case TypeRef:
		return d.decodeType(s, f.RefType, path, sc)
	}
	return nil, bserr.New(bserr.KindSchemaInvalid, path, "unknown field type %q", f.Type)
}

func (d *Driver) decodeOptional(s *bitstream.Stream, f Field, path string, sc *scope) (Value, error) {
	pt := f.PresenceType
	if pt == "" {
		pt = TypeUint8
	}
	var present uint64
	var err error
	if pt == TypeBit {
		present, err = s.ReadBits(1)
	} else {
		present, err = s.ReadUint(pt.ByteSize(), "")
	}
	if err != nil {
		return nil, bserr.WithPath(path, err)
	}
	if present == 0 {
		return nil, nil
	}
	return d.decodeField(s, *f.ValueType, path, sc)
}

func checkConst(f Field, got Value, path string) error {
	want, err := asInt64(f.Const)
	if err != nil {
		// Non-numeric const (e.g. a string signature) compares by value.
		if got != f.Const {
			return bserr.New(bserr.KindConstMismatch, path, "const mismatch: got %v, want %v", got, f.Const)
		}
		return nil
	}
	gotI, err2 := asInt64(got)
	if err2 != nil || gotI != want {
		return bserr.New(bserr.KindConstMismatch, path, "const mismatch: got %v, want %v", got, f.Const)
	}
	return nil
}

// --- encode side ---

func (d *Driver) encodeType(s *bitstream.Stream, typeName, path string, value Value, ctx *encCtx) error {
	def := d.doc().Lookup(typeName)
	if def == nil {
		return bserr.New(bserr.KindTypeNotFound, path, "undefined type %q", typeName)
	}
	switch def.Kind {
	case schema.DefComposite:
		return d.encodeComposite(s, def, path, value, ctx)
	case schema.DefAlias:
		return d.encodeField(s, *def.AliasOf, path, value, ctx)
	case schema.DefUnion:
		return d.encodeUnion(s, def, path, value, ctx)
	}
	return bserr.New(bserr.KindSchemaInvalid, path, "type %q has no recognizable definition", typeName)
}

func (d *Driver) encodeComposite(s *bitstream.Stream, def *TypeDef, path string, value Value, ctx *encCtx) error {
	if len(def.Instances) > 0 {
		return bserr.New(bserr.KindSchemaInvalid, path, "type %q is decode-only (declares instances) and cannot be encoded", def.Name)
	}
	m, _ := value.(map[string]any)
	inner := ctx.enter(path)
	exprScope := newScope(m)
	recordStart := s.ByteOffset()

	for _, f := range def.Sequence {
		fieldPath := path + "." + f.Name
		if f.Conditional != "" {
			present, err := evalExpr(f.Conditional, exprScope)
			if err != nil {
				return bserr.Wrap(bserr.KindExpressionError, fieldPath, err)
			}
			if present == 0 {
				continue
			}
		}
		if f.Computed != nil {
			if _, supplied := m[f.Name]; supplied {
				return bserr.New(bserr.KindComputedFieldSet, fieldPath, "computed field %q must not be supplied on encode input", f.Name)
			}
		}
		start := s.ByteOffset()
		fv := m[f.Name]
		if f.HasConst {
			fv = f.Const
		}
		elements := -1
		fieldCtx := inner
		if f.Type == TypeArray {
			if sl, ok := fv.([]any); ok {
				elements = len(sl)
			}
			fieldCtx = inner.pushArray(fieldPath)
		}
		if err := d.encodeField(s, f, fv, fieldPath, fieldCtx); err != nil {
			return err
		}
		end := s.ByteOffset()
		inner.record(fieldPath, start, end, elements)
	}

	// Also record the composite's own span under its call path, so a
	// sum_of_type_sizes computed field elsewhere can size whole array
	// items whose type resolves (directly or through a union) to this
	// composite.
	inner.record(path, recordStart, s.ByteOffset(), -1)

	return nil
}

func (d *Driver) encodeField(s *bitstream.Stream, f Field, value Value, path string, ctx *encCtx) error {
	if f.Computed != nil {
		return d.encodeComputedField(s, f, path, ctx)
	}

	switch f.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeFloat32, TypeFloat64, TypeBit, TypeBitfield:
		return encodePrimitive(s, f, value, path)

	case TypeVarlength:
		u, err := asUint64(value)
		if err != nil {
			return bserr.New(bserr.KindSchemaInvalid, path, "%v", err)
		}
		return EncodeVarlength(s, u, f.VarlengthEncoding)

	case TypeString:
		return encodeString(s, f, value, path)

	case TypeArray:
		return d.encodeArray(s, f, value, path, ctx)

	case TypeOptional:
		return d.encodeOptional(s, f, value, path, ctx)

	case TypePadding:
		if f.AlignTo > 1 {
			if err := s.AlignTo(f.AlignTo); err != nil {
				return bserr.WithPath(path, err)
			}
		}
		return nil

	case TypeBackReference:
		return d.encodeBackReference(s, f, value, path, ctx)

	case TypeRef:
		return d.encodeType(s, f.RefType, path, value, ctx)
	}
	return bserr.New(bserr.KindSchemaInvalid, path, "unknown field type %q", f.Type)
}

func (d *Driver) encodeOptional(s *bitstream.Stream, f Field, value Value, path string, ctx *encCtx) error {
	pt := f.PresenceType
	if pt == "" {
		pt = TypeUint8
	}
	present := uint64(0)
	if value != nil {
		present = 1
	}
	if pt == TypeBit {
		if err := s.WriteBits(present, 1); err != nil {
			return err
		}
	} else if err := s.WriteUint(present, pt.ByteSize(), ""); err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return d.encodeField(s, *f.ValueType, value, path, ctx)
}

func (d *Driver) encodeComputedField(s *bitstream.Stream, f Field, path string, ctx *encCtx) error {
	var v uint64
	if !ctx.p.measuring {
		resolved, err := resolveComputed(ctx, f.Computed, ctx.p.buf, path)
		if err != nil {
			return err
		}
		v = resolved
	}
	if f.Type == TypeVarlength {
		return EncodeVarlength(s, v, f.VarlengthEncoding)
	}
	return encodePrimitive(s, f, v, path)
}
