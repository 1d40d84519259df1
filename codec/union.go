package codec

import (
	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
)

// decodeUnion dispatches a discriminated-union type (spec §4.6). Both
// discriminator forms agree on the decoded shape: {"type": variantName,
// "value": innerValue}.
func (d *Driver) decodeUnion(s *bitstream.Stream, def *TypeDef, path string, sc *scope) (Value, error) {
	switch def.Discriminator.Kind {
	case DiscriminatorField:
		return d.decodeFieldDiscriminatedUnion(s, def, path, sc)
	case DiscriminatorPeek:
		return d.decodePeekDiscriminatedUnion(s, def, path, sc)
	}
	return nil, bserr.New(bserr.KindSchemaInvalid, path, "union %q has no discriminator", path)
}

func (d *Driver) decodeFieldDiscriminatedUnion(s *bitstream.Stream, def *TypeDef, path string, sc *scope) (Value, error) {
	discVal, ok := sc.Lookup(def.Discriminator.Field)
	if !ok {
		return nil, bserr.New(bserr.KindDiscriminatorNoMatch, path, "discriminator field %q not found in enclosing scope", def.Discriminator.Field)
	}
	variant, err := matchVariant(def.Variants, discVal, path)
	if err != nil {
		return nil, err
	}
	return d.decodeVariant(s, variant, path, sc)
}

func (d *Driver) decodePeekDiscriminatedUnion(s *bitstream.Stream, def *TypeDef, path string, sc *scope) (Value, error) {
	n := def.Discriminator.PeekType.ByteSize()
	if n == 0 {
		n = 1
	}
	peeked, err := s.PeekUint(n, 0, def.Discriminator.PeekEndianness)
	if err != nil {
		return nil, bserr.WithPath(path, err)
	}
	variant, err := matchVariant(def.Variants, int64(peeked), path)
	if err != nil {
		return nil, err
	}
	return d.decodeVariant(s, variant, path, sc)
}

func matchVariant(variants []Variant, discVal int64, path string) (Variant, error) {
	for _, v := range variants {
		if v.When == "" {
			return v, nil // bare default/else arm
		}
		res, err := evalExpr(v.When, scopeOfValue(discVal))
		if err != nil {
			return Variant{}, bserr.Wrap(bserr.KindExpressionError, path, err)
		}
		if res != 0 {
			return v, nil
		}
	}
	return Variant{}, bserr.New(bserr.KindDiscriminatorNoMatch, path, "no variant matched discriminator value %d", discVal)
}

// scopeOfValue exposes a single int64 as the identifier "value", the
// variable name spec §4.6's `when` expressions are written against.
func scopeOfValue(v int64) *scope {
	return newScope(map[string]any{"value": v})
}

func (d *Driver) decodeVariant(s *bitstream.Stream, v Variant, path string, sc *scope) (Value, error) {
	inner, err := d.decodeType(s, v.Type, path, sc)
	if err != nil {
		return nil, err
	}
	return map[string]any{"type": v.Type, "value": inner}, nil
}

func (d *Driver) encodeUnion(s *bitstream.Stream, def *TypeDef, path string, value Value, ctx *encCtx) error {
	m, ok := value.(map[string]any)
	if !ok {
		return bserr.New(bserr.KindSchemaInvalid, path, "union value must be {type, value}, got %T", value)
	}
	typeName, _ := m["type"].(string)
	var variant Variant
	found := false
	for _, v := range def.Variants {
		if v.Type == typeName {
			variant = v
			found = true
			break
		}
	}
	if !found {
		return bserr.New(bserr.KindDiscriminatorNoMatch, path, "no variant named %q", typeName)
	}
	return d.encodeType(s, variant.Type, path, m["value"], ctx)
}

// variantTypeOf reports the variant-name tag to use for array correlation
// bookkeeping: the union's selected variant for a choice item, or the
// item's own static type name otherwise.
func variantTypeOf(f Field, value Value) string {
	if m, ok := value.(map[string]any); ok {
		if t, ok := m["type"].(string); ok {
			return t
		}
	}
	if f.Type == TypeRef {
		return f.RefType
	}
	return string(f.Type)
}
