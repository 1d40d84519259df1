package codec

import (
	"fmt"

	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
)

// decodeArray dispatches one of the eleven array kinds (spec §4.5). Item
// decoding never needs the computed-field planner's context: cross-element
// correlation only matters while an encoder is choosing values to write,
// not while a decoder is reading bytes that already exist.
func (d *Driver) decodeArray(s *bitstream.Stream, f Field, path string, sc *scope) (Value, error) {
	if f.Items == nil {
		return nil, bserr.New(bserr.KindSchemaInvalid, path, "array has no item definition")
	}
	item := *f.Items

	switch f.ArrayKind {
	case ArrayFixed:
		return d.decodeFixedCount(s, item, path, sc, f.FixedCount)

	case ArrayLengthPrefixed:
		n, err := readLengthPrefix(s, f.LengthType, path)
		if err != nil {
			return nil, err
		}
		return d.decodeFixedCount(s, item, path, sc, n)

	case ArrayLengthPrefixedItems:
		return d.decodeLengthPrefixedItems(s, f, item, path, sc)

	case ArrayByteLengthPrefixed:
		return d.decodeByteLengthPrefixed(s, f, item, path, sc)

	case ArrayFieldReferenced:
		n, err := lengthFieldValue(sc, f.LengthField, path)
		if err != nil {
			return nil, err
		}
		return d.decodeFixedCount(s, item, path, sc, n)

	case ArrayComputedCount:
		n, err := evalExpr(f.CountExpr, sc)
		if err != nil {
			return nil, bserr.Wrap(bserr.KindExpressionError, path, err)
		}
		return d.decodeFixedCount(s, item, path, sc, int(n))

	case ArrayNullTerminated, ArrayVariantTerminated:
		return d.decodeUntilTerminal(s, f, item, path, sc, f.ArrayKind == ArrayNullTerminated)

	case ArraySignatureTerminated:
		return d.decodeUntilSignature(s, f, item, path, sc)

	case ArrayEOFTerminated, ArrayGreedy:
		return d.decodeUntilEOF(s, item, path, sc)
	}
	return nil, bserr.New(bserr.KindSchemaInvalid, path, "unknown array kind %q", f.ArrayKind)
}

func (d *Driver) decodeFixedCount(s *bitstream.Stream, item Field, path string, sc *scope, n int) (Value, error) {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.decodeField(s, item, fmt.Sprintf("%s[%d]", path, i), sc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Driver) decodeLengthPrefixedItems(s *bitstream.Stream, f, item Field, path string, sc *scope) (Value, error) {
	n, err := readLengthPrefix(s, f.LengthType, path)
	if err != nil {
		return nil, err
	}
	ilt := f.ItemLengthType
	if ilt == "" {
		ilt = TypeUint32
	}
	out := make([]any, n)
	// Items are independently length-delimited; this loop decodes them one
	// at a time from the buffered input. Driver.DecodeStream decodes a root
	// type of this shape incrementally from chunks (spec §4.5 "enables
	// streaming").
	for i := 0; i < n; i++ {
		itemLen, err := s.ReadUint(ilt.ByteSize(), "")
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		raw, err := s.ReadBytes(int(itemLen))
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		sub := bitstream.NewReader(raw, s.Endianness(), s.BitOrderPolicy())
		v, err := d.decodeField(sub, item, fmt.Sprintf("%s[%d]", path, i), sc)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return anySlice(out), nil
}

func (d *Driver) decodeByteLengthPrefixed(s *bitstream.Stream, f, item Field, path string, sc *scope) (Value, error) {
	var byteLen int
	if f.ArrayVarlengthLength {
		v, _, err := DecodeVarlength(s, f.VarlengthEncoding)
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		byteLen = int(v)
	} else {
		n, err := readLengthPrefix(s, f.LengthType, path)
		if err != nil {
			return nil, err
		}
		byteLen = n
	}
	raw, err := s.ReadBytes(byteLen)
	if err != nil {
		return nil, bserr.WithPath(path, err)
	}
	sub := bitstream.NewReader(raw, s.Endianness(), s.BitOrderPolicy())
	var out []any
	for sub.Remaining() > 0 {
		v, err := d.decodeField(sub, item, fmt.Sprintf("%s[%d]", path, len(out)), sc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return anySlice(out), nil
}

func (d *Driver) decodeUntilTerminal(s *bitstream.Stream, f, item Field, path string, sc *scope, byteTerminated bool) (Value, error) {
	var out []any
	for {
		if byteTerminated && len(f.TerminalVariants) == 0 {
			b, err := s.PeekBytes(1, 0)
			if err != nil {
				return nil, bserr.WithPath(path, err)
			}
			if b[0] == 0 {
				if _, err := s.ReadBytes(1); err != nil {
					return nil, bserr.WithPath(path, err)
				}
				return anySlice(out), nil
			}
		}
		v, err := d.decodeField(s, item, fmt.Sprintf("%s[%d]", path, len(out)), sc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if len(f.TerminalVariants) > 0 && isTerminalVariant(v, f.TerminalVariants) {
			return anySlice(out), nil
		}
	}
}

func (d *Driver) decodeUntilSignature(s *bitstream.Stream, f, item Field, path string, sc *scope) (Value, error) {
	n := f.TerminatorType.ByteSize()
	if n == 0 {
		n = 1
	}
	var out []any
	for {
		peeked, err := s.PeekUint(n, 0, "")
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		if peeked == f.TerminatorValue {
			return anySlice(out), nil
		}
		v, err := d.decodeField(s, item, fmt.Sprintf("%s[%d]", path, len(out)), sc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (d *Driver) decodeUntilEOF(s *bitstream.Stream, item Field, path string, sc *scope) (Value, error) {
	var out []any
	for s.Remaining() > 0 {
		v, err := d.decodeField(s, item, fmt.Sprintf("%s[%d]", path, len(out)), sc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return anySlice(out), nil
}

func isTerminalVariant(v Value, terminalTypes []string) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	t, _ := m["type"].(string)
	for _, want := range terminalTypes {
		if t == want {
			return true
		}
	}
	return false
}

func anySlice(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

func lengthFieldValue(sc *scope, name, path string) (int, error) {
	v, ok := sc.Lookup(name)
	if !ok {
		return 0, bserr.New(bserr.KindLengthFieldMissing, path, "length_field %q not found in scope", name)
	}
	return int(v), nil
}

// --- encode ---

func (d *Driver) encodeArray(s *bitstream.Stream, f Field, value Value, path string, ctx *encCtx) error {
	items, err := asSlice(value)
	if err != nil {
		return bserr.New(bserr.KindSchemaInvalid, path, "%v", err)
	}
	if f.Items == nil {
		return bserr.New(bserr.KindSchemaInvalid, path, "array has no item definition")
	}
	item := *f.Items

	switch f.ArrayKind {
	case ArrayFixed:
		if len(items) != f.FixedCount {
			return bserr.New(bserr.KindSchemaInvalid, path, "fixed array has %d items, schema declares %d", len(items), f.FixedCount)
		}
		return d.encodeItems(s, item, items, path, ctx)

	case ArrayLengthPrefixed:
		if err := writeLengthPrefix(s, f.LengthType, len(items), path); err != nil {
			return err
		}
		return d.encodeItems(s, item, items, path, ctx)

	case ArrayLengthPrefixedItems:
		return d.encodeLengthPrefixedItems(s, f, item, items, path, ctx)

	case ArrayByteLengthPrefixed:
		return d.encodeByteLengthPrefixed(s, f, item, items, path, ctx)

	case ArrayNullTerminated:
		if err := d.encodeItems(s, item, items, path, ctx); err != nil {
			return err
		}
		if len(f.TerminalVariants) == 0 {
			// No terminal-variant item carries the terminator itself, so
			// the literal null byte decode consumes must be written here.
			return s.WriteBytes([]byte{0})
		}
		return nil

	case ArrayFieldReferenced, ArrayComputedCount,
		ArrayVariantTerminated,
		ArraySignatureTerminated, ArrayEOFTerminated, ArrayGreedy:
		return d.encodeItems(s, item, items, path, ctx)
	}
	return bserr.New(bserr.KindSchemaInvalid, path, "unknown array kind %q", f.ArrayKind)
}

func (d *Driver) encodeItems(s *bitstream.Stream, item Field, items []any, path string, ctx *encCtx) error {
	for i, v := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		itemCtx := ctx.enterItem(itemPath, variantTypeOf(item, v))
		if err := d.encodeField(s, item, v, itemPath, itemCtx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) encodeLengthPrefixedItems(s *bitstream.Stream, f, item Field, items []any, path string, ctx *encCtx) error {
	if err := writeLengthPrefix(s, f.LengthType, len(items), path); err != nil {
		return err
	}
	ilt := f.ItemLengthType
	if ilt == "" {
		ilt = TypeUint32
	}
	for i, v := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		n, err := measureItem(d, item, v, itemPath, ctx)
		if err != nil {
			return err
		}
		if err := writeLengthPrefix(s, ilt, n, itemPath); err != nil {
			return err
		}
		itemCtx := ctx.enterItem(itemPath, variantTypeOf(item, v))
		if err := d.encodeField(s, item, v, itemPath, itemCtx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) encodeByteLengthPrefixed(s *bitstream.Stream, f, item Field, items []any, path string, ctx *encCtx) error {
	total := 0
	for i, v := range items {
		n, err := measureItem(d, item, v, fmt.Sprintf("%s[%d]", path, i), ctx)
		if err != nil {
			return err
		}
		total += n
	}
	if f.ArrayVarlengthLength {
		if err := EncodeVarlength(s, uint64(total), f.VarlengthEncoding); err != nil {
			return err
		}
	} else if err := writeLengthPrefix(s, f.LengthType, total, path); err != nil {
		return err
	}
	return d.encodeItems(s, item, items, path, ctx)
}

// measureItem encodes one item into a throwaway stream purely to learn its
// encoded byte length ahead of writing a length prefix that must precede
// it on the wire. The item is written a second time, into the real stream,
// so that any computed fields inside it resolve against real global byte
// offsets rather than this throwaway buffer's local ones.
func measureItem(d *Driver, item Field, v Value, itemPath string, ctx *encCtx) (int, error) {
	tmp := bitstream.NewWriter(bitstream.BigEndian, bitstream.MSBFirst)
	// The throwaway encode records into copies of the layout and array maps,
	// so its buffer-local offsets never overwrite the real ones.
	tp := &pass{measuring: ctx.p.measuring, layout: make(map[string]layoutEntry, len(ctx.p.layout)), arrays: make(map[string]*arrayFrame, len(ctx.p.arrays)), buf: ctx.p.buf}
	for k, e := range ctx.p.layout {
		tp.layout[k] = e
	}
	for k, a := range ctx.p.arrays {
		tp.arrays[k] = a
	}
	tmpCtx := &encCtx{p: tp}
	if err := d.encodeField(tmp, item, v, itemPath, tmpCtx); err != nil {
		return 0, err
	}
	return len(tmp.Bytes()), nil
}
