package codec

import (
	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
)

// decodeBackReference reads a pointer field (spec §4.7): a fixed-width
// integer under the field's storage/endianness, masks it down to the real
// offset, resolves the origin, forks a sub-stream there, decodes the
// pointed-to type, and leaves the parent stream's cursor exactly where it
// was after reading the pointer itself.
func (d *Driver) decodeBackReference(s *bitstream.Stream, f Field, path string, sc *scope) (Value, error) {
	n := f.Storage.ByteSize()
	if n == 0 {
		n = 2
	}
	endAfterPointer := s.ByteOffset() + n
	raw, err := s.ReadUint(n, f.Endianness)
	if err != nil {
		return nil, bserr.WithPath(path, err)
	}
	mask := f.OffsetMask
	if mask == 0 {
		mask = ^uint64(0)
	}
	offset := int(raw & mask)

	abs := offset
	if f.OffsetFrom == OffsetCurrentPosition {
		abs = endAfterPointer + offset
	}

	size := s.Len() - abs
	if abs < 0 || size < 0 {
		return nil, bserr.New(bserr.KindPointerTargetMissing, path, "back_reference target offset %d out of range", abs)
	}
	sub, err := s.Fork(abs, size)
	if err != nil {
		return nil, bserr.Wrap(bserr.KindPointerTargetMissing, path, err)
	}
	return d.decodeType(sub, f.TargetType, path, sc)
}

// encodeBackReference writes a pointer field. Spec §4.7 leaves the general
// forward-fixup machinery (writing the target out-of-line, then patching
// the pointer once its final position is known) as an implementation
// choice; this driver takes the simplest of the options the spec names —
// "the caller supplies the target value" is read here as "the caller
// supplies the already-resolved absolute byte offset" (an integer), which
// is sufficient for schemas (like DNS-style compression) whose pointer
// targets are always in-band data the caller assembled itself. See
// DESIGN.md for the recorded decision.
func (d *Driver) encodeBackReference(s *bitstream.Stream, f Field, value Value, path string, ctx *encCtx) error {
	offset, err := asUint64(value)
	if err != nil {
		return bserr.New(bserr.KindSchemaInvalid, path, "back_reference value must be an absolute offset integer: %v", err)
	}
	mask := f.OffsetMask
	if mask == 0 {
		mask = ^uint64(0)
	}
	n := f.Storage.ByteSize()
	if n == 0 {
		n = 2
	}
	return s.WriteUint(offset&mask, n, f.Endianness)
}
