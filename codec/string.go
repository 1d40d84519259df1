package codec

import (
	"unicode/utf8"

	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
)

// decodeString reads a `string` field in one of its framings (spec §4.4):
// length_prefixed (an integer byte count precedes the bytes),
// null_terminated (a single 0x00 byte ends the string), fixed (an exact
// byte count declared on the field itself), or field_referenced (the byte
// count lives in a sibling field, the same model array fields use).
func decodeString(s *bitstream.Stream, f Field, path string, sc *scope) (Value, error) {
	var raw []byte
	var err error

	switch f.StringKind {
	case StringLengthPrefixed:
		n, lerr := readLengthPrefix(s, f.LengthType, path)
		if lerr != nil {
			return nil, lerr
		}
		raw, err = s.ReadBytes(n)
	case StringFixed:
		raw, err = s.ReadBytes(f.FixedLength)
	case StringNullTerminated:
		raw, err = readUntilNull(s, path)
	case StringFieldReferenced:
		n, lerr := lengthFieldValue(sc, f.LengthField, path)
		if lerr != nil {
			return nil, lerr
		}
		raw, err = s.ReadBytes(n)
	default:
		return nil, bserr.New(bserr.KindSchemaInvalid, path, "unknown string kind %q", f.StringKind)
	}
	if err != nil {
		return nil, bserr.WithPath(path, err)
	}

	switch f.StringEncoding {
	case EncodingASCII:
		for i, b := range raw {
			if b > 0x7f {
				return nil, bserr.New(bserr.KindASCIIOutOfRange, path, "byte %d at index %d is not 7-bit ASCII", b, i)
			}
		}
	default: // utf8
		if !utf8.Valid(raw) {
			return nil, bserr.New(bserr.KindUTF8DecodeError, path, "invalid UTF-8 byte sequence")
		}
	}
	return string(raw), nil
}

func encodeString(s *bitstream.Stream, f Field, v Value, path string) error {
	str, err := asString(v)
	if err != nil {
		return bserr.New(bserr.KindSchemaInvalid, path, "%v", err)
	}
	raw := []byte(str)

	if f.StringEncoding == EncodingASCII {
		for i, b := range raw {
			if b > 0x7f {
				return bserr.New(bserr.KindASCIIOutOfRange, path, "byte %d at index %d is not 7-bit ASCII", b, i)
			}
		}
	} else if !utf8.Valid(raw) {
		return bserr.New(bserr.KindUTF8DecodeError, path, "value is not valid UTF-8")
	}

	switch f.StringKind {
	case StringLengthPrefixed:
		if err := writeLengthPrefix(s, f.LengthType, len(raw), path); err != nil {
			return err
		}
		return s.WriteBytes(raw)
	case StringFixed:
		if len(raw) != f.FixedLength {
			return bserr.New(bserr.KindSchemaInvalid, path, "fixed string length %d does not match declared length %d", len(raw), f.FixedLength)
		}
		return s.WriteBytes(raw)
	case StringNullTerminated:
		if err := s.WriteBytes(raw); err != nil {
			return err
		}
		return s.WriteBytes([]byte{0})
	case StringFieldReferenced:
		// The byte count lives in a sibling field (usually a computed
		// length_of); this field writes only the raw bytes.
		return s.WriteBytes(raw)
	}
	return bserr.New(bserr.KindSchemaInvalid, path, "unknown string kind %q", f.StringKind)
}

func readLengthPrefix(s *bitstream.Stream, lt FieldType, path string) (int, error) {
	if lt == "" {
		lt = TypeUint8
	}
	u, err := s.ReadUint(lt.ByteSize(), "")
	if err != nil {
		return 0, bserr.WithPath(path, err)
	}
	return int(u), nil
}

func writeLengthPrefix(s *bitstream.Stream, lt FieldType, n int, path string) error {
	if lt == "" {
		lt = TypeUint8
	}
	max := uint64(1)<<uint(lt.ByteSize()*8) - 1
	if uint64(n) > max {
		return bserr.New(bserr.KindLengthExceedsPrefixRange, path, "length %d exceeds %s range", n, lt)
	}
	return s.WriteUint(uint64(n), lt.ByteSize(), "")
}

func readUntilNull(s *bitstream.Stream, path string) ([]byte, error) {
	var out []byte
	for {
		b, err := s.ReadBytes(1)
		if err != nil {
			return nil, bserr.New(bserr.KindUnexpectedEndOfStream, path, "null_terminated string missing terminator")
		}
		if b[0] == 0 {
			return out, nil
		}
		out = append(out, b[0])
	}
}
