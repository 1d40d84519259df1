package codec

import (
	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
)

// decodePrimitive reads one of the fixed-width scalar types (spec §4.1:
// uintN/intN/floatN, bit, bitfield). It does not handle varlength, string,
// array or the other composite shapes; the Driver dispatches those itself.
func decodePrimitive(s *bitstream.Stream, f Field, path string) (Value, error) {
	endian := f.Endianness
	switch f.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		v, err := s.ReadUint(f.Type.ByteSize(), endian)
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		return v, nil

	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		v, err := s.ReadInt(f.Type.ByteSize(), endian)
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		return v, nil

	case TypeFloat32:
		v, err := s.ReadFloat32(endian)
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		return v, nil

	case TypeFloat64:
		v, err := s.ReadFloat64(endian)
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		return v, nil

	case TypeBit:
		v, err := s.ReadBitField(f.Size, f.Signed)
		if err != nil {
			return nil, bserr.WithPath(path, err)
		}
		return v, nil

	case TypeBitfield:
		return decodeBitfield(s, f, path)
	}
	return nil, bserr.New(bserr.KindSchemaInvalid, path, "not a primitive type: %s", f.Type)
}

func encodePrimitive(s *bitstream.Stream, f Field, v Value, path string) error {
	endian := f.Endianness
	switch f.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		u, err := asUint64(v)
		if err != nil {
			return bserr.New(bserr.KindSchemaInvalid, path, "%v", err)
		}
		return s.WriteUint(u, f.Type.ByteSize(), endian)

	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		i, err := asInt64(v)
		if err != nil {
			return bserr.New(bserr.KindSchemaInvalid, path, "%v", err)
		}
		return s.WriteInt(i, f.Type.ByteSize(), endian)

	case TypeFloat32:
		fv, err := asFloat64(v)
		if err != nil {
			return bserr.New(bserr.KindSchemaInvalid, path, "%v", err)
		}
		return s.WriteFloat32(float32(fv), endian)

	case TypeFloat64:
		fv, err := asFloat64(v)
		if err != nil {
			return bserr.New(bserr.KindSchemaInvalid, path, "%v", err)
		}
		return s.WriteFloat64(fv, endian)

	case TypeBit:
		i, err := asInt64(v)
		if err != nil {
			return bserr.New(bserr.KindSchemaInvalid, path, "%v", err)
		}
		return s.WriteBitField(i, f.Size, f.Signed)

	case TypeBitfield:
		return encodeBitfield(s, f, v, path)
	}
	return bserr.New(bserr.KindSchemaInvalid, path, "not a primitive type: %s", f.Type)
}

// decodeBitfield reads a fixed-width container of named bit-slices (spec
// §4.1: "consumes exactly BitfieldSize bits regardless of how many slices
// are declared").
func decodeBitfield(s *bitstream.Stream, f Field, path string) (Value, error) {
	out := make(map[string]any, len(f.BitfieldFields))
	consumed := 0
	for _, slice := range f.BitfieldFields {
		if slice.Offset > consumed {
			if err := s.SkipBits(slice.Offset - consumed); err != nil {
				return nil, bserr.WithPath(path, err)
			}
			consumed = slice.Offset
		}
		v, err := s.ReadBitField(slice.Size, slice.Signed)
		if err != nil {
			return nil, bserr.WithPath(path+"."+slice.Name, err)
		}
		out[slice.Name] = v
		consumed += slice.Size
	}
	if rem := f.BitfieldSize - consumed; rem > 0 {
		if err := s.SkipBits(rem); err != nil {
			return nil, bserr.WithPath(path, err)
		}
	}
	return out, nil
}

func encodeBitfield(s *bitstream.Stream, f Field, v Value, path string) error {
	m, ok := v.(map[string]any)
	if !ok {
		return bserr.New(bserr.KindSchemaInvalid, path, "bitfield value must be a map, got %T", v)
	}
	consumed := 0
	for _, slice := range f.BitfieldFields {
		if slice.Offset > consumed {
			if err := s.WriteBits(0, slice.Offset-consumed); err != nil {
				return err
			}
			consumed = slice.Offset
		}
		raw, ok := m[slice.Name]
		if !ok {
			return bserr.New(bserr.KindSchemaInvalid, path+"."+slice.Name, "missing bitfield slice value")
		}
		iv, err := asInt64(raw)
		if err != nil {
			return bserr.New(bserr.KindSchemaInvalid, path+"."+slice.Name, "%v", err)
		}
		if err := s.WriteBitField(iv, slice.Size, slice.Signed); err != nil {
			return err
		}
		consumed += slice.Size
	}
	if rem := f.BitfieldSize - consumed; rem > 0 {
		if err := s.WriteBits(0, rem); err != nil {
			return err
		}
	}
	return nil
}
