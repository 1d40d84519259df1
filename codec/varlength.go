package codec

import (
	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
)

// DecodeVarlength reads a variable-length unsigned integer in the given
// encoding (spec §4.3 `varlength`), returning the value and the number of
// bytes consumed.
func DecodeVarlength(s *bitstream.Stream, enc VarlengthEncoding) (uint64, int, error) {
	switch enc {
	case VarlengthDER:
		return decodeDER(s)
	case VarlengthLEB128:
		return decodeLEB128(s)
	default:
		return 0, 0, bserr.New(bserr.KindSchemaInvalid, "", "unknown varlength encoding %q", enc)
	}
}

// EncodeVarlength writes v using the given variable-length encoding.
func EncodeVarlength(s *bitstream.Stream, v uint64, enc VarlengthEncoding) error {
	switch enc {
	case VarlengthDER:
		return encodeDER(s, v)
	case VarlengthLEB128:
		return encodeLEB128(s, v)
	default:
		return bserr.New(bserr.KindSchemaInvalid, "", "unknown varlength encoding %q", enc)
	}
}

// SizeOfVarlength returns the number of bytes v would occupy in the given
// encoding, without touching a stream.
func SizeOfVarlength(v uint64, enc VarlengthEncoding) int {
	switch enc {
	case VarlengthDER:
		return sizeDER(v)
	default:
		return sizeLEB128(v)
	}
}

// decodeDER reads an ASN.1/X.690 definite-length form (spec §4.4, GLOSSARY
// "DER length"): short form is a single byte <128; long form's first byte
// is 0x80 | n, followed by n big-endian value bytes.
func decodeDER(s *bitstream.Stream) (uint64, int, error) {
	first, err := s.ReadBytes(1)
	if err != nil {
		return 0, 0, err
	}
	if first[0]&0x80 == 0 {
		return uint64(first[0]), 1, nil
	}
	n := int(first[0] &^ 0x80)
	if n == 0 || n > 8 {
		return 0, 1, bserr.New(bserr.KindUnexpectedEndOfStream, "", "DER long-form length has %d following bytes", n)
	}
	rest, err := s.ReadBytes(n)
	if err != nil {
		return 0, 1, err
	}
	var v uint64
	for _, b := range rest {
		v = (v << 8) | uint64(b)
	}
	return v, 1 + n, nil
}

func encodeDER(s *bitstream.Stream, v uint64) error {
	if v < 128 {
		return s.WriteBytes([]byte{byte(v)})
	}
	var rev []byte
	for v > 0 {
		rev = append(rev, byte(v&0xff))
		v >>= 8
	}
	out := make([]byte, 1+len(rev))
	out[0] = 0x80 | byte(len(rev))
	for i, b := range rev {
		out[len(rev)-i] = b
	}
	return s.WriteBytes(out)
}

func sizeDER(v uint64) int {
	if v < 128 {
		return 1
	}
	n := 0
	for t := v; t > 0; t >>= 8 {
		n++
	}
	return 1 + n
}

// decodeLEB128 reads an unsigned LEB128 varint: little-endian base-128
// groups, continuation bit is the group's top bit.
func decodeLEB128(s *bitstream.Stream) (uint64, int, error) {
	var v uint64
	shift := uint(0)
	n := 0
	for {
		b, err := s.ReadBytes(1)
		if err != nil {
			return 0, n, err
		}
		n++
		v |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 70 {
			return 0, n, bserr.New(bserr.KindUnexpectedEndOfStream, "", "LEB128 varlength exceeds 10 bytes")
		}
	}
	return v, n, nil
}

func encodeLEB128(s *bitstream.Stream, v uint64) error {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		if err := s.WriteBytes([]byte{b}); err != nil {
			return err
		}
		if v == 0 {
			return nil
		}
	}
}

func sizeLEB128(v uint64) int {
	n := 1
	v >>= 7
	for v > 0 {
		n++
		v >>= 7
	}
	return n
}
