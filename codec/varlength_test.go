package codec

import (
	"testing"

	"github.com/serialexp/binschema-sub003/bitstream"
)

func TestVarlengthRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		enc  VarlengthEncoding
		v    uint64
	}{
		{"der short form", VarlengthDER, 100},
		{"der long form", VarlengthDER, 300},
		{"der zero", VarlengthDER, 0},
		{"leb128 single byte", VarlengthLEB128, 100},
		{"leb128 multi byte", VarlengthLEB128, 300},
		{"leb128 large", VarlengthLEB128, 1 << 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := bitstream.NewWriter(bitstream.BigEndian, bitstream.MSBFirst)
			if err := EncodeVarlength(w, tt.v, tt.enc); err != nil {
				t.Fatalf("EncodeVarlength: %v", err)
			}
			r := bitstream.NewReader(w.Bytes(), bitstream.BigEndian, bitstream.MSBFirst)
			got, n, err := DecodeVarlength(r, tt.enc)
			if err != nil {
				t.Fatalf("DecodeVarlength: %v", err)
			}
			if got != tt.v {
				t.Fatalf("DecodeVarlength() = %d, want %d", got, tt.v)
			}
			if n != len(w.Bytes()) {
				t.Fatalf("consumed %d bytes, wrote %d", n, len(w.Bytes()))
			}
		})
	}
}

func TestDERShortFormSingleByte(t *testing.T) {
	w := bitstream.NewWriter(bitstream.BigEndian, bitstream.MSBFirst)
	if err := EncodeVarlength(w, 100, VarlengthDER); err != nil {
		t.Fatalf("EncodeVarlength: %v", err)
	}
	if got := w.Bytes(); len(got) != 1 || got[0] != 100 {
		t.Fatalf("short-form DER encoding = % x, want [64]", got)
	}
}

// TestDERLongFormWireBytes pins the definite-length octet form spec §4.4
// names: long form's first byte is 0x80|n followed by n big-endian value
// bytes, not a base-128 continuation varint.
func TestDERLongFormWireBytes(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{255, []byte{0x81, 0xFF}},
		{300, []byte{0x82, 0x01, 0x2C}},
		{200, []byte{0x81, 0xC8}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x80}},
	}
	for _, tt := range tests {
		w := bitstream.NewWriter(bitstream.BigEndian, bitstream.MSBFirst)
		if err := EncodeVarlength(w, tt.v, VarlengthDER); err != nil {
			t.Fatalf("EncodeVarlength(%d): %v", tt.v, err)
		}
		got := w.Bytes()
		if len(got) != len(tt.want) {
			t.Fatalf("EncodeVarlength(%d) = % x, want % x", tt.v, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("EncodeVarlength(%d) = % x, want % x", tt.v, got, tt.want)
			}
		}

		r := bitstream.NewReader(tt.want, bitstream.BigEndian, bitstream.MSBFirst)
		gotV, n, err := DecodeVarlength(r, VarlengthDER)
		if err != nil {
			t.Fatalf("DecodeVarlength(% x): %v", tt.want, err)
		}
		if gotV != tt.v || n != len(tt.want) {
			t.Fatalf("DecodeVarlength(% x) = (%d, %d bytes), want (%d, %d bytes)", tt.want, gotV, n, tt.v, len(tt.want))
		}
	}
}
