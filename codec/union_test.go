package codec_test

import (
	"testing"
)

func TestFieldDiscriminatedUnionRoundTrip(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  Header:
    sequence:
      - name: kind
        type: uint8
      - name: body
        type: Msg
  Msg:
    discriminator: {field: kind}
    variants:
      - when: "value == 1"
        type: A
      - when: "value == 2"
        type: B
  A:
    sequence:
      - name: a
        type: uint8
  B:
    sequence:
      - name: b
        type: uint16
`)
	got, err := d.Encode("Header", map[string]any{
		"kind": uint64(1),
		"body": map[string]any{"type": "A", "value": map[string]any{"a": uint64(7)}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x01, 0x07}
	if string(got) != string(want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}

	dv, err := d.Decode("Header", want)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	body, ok := dv["body"].(map[string]any)
	if !ok || body["type"] != "A" {
		t.Fatalf("Decode() body = %#v", dv["body"])
	}
}

func TestPeekDiscriminatedUnionLeavesByteUnread(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  Msg:
    discriminator: {peek_type: uint8}
    variants:
      - when: "value == 1"
        type: A
      - type: B
  A:
    sequence:
      - name: kind
        type: uint8
        const: 1
      - name: a
        type: uint8
  B:
    sequence:
      - name: kind
        type: uint8
      - name: b
        type: uint8
`)
	dv, err := d.Decode("Msg", []byte{0x01, 0x2A})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dv["type"] != "A" {
		t.Fatalf("Decode() type = %v, want A", dv["type"])
	}
	inner, _ := dv["value"].(map[string]any)
	if inner["a"] != uint64(0x2A) {
		t.Fatalf("Decode() value = %#v", inner)
	}
}
