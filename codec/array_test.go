package codec_test

import (
	"reflect"
	"testing"
)

func TestArrayLengthPrefixedRoundTrip(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  List:
    sequence:
      - name: items
        type: array
        kind: length_prefixed
        length_type: uint8
        items: {type: uint16}
`)
	value := map[string]any{"items": []any{uint64(1), uint64(2), uint64(3)}}
	got, err := d.Encode("List", value)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x03, 0x00, 0x01, 0x00, 0x02, 0x00, 0x03}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
	dv, err := d.Decode("List", want)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	items, _ := dv["items"].([]any)
	if len(items) != 3 {
		t.Fatalf("Decode() items = %#v", items)
	}
}

func TestArrayNullTerminatedRoundTrip(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  List:
    sequence:
      - name: items
        type: array
        kind: null_terminated
        items: {type: uint8}
`)
	value := map[string]any{"items": []any{uint64(1), uint64(2)}}
	got, err := d.Encode("List", value)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x01, 0x02, 0x00}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
	dv, err := d.Decode("List", want)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	items, _ := dv["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("Decode() items = %#v", items)
	}
}

func TestArrayEOFTerminatedRoundTrip(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  Blob:
    sequence:
      - name: tail
        type: array
        kind: eof_terminated
        items: {type: uint8}
`)
	want := []byte{0x0A, 0x0B, 0x0C}
	dv, err := d.Decode("Blob", want)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	items, _ := dv["tail"].([]any)
	if len(items) != 3 {
		t.Fatalf("Decode() tail = %#v", items)
	}

	value := map[string]any{"tail": []any{uint64(0x0A), uint64(0x0B), uint64(0x0C)}}
	got, err := d.Encode("Blob", value)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
}

func TestArrayFieldReferencedCountFromSibling(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  List:
    sequence:
      - name: count
        type: uint8
      - name: items
        type: array
        kind: field_referenced
        length_field: count
        items: {type: uint8}
`)
	data := []byte{0x02, 0x05, 0x06}
	dv, err := d.Decode("List", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	items, _ := dv["items"].([]any)
	if len(items) != 2 || items[0] != uint64(5) || items[1] != uint64(6) {
		t.Fatalf("Decode() items = %#v", items)
	}
}

// Size-range enforcement (spec §8): a length_prefixed_items item whose
// encoded byte length exceeds a uint8 item-length-prefix range must fail
// with length_exceeds_prefix_range rather than silently truncating.
func TestArrayLengthPrefixedItemsOversizeItemRejected(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  List:
    sequence:
      - name: items
        type: array
        kind: length_prefixed_items
        length_type: uint8
        item_length_type: uint8
        items: {type: array, kind: fixed, length: 300, items: {type: uint8}}
`)
	items := make([]any, 300)
	for i := range items {
		items[i] = uint64(0)
	}
	value := map[string]any{"items": []any{items}}
	_, err := d.Encode("List", value)
	if err == nil {
		t.Fatal("expected length_exceeds_prefix_range error, got nil")
	}
}

func TestArrayByteLengthPrefixedRoundTrip(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  List:
    sequence:
      - name: items
        type: array
        kind: byte_length_prefixed
        length_type: uint8
        items: {type: uint16}
`)
	value := map[string]any{"items": []any{uint64(0x0102), uint64(0x0304)}}
	got, err := d.Encode("List", value)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x04, 0x01, 0x02, 0x03, 0x04}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
	dv, err := d.Decode("List", want)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	items, _ := dv["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("Decode() items = %#v", items)
	}
}
