package codec_test

import (
	"hash/crc32"
	"testing"
)

func TestComputedCRC32OfAndPositionOf(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  Record:
    sequence:
      - name: header
        type: uint8
      - name: data_pos
        type: uint32
        computed: {type: position_of, target: payload}
      - name: crc
        type: uint32
        computed: {type: crc32_of, target: payload}
      - name: payload
        type: array
        kind: fixed
        length: 4
        items: {type: uint8}
`)
	value := map[string]any{
		"header":  uint64(0xFF),
		"payload": []any{uint64(1), uint64(2), uint64(3), uint64(4)},
	}
	got, err := d.Encode("Record", value)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(got) != 13 {
		t.Fatalf("Encode() len = %d, want 13: % x", len(got), got)
	}
	wantCRC := crc32.ChecksumIEEE([]byte{1, 2, 3, 4})

	dv, err := d.Decode("Record", got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dv["data_pos"] != uint64(9) {
		t.Fatalf("data_pos = %v, want 9", dv["data_pos"])
	}
	if dv["crc"] != uint64(wantCRC) {
		t.Fatalf("crc = %v, want %v", dv["crc"], wantCRC)
	}
}

// Spec scenario 6: a multi-file archive directory where a summary field
// sums only the sizes of one variant among heterogeneously-typed entries.
func TestComputedSumOfTypeSizes(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  FileEntry:
    sequence:
      - name: kind
        type: uint8
        const: 1
      - name: size
        type: uint8
        computed: {type: length_of, target: data}
      - name: data
        type: array
        kind: field_referenced
        length_field: size
        items: {type: uint8}
  DirEntry:
    sequence:
      - name: kind
        type: uint8
        const: 2
      - name: size
        type: uint8
        computed: {type: length_of, target: data}
      - name: data
        type: array
        kind: field_referenced
        length_field: size
        items: {type: uint8}
  Entry:
    discriminator: {peek_type: uint8}
    variants:
      - when: "value == 1"
        type: FileEntry
      - type: DirEntry
  Archive:
    sequence:
      - name: total_file_bytes
        type: uint32
        computed: {type: sum_of_type_sizes, target: entries, element_type: FileEntry}
      - name: entries
        type: array
        kind: fixed
        length: 2
        items: {type: Entry}
`)
	value := map[string]any{
		"entries": []any{
			map[string]any{"type": "FileEntry", "value": map[string]any{"data": []any{uint64(1), uint64(2), uint64(3)}}},
			map[string]any{"type": "DirEntry", "value": map[string]any{"data": []any{uint64(9)}}},
		},
	}
	got, err := d.Encode("Archive", value)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dv, err := d.Decode("Archive", got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// FileEntry's own encoded span (kind + size + 3 data bytes = 5), not
	// just its data payload: sum_of_type_sizes sums whole matching items.
	if dv["total_file_bytes"] != uint64(5) {
		t.Fatalf("total_file_bytes = %v, want 5 (whole FileEntry item span)", dv["total_file_bytes"])
	}
}
