package codec_test

import (
	"reflect"
	"testing"
)

// Spec scenario 5: a DNS-style message where a name can end in a
// compression pointer back into an earlier label sequence.
func TestBackReferenceDNSCompressionPointer(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  Label:
    sequence:
      - name: length
        type: uint8
        computed: {type: length_of, target: text}
      - name: text
        type: string
        kind: field_referenced
        length_field: length
        encoding: utf8
  Name:
    sequence:
      - name: labels
        type: array
        kind: null_terminated
        items: {type: Label}
  Message:
    sequence:
      - name: name
        type: Name
      - name: pointer
        type: back_reference
        storage: uint16
        offset_mask: 0x3FFF
        offset_from: message_start
        target_type: Name
`)
	// "example" label (7 bytes) + terminator, followed by a pointer back to
	// offset 0 reusing that same label sequence.
	data := []byte{0x07}
	data = append(data, []byte("example")...)
	data = append(data, 0x00)
	data = append(data, 0xC0, 0x00) // pointer: top two bits set + offset 0

	dv, err := d.Decode("Message", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// The pointer's target type is Name, decoded from an independently
	// forked sub-stream starting at message offset 0 — it must resolve
	// the same label sequence without disturbing the outer cursor.
	target, ok := dv["pointer"].(map[string]any)
	if !ok {
		t.Fatalf("Decode() target = %#v", dv["pointer"])
	}
	labels, _ := target["labels"].([]any)
	if len(labels) != 1 {
		t.Fatalf("Decode() labels = %#v", labels)
	}
	first, _ := labels[0].(map[string]any)
	if first["text"] != "example" {
		t.Fatalf("Decode() first label = %#v", first)
	}
}

func TestBackReferenceEncodeWritesAbsoluteOffset(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  Pointer:
    sequence:
      - name: target
        type: back_reference
        storage: uint16
        offset_mask: 0x3FFF
        offset_from: message_start
        target_type: uint8
`)
	got, err := d.Encode("Pointer", map[string]any{"target": uint64(0x0C)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x00, 0x0C}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
}
