package codec_test

import (
	"context"
	"testing"
	"time"
)

func TestDecodeStreamLengthPrefixedItems(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  Item:
    sequence:
      - name: v
        type: uint8
  Items:
    alias: {type: array, kind: length_prefixed_items, items: {type: Item}}
`)
	data := []byte{
		0x02,                   // count
		0x00, 0x00, 0x00, 0x01, // item 0 length
		0xAA,                   // item 0 body
		0x00, 0x00, 0x00, 0x01, // item 1 length
		0xBB, // item 1 body
	}

	chunks := make(chan []byte, 4)
	// Feed it in two uneven pieces to exercise the incremental reader.
	chunks <- data[:3]
	chunks <- data[3:]
	close(chunks)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, errc := d.DecodeStream(ctx, "Items", chunks)

	var got []any
	for v := range out {
		got = append(got, v)
	}
	if err := <-errc; err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2: %#v", len(got), got)
	}
	first, _ := got[0].(map[string]any)
	second, _ := got[1].(map[string]any)
	if first["v"] != uint64(0xAA) || second["v"] != uint64(0xBB) {
		t.Fatalf("items = %#v, %#v", first, second)
	}
}

func TestDecodeStreamRejectsNonStreamableShape(t *testing.T) {
	d := mustDriver(t, `
config: {endianness: big_endian}
types:
  Point:
    sequence:
      - name: x
        type: uint8
`)
	chunks := make(chan []byte)
	close(chunks)
	_, errc := d.DecodeStream(context.Background(), "Point", chunks)
	if err := <-errc; err == nil {
		t.Fatal("expected an error for a non-streamable root type, got nil")
	}
}
