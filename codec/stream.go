package codec

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/bserr"
)

// DecodeStream decodes a root type whose shape is a `length_prefixed_items`
// array incrementally, as chunks arrive on chunks (spec §4.10 "Streaming
// decode", §5). One goroutine pumps chunks into an io.Pipe; a second reads
// from the pipe, decoding and emitting one item at a time on the returned
// channel; errgroup ties their lifetimes together so that either side's
// failure, or ctx cancellation, unwinds both. All other array kinds have no
// stable per-item byte boundary up front and must be buffered whole via
// Decode instead.
func (d *Driver) DecodeStream(ctx context.Context, typeName string, chunks <-chan []byte) (<-chan Value, <-chan error) {
	out := make(chan Value)
	errc := make(chan error, 1)

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer pw.Close()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case chunk, ok := <-chunks:
				if !ok {
					return nil
				}
				if _, err := pw.Write(chunk); err != nil {
					if errors.Is(err, io.ErrClosedPipe) {
						return nil // the decoder has stopped reading
					}
					return err
				}
			}
		}
	})

	g.Go(func() error {
		defer close(out)
		// Closing the read end releases a pump blocked in pw.Write once
		// decoding stops, whether it failed or finished early.
		defer pr.Close()
		return d.decodeStreamItems(pr, typeName, out)
	})

	go func() { errc <- g.Wait() }()
	return out, errc
}

func (d *Driver) decodeStreamItems(r io.Reader, typeName string, out chan<- Value) error {
	cfg := d.doc().Config
	def := d.doc().Lookup(typeName)
	if def == nil {
		return bserr.New(bserr.KindTypeNotFound, typeName, "undefined type %q", typeName)
	}
	if def.Kind != DefAlias || def.AliasOf == nil || def.AliasOf.Type != TypeArray || def.AliasOf.ArrayKind != ArrayLengthPrefixedItems {
		return bserr.New(bserr.KindSchemaInvalid, typeName, "type %q has no incrementally-decodable shape (needs a length_prefixed_items array)", typeName)
	}
	f := *def.AliasOf
	item := *f.Items
	ilt := f.ItemLengthType
	if ilt == "" {
		ilt = TypeUint32
	}
	lt := f.LengthType
	if lt == "" {
		lt = TypeUint8
	}

	count, err := readStreamUint(r, lt, cfg.Endianness)
	if err != nil {
		return bserr.WithPath(typeName, err)
	}

	sc := newScope(map[string]any{})
	for i := 0; i < int(count); i++ {
		itemLen, err := readStreamUint(r, ilt, cfg.Endianness)
		if err != nil {
			return bserr.WithPath(typeName, err)
		}
		buf := make([]byte, itemLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return bserr.New(bserr.KindUnexpectedEndOfStream, typeName, "reading streamed item %d: %v", i, err)
		}
		sub := bitstream.NewReader(buf, cfg.Endianness, cfg.BitOrder)
		v, err := d.decodeField(sub, item, typeName, sc)
		if err != nil {
			return err
		}
		out <- v
	}
	return nil
}

func readStreamUint(r io.Reader, t FieldType, endian bitstream.Endianness) (uint64, error) {
	n := t.ByteSize()
	if n == 0 {
		n = 4
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	s := bitstream.NewReader(buf, endian, bitstream.MSBFirst)
	return s.ReadUint(n, "")
}
