package testbundle

import (
	"context"
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"

	"github.com/serialexp/binschema-sub003/bitstream"
	"github.com/serialexp/binschema-sub003/codec"
	"github.com/serialexp/binschema-sub003/schema"
)

// CaseResult is the outcome of running one TestCase.
type CaseResult struct {
	Name   string
	Passed bool
	Err    error
}

// Runner executes a Bundle's cases against the driver its schema produces.
type Runner struct {
	bundle *Bundle
}

// NewRunner returns a Runner for b. It does no work itself: Run parses and
// validates b's schema before any case runs, per spec §6
// ("schema_validation_error asserts the schema is rejected before any I/O").
func NewRunner(b *Bundle) *Runner {
	return &Runner{bundle: b}
}

// Run executes every case in the bundle concurrently — spec §5 guarantees
// this is safe because each case builds and owns its own BitStream — and
// returns one CaseResult per case in original order. Run itself returns an
// error only for a bundle-level failure (the schema didn't parse/validate
// the way SchemaValidationError said it should); a single case failing is
// reported in its own CaseResult, not as a Run error.
func (r *Runner) Run(ctx context.Context) ([]CaseResult, error) {
	doc, parseErr := schema.LoadDocument(r.bundle.Schema)

	var validated *schema.Validated
	var diags []schema.Diagnostic
	if parseErr == nil {
		validated, diags = schema.Validate(doc)
	}
	schemaInvalid := parseErr != nil || len(diags) > 0

	if r.bundle.SchemaValidationError {
		if !schemaInvalid {
			return nil, fmt.Errorf("testbundle: expected schema validation error, schema was accepted")
		}
		return nil, nil
	}
	if schemaInvalid {
		if parseErr != nil {
			return nil, fmt.Errorf("testbundle: schema failed to parse: %w", parseErr)
		}
		return nil, fmt.Errorf("testbundle: schema failed validation: %v", diags)
	}

	driver := codec.NewDriver(validated)
	cfg := doc.Config

	results := make([]CaseResult, len(r.bundle.TestCases))
	g, _ := errgroup.WithContext(ctx)
	for i, tc := range r.bundle.TestCases {
		i, tc := i, tc
		g.Go(func() error {
			results[i] = runCase(driver, cfg, r.bundle.TestType, tc)
			return nil
		})
	}
	_ = g.Wait() // per-case errors live in results, never abort the group
	return results, nil
}

func runCase(d *codec.Driver, cfg schema.Config, bundleType string, tc TestCase) CaseResult {
	name := tc.Name
	if name == "" {
		name = tc.rootType(bundleType)
	}
	err := runCaseBody(d, cfg, bundleType, tc)
	return CaseResult{Name: name, Passed: err == nil, Err: err}
}

func runCaseBody(d *codec.Driver, cfg schema.Config, bundleType string, tc TestCase) error {
	rootType := tc.rootType(bundleType)
	wantBytes, haveWant, err := tc.wantBytes(func(bits []int) ([]byte, error) { return packBits(bits, cfg) })
	if err != nil {
		return err
	}

	// should_error_on_encode always targets encode. Plain should_error
	// targets whichever operation the case's shape implies is primary:
	// bytes/bits given means "this decode must fail" (e.g. const_mismatch);
	// value only, no bytes, means "this encode must fail" (e.g.
	// computed_field_set, length_exceeds_prefix_range).
	wantDecodeErr := tc.ShouldError && haveWant
	wantEncodeErr := tc.ShouldErrorOnEncode || (tc.ShouldError && !haveWant)

	if value, ok := tc.Value.(map[string]any); ok {
		got, err := d.Encode(rootType, value)
		if wantEncodeErr {
			return expectError(err, tc.ErrorMessage)
		}
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if haveWant && !assert.ObjectsAreEqual(wantBytes, got) {
			return fmt.Errorf("encode: got % x, want % x", got, wantBytes)
		}
	}

	if haveWant {
		if wantDecodeErr {
			_, decErr := d.Decode(rootType, wantBytes)
			return expectError(decErr, tc.ErrorMessage)
		}
		got, err := d.Decode(rootType, wantBytes)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		want := tc.DecodedValue
		if want == nil {
			want = tc.Value
		}
		if want != nil && !assert.ObjectsAreEqual(normalize(want), normalize(got)) {
			return fmt.Errorf("decode: got %#v, want %#v", got, want)
		}

		if len(tc.ChunkSizes) > 0 {
			if err := checkStreaming(d, rootType, wantBytes, tc.ChunkSizes, got); err != nil {
				return err
			}
		}
	}

	return nil
}

func expectError(err error, substr string) error {
	if err == nil {
		return fmt.Errorf("expected an error, got none")
	}
	if substr != "" && !strings.Contains(err.Error(), substr) {
		return fmt.Errorf("error %q does not contain %q", err.Error(), substr)
	}
	return nil
}

// normalize converts json.Number-free maps consistently so
// assert.ObjectsAreEqual compares like with like regardless of whether a
// value came from decode (host ints) or the bundle's own JSON (float64).
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}

func packBits(bits []int, cfg schema.Config) ([]byte, error) {
	w := bitstream.NewWriter(cfg.Endianness, cfg.BitOrder)
	for _, b := range bits {
		if err := w.WriteBits(uint64(b), 1); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func checkStreaming(d *codec.Driver, rootType string, data []byte, chunkSizes []int, oneShot any) error {
	items, _ := oneShot.([]any)

	chunks := make(chan []byte)
	ctx := context.Background()
	out, errc := d.DecodeStream(ctx, rootType, chunks)

	go func() {
		defer close(chunks)
		pos := 0
		for _, size := range chunkSizes {
			if pos >= len(data) {
				break
			}
			end := pos + size
			if end > len(data) {
				end = len(data)
			}
			chunks <- data[pos:end]
			pos = end
		}
		if pos < len(data) {
			chunks <- data[pos:]
		}
	}()

	var streamed []any
	for v := range out {
		streamed = append(streamed, v)
	}
	if err := <-errc; err != nil {
		return fmt.Errorf("streaming decode: %w", err)
	}
	if !assert.ObjectsAreEqual(normalize(items), normalize(streamed)) {
		return fmt.Errorf("streaming decode produced %#v, one-shot decode produced %#v", streamed, items)
	}
	return nil
}
