// Package testbundle loads and runs the JSON test bundle format (spec §6):
// a document pairing one schema with a list of concrete encode/decode cases,
// used both as the project's own conformance suite and as a tool a schema
// author can point at their own fixtures.
package testbundle

import (
	"encoding/json"
	"fmt"
)

// TestCase is one entry in a bundle's test_cases list. Only the fields
// relevant to the case's mode are populated; the zero value of each is a
// valid "not specified" (an empty ChunkSizes means "no streaming check",
// not "zero chunks").
type TestCase struct {
	Name string `json:"name"`

	// Type names the schema's root type this case exercises. Empty means
	// the bundle's own TestType.
	Type string `json:"type"`

	Bytes []int `json:"bytes"`
	Bits  []int `json:"bits"`

	Value        any `json:"value"`
	DecodedValue any `json:"decoded_value"`

	ShouldErrorOnEncode bool   `json:"should_error_on_encode"`
	ShouldError         bool   `json:"should_error"`
	ErrorMessage        string `json:"error_message"`

	ChunkSizes []int `json:"chunkSizes"`
}

// Bundle is a whole test document: one schema plus the cases exercised
// against it.
type Bundle struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	TestType    string          `json:"test_type"`
	TestCases   []TestCase      `json:"test_cases"`

	// SchemaValidationError, when true, asserts the schema itself is
	// rejected before any test case runs (spec §6).
	SchemaValidationError bool `json:"schema_validation_error"`
}

// Load parses a test bundle document.
func Load(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("testbundle: parse bundle: %w", err)
	}
	return &b, nil
}

// rootType returns the schema root type name tc exercises.
func (tc TestCase) rootType(bundleDefault string) string {
	if tc.Type != "" {
		return tc.Type
	}
	return bundleDefault
}

// wantBytes reconstructs the case's expected wire bytes from whichever of
// Bytes/Bits was given. Returns (nil, false, nil) when neither was specified.
func (tc TestCase) wantBytes(packBits func(bits []int) ([]byte, error)) ([]byte, bool, error) {
	if tc.Bytes != nil {
		out := make([]byte, len(tc.Bytes))
		for i, b := range tc.Bytes {
			out[i] = byte(b)
		}
		return out, true, nil
	}
	if tc.Bits != nil {
		b, err := packBits(tc.Bits)
		return b, true, err
	}
	return nil, false, nil
}
