package testbundle_test

import (
	"context"
	"testing"

	"github.com/serialexp/binschema-sub003/testbundle"
)

const pointBundle = `{
  "name": "point",
  "description": "a tiny fixture exercising encode, decode and a decode-error case",
  "test_type": "Point",
  "schema": {
    "config": {"endianness": "big_endian"},
    "types": {
      "Point": {
        "sequence": [
          {"name": "x", "type": "uint8"},
          {"name": "y", "type": "uint8"}
        ]
      },
      "Tagged": {
        "sequence": [
          {"name": "magic", "type": "uint8", "const": 171}
        ]
      }
    }
  },
  "test_cases": [
    {
      "name": "round trip",
      "bytes": [1, 2],
      "value": {"x": 1, "y": 2}
    },
    {
      "name": "bad magic",
      "type": "Tagged",
      "bytes": [255],
      "should_error": true,
      "error_message": "const mismatch"
    }
  ]
}`

func TestRunnerExecutesBundleCases(t *testing.T) {
	bundle, err := testbundle.Load([]byte(pointBundle))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	results, err := testbundle.NewRunner(bundle).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("case %q failed: %v", r.Name, r.Err)
		}
	}
}

const invalidSchemaBundle = `{
  "name": "broken",
  "test_type": "Missing",
  "schema": {"types": {"Thing": {"sequence": [{"name": "f", "type": "NoSuchType"}]}}},
  "schema_validation_error": true,
  "test_cases": []
}`

func TestRunnerSchemaValidationErrorBundle(t *testing.T) {
	bundle, err := testbundle.Load([]byte(invalidSchemaBundle))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	results, err := testbundle.NewRunner(bundle).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results != nil {
		t.Fatalf("results = %#v, want nil for a schema_validation_error bundle", results)
	}
}
