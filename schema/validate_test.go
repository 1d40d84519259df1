package schema

import (
	"strings"
	"testing"
)

func mustLoad(t *testing.T, yamlSrc string) *Document {
	t.Helper()
	doc, err := LoadDocument([]byte(yamlSrc))
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	return doc
}

func TestValidateAcceptsWellFormedComposite(t *testing.T) {
	doc := mustLoad(t, `
types:
  Point:
    sequence:
      - name: x
        type: uint16
      - name: y
        type: uint16
`)
	if _, diags := Validate(doc); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestValidateRejectsReservedSubstring(t *testing.T) {
	doc := mustLoad(t, `
types:
  Frame:
    sequence:
      - name: __iter_count
        type: uint8
`)
	_, diags := Validate(doc)
	if !containsMessage(diags, "reserved substring") {
		t.Fatalf("expected reserved-substring diagnostic, got %v", diags)
	}
}

func TestValidateRejectsDuplicateFieldNames(t *testing.T) {
	doc := mustLoad(t, `
types:
  Frame:
    sequence:
      - name: a
        type: uint8
      - name: a
        type: uint8
`)
	_, diags := Validate(doc)
	if !containsMessage(diags, "duplicate field name") {
		t.Fatalf("expected duplicate-name diagnostic, got %v", diags)
	}
}

func TestValidateRejectsUnknownTypeRef(t *testing.T) {
	doc := mustLoad(t, `
types:
  Frame:
    sequence:
      - name: payload
        type: Missing
`)
	_, diags := Validate(doc)
	if !containsMessage(diags, "undefined type") {
		t.Fatalf("expected undefined-type diagnostic, got %v", diags)
	}
}

func TestValidateRejectsConstAndComputedTogether(t *testing.T) {
	doc := mustLoad(t, `
types:
  Frame:
    sequence:
      - name: len
        type: uint16
        const: 4
        computed:
          type: length_of
          target: payload
`)
	_, diags := Validate(doc)
	if !containsMessage(diags, "mutually exclusive") {
		t.Fatalf("expected const/computed diagnostic, got %v", diags)
	}
}

func TestValidateRejectsForwardLengthField(t *testing.T) {
	doc := mustLoad(t, `
types:
  Frame:
    sequence:
      - name: items
        type: array
        kind: field_referenced
        length_field: count
        items:
          type: uint8
      - name: count
        type: uint16
`)
	_, diags := Validate(doc)
	if !containsMessage(diags, "earlier in the same sequence") {
		t.Fatalf("expected ordering diagnostic, got %v", diags)
	}
}

func TestValidateAcceptsRootScopedLengthField(t *testing.T) {
	doc := mustLoad(t, `
types:
  Frame:
    sequence:
      - name: items
        type: array
        kind: field_referenced
        length_field: _root.header.count
        items:
          type: uint8
`)
	if _, diags := Validate(doc); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestValidateRejectsBadCountExpr(t *testing.T) {
	doc := mustLoad(t, `
types:
  Frame:
    sequence:
      - name: items
        type: array
        kind: computed_count
        count_expr: "1 +"
        items:
          type: uint8
`)
	_, diags := Validate(doc)
	if !containsMessage(diags, "invalid count_expr") {
		t.Fatalf("expected count_expr diagnostic, got %v", diags)
	}
}

func TestValidateRejectsUnionWithoutVariants(t *testing.T) {
	doc := mustLoad(t, `
types:
  Msg:
    discriminator:
      field: kind
`)
	_, diags := Validate(doc)
	if !containsMessage(diags, "no variants") {
		t.Fatalf("expected no-variants diagnostic, got %v", diags)
	}
}

func TestValidateRejectsDirectSelfRecursion(t *testing.T) {
	doc := mustLoad(t, `
types:
  Node:
    sequence:
      - name: next
        type: Node
`)
	_, diags := Validate(doc)
	if !containsMessage(diags, "cyclic type reference") {
		t.Fatalf("expected cyclic diagnostic, got %v", diags)
	}
}

func TestValidateAllowsRecursionThroughBackReference(t *testing.T) {
	doc := mustLoad(t, `
types:
  Node:
    sequence:
      - name: next
        type: back_reference
        storage: uint16
        target_type: Node
`)
	if _, diags := Validate(doc); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func containsMessage(diags []Diagnostic, substr string) bool {
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}
