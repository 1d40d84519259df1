package expr

import "testing"

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 % 3", 1},
		{"10 / 3", 3},
		{"-5 + 2", -3},
		{"0x10 + 1", 17},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			r := Eval(tt.expr, nil)
			if !r.Success {
				t.Fatalf("eval failed: %v", r.Err)
			}
			if r.Value != tt.want {
				t.Errorf("got %d, want %d", r.Value, tt.want)
			}
		})
	}
}

func TestEvalLogical(t *testing.T) {
	scope := MapScope{"present": 1, "count": 0}
	tests := []struct {
		expr string
		want int64
	}{
		{"present == 1", 1},
		{"present == 1 && count > 0", 0},
		{"present == 1 || count > 0", 1},
		{"!present", 0},
		{"present != 0", 1},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			r := Eval(tt.expr, scope)
			if !r.Success {
				t.Fatalf("eval failed: %v", r.Err)
			}
			if r.Value != tt.want {
				t.Errorf("got %d, want %d", r.Value, tt.want)
			}
		})
	}
}

func TestEvalDottedIdentifier(t *testing.T) {
	scope := MapScope{"header.count": 3}
	r := Eval("header.count == 3", scope)
	if !r.Success || r.Value != 1 {
		t.Fatalf("got %+v", r)
	}
}

func TestDivisionByZero(t *testing.T) {
	r := Eval("1 / 0", nil)
	if r.Success {
		t.Fatal("expected division by zero error")
	}
}

func TestUnknownIdentifier(t *testing.T) {
	r := Eval("missing == 1", MapScope{})
	if r.Success {
		t.Fatal("expected unknown identifier error")
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	if _, err := Parse("1 + 2)"); err == nil {
		t.Fatal("expected parse error on unbalanced parens")
	}
}

func TestIdentifiers(t *testing.T) {
	n, err := Parse("a + b * (c == d)")
	if err != nil {
		t.Fatal(err)
	}
	got := Identifiers(n)
	want := map[string]bool{"a": true, "b": true, "c": true, "d": true}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, id := range got {
		if !want[id] {
			t.Errorf("unexpected identifier %q", id)
		}
	}
}
