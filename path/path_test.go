package path

import "testing"

func TestParseSimple(t *testing.T) {
	p, err := Parse("len_text")
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 1 || p[0].Kind != SegField || p[0].Name != "len_text" {
		t.Fatalf("got %+v", p)
	}
}

func TestParseParentAndUp(t *testing.T) {
	for _, s := range []string{"parent.name", "../name"} {
		p, err := Parse(s)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if len(p) != 2 || p[0].Kind != SegUp || p[1].Name != "name" {
			t.Fatalf("%s -> %+v", s, p)
		}
	}
}

func TestParseRoot(t *testing.T) {
	p, err := Parse("_root.qname")
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 2 || p[0].Kind != SegRoot || p[1].Name != "qname" {
		t.Fatalf("got %+v", p)
	}
}

func TestParseIndexSelectors(t *testing.T) {
	tests := []struct {
		in   string
		kind IndexKind
	}{
		{"sections[first<LocalFile>]", IndexFirst},
		{"sections[corresponding<CentralDirEntry>]", IndexCorresponding},
		{"sections[same_index<CentralDirEntry>]", IndexSameIndex},
	}
	for _, tt := range tests {
		p, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if len(p) != 1 || p[0].Kind != SegIndex || p[0].ArrayField != "sections" || p[0].IndexKind != tt.kind {
			t.Fatalf("%s -> %+v", tt.in, p)
		}
		if p.String() != tt.in {
			t.Errorf("String() = %q, want %q", p.String(), tt.in)
		}
	}
}

func TestParseIndexThenSubfield(t *testing.T) {
	p, err := Parse("sections[corresponding<CentralDirEntry>].ofs_local_header")
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 2 || p[0].Kind != SegIndex || p[1].Kind != SegField || p[1].Name != "ofs_local_header" {
		t.Fatalf("got %+v", p)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "sections[first<]", "sections[bogus<T>]"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}
