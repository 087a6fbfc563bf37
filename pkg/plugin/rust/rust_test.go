package rust

import "testing"

func TestNew_ExtractsFunctionUnit(t *testing.T) {
	p := New()
	if p.LanguageID() != "rust" {
		t.Fatalf("LanguageID() = %q, want %q", p.LanguageID(), "rust")
	}

	src := []byte("fn greet(name: &str) -> String {\n    format!(\"hi {}\", name)\n}\n")
	units, err := p.ExtractCodeUnits(src, "sample.rs")
	if err != nil {
		t.Fatalf("ExtractCodeUnits: %v", err)
	}
	if len(units) != 1 || units[0].Name != "greet" {
		t.Fatalf("units = %+v, want one unit named greet", units)
	}
}
