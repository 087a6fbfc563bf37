package ruby

import "testing"

func TestNew_ExtractsMethodUnit(t *testing.T) {
	p := New()
	if p.LanguageID() != "ruby" {
		t.Fatalf("LanguageID() = %q, want %q", p.LanguageID(), "ruby")
	}

	src := []byte("def greet(name)\n  \"hi #{name}\"\nend\n")
	units, err := p.ExtractCodeUnits(src, "sample.rb")
	if err != nil {
		t.Fatalf("ExtractCodeUnits: %v", err)
	}
	if len(units) != 1 || units[0].Name != "greet" {
		t.Fatalf("units = %+v, want one unit named greet", units)
	}
}
