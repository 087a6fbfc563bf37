package pyfile

import "testing"

func TestNew_ExtractsFunctionUnit(t *testing.T) {
	p := New()
	if p.LanguageID() != "python" {
		t.Fatalf("LanguageID() = %q, want %q", p.LanguageID(), "python")
	}

	src := []byte("def greet(name):\n    return 'hi ' + name\n")
	units, err := p.ExtractCodeUnits(src, "sample.py")
	if err != nil {
		t.Fatalf("ExtractCodeUnits: %v", err)
	}
	if len(units) != 1 || units[0].Name != "greet" {
		t.Fatalf("units = %+v, want one unit named greet", units)
	}
}

func TestNew_BareImportHasNoFunctionOrClassUnits(t *testing.T) {
	p := New()
	src := []byte("import os\n")
	units, err := p.ExtractCodeUnits(src, "sample.py")
	if err != nil {
		t.Fatalf("ExtractCodeUnits: %v", err)
	}
	if len(units) != 0 {
		t.Errorf("units = %+v, want none: a bare import has no function or class node", units)
	}
}
