package php

import "testing"

func TestNew_ExtractsFunctionUnit(t *testing.T) {
	p := New()
	if p.LanguageID() != "php" {
		t.Fatalf("LanguageID() = %q, want %q", p.LanguageID(), "php")
	}

	src := []byte("<?php\nfunction greet($name) {\n    return 'hi ' . $name;\n}\n")
	units, err := p.ExtractCodeUnits(src, "sample.php")
	if err != nil {
		t.Fatalf("ExtractCodeUnits: %v", err)
	}
	if len(units) != 1 || units[0].Name != "greet" {
		t.Fatalf("units = %+v, want one unit named greet", units)
	}
}
