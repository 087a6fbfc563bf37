package java

import "testing"

func TestNew_ExtractsMethodUnit(t *testing.T) {
	p := New()
	if p.LanguageID() != "java" {
		t.Fatalf("LanguageID() = %q, want %q", p.LanguageID(), "java")
	}

	src := []byte("class Greeter {\n    String greet(String name) {\n        return \"hi \" + name;\n    }\n}\n")
	units, err := p.ExtractCodeUnits(src, "Greeter.java")
	if err != nil {
		t.Fatalf("ExtractCodeUnits: %v", err)
	}
	var names []string
	for _, u := range units {
		names = append(names, u.Name)
	}
	found := false
	for _, n := range names {
		if n == "greet" {
			found = true
		}
	}
	if !found {
		t.Fatalf("units = %+v, want one named greet", names)
	}
}
