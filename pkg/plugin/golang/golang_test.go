package golang

import "testing"

func TestNew_ExtractsFunctionUnit(t *testing.T) {
	p := New()
	if p.LanguageID() != "go" {
		t.Fatalf("LanguageID() = %q, want %q", p.LanguageID(), "go")
	}

	src := []byte("package sample\n\nfunc Greet(name string) string {\n\treturn \"hi \" + name\n}\n")
	units, err := p.ExtractCodeUnits(src, "sample.go")
	if err != nil {
		t.Fatalf("ExtractCodeUnits: %v", err)
	}
	if len(units) != 1 || units[0].Name != "Greet" {
		t.Fatalf("units = %+v, want one unit named Greet", units)
	}
	if units[0].NodeCount == 0 {
		t.Error("NodeCount should be non-zero for a real function body")
	}
}

func TestNew_SourceToGraphBuildsNonEmptyGraph(t *testing.T) {
	p := New()
	g, err := p.SourceToGraph([]byte("package sample\n\nfunc F() {}\n"))
	if err != nil {
		t.Fatalf("SourceToGraph: %v", err)
	}
	if g.NodeCount() == 0 {
		t.Error("SourceToGraph should produce a non-empty graph for valid source")
	}
}
