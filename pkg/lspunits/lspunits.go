// Package lspunits implements the LSP advisory-contract adapter (spec
// §6, §9): an LSP-backed plugin supplies CodeUnits via an external
// symbol-server contract rather than a tree-sitter grammar. Given a
// file's source and a list of symbol ranges, this package slices the
// source and builds the trivial depth-1 graph the spec prescribes —
// root labeled by symbol_kind, one child per line grouping — then
// converts it to a unit.CodeUnit through the exact same
// import-only filter CST-derived units get. Symbol ranges are
// advisory: nothing downstream grants them a privileged path.
package lspunits

import (
	"strings"

	"github.com/astrograph-io/astrograph/pkg/fingerprint"
	"github.com/astrograph-io/astrograph/pkg/graph"
	"github.com/astrograph-io/astrograph/pkg/unit"
)

// SymbolRange is one entry of the external symbol-server contract:
// (symbol_kind, name, start_line, end_line).
type SymbolRange struct {
	Kind      string
	Name      string
	StartLine int
	EndLine   int
}

const lineLabel = "line"

// BuildGraph constructs the depth-1 graph spec §6 prescribes: a root
// labeled by sym.Kind with one "line" child per line the range spans.
func BuildGraph(sym SymbolRange) *graph.LabeledGraph {
	g := graph.New()
	root := g.AddNode(sym.Kind)
	for line := sym.StartLine; line <= sym.EndLine; line++ {
		child := g.AddNode(lineLabel)
		g.AddChild(root, child)
	}
	return g
}

// LabelFunc returns the identity labeling function for an
// lspunits-derived graph: every label here is already generic
// (symbol_kind or "line"), so there is no identifier/literal/operator
// collapsing to apply — operator normalization is a no-op for these
// units, which is why their exact and pattern fingerprints always
// coincide.
func LabelFunc(g *graph.LabeledGraph) fingerprint.LabelFunc {
	return func(id int, normalizeOps bool) string {
		return g.Label(id)
	}
}

// BuildUnit slices source by sym's line range and returns the
// resulting CodeUnit alongside its graph, ready for
// fingerprint.Compute via LabelFunc. filePath and languageID are
// attributed by the caller, since LSP symbol ranges carry neither.
func BuildUnit(source []byte, filePath, languageID string, sym SymbolRange) (unit.CodeUnit, *graph.LabeledGraph) {
	lines := strings.Split(string(source), "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1] // a trailing newline ends the last line; it is not a line of its own
	}
	start := clampLine(sym.StartLine, len(lines))
	end := clampLine(sym.EndLine, len(lines))
	if end < start {
		end = start
	}
	sourceText := []byte(strings.Join(lines[start-1:end], "\n"))

	g := BuildGraph(sym)
	u := unit.CodeUnit{
		Kind:          symbolKindToUnitKind(sym.Kind),
		Name:          sym.Name,
		LanguageID:    languageID,
		FilePath:      filePath,
		StartLine:     start,
		EndLine:       end,
		NodeCount:     g.NodeCount(),
		SourceText:    sourceText,
		ExtractedCode: unit.NormalizeForImportCheck(sourceText),
	}
	return u, g
}

func clampLine(line, total int) int {
	if line < 1 {
		return 1
	}
	if total > 0 && line > total {
		return total
	}
	return line
}

// symbolKindToUnitKind maps common LSP SymbolKind names onto this
// module's three-way Kind classification; anything unrecognized
// falls back to KindFunction, the most common LSP symbol kind for
// refactor-relevant regions.
func symbolKindToUnitKind(symbolKind string) unit.Kind {
	switch strings.ToLower(symbolKind) {
	case "class", "struct", "interface", "enum":
		return unit.KindClass
	default:
		return unit.KindFunction
	}
}
