// Package treesitter implements the generic tree-sitter-backed
// plugin base (spec §4.2): a single implementation of the plugin
// capability parameterized by a small set of per-language hooks, so
// concrete language plugins never reimplement graph-building or
// labeling discipline themselves.
package treesitter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/astrograph-io/astrograph/pkg/fingerprint"
	"github.com/astrograph-io/astrograph/pkg/graph"
	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/unit"
)

// Hooks is the capability set a concrete language plugin supplies to
// Base. Node types are tree-sitter grammar node type strings (e.g.
// "function_declaration", "identifier", "+").
type Hooks struct {
	LanguageID   string
	Extensions   []string
	SkipDirsList []string

	// Language binds the tree-sitter grammar.
	Language func() *sitter.Language

	// IsFunctionNode, IsClassNode classify a node by its grammar type.
	IsFunctionNode func(nodeType string) bool
	IsClassNode    func(nodeType string) bool

	// GetName extracts a declared name from a matched node. Return ""
	// for anonymous functions; Base substitutes unit.AnonymousName.
	GetName func(node *sitter.Node, source []byte) string

	// IdentifierTypes, LiteralTypes, OperatorTypes drive the labeling
	// discipline (spec §4.2): identifier/literal node types always
	// collapse to a generic label; operator node types collapse to a
	// generic class only when normalize_ops is requested.
	IdentifierTypes map[string]bool
	LiteralTypes    map[string]bool
	OperatorTypes   map[string]bool

	// IsBlockNode classifies control-flow block nodes (for, while,
	// if, ...). Optional; nil means no block extraction for this
	// language.
	IsBlockNode func(nodeType string) bool

	// GetBlockType returns the block-type tag (spec §3's "for",
	// "while", "if", ...). Optional; defaults to node.Type().
	GetBlockType func(node *sitter.Node) string

	// ShouldSkipNode excludes a node from the structural graph.
	// Optional; defaults to skipping unnamed single-character
	// punctuation nodes. Nodes listed in OperatorTypes are never
	// skipped by the default, so operator identity reaches the graph.
	ShouldSkipNode func(node *sitter.Node) bool
}

// Base is the generic plugin implementation. It is safe for
// concurrent use: the registry hands one Base to every worker in the
// parallel pipeline (§5), and each parse call creates its own
// *sitter.Parser, so no parser state is shared between workers.
type Base struct {
	hooks Hooks
}

// NewBase constructs a Base from the given hooks.
func NewBase(h Hooks) *Base {
	return &Base{hooks: h}
}

func (b *Base) LanguageID() string     { return b.hooks.LanguageID }
func (b *Base) FileExtensions() []string { return b.hooks.Extensions }
func (b *Base) SkipDirs() []string     { return b.hooks.SkipDirsList }

func (b *Base) shouldSkip(n *sitter.Node) bool {
	if b.hooks.ShouldSkipNode != nil {
		return b.hooks.ShouldSkipNode(n)
	}
	if b.hooks.OperatorTypes[n.Type()] {
		return false
	}
	return !n.IsNamed() && len(n.Type()) == 1
}

// parse runs the grammar over src and returns the root CST node, or
// plugin.ErrParseFailure if the grammar could not produce any tree.
func (b *Base) parse(src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(b.hooks.Language())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plugin.ErrParseFailure, err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, plugin.ErrParseFailure
	}
	return tree, nil
}

// SourceToGraph parses src and returns the labeled CST-derived graph
// for the whole fragment. Node labels carry the raw grammar type
// (or, for leaf operator tokens, the operator text); the
// identifier/literal/operator collapse happens later, per pass, in
// LabelFunc — the graph itself is pass-agnostic.
func (b *Base) SourceToGraph(src []byte) (*graph.LabeledGraph, error) {
	tree, err := b.parse(src)
	if err != nil {
		return nil, err
	}
	g := graph.New()
	b.buildGraph(g, tree.RootNode(), src, -1)
	return g, nil
}

// buildGraph recursively mirrors the CST into g, skipping nodes
// ShouldSkipNode rejects. parentID is -1 for the root call.
func (b *Base) buildGraph(g *graph.LabeledGraph, n *sitter.Node, src []byte, parentID int) {
	if n == nil || b.shouldSkip(n) {
		return
	}
	label := n.Type()
	id := g.AddNode(label)
	if parentID >= 0 {
		g.AddChild(parentID, id)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		b.buildGraph(g, n.Child(i), src, id)
	}
}

// LabelFunc returns a fingerprint.LabelFunc closure over g that
// applies this plugin's labeling discipline, ready to hand straight
// to fingerprint.Compute.
func (b *Base) LabelFunc(g *graph.LabeledGraph) fingerprint.LabelFunc {
	return func(id int, normalizeOps bool) string {
		raw := g.Label(id)
		if b.hooks.IdentifierTypes[raw] {
			return "identifier"
		}
		if b.hooks.LiteralTypes[raw] {
			return "literal"
		}
		if b.hooks.OperatorTypes[raw] {
			if normalizeOps {
				return "binary_op"
			}
			return raw
		}
		return raw
	}
}

// ExtractCodeUnits walks the parse tree and emits a CodeUnit for
// every node the hooks classify as a function, class, or block
// (spec §4.3). Overlapping/duplicate ranges are removed by
// unit.Dedup before returning.
func (b *Base) ExtractCodeUnits(src []byte, filePath string) ([]unit.CodeUnit, error) {
	tree, err := b.parse(src)
	if err != nil {
		return nil, err
	}

	var units []unit.CodeUnit
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		nodeType := n.Type()
		switch {
		case !n.IsNamed():
			// Anonymous keyword tokens (JavaScript's "function",
			// Ruby's "class", ...) share their type string with the
			// named declaration nodes and are never units themselves.
		case b.hooks.IsFunctionNode != nil && b.hooks.IsFunctionNode(nodeType):
			if u, ok := b.buildUnit(n, src, filePath, unit.KindFunction, ""); ok {
				units = append(units, u)
			}
		case b.hooks.IsClassNode != nil && b.hooks.IsClassNode(nodeType):
			if u, ok := b.buildUnit(n, src, filePath, unit.KindClass, ""); ok {
				units = append(units, u)
			}
		case b.hooks.IsBlockNode != nil && b.hooks.IsBlockNode(nodeType):
			blockType := nodeType
			if b.hooks.GetBlockType != nil {
				blockType = b.hooks.GetBlockType(n)
			}
			if u, ok := b.buildUnit(n, src, filePath, unit.KindBlock, blockType); ok {
				units = append(units, u)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())

	return unit.Dedup(units), nil
}

func (b *Base) buildUnit(n *sitter.Node, src []byte, filePath string, kind unit.Kind, blockType string) (unit.CodeUnit, bool) {
	start := n.StartByte()
	end := n.EndByte()
	if start > end || int(end) > len(src) {
		return unit.CodeUnit{}, false
	}
	sourceText := src[start:end]

	g := graph.New()
	b.buildGraph(g, n, src, -1)
	nodeCount := g.NodeCount()
	if nodeCount < 1 {
		return unit.CodeUnit{}, false
	}

	name := ""
	if b.hooks.GetName != nil {
		name = b.hooks.GetName(n, src)
	}
	if name == "" && kind != unit.KindBlock {
		name = unit.AnonymousName
	}

	u := unit.CodeUnit{
		Kind:          kind,
		Name:          name,
		LanguageID:    b.hooks.LanguageID,
		FilePath:      filePath,
		StartLine:     int(n.StartPoint().Row) + 1,
		EndLine:       int(n.EndPoint().Row) + 1,
		NodeCount:     nodeCount,
		SourceText:    sourceText,
		ExtractedCode: unit.NormalizeForImportCheck(sourceText),
		BlockType:     blockType,
	}
	return u, true
}

// CodeUnitToASTGraph produces the unit's own subgraph by reparsing
// its SourceText in isolation. This keeps a single code path
// (buildGraph) as the source of truth for structure, and matches
// how ExtractCodeUnits already derives NodeCount.
func (b *Base) CodeUnitToASTGraph(u unit.CodeUnit) (*graph.LabeledGraph, error) {
	return b.SourceToGraph(u.SourceText)
}
