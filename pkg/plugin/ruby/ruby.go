// Package ruby is the tree-sitter-backed Ruby language plugin.
package ruby

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/treesitter"
)

var functionTypes = map[string]bool{
	"method":           true,
	"singleton_method": true,
	"lambda":           true,
}

var classTypes = map[string]bool{
	"class":  true,
	"module": true,
}

var blockTypes = map[string]bool{
	"for":           true,
	"while":         true,
	"if":            true,
	"case":          true,
	"begin":         true,
}

var identifierTypes = map[string]bool{
	"identifier":  true,
	"constant":    true,
}

var literalTypes = map[string]bool{
	"integer":  true,
	"float":    true,
	"string":   true,
	"true":     true,
	"false":    true,
	"nil":      true,
	"symbol":   true,
}

var operatorTypes = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "!": true, "and": true, "or": true, "not": true,
}

func getName(n *sitter.Node, src []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

// New returns the Ruby language plugin.
func New() plugin.Plugin {
	return treesitter.NewBase(treesitter.Hooks{
		LanguageID:      "ruby",
		Extensions:      []string{".rb"},
		SkipDirsList:    []string{"vendor", ".bundle"},
		Language:        ruby.GetLanguage,
		IsFunctionNode:  func(t string) bool { return functionTypes[t] },
		IsClassNode:     func(t string) bool { return classTypes[t] },
		IsBlockNode:     func(t string) bool { return blockTypes[t] },
		GetName:         getName,
		IdentifierTypes: identifierTypes,
		LiteralTypes:    literalTypes,
		OperatorTypes:   operatorTypes,
	})
}
