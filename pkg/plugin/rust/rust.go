// Package rust is the tree-sitter-backed Rust language plugin.
package rust

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/treesitter"
)

var functionTypes = map[string]bool{
	"function_item": true,
	"closure_expression": true,
}

var classTypes = map[string]bool{
	"struct_item": true,
	"impl_item":   true,
	"enum_item":   true,
	"trait_item":  true,
}

var blockTypes = map[string]bool{
	"for_expression":   true,
	"while_expression": true,
	"if_expression":    true,
	"match_expression": true,
	"loop_expression":  true,
}

var identifierTypes = map[string]bool{
	"identifier":      true,
	"field_identifier": true,
	"type_identifier":  true,
}

var literalTypes = map[string]bool{
	"integer_literal": true,
	"float_literal":   true,
	"string_literal":  true,
	"char_literal":    true,
	"boolean_literal": true,
}

var operatorTypes = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "!": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
}

func getName(n *sitter.Node, src []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

// New returns the Rust language plugin.
func New() plugin.Plugin {
	return treesitter.NewBase(treesitter.Hooks{
		LanguageID:      "rust",
		Extensions:      []string{".rs"},
		SkipDirsList:    []string{"target"},
		Language:        rust.GetLanguage,
		IsFunctionNode:  func(t string) bool { return functionTypes[t] },
		IsClassNode:     func(t string) bool { return classTypes[t] },
		IsBlockNode:     func(t string) bool { return blockTypes[t] },
		GetName:         getName,
		IdentifierTypes: identifierTypes,
		LiteralTypes:    literalTypes,
		OperatorTypes:   operatorTypes,
	})
}
