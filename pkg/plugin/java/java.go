// Package java is the tree-sitter-backed Java language plugin.
package java

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/treesitter"
)

var functionTypes = map[string]bool{
	"method_declaration":      true,
	"constructor_declaration": true,
	"lambda_expression":       true,
}

var classTypes = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"enum_declaration":      true,
}

var blockTypes = map[string]bool{
	"for_statement":     true,
	"while_statement":   true,
	"if_statement":      true,
	"try_statement":     true,
	"switch_expression": true,
}

var identifierTypes = map[string]bool{
	"identifier":      true,
	"type_identifier": true,
}

var literalTypes = map[string]bool{
	"decimal_integer_literal": true,
	"decimal_floating_point_literal": true,
	"string_literal":          true,
	"true":                    true,
	"false":                   true,
	"null_literal":            true,
}

var operatorTypes = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "!": true,
}

func getName(n *sitter.Node, src []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

// New returns the Java language plugin.
func New() plugin.Plugin {
	return treesitter.NewBase(treesitter.Hooks{
		LanguageID:      "java",
		Extensions:      []string{".java"},
		SkipDirsList:    []string{"target", "build"},
		Language:        java.GetLanguage,
		IsFunctionNode:  func(t string) bool { return functionTypes[t] },
		IsClassNode:     func(t string) bool { return classTypes[t] },
		IsBlockNode:     func(t string) bool { return blockTypes[t] },
		GetName:         getName,
		IdentifierTypes: identifierTypes,
		LiteralTypes:    literalTypes,
		OperatorTypes:   operatorTypes,
	})
}
