// Package php is the tree-sitter-backed PHP language plugin.
package php

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/treesitter"
)

var functionTypes = map[string]bool{
	"function_definition": true,
	"method_declaration":  true,
	"anonymous_function_creation_expression": true,
}

var classTypes = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"trait_declaration":     true,
}

var blockTypes = map[string]bool{
	"for_statement":    true,
	"while_statement":  true,
	"if_statement":     true,
	"switch_statement": true,
}

var identifierTypes = map[string]bool{
	"name":       true,
	"variable_name": true,
}

var literalTypes = map[string]bool{
	"integer":  true,
	"float":    true,
	"string":   true,
	"true":     true,
	"false":    true,
	"null":     true,
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

// New returns the PHP language plugin.
func New() plugin.Plugin {
	return treesitter.NewBase(treesitter.Hooks{
		LanguageID:      "php",
		Extensions:      []string{".php"},
		SkipDirsList:    []string{"vendor"},
		Language:        php.GetLanguage,
		IsFunctionNode:  func(t string) bool { return functionTypes[t] },
		IsClassNode:     func(t string) bool { return classTypes[t] },
		IsBlockNode:     func(t string) bool { return blockTypes[t] },
		GetName:         getName,
		IdentifierTypes: identifierTypes,
		LiteralTypes:    literalTypes,
		OperatorTypes:   operatorTypes,
	})
}
