// Package golang is the tree-sitter-backed Go language plugin,
// grounded on the node-type tables in the teacher's
// pkg/parser/parser.go (getFunctionNodeTypes/getClassNodeTypes/
// extractFunction for LangGo).
package golang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/treesitter"
)

var functionTypes = map[string]bool{
	"function_declaration": true,
	"method_declaration":   true,
	"func_literal":         true,
}

var classTypes = map[string]bool{
	"type_declaration": true,
}

var blockTypes = map[string]bool{
	"for_statement":             true,
	"if_statement":              true,
	"expression_switch_statement": true,
	"type_switch_statement":     true,
	"select_statement":          true,
}

var identifierTypes = map[string]bool{
	"identifier":       true,
	"field_identifier":  true,
	"type_identifier":   true,
	"package_identifier": true,
}

var literalTypes = map[string]bool{
	"int_literal":        true,
	"float_literal":      true,
	"imaginary_literal":  true,
	"rune_literal":       true,
	"string_literal":     true,
	"raw_string_literal": true,
	"true":               true,
	"false":              true,
	"nil":                true,
}

var operatorTypes = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "!": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, "&^": true,
}

func getName(n *sitter.Node, src []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

// New returns the Go language plugin.
func New() plugin.Plugin {
	return treesitter.NewBase(treesitter.Hooks{
		LanguageID:      "go",
		Extensions:      []string{".go"},
		SkipDirsList:    []string{"vendor"},
		Language:        golang.GetLanguage,
		IsFunctionNode:  func(t string) bool { return functionTypes[t] },
		IsClassNode:     func(t string) bool { return classTypes[t] },
		IsBlockNode:     func(t string) bool { return blockTypes[t] },
		GetName:         getName,
		IdentifierTypes: identifierTypes,
		LiteralTypes:    literalTypes,
		OperatorTypes:   operatorTypes,
	})
}
