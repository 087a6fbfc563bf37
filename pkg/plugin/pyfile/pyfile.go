// Package pyfile is the tree-sitter-backed Python language plugin.
package pyfile

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/treesitter"
)

var functionTypes = map[string]bool{
	"function_definition": true,
	"lambda":              true,
}

var classTypes = map[string]bool{
	"class_definition": true,
}

var blockTypes = map[string]bool{
	"for_statement":   true,
	"while_statement": true,
	"if_statement":    true,
	"try_statement":   true,
	"with_statement":  true,
}

var identifierTypes = map[string]bool{
	"identifier": true,
}

var literalTypes = map[string]bool{
	"integer":              true,
	"float":                true,
	"string":                true,
	"true":                 true,
	"false":                true,
	"none":                 true,
}

var operatorTypes = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "//": true, "%": true, "**": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"and": true, "or": true, "not": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
}

func getName(n *sitter.Node, src []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

// New returns the Python language plugin.
func New() plugin.Plugin {
	return treesitter.NewBase(treesitter.Hooks{
		LanguageID:      "python",
		Extensions:      []string{".py", ".pyw", ".pyi"},
		SkipDirsList:    []string{"__pycache__", ".venv", "venv"},
		Language:        python.GetLanguage,
		IsFunctionNode:  func(t string) bool { return functionTypes[t] },
		IsClassNode:     func(t string) bool { return classTypes[t] },
		IsBlockNode:     func(t string) bool { return blockTypes[t] },
		GetName:         getName,
		IdentifierTypes: identifierTypes,
		LiteralTypes:    literalTypes,
		OperatorTypes:   operatorTypes,
	})
}
