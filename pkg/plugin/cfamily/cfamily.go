// Package cfamily is the tree-sitter-backed plugin for C and C++,
// grounded on the teacher's extractFunction C/C++ declarator-digging
// in pkg/parser/parser.go.
package cfamily

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/treesitter"
)

var functionTypes = map[string]bool{
	"function_definition": true,
}

var classTypes = map[string]bool{
	"struct_specifier": true,
	"class_specifier":  true,
	"union_specifier":  true,
}

var blockTypes = map[string]bool{
	"for_statement":    true,
	"while_statement":  true,
	"if_statement":     true,
	"switch_statement": true,
}

var identifierTypes = map[string]bool{
	"identifier":      true,
	"field_identifier": true,
	"type_identifier":  true,
}

var literalTypes = map[string]bool{
	"number_literal": true,
	"string_literal":  true,
	"char_literal":    true,
	"true":            true,
	"false":           true,
	"null":            true,
}

var operatorTypes = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "!": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
}

// getName digs into the C/C++ declarator chain the way the teacher's
// extractFunction does: the function name lives under
// declarator.declarator for pointer/plain declarators.
func getName(n *sitter.Node, src []byte) string {
	decl := n.ChildByFieldName("declarator")
	for decl != nil {
		if decl.Type() == "identifier" {
			return string(src[decl.StartByte():decl.EndByte()])
		}
		inner := decl.ChildByFieldName("declarator")
		if inner == nil {
			break
		}
		decl = inner
	}
	return ""
}

func hooks(id string, exts []string, lang func() *sitter.Language) treesitter.Hooks {
	return treesitter.Hooks{
		LanguageID:      id,
		Extensions:      exts,
		SkipDirsList:    []string{"build", "cmake-build-debug"},
		Language:        lang,
		IsFunctionNode:  func(t string) bool { return functionTypes[t] },
		IsClassNode:     func(t string) bool { return classTypes[t] },
		IsBlockNode:     func(t string) bool { return blockTypes[t] },
		GetName:         getName,
		IdentifierTypes: identifierTypes,
		LiteralTypes:    literalTypes,
		OperatorTypes:   operatorTypes,
	}
}

// NewC returns the C language plugin.
func NewC() plugin.Plugin {
	return treesitter.NewBase(hooks("c", []string{".c", ".h"}, c.GetLanguage))
}

// NewCPP returns the C++ language plugin.
func NewCPP() plugin.Plugin {
	return treesitter.NewBase(hooks("cpp", []string{".cpp", ".cc", ".cxx", ".hpp", ".hxx"}, cpp.GetLanguage))
}
