// Package javascript is the tree-sitter-backed plugin for
// JavaScript, TypeScript, and TSX, grounded on the teacher's shared
// node-type handling for LangTypeScript/LangJavaScript/LangTSX in
// pkg/parser/parser.go.
package javascript

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/treesitter"
)

var functionTypes = map[string]bool{
	"function_declaration": true,
	"function":             true,
	"arrow_function":       true,
	"method_definition":    true,
	"generator_function":   true,
}

var classTypes = map[string]bool{
	"class_declaration": true,
	"class":             true,
}

var blockTypes = map[string]bool{
	"for_statement":        true,
	"for_in_statement":     true,
	"while_statement":      true,
	"if_statement":         true,
	"try_statement":        true,
	"switch_statement":     true,
}

var identifierTypes = map[string]bool{
	"identifier":       true,
	"property_identifier": true,
	"shorthand_property_identifier": true,
	"type_identifier": true,
}

var literalTypes = map[string]bool{
	"number":              true,
	"string":              true,
	"template_string":     true,
	"true":                true,
	"false":               true,
	"null":                true,
	"undefined":           true,
}

var operatorTypes = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "===": true, "!=": true, "!==": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "??": true, "!": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, ">>>": true,
}

func getName(n *sitter.Node, src []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

func hooks(id string, exts []string, lang func() *sitter.Language) treesitter.Hooks {
	return treesitter.Hooks{
		LanguageID:      id,
		Extensions:      exts,
		SkipDirsList:    []string{"node_modules", "dist", "build"},
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

// NewJavaScript returns the JavaScript plugin.
func NewJavaScript() plugin.Plugin {
	return treesitter.NewBase(hooks("javascript", []string{".js", ".mjs", ".cjs"}, javascript.GetLanguage))
}

// NewTypeScript returns the TypeScript plugin.
func NewTypeScript() plugin.Plugin {
	return treesitter.NewBase(hooks("typescript", []string{".ts"}, typescript.GetLanguage))
}

// NewTSX returns the TSX/JSX plugin.
func NewTSX() plugin.Plugin {
	return treesitter.NewBase(hooks("tsx", []string{".tsx", ".jsx"}, tsx.GetLanguage))
}
