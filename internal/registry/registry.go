// Package registry wires every tree-sitter language plugin into a
// single plugin.Registry, the one place cmd/astrograph and
// internal/mcpserver build their Engine dependencies from.
package registry

import (
	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/cfamily"
	"github.com/astrograph-io/astrograph/pkg/plugin/golang"
	"github.com/astrograph-io/astrograph/pkg/plugin/java"
	"github.com/astrograph-io/astrograph/pkg/plugin/javascript"
	"github.com/astrograph-io/astrograph/pkg/plugin/php"
	"github.com/astrograph-io/astrograph/pkg/plugin/pyfile"
	"github.com/astrograph-io/astrograph/pkg/plugin/ruby"
	"github.com/astrograph-io/astrograph/pkg/plugin/rust"
)

// All builds the default registry covering every language this
// module ships a tree-sitter plugin for.
func All() *plugin.Registry {
	return plugin.NewRegistry(
		golang.New(),
		pyfile.New(),
		javascript.NewJavaScript(),
		javascript.NewTypeScript(),
		javascript.NewTSX(),
		java.New(),
		ruby.New(),
		php.New(),
		rust.New(),
		cfamily.NewC(),
		cfamily.NewCPP(),
	)
}
