// Package plugin defines the language-plugin capability interface
// (spec §4.1) and the registry that resolves plugins by extension or
// language id (spec §9's "capability interface... resolved through a
// registry keyed by language id").
package plugin

import (
	"errors"
	"strings"
	"sync"

	"github.com/astrograph-io/astrograph/pkg/fingerprint"
	"github.com/astrograph-io/astrograph/pkg/graph"
	"github.com/astrograph-io/astrograph/pkg/unit"
)

// ErrParseFailure is returned when the underlying grammar cannot
// produce any tree. Discovery proceeds; the offending file is
// skipped and recorded (spec §4.1, §7).
var ErrParseFailure = errors.New("astrograph: parse failure")

// ErrUnsupportedEncoding is returned when bytes are not valid UTF-8
// and the grammar requires it (spec §4.1).
var ErrUnsupportedEncoding = errors.New("astrograph: unsupported encoding")

// Plugin is the capability set every language implementation
// supplies. It is a trait-shaped interface, not a base class: spec
// §9 explicitly rejects runtime subclassing in favor of a registry of
// tagged implementations.
type Plugin interface {
	// LanguageID returns a unique, stable identifier (e.g. "go").
	LanguageID() string
	// FileExtensions returns the dot-prefixed, lowercase extensions
	// this plugin claims.
	FileExtensions() []string
	// SkipDirs returns directory names to prune during corpus walks.
	SkipDirs() []string
	// SourceToGraph parses bytes and returns the labeled CST-derived
	// graph for the whole file.
	SourceToGraph(src []byte) (*graph.LabeledGraph, error)
	// ExtractCodeUnits enumerates functions, classes, and (optionally)
	// blocks found in src.
	ExtractCodeUnits(src []byte, filePath string) ([]unit.CodeUnit, error)
	// CodeUnitToASTGraph produces a unit's own subgraph with computed
	// metadata (node_count, etc.) filled into the returned units by
	// the caller — the graph itself carries only structure.
	CodeUnitToASTGraph(u unit.CodeUnit) (*graph.LabeledGraph, error)
	// LabelFunc returns the structural-labeling closure fingerprint.Compute
	// needs to hash g, applying this plugin's identifier/literal/operator
	// collapsing discipline (spec §4.2).
	LabelFunc(g *graph.LabeledGraph) fingerprint.LabelFunc
}

// Registry is a read-mostly, concurrency-safe lookup from file
// extension or language id to Plugin. It is built once via
// NewRegistry and never mutated afterward, matching spec §5's "the
// plugin registry is read-mostly, initialized once, and safe for
// concurrent readers" and spec §9's "no runtime singleton" note —
// callers construct and own their Registry instance.
type Registry struct {
	byExt  map[string]Plugin
	byLang map[string]Plugin
	all    []Plugin
	mu     sync.RWMutex
}

// NewRegistry builds a Registry from a fixed set of plugins. Later
// plugins do not override earlier ones claiming the same extension;
// the first registration wins, mirroring the teacher's
// parser.DetectLanguage dispatch-table determinism.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{
		byExt:  make(map[string]Plugin),
		byLang: make(map[string]Plugin),
	}
	for _, p := range plugins {
		r.all = append(r.all, p)
		id := p.LanguageID()
		if _, exists := r.byLang[id]; !exists {
			r.byLang[id] = p
		}
		for _, ext := range p.FileExtensions() {
			ext = strings.ToLower(ext)
			if _, exists := r.byExt[ext]; !exists {
				r.byExt[ext] = p
			}
		}
	}
	return r
}

// ForExtension resolves a plugin by dot-prefixed, lowercase extension.
func (r *Registry) ForExtension(ext string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExt[strings.ToLower(ext)]
	return p, ok
}

// ForLanguageID resolves a plugin by its stable language id.
func (r *Registry) ForLanguageID(id string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byLang[id]
	return p, ok
}

// All returns every registered plugin, in registration order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.all))
	copy(out, r.all)
	return out
}

// SkipDirs returns the union of every registered plugin's SkipDirs,
// used by pkg/scanner to prune ecosystem build-artifact directories
// regardless of which plugin ultimately claims a given file.
func (r *Registry) SkipDirs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.all {
		for _, d := range p.SkipDirs() {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}
