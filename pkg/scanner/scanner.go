// Package scanner walks a root directory to produce the immutable
// corpus snapshot spec §5 requires before any parallel stage begins.
// Adapted from the teacher's internal/scanner: filepath.WalkDir plus
// go-git's gitignore matcher, generalized to prune by the plugin
// registry's SkipDirs() instead of a fixed language table, and to
// resolve "is this file analyzable" via registry.ForExtension rather
// than parser.DetectLanguage.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/astrograph-io/astrograph/pkg/config"
	"github.com/astrograph-io/astrograph/pkg/plugin"
)

// Scanner finds source files in a directory tree.
type Scanner struct {
	config   *config.Config
	registry *plugin.Registry
	matchers []gitignore.Matcher
}

// New creates a scanner bound to a plugin registry and configuration.
func New(registry *plugin.Registry, cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg, registry: registry}
}

func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			fs := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

func (s *Scanner) isGitignored(path string, isDir bool) bool {
	pathParts := strings.Split(path, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

func (s *Scanner) skipDirNames() map[string]bool {
	out := make(map[string]bool)
	for _, d := range s.config.Exclude.Dirs {
		out[d] = true
	}
	if s.registry != nil {
		for _, d := range s.registry.SkipDirs() {
			out[d] = true
		}
	}
	return out
}

func (s *Scanner) claimed(path string) bool {
	if s.registry == nil {
		return true
	}
	_, ok := s.registry.ForExtension(filepath.Ext(path))
	return ok
}

// Scan walks root and returns the sorted-by-discovery corpus of
// analyzable file paths, honoring skip_dirs, .gitignore, and explicit
// config exclusions. Paths that escape root via a symlink are
// pruned, matching the teacher's traversal guard.
func (s *Scanner) Scan(root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)
	skipDirs := s.skipDirNames()

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if skipDirs[d.Name()] || s.isGitignored(relPath, true) || s.config.ShouldExclude(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isGitignored(relPath, false) || s.config.ShouldExclude(relPath) {
			return nil
		}
		if s.claimed(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}
	return true
}
