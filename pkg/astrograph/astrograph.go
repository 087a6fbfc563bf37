// Package astrograph is the public facade both the CLI and the MCP
// server shell call into (spec §6). It owns no process-wide state: a
// caller constructs an Engine from a plugin.Registry and an
// index.Store it already opened, so tests can build an isolated
// engine instance without touching process singletons (spec §9).
package astrograph

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/fileproc"
	"github.com/astrograph-io/astrograph/pkg/fingerprint"
	"github.com/astrograph-io/astrograph/pkg/index"
	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/recommend"
	"github.com/astrograph-io/astrograph/pkg/report"
	"github.com/astrograph-io/astrograph/pkg/scanner"
	"github.com/astrograph-io/astrograph/pkg/unit"
)

// Options configures a single Analyze run (spec §6's analyze options).
type Options struct {
	Languages              []string // subset of registered ids; empty means all
	MinNodeCountExact       int
	MinNodeCountBlock       int
	MinBlockLines           int
	IncludeBlocks           bool
	IncludeRecommendations  bool
	MaxWorkers              int
}

func (o Options) thresholds(base discovery.Thresholds) discovery.Thresholds {
	t := base
	if o.MinNodeCountExact > 0 {
		t.MinNodeCountExact = o.MinNodeCountExact
	}
	if o.MinNodeCountBlock > 0 {
		t.MinNodeCountBlock = o.MinNodeCountBlock
	}
	if o.MinBlockLines > 0 {
		t.MinBlockLines = o.MinBlockLines
	}
	t.IncludeBlocks = o.IncludeBlocks
	return t
}

// Edit is one line-range replacement applied to a file's current
// content before the resulting text is pre-create checked (spec §6:
// "edit(file_path, edits) — same contract as write on the resulting
// text").
type Edit struct {
	StartLine int
	EndLine   int
	NewText   string
}

// Engine is the stateful facade: a registry, an index store, and the
// thresholds/version it was constructed with.
type Engine struct {
	registry   *plugin.Registry
	store      *index.Store
	thresholds discovery.Thresholds
	version    string
	maxWorkers int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithVersion sets the tool version stamped into report headers.
func WithVersion(v string) Option {
	return func(e *Engine) { e.version = v }
}

// WithThresholds overrides the default significance thresholds.
func WithThresholds(t discovery.Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithMaxWorkers overrides the default 2x-NumCPU worker pool size.
func WithMaxWorkers(n int) Option {
	return func(e *Engine) { e.maxWorkers = n }
}

// New constructs an Engine from caller-owned dependencies. There is
// no package-level global registry or store anywhere in this module.
func New(registry *plugin.Registry, store *index.Store, opts ...Option) *Engine {
	e := &Engine{
		registry:   registry,
		store:      store,
		thresholds: discovery.DefaultThresholds(),
		version:    "dev",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze walks rootPath, fingerprints every claimed file, clusters
// duplicates, persists the result to the index, and writes a
// timestamped report artifact (spec §4.7, §6). A canceled run mutates
// neither the index nor the report directory (spec §5).
func (e *Engine) Analyze(ctx context.Context, rootPath string, opts Options) (string, discovery.Summary, error) {
	scan := scanner.New(e.registry, nil)
	files, err := scan.Scan(rootPath)
	if err != nil {
		return "", discovery.Summary{}, fmt.Errorf("astrograph: scan %s: %w", rootPath, err)
	}
	files = filterByLanguage(files, e.registry, opts.Languages)

	type perFile struct {
		filePath      string
		fingerprinted []discovery.Fingerprinted
		entries       []index.IndexEntry
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = e.maxWorkers
	}
	results, procErrs := fileproc.MapFilesWithContext(ctx, files, workers, func(path string) (perFile, error) {
		p, ok := e.registry.ForExtension(filepath.Ext(path))
		if !ok {
			return perFile{}, nil // unsupported_language: silently skipped, not a failure
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return perFile{}, err
		}
		fps, entries, err := e.extract(p, path, content)
		if err != nil {
			return perFile{}, err
		}
		return perFile{filePath: path, fingerprinted: fps, entries: entries}, nil
	}, nil)

	if ctx.Err() != nil {
		return "", discovery.Summary{}, ctx.Err()
	}

	var allFingerprinted []discovery.Fingerprinted
	unitsTotal := 0
	for _, r := range results {
		allFingerprinted = append(allFingerprinted, r.fingerprinted...)
		unitsTotal += len(r.fingerprinted)
	}

	summary := discovery.Summary{
		FilesScanned:  len(files),
		UnitsTotal:    unitsTotal,
		UnitsFiltered: unitsTotal - len(allFingerprinted),
	}
	if procErrs != nil {
		for _, pe := range procErrs.Snapshot() {
			summary.FilesFailed = append(summary.FilesFailed, discovery.FileFailure{
				Path: pe.Path, Kind: pe.Kind, Message: pe.Err.Error(),
			})
		}
	}

	if ctx.Err() != nil {
		return "", discovery.Summary{}, ctx.Err()
	}

	for _, r := range results {
		if r.filePath == "" {
			continue
		}
		if err := e.store.Upsert(r.filePath, r.entries); err != nil {
			return "", discovery.Summary{}, fmt.Errorf("astrograph: index upsert: %w", err)
		}
	}

	// Discovery runs after the upsert so suppression staleness is judged
	// against this run's evidence digests, not the previous run's.
	engine := discovery.NewEngine(opts.thresholds(e.thresholds))
	summary.Clusters = engine.Discover(allFingerprinted, e.store.IsSuppressed)

	writer := report.NewWriter(e.store.Dir())
	path, err := writer.Write(summary, report.Options{
		Version:                e.version,
		RootPath:               rootPath,
		IncludeRecommendations: opts.IncludeRecommendations,
	}, now())
	if err != nil {
		return "", discovery.Summary{}, fmt.Errorf("astrograph: write report: %w", err)
	}

	return path, summary, nil
}

// Write runs the pre-create duplicate check (threshold 10) against
// content as though it were the contents of filePath, without
// touching the index (spec §6).
func (e *Engine) Write(ctx context.Context, filePath string, content []byte) ([]discovery.DuplicateCluster, error) {
	p, ok := e.registry.ForExtension(filepath.Ext(filePath))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filePath)
	}
	fps, _, err := e.extract(p, filePath, content)
	if err != nil {
		return nil, &FileError{Path: filePath, Kind: ErrParseFailure, Err: err}
	}
	return e.preCreateFindings(fps), nil
}

// Edit applies edits to filePath's current on-disk content and runs
// the same pre-create check Write does on the result (spec §6).
func (e *Engine) Edit(ctx context.Context, filePath string, edits []Edit) ([]discovery.DuplicateCluster, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOError, err)
	}
	edited := applyEdits(content, edits)
	return e.Write(ctx, filePath, edited)
}

// Suppress declares a tolerance for clusterKey: future Analyze runs
// hide it as long as reason stands and every currently matching
// member's evidence digest still matches (spec §4.6). The evidence
// digests pinned at suppression time are reconstructed from the
// index itself, since the spec's Suppress contract carries only the
// cluster key and a reason.
func (e *Engine) Suppress(ctx context.Context, clusterKey string, reason string) error {
	digests := evidenceDigestsForClusterKey(e.store.AllEntries(), clusterKey)
	return e.store.AddSuppression(clusterKey, digests, reason, now())
}

// Unsuppress removes a previously declared suppression.
func (e *Engine) Unsuppress(ctx context.Context, clusterKey string) error {
	return e.store.Unsuppress(clusterKey)
}

// ListSuppressions returns every currently active suppression.
func (e *Engine) ListSuppressions(ctx context.Context) ([]index.Suppression, error) {
	return e.store.ListActiveSuppressions(), nil
}

// SuppressIdiomatic suppresses every cluster the recommendation
// engine classifies as review_test_duplication, or whose confidence
// is below 0.55. recommend never scores a cluster below 0.6, so in
// practice only review_test_duplication clusters are suppressed.
func (e *Engine) SuppressIdiomatic(ctx context.Context, clusters []discovery.DuplicateCluster) (int, error) {
	recs := recommend.NewEngine().Recommend(clusters)
	count := 0
	for _, r := range recs {
		if r.Action == recommend.ActionReviewTestDuplication || r.ConfidenceScore < 0.55 {
			digests := evidenceDigestsFor(clusters, r.ClusterKey)
			if err := e.store.AddSuppression(r.ClusterKey, digests, "idiomatic noise", now()); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// evidenceDigestsForClusterKey decodes a "kind:hexdigest" cluster key
// and collects the evidence digests of every currently indexed entry
// that contributed to it. Pattern clusters are keyed by the pattern
// fingerprint; exact and block clusters are both keyed by the exact
// fingerprint, mirroring discovery.Engine's own grouping.
func evidenceDigestsForClusterKey(entries []index.IndexEntry, clusterKey string) []string {
	parts := strings.SplitN(clusterKey, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	kind, hexDigest := parts[0], parts[1]
	raw, err := hex.DecodeString(hexDigest)
	if err != nil || len(raw) != 16 {
		return nil
	}
	var digest fingerprint.Digest
	copy(digest[:], raw)

	var out []string
	for _, e := range entries {
		matched := false
		if kind == string(discovery.KindPattern) {
			matched = e.PatternFingerprint == digest
		} else {
			matched = e.Fingerprint == digest
		}
		if matched {
			out = append(out, e.EvidenceDigest)
		}
	}
	return out
}

func evidenceDigestsFor(clusters []discovery.DuplicateCluster, key string) []string {
	for _, c := range clusters {
		if c.ClusterKey() == key {
			digests := make([]string, len(c.Members))
			for i, m := range c.Members {
				digests[i] = unit.EvidenceDigest(m.SourceText)
			}
			return digests
		}
	}
	return nil
}

// extract turns content into fingerprinted units and their index
// entries using plugin p.
func (e *Engine) extract(p plugin.Plugin, filePath string, content []byte) ([]discovery.Fingerprinted, []index.IndexEntry, error) {
	extractor := unit.NewExtractor(p)
	units, err := extractor.Extract(content, filePath)
	if err != nil {
		return nil, nil, err
	}

	fps := make([]discovery.Fingerprinted, 0, len(units))
	entries := make([]index.IndexEntry, 0, len(units))
	for _, u := range units {
		g, err := p.CodeUnitToASTGraph(u)
		if err != nil {
			continue
		}
		fp := fingerprint.Compute(g, p.LabelFunc(g))
		digest := unit.EvidenceDigest(u.SourceText)

		fps = append(fps, discovery.Fingerprinted{Unit: u, Fingerprint: fp, EvidenceDigest: digest})
		entries = append(entries, index.IndexEntry{
			FilePath:           u.FilePath,
			Name:                u.Name,
			LanguageID:          u.LanguageID,
			StartLine:           u.StartLine,
			EndLine:             u.EndLine,
			Kind:                string(u.Kind),
			Fingerprint:         fp.ExactHash,
			PatternFingerprint:  fp.PatternHash,
			EvidenceDigest:      digest,
		})
	}
	return fps, entries, nil
}

// preCreateFindings checks each freshly fingerprinted unit against
// both the rest of the batch and the persisted index, using the
// stricter pre-create threshold (spec §4.5: "min_node_count = 10").
func (e *Engine) preCreateFindings(fps []discovery.Fingerprinted) []discovery.DuplicateCluster {
	thresholds := discovery.PreCreateThresholds()
	localEngine := discovery.NewEngine(thresholds)
	clusters := localEngine.Discover(fps, nil)

	for _, fp := range fps {
		if fp.Unit.NodeCount < thresholds.MinNodeCountExact {
			continue
		}
		matches := e.store.LookupByFingerprint(string(fp.Unit.Kind), fp.Fingerprint.ExactHash, fp.Fingerprint.PatternHash)
		if len(matches) == 0 {
			continue
		}
		clusters = append(clusters, crossIndexCluster(fp, matches))
	}
	return clusters
}

func crossIndexCluster(fp discovery.Fingerprinted, matches []index.IndexEntry) discovery.DuplicateCluster {
	kind := discovery.KindExact
	langs := map[string]bool{fp.Unit.LanguageID: true}
	members := []unit.CodeUnit{fp.Unit}
	for _, m := range matches {
		if m.Fingerprint != fp.Fingerprint.ExactHash {
			kind = discovery.KindPattern
		}
		langs[m.LanguageID] = true
		members = append(members, unit.CodeUnit{
			Kind:       fp.Unit.Kind,
			Name:       m.Name,
			LanguageID: m.LanguageID,
			FilePath:   m.FilePath,
			StartLine:  m.StartLine,
			EndLine:    m.EndLine,
			NodeCount:  fp.Unit.NodeCount,
		})
	}
	lang := fp.Unit.LanguageID
	if len(langs) > 1 {
		lang = discovery.MixedLanguage
	}
	return discovery.DuplicateCluster{
		Kind:        kind,
		Fingerprint: fp.Fingerprint.ExactHash,
		NodeCount:   fp.Unit.NodeCount,
		LineCount:   fp.Unit.LineCount(),
		LanguageID:  lang,
		Members:     members,
	}
}

func filterByLanguage(files []string, registry *plugin.Registry, languages []string) []string {
	if len(languages) == 0 {
		return files
	}
	wanted := make(map[string]bool, len(languages))
	for _, l := range languages {
		wanted[l] = true
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		p, ok := registry.ForExtension(filepath.Ext(f))
		if ok && wanted[p.LanguageID()] {
			out = append(out, f)
		}
	}
	return out
}

// applyEdits replaces each 1-based inclusive [StartLine, EndLine]
// range with NewText, processing edits in the order given. Overlap
// between edits in the same call is the caller's responsibility to
// avoid, matching the advisory nature of the §6 edit contract.
func applyEdits(content []byte, edits []Edit) []byte {
	lines := strings.Split(string(content), "\n")
	for _, ed := range edits {
		start, end := ed.StartLine-1, ed.EndLine
		if start < 0 {
			start = 0
		}
		if end > len(lines) {
			end = len(lines)
		}
		if start > end {
			continue
		}
		replacement := strings.Split(ed.NewText, "\n")
		lines = append(lines[:start:start], append(replacement, lines[end:]...)...)
	}
	return []byte(strings.Join(lines, "\n"))
}

// now is the single indirection point for the current time, so a
// future test could substitute a fixed clock without this package
// depending on time.Now anywhere else.
func now() time.Time {
	return time.Now()
}
