package astrograph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/index"
	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/golang"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	reg := plugin.NewRegistry(golang.New())
	store, err := index.Open(filepath.Join(root, ".idx"))
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(reg, store, WithVersion("test")), root
}

func write(t *testing.T, root, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func clustersOfKind(clusters []discovery.DuplicateCluster, kind discovery.ClusterKind) []discovery.DuplicateCluster {
	var out []discovery.DuplicateCluster
	for _, c := range clusters {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// S1: exact duplicate with renamed variables clusters as one exact
// cluster of size 2.
func TestAnalyze_S1_ExactDuplicateRenamedVars(t *testing.T) {
	e, root := newTestEngine(t)
	write(t, root, "a.go", `package sample

func First(a int) int {
	if a > 0 {
		return a + 1
	}
	return a - 1
}
`)
	write(t, root, "b.go", `package sample

func Second(x int) int {
	if x > 0 {
		return x + 1
	}
	return x - 1
}
`)

	_, summary, err := e.Analyze(context.Background(), root, Options{IncludeRecommendations: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	exact := clustersOfKind(summary.Clusters, discovery.KindExact)
	if len(exact) != 1 {
		t.Fatalf("exact clusters = %d, want 1 (got %+v)", len(exact), summary.Clusters)
	}
	if len(exact[0].Members) != 2 {
		t.Fatalf("exact cluster members = %d, want 2", len(exact[0].Members))
	}
}

// S2: raising the exact-match node threshold above what any real unit
// in the corpus reaches empties the result, proving the threshold is
// actually enforced rather than just a default that happens to pass.
func TestAnalyze_S2_BelowThreshold(t *testing.T) {
	e, root := newTestEngine(t)
	write(t, root, "a.go", `package sample

func First(a int) int { return a }
`)
	write(t, root, "b.go", `package sample

func Second(x int) int { return x }
`)

	_, summary, err := e.Analyze(context.Background(), root, Options{
		MinNodeCountExact: 1 << 20,
		MinNodeCountBlock: 1 << 20,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(summary.Clusters) != 0 {
		t.Fatalf("clusters = %+v, want none above an unreachable threshold", summary.Clusters)
	}
}

// S3: same structural shape with a different operator produces a
// pattern cluster, not an exact one — the pattern hash normalizes
// operators, the exact hash does not.
func TestAnalyze_S3_PatternNotExact(t *testing.T) {
	e, root := newTestEngine(t)
	write(t, root, "a.go", `package sample

func Combine(a, b int) int {
	if a > b {
		return a + b
	}
	return a
}
`)
	write(t, root, "b.go", `package sample

func Merge(a, b int) int {
	if a > b {
		return a - b
	}
	return a
}
`)

	_, summary, err := e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	exact := clustersOfKind(summary.Clusters, discovery.KindExact)
	pattern := clustersOfKind(summary.Clusters, discovery.KindPattern)
	if len(exact) != 0 {
		t.Errorf("exact clusters = %+v, want none (operators differ)", exact)
	}
	if len(pattern) != 1 {
		t.Fatalf("pattern clusters = %d, want 1 (got %+v)", len(pattern), summary.Clusters)
	}
}

// S5: a suppressed cluster disappears from the next analysis while
// its evidence is unchanged, and returns once a member's body
// changes (the suppression no longer matches the new evidence).
func TestAnalyze_S5_SuppressionRoundTrip(t *testing.T) {
	e, root := newTestEngine(t)
	write(t, root, "a.go", `package sample

func First(a int) int {
	if a > 0 {
		return a + 1
	}
	return a - 1
}
`)
	write(t, root, "b.go", `package sample

func Second(x int) int {
	if x > 0 {
		return x + 1
	}
	return x - 1
}
`)

	_, summary, err := e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	exact := clustersOfKind(summary.Clusters, discovery.KindExact)
	if len(exact) != 1 {
		t.Fatalf("setup: exact clusters = %d, want 1", len(exact))
	}
	clusterKey := exact[0].ClusterKey()

	if err := e.Suppress(context.Background(), clusterKey, "ok"); err != nil {
		t.Fatalf("Suppress: %v", err)
	}

	_, summary, err = e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Analyze (after suppress): %v", err)
	}
	if len(clustersOfKind(summary.Clusters, discovery.KindExact)) != 0 {
		t.Fatalf("clusters after suppress = %+v, want the suppressed cluster hidden", summary.Clusters)
	}

	write(t, root, "b.go", `package sample

func Second(x int) int {
	if x > 0 {
		return x + 100
	}
	return x - 1
}
`)

	_, summary, err = e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Analyze (after edit): %v", err)
	}
	if len(clustersOfKind(summary.Clusters, discovery.KindExact)) != 1 {
		t.Fatalf("clusters after body edit = %+v, want the exact cluster back (literal change keeps the structure, but the suppression's evidence no longer matches)", summary.Clusters)
	}
}

// S6: two back-to-back analyses of an unchanged tree produce
// byte-identical report bodies.
func TestAnalyze_S6_Determinism(t *testing.T) {
	e, root := newTestEngine(t)
	write(t, root, "a.go", `package sample

func First(a int) int {
	if a > 0 {
		return a + 1
	}
	return a - 1
}
`)
	write(t, root, "b.go", `package sample

func Second(x int) int {
	if x > 0 {
		return x + 1
	}
	return x - 1
}
`)

	path1, _, err := e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Analyze (first): %v", err)
	}
	path2, _, err := e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Analyze (second): %v", err)
	}
	if path1 == path2 {
		t.Fatalf("report paths = %q, %q, want distinct filenames (timestamp suffix differs)", path1, path2)
	}

	body1, err := os.ReadFile(path1)
	if err != nil {
		t.Fatal(err)
	}
	body2, err := os.ReadFile(path2)
	if err != nil {
		t.Fatal(err)
	}
	if string(body1) != string(body2) {
		t.Fatalf("report bodies differ between identical runs:\n--- first ---\n%s\n--- second ---\n%s", body1, body2)
	}
}

// Write runs the stricter pre-create check without mutating the
// index: writing an exact duplicate of an already-analyzed function
// is flagged, and the index is unaffected by the check itself.
func TestWrite_FlagsPreCreateDuplicateWithoutIndexing(t *testing.T) {
	e, root := newTestEngine(t)
	fn := `package sample

func Validate(name string) bool {
	if name == "" {
		return false
	}
	if len(name) > 64 {
		return false
	}
	return true
}
`
	write(t, root, "a.go", fn)

	_, _, err := e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	duplicate := `package sample

func ValidateAlt(label string) bool {
	if label == "" {
		return false
	}
	if len(label) > 64 {
		return false
	}
	return true
}
`
	clusters, err := e.Write(context.Background(), filepath.Join(root, "b.go"), []byte(duplicate))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(clusters) == 0 {
		t.Fatal("Write should flag an exact duplicate of an already-indexed function")
	}
	for _, entry := range e.store.AllEntries() {
		if entry.FilePath == filepath.Join(root, "b.go") {
			t.Fatalf("index gained an entry for the checked file %q; Write must not index", entry.FilePath)
		}
	}
}

func TestWrite_UnsupportedLanguageFails(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Write(context.Background(), "/tmp/whatever.rb", []byte("class Foo\nend\n"))
	if err == nil {
		t.Fatal("Write should fail for an extension with no registered plugin")
	}
}

func TestUnsuppress_ReinstatesCluster(t *testing.T) {
	e, root := newTestEngine(t)
	write(t, root, "a.go", `package sample

func First(a int) int {
	if a > 0 {
		return a + 1
	}
	return a - 1
}
`)
	write(t, root, "b.go", `package sample

func Second(x int) int {
	if x > 0 {
		return x + 1
	}
	return x - 1
}
`)

	_, summary, err := e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	exact := clustersOfKind(summary.Clusters, discovery.KindExact)
	if len(exact) != 1 {
		t.Fatalf("setup: exact clusters = %d, want 1", len(exact))
	}
	key := exact[0].ClusterKey()

	if err := e.Suppress(context.Background(), key, "temporary"); err != nil {
		t.Fatal(err)
	}
	sups, err := e.ListSuppressions(context.Background())
	if err != nil || len(sups) != 1 {
		t.Fatalf("ListSuppressions = %+v, %v, want one active suppression", sups, err)
	}

	if err := e.Unsuppress(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	sups, err = e.ListSuppressions(context.Background())
	if err != nil || len(sups) != 0 {
		t.Fatalf("ListSuppressions after Unsuppress = %+v, %v, want none active", sups, err)
	}

	_, summary, err = e.Analyze(context.Background(), root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(clustersOfKind(summary.Clusters, discovery.KindExact)) != 1 {
		t.Fatalf("clusters after unsuppress = %+v, want the cluster visible again", summary.Clusters)
	}
}
