package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/unit"
)

func sampleSummary() discovery.Summary {
	cluster := discovery.DuplicateCluster{
		Kind:       discovery.KindExact,
		NodeCount:  20,
		LanguageID: "go",
		Members: []unit.CodeUnit{
			{Name: "validate", FilePath: "pkg/a/a.go", StartLine: 1, EndLine: 20, Kind: unit.KindFunction, NodeCount: 20},
			{Name: "validate", FilePath: "pkg/b/b.go", StartLine: 5, EndLine: 24, Kind: unit.KindFunction, NodeCount: 20},
		},
	}
	return discovery.Summary{
		Clusters:     []discovery.DuplicateCluster{cluster},
		FilesScanned: 2,
		UnitsTotal:   2,
	}
}

func TestWrite_CreatesReportFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Write(sampleSummary(), Options{Version: "test", RootPath: "."}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Fatalf("report written outside its directory: %s", path)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	out := string(contents)
	if !strings.Contains(out, "files scanned: 2") {
		t.Errorf("report missing summary line: %s", out)
	}
	if !strings.Contains(out, "== exact clusters (1) ==") {
		t.Errorf("report missing exact cluster section: %s", out)
	}
	if !strings.Contains(out, "pkg/a/a.go:1-20") {
		t.Errorf("report missing member location: %s", out)
	}
}

func TestWrite_IncludesRecommendationsWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Write(sampleSummary(), Options{Version: "test", IncludeRecommendations: true}, time.Now())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	contents, _ := os.ReadFile(path)
	if !strings.Contains(string(contents), "== Recommendations ==") {
		t.Errorf("expected recommendations section, got: %s", contents)
	}
}

func TestWrite_OmitsRecommendationsByDefault(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Write(sampleSummary(), Options{Version: "test"}, time.Now())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	contents, _ := os.ReadFile(path)
	if strings.Contains(string(contents), "== Recommendations ==") {
		t.Errorf("did not expect recommendations section, got: %s", contents)
	}
}

func TestWrite_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	summary := discovery.Summary{
		FilesFailed: []discovery.FileFailure{
			{Path: "broken.go", Kind: "parse_error", Message: "unexpected EOF"},
		},
	}
	path, err := w.Write(summary, Options{Version: "test"}, time.Now())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	contents, _ := os.ReadFile(path)
	if !strings.Contains(string(contents), "broken.go: unexpected EOF") {
		t.Errorf("expected failure line, got: %s", contents)
	}
}

func TestFileName_IsUniquePerNanosecond(t *testing.T) {
	t1 := time.Date(2026, 1, 2, 3, 4, 5, 1000, time.UTC)
	t2 := time.Date(2026, 1, 2, 3, 4, 5, 2000, time.UTC)
	if fileName(t1) == fileName(t2) {
		t.Errorf("fileName should differ across nanosecond components: %s", fileName(t1))
	}
}
