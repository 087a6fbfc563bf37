// Package report renders a discovery result to the timestamped text
// artifact spec §4.7 describes. Deliberately a plain text/template
// writer rather than the teacher's html/template dashboard pipeline —
// the spec calls for a "timestamped text artifact", not an HTML
// report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/recommend"
)

const reportTemplate = `astrograph {{.Version}} — analysis report
run: {{.Timestamp}}
root: {{.RootPath}}
files scanned: {{.Summary.FilesScanned}}  units: {{.Summary.UnitsTotal}} (filtered {{.Summary.UnitsFiltered}})
{{- if .Summary.FilesFailed}}

Failures:
{{- range .Summary.FilesFailed}}
  [{{.Kind}}] {{.Path}}: {{.Message}}
{{- end}}
{{- end}}
{{range .Sections}}
== {{.Kind}} clusters ({{len .Clusters}}) ==
{{range .Clusters}}
cluster {{.FingerprintHex}} kind={{.Kind}} node_count={{.NodeCount}} language={{.LanguageID}}
{{- range .Locations}}
  {{.}}
{{- end}}
{{end}}
{{- end}}
{{- if .Recommendations}}

== Recommendations ==
{{range .Recommendations}}
[{{printf "%.2f" .ImpactScore}}] {{.Title}} (confidence {{printf "%.2f" .ConfidenceScore}})
  {{.Description}}
  keep: {{.KeepLocation}}
{{end}}
{{- end}}
`

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// Options configures what the rendered report includes.
type Options struct {
	Version                string
	RootPath               string
	IncludeRecommendations bool
}

// Writer persists rendered reports under a metadata directory.
type Writer struct {
	Dir string
}

// NewWriter returns a Writer rooted at dir (typically
// .metadata_astrograph).
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

type clusterView struct {
	Kind           discovery.ClusterKind
	FingerprintHex string
	NodeCount      int
	LanguageID     string
	Locations      []string
}

type section struct {
	Kind     discovery.ClusterKind
	Clusters []clusterView
}

type templateData struct {
	Version         string
	Timestamp       string
	RootPath        string
	Summary         discovery.Summary
	Sections        []section
	Recommendations []recommend.Recommendation
}

// Write renders summary (and, when enabled, recommendations derived
// from summary.Clusters) to a new timestamped file and returns its
// path, joined onto w.Dir (absolute only when w.Dir is). now is supplied by the caller rather than taken from
// time.Now so that callers can keep report generation out of any
// code path this package's own tests need to freeze.
func (w *Writer) Write(summary discovery.Summary, opts Options, now time.Time) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("astrograph: create report dir: %w", err)
	}

	data := templateData{
		Version:   opts.Version,
		Timestamp: now.Format(time.RFC3339),
		RootPath:  opts.RootPath,
		Summary:   summary,
		Sections:  buildSections(summary.Clusters),
	}
	if opts.IncludeRecommendations {
		data.Recommendations = recommend.NewEngine().Recommend(summary.Clusters)
	}

	path := filepath.Join(w.Dir, fileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("astrograph: create report file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("astrograph: render report: %w", err)
	}
	return path, nil
}

func fileName(now time.Time) string {
	return fmt.Sprintf("analysis_report_%s_%06d.txt",
		now.Format("20060102_150405"), now.Nanosecond()/1000)
}

func buildSections(clusters []discovery.DuplicateCluster) []section {
	order := []discovery.ClusterKind{discovery.KindExact, discovery.KindPattern, discovery.KindBlock}
	byKind := make(map[discovery.ClusterKind][]clusterView)
	for _, c := range clusters {
		byKind[c.Kind] = append(byKind[c.Kind], toClusterView(c))
	}

	sections := make([]section, 0, len(order))
	for _, kind := range order {
		views, ok := byKind[kind]
		if !ok {
			continue
		}
		sections = append(sections, section{Kind: kind, Clusters: views})
	}
	return sections
}

func toClusterView(c discovery.DuplicateCluster) clusterView {
	locations := make([]string, len(c.Members))
	for i, m := range c.Members {
		locations[i] = fmt.Sprintf("%s:%d-%d", m.FilePath, m.StartLine, m.EndLine)
	}
	return clusterView{
		Kind:           c.Kind,
		FingerprintHex: hexDigest(c.Fingerprint),
		NodeCount:      c.NodeCount,
		LanguageID:     c.LanguageID,
		Locations:      locations,
	}
}

func hexDigest(d [16]byte) string {
	const hexChars = "0123456789abcdef"
	out := make([]byte, len(d)*2)
	for i, b := range d {
		out[i*2] = hexChars[b>>4]
		out[i*2+1] = hexChars[b&0x0f]
	}
	return string(out)
}
