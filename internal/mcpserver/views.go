package mcpserver

import (
	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/index"
	"github.com/astrograph-io/astrograph/pkg/recommend"
)

// memberView is one member of a duplicate cluster, JSON/TOON-friendly.
type memberView struct {
	Name      string `json:"name"`
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// clusterView is a discovery.DuplicateCluster flattened for tool output.
type clusterView struct {
	ClusterKey string       `json:"cluster_key"`
	Kind       string       `json:"kind"`
	LanguageID string       `json:"language_id"`
	NodeCount  int          `json:"node_count"`
	LineCount  int          `json:"line_count"`
	Members    []memberView `json:"members"`
}

func toClusterViews(clusters []discovery.DuplicateCluster) []clusterView {
	out := make([]clusterView, 0, len(clusters))
	for _, c := range clusters {
		members := make([]memberView, 0, len(c.Members))
		for _, m := range c.Members {
			members = append(members, memberView{
				Name:      m.Name,
				FilePath:  m.FilePath,
				StartLine: m.StartLine,
				EndLine:   m.EndLine,
			})
		}
		out = append(out, clusterView{
			ClusterKey: c.ClusterKey(),
			Kind:       string(c.Kind),
			LanguageID: c.LanguageID,
			NodeCount:  c.NodeCount,
			LineCount:  c.LineCount,
			Members:    members,
		})
	}
	return out
}

type analysisView struct {
	ReportPath    string        `json:"report_path"`
	FilesScanned  int           `json:"files_scanned"`
	UnitsTotal    int           `json:"units_total"`
	UnitsFiltered int           `json:"units_filtered"`
	Clusters      []clusterView `json:"clusters"`
	Recommended   []recommendationView `json:"recommendations,omitempty"`
	Failures      []discovery.FileFailure `json:"failures,omitempty"`
}

type recommendationView struct {
	ClusterKey      string  `json:"cluster_key"`
	Action          string  `json:"action"`
	Impact          string  `json:"impact"`
	ImpactScore     float64 `json:"impact_score"`
	ConfidenceScore float64 `json:"confidence_score"`
	SuggestedName   string  `json:"suggested_name"`
	Description     string  `json:"description"`
}

func toRecommendationViews(recs []recommend.Recommendation) []recommendationView {
	out := make([]recommendationView, 0, len(recs))
	for _, r := range recs {
		out = append(out, recommendationView{
			ClusterKey:      r.ClusterKey,
			Action:          string(r.Action),
			Impact:          string(r.Impact),
			ImpactScore:     r.ImpactScore,
			ConfidenceScore: r.ConfidenceScore,
			SuggestedName:   r.SuggestedName,
			Description:     r.Description,
		})
	}
	return out
}

type suppressionView struct {
	ClusterKey string `json:"cluster_key"`
	Reason     string `json:"reason"`
	CreatedAt  string `json:"created_at"`
}

func toSuppressionViews(sups []index.Suppression) []suppressionView {
	out := make([]suppressionView, 0, len(sups))
	for _, s := range sups {
		out = append(out, suppressionView{
			ClusterKey: s.ClusterKey,
			Reason:     s.Reason,
			CreatedAt:  s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}
