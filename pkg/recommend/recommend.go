// Package recommend turns duplicate clusters into refactoring
// suggestions (spec §3-NEW). It reimplements, in Go idiom, the
// scoring heuristics of the teacher's Python-language counterpart
// (recommendations.py): a weighted impact score, a confidence score,
// test-file detection, shallowest-unique-path "keep" selection, and
// common-token name suggestion. All output is advisory — the caller
// decides whether to act on it.
package recommend

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/stats"
	"github.com/astrograph-io/astrograph/pkg/unit"
)

// Action is the kind of refactor a Recommendation proposes.
type Action string

const (
	ActionExtractToUtility     Action = "extract_to_utility"
	ActionConsolidateInPlace   Action = "consolidate_in_place"
	ActionExtractToBaseClass   Action = "extract_to_base_class"
	ActionReviewTestDuplication Action = "review_test_duplication"
)

// Impact buckets the numeric ImpactScore for human consumption.
type Impact string

const (
	ImpactHigh    Impact = "high"
	ImpactMedium  Impact = "medium"
	ImpactLow     Impact = "low"
	ImpactTrivial Impact = "trivial"
)

// Evidence is one supporting fact behind a Recommendation.
type Evidence struct {
	Fact   string
	Metric string
}

// Location mirrors a cluster member, annotated with test/production
// and directory-depth facts used for keep-location selection.
type Location struct {
	FilePath       string
	Name           string
	Lines          string
	Kind           string
	IsTestFile     bool
	DirectoryDepth int
}

// Recommendation is one actionable suggestion derived from a
// DuplicateCluster.
type Recommendation struct {
	Action          Action
	Title           string
	Description     string
	Impact          Impact
	ImpactScore     float64
	ConfidenceScore float64
	Evidence        []Evidence
	Locations       []Location
	KeepLocation    string
	KeepReason      string
	RemoveLocations []string
	SuggestedName   string
	LinesDuplicated int
	EstimatedSaved  int
	FilesAffected   int
	ClusterKey      string
}

// testPathMarkers are substrings that mark a file_path as test code.
var testPathMarkers = []string{"test_", "_test.go", "_test.py", "tests/", "test/", "spec_", "_spec.py", ".test.", ".spec."}

// Engine generates recommendations from discovery output.
type Engine struct{}

// NewEngine returns a recommendation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Recommend analyzes clusters and returns recommendations ordered by
// descending ImpactScore.
func (e *Engine) Recommend(clusters []discovery.DuplicateCluster) []Recommendation {
	hotThreshold := heavyDuplicationThreshold(clusters)

	recs := make([]Recommendation, 0, len(clusters))
	for _, c := range clusters {
		if len(c.Members) < 2 {
			continue
		}
		rec := e.analyzeCluster(c)
		if float64(rec.LinesDuplicated) >= hotThreshold {
			rec.ImpactScore = boostScore(rec.ImpactScore)
			rec.Impact = impactLevel(rec.ImpactScore)
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].ImpactScore > recs[j].ImpactScore })
	return recs
}

// heavyDuplicationThreshold is the 75th percentile of duplicated line
// volume across this run's clusters: clusters at or above it get an
// impact bump relative to the rest of the batch, not just in absolute
// terms.
func heavyDuplicationThreshold(clusters []discovery.DuplicateCluster) float64 {
	if len(clusters) == 0 {
		return 0
	}
	volumes := make([]float64, len(clusters))
	for i, c := range clusters {
		volumes[i] = float64(avgLineCount(c.Members) * len(c.Members))
	}
	sort.Float64s(volumes)
	return stats.Percentile(volumes, 75)
}

func boostScore(score float64) float64 {
	boosted := score*0.85 + 0.15
	if boosted > 1 {
		return 1
	}
	return boosted
}

func (e *Engine) analyzeCluster(c discovery.DuplicateCluster) Recommendation {
	locations := make([]Location, len(c.Members))
	for i, m := range c.Members {
		locations[i] = locationFor(m)
	}

	evidence := buildEvidence(c, locations)
	action := determineAction(c, locations)
	impactScore := impactScoreFor(c, locations)
	confidence := confidenceScoreFor(c, locations)
	impact := impactLevel(impactScore)

	keepLoc, keepReason := selectKeepLocation(locations)
	var removeLocations []string
	if keepLoc != "" {
		for _, l := range locations {
			ref := l.FilePath + ":" + l.Name
			if ref != keepLoc {
				removeLocations = append(removeLocations, ref)
			}
		}
	}

	avgLines := avgLineCount(c.Members)
	totalLines := avgLines * len(c.Members)

	title, description := summarize(action, len(c.Members), avgLines, locations)

	return Recommendation{
		Action:          action,
		Title:           title,
		Description:     description,
		Impact:          impact,
		ImpactScore:     impactScore,
		ConfidenceScore: confidence,
		Evidence:        evidence,
		Locations:       locations,
		KeepLocation:    keepLoc,
		KeepReason:      keepReason,
		RemoveLocations: removeLocations,
		SuggestedName:   suggestName(c.Members),
		LinesDuplicated: totalLines,
		EstimatedSaved:  totalLines - avgLines,
		FilesAffected:   countDistinctFiles(locations),
		ClusterKey:      c.ClusterKey(),
	}
}

func locationFor(u unit.CodeUnit) Location {
	lower := strings.ToLower(u.FilePath)
	isTest := false
	for _, marker := range testPathMarkers {
		if strings.Contains(lower, marker) {
			isTest = true
			break
		}
	}
	return Location{
		FilePath:       u.FilePath,
		Name:           u.Name,
		Lines:          fmt.Sprintf("%d-%d", u.StartLine, u.EndLine),
		Kind:           string(u.Kind),
		IsTestFile:     isTest,
		DirectoryDepth: len(strings.Split(path.Dir(u.FilePath), "/")),
	}
}

func buildEvidence(c discovery.DuplicateCluster, locations []Location) []Evidence {
	var ev []Evidence
	ev = append(ev, Evidence{
		Fact:   fmt.Sprintf("%d structurally identical code units detected", len(c.Members)),
		Metric: fmt.Sprintf("%d occurrences", len(c.Members)),
	})

	avgLines := avgLineCount(c.Members)
	ev = append(ev, Evidence{
		Fact:   fmt.Sprintf("each instance contains approximately %d lines", avgLines),
		Metric: fmt.Sprintf("%d lines each", avgLines),
	})
	ev = append(ev, Evidence{
		Fact:   fmt.Sprintf("AST complexity: %d nodes per instance", c.NodeCount),
		Metric: fmt.Sprintf("%d AST nodes", c.NodeCount),
	})

	if c.Kind == discovery.KindExact {
		ev = append(ev, Evidence{Fact: "structural equivalence proven by exact fingerprint equality"})
	} else {
		ev = append(ev, Evidence{Fact: "structural equivalence indicated by matching pattern fingerprint"})
	}

	testCount, prodCount := splitTestProd(locations)
	switch {
	case testCount > 0 && prodCount > 0:
		ev = append(ev, Evidence{Fact: "duplication spans test and production code", Metric: fmt.Sprintf("%d prod, %d test", prodCount, testCount)})
	case testCount > 0:
		ev = append(ev, Evidence{Fact: "all instances are in test files", Metric: fmt.Sprintf("%d test files", testCount)})
	default:
		ev = append(ev, Evidence{Fact: "all instances are in production code", Metric: fmt.Sprintf("%d production files", prodCount)})
	}
	return ev
}

func splitTestProd(locations []Location) (testCount, prodCount int) {
	for _, l := range locations {
		if l.IsTestFile {
			testCount++
		} else {
			prodCount++
		}
	}
	return
}

func determineAction(c discovery.DuplicateCluster, locations []Location) Action {
	_, prodCount := splitTestProd(locations)
	if prodCount == 0 {
		return ActionReviewTestDuplication
	}

	dirs := make(map[string]bool)
	for _, l := range locations {
		dirs[path.Dir(l.FilePath)] = true
	}
	if len(dirs) == 1 {
		return ActionConsolidateInPlace
	}

	return ActionExtractToUtility
}

// impactScoreFor mirrors the teacher-derived Python scorer's weighted
// factors: frequency, complexity, production-code ratio, line count.
func impactScoreFor(c discovery.DuplicateCluster, locations []Location) float64 {
	score := 0.0

	freqScore := 0.1 + float64(len(c.Members)-1)*0.05
	if freqScore > 0.3 {
		freqScore = 0.3
	}
	score += freqScore

	score += scoreByThresholds(float64(c.NodeCount), []threshold{{50, 0.3}, {20, 0.25}, {10, 0.15}}, 0.05)

	_, prodCount := splitTestProd(locations)
	prodRatio := float64(prodCount) / float64(len(locations))
	score += prodRatio * 0.25

	avgLines := float64(avgLineCount(c.Members))
	score += scoreByThresholds(avgLines, []threshold{{30, 0.15}, {15, 0.1}, {5, 0.05}}, 0.0)

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// confidenceScoreFor replaces the teacher-derived scorer's VF2
// isomorphism-verification bonus with an exact-fingerprint bonus:
// this engine has no isomorphism-verification step because exact
// fingerprint equality already is the structural-equivalence proof.
func confidenceScoreFor(c discovery.DuplicateCluster, locations []Location) float64 {
	score := 0.5

	if c.Kind == discovery.KindExact {
		score += 0.25
	} else {
		score += 0.1
	}

	switch {
	case c.NodeCount >= 15:
		score += 0.15
	case c.NodeCount >= 8:
		score += 0.1
	}

	_, prodCount := splitTestProd(locations)
	switch {
	case prodCount == len(locations):
		score += 0.1
	case prodCount > 0:
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

type threshold struct {
	value float64
	score float64
}

func scoreByThresholds(value float64, thresholds []threshold, fallback float64) float64 {
	for _, t := range thresholds {
		if value >= t.value {
			return t.score
		}
	}
	return fallback
}

func impactLevel(score float64) Impact {
	switch {
	case score >= 0.7:
		return ImpactHigh
	case score >= 0.45:
		return ImpactMedium
	case score >= 0.25:
		return ImpactLow
	default:
		return ImpactTrivial
	}
}

// selectKeepLocation recommends a location only when the shallowest
// directory depth has a single, unique winner.
func selectKeepLocation(locations []Location) (keep string, reason string) {
	if len(locations) == 0 {
		return "", ""
	}

	shallowest := locations[0].DirectoryDepth
	for _, l := range locations[1:] {
		if l.DirectoryDepth < shallowest {
			shallowest = l.DirectoryDepth
		}
	}

	var winners []Location
	for _, l := range locations {
		if l.DirectoryDepth == shallowest {
			winners = append(winners, l)
		}
	}
	if len(winners) != 1 {
		return "", ""
	}
	return winners[0].FilePath + ":" + winners[0].Name, "shallowest path"
}

// suggestName finds tokens shared by a strict majority of member
// names, splitting each name on underscores and camelCase boundaries.
func suggestName(members []unit.CodeUnit) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, name := range names {
		for _, tok := range tokenize(name) {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	threshold := len(names)/2 + 1
	var common []string
	for _, tok := range order {
		if counts[tok] >= threshold {
			common = append(common, tok)
		}
	}
	sort.SliceStable(common, func(i, j int) bool { return counts[common[i]] > counts[common[j]] })
	if len(common) > 3 {
		common = common[:3]
	}
	if len(common) > 0 {
		return strings.Join(common, "_")
	}

	shortest := names[0]
	for _, n := range names[1:] {
		if len(n) < len(shortest) {
			shortest = n
		}
	}
	return shortest
}

func tokenize(name string) []string {
	var tokens []string
	var current strings.Builder
	for _, ch := range name {
		switch {
		case ch == '_':
			if current.Len() > 0 {
				tokens = append(tokens, strings.ToLower(current.String()))
				current.Reset()
			}
		case ch >= 'A' && ch <= 'Z' && current.Len() > 0:
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
			current.WriteRune(ch)
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, strings.ToLower(current.String()))
	}
	return tokens
}

func summarize(action Action, count, avgLines int, locations []Location) (title, description string) {
	filesAffected := countDistinctFiles(locations)
	switch action {
	case ActionExtractToUtility:
		title = fmt.Sprintf("Extract %d duplicate implementations to a shared utility", count)
		description = fmt.Sprintf("Found %d structurally identical code blocks (~%d lines each) across %d files. Extracting to a shared utility reduces maintenance burden and keeps behavior consistent.", count, avgLines, filesAffected)
	case ActionConsolidateInPlace:
		title = fmt.Sprintf("Consolidate %d duplicates within the same directory", count)
		description = fmt.Sprintf("Found %d identical implementations in the same directory. Consolidating into a single local function improves maintainability.", count)
	case ActionExtractToBaseClass:
		title = fmt.Sprintf("Extract %d duplicate methods to a base type", count)
		description = fmt.Sprintf("Found %d identical methods across different receivers. A shared embedded type or helper could eliminate this duplication.", count)
	case ActionReviewTestDuplication:
		title = fmt.Sprintf("Review %d similar test implementations", count)
		description = fmt.Sprintf("Found %d structurally identical code blocks in test files. This may be intentional test isolation, or it may benefit from shared fixtures/helpers.", count)
	}
	return title, description
}

func avgLineCount(members []unit.CodeUnit) int {
	if len(members) == 0 {
		return 0
	}
	total := 0
	for _, m := range members {
		total += m.LineCount()
	}
	return total / len(members)
}

func countDistinctFiles(locations []Location) int {
	seen := make(map[string]bool)
	for _, l := range locations {
		seen[l.FilePath] = true
	}
	return len(seen)
}
