// Package discovery implements the duplicate discovery engine (spec
// §4.5): partition code units by (kind, fingerprint type), group by
// fingerprint value, apply significance thresholds, drop
// suppressed/duplicate groups, and emit deterministically ordered
// clusters.
package discovery

import (
	"sort"
	"strconv"

	"github.com/astrograph-io/astrograph/pkg/fingerprint"
	"github.com/astrograph-io/astrograph/pkg/unit"
)

// ClusterKind tags a DuplicateCluster by how its members matched.
type ClusterKind string

const (
	KindExact   ClusterKind = "exact"
	KindPattern ClusterKind = "pattern"
	KindBlock   ClusterKind = "block"
)

// MixedLanguage is the language_id a cluster is tagged with when its
// members span more than one language (spec §4.5).
const MixedLanguage = "mixed"

// DuplicateCluster is a set of >=2 CodeUnits sharing a fingerprint.
type DuplicateCluster struct {
	Kind        ClusterKind
	Fingerprint fingerprint.Digest
	NodeCount   int
	LineCount   int
	LanguageID  string
	Members     []unit.CodeUnit
}

// ClusterKey uniquely identifies a cluster for suppression purposes:
// kind plus the fingerprint digest that grouped it.
func (c DuplicateCluster) ClusterKey() string {
	return string(c.Kind) + ":" + hexDigest(c.Fingerprint)
}

// Thresholds mirrors spec §4.5's significance thresholds and the
// analyze() options of spec §6.
type Thresholds struct {
	MinNodeCountExact int
	MinNodeCountBlock int
	MinBlockLines     int
	IncludeBlocks     bool
}

// DefaultThresholds returns the defaults spec §4.5 names.
func DefaultThresholds() Thresholds {
	return Thresholds{MinNodeCountExact: 5, MinNodeCountBlock: 10, MinBlockLines: 3, IncludeBlocks: true}
}

// PreCreateThresholds returns the threshold set used by the
// write/edit pre-create check (spec §4.5: "min_node_count = 10").
func PreCreateThresholds() Thresholds {
	return Thresholds{MinNodeCountExact: 10, MinNodeCountBlock: 10, MinBlockLines: 3, IncludeBlocks: true}
}

// ActiveSuppressionCheck reports whether clusterKey is currently
// covered by an active (non-stale) suppression. Implemented by
// pkg/index.Store; kept as a function type here so pkg/discovery
// does not need to depend on pkg/index.
type ActiveSuppressionCheck func(clusterKey string) bool

// Fingerprinted pairs a CodeUnit with its computed fingerprint and
// evidence digest, the shape pkg/fileproc's parallel stage produces
// per unit before the single-threaded clustering reduction (spec §5).
type Fingerprinted struct {
	Unit           unit.CodeUnit
	Fingerprint    fingerprint.Fingerprint
	EvidenceDigest string
}

// Engine runs the clustering reduction. It holds no state between
// calls to Discover — callers own and reuse an Engine purely for the
// thresholds it was configured with.
type Engine struct {
	Thresholds Thresholds
}

// NewEngine constructs a discovery engine with the given thresholds.
func NewEngine(t Thresholds) *Engine {
	return &Engine{Thresholds: t}
}

// Discover implements the five-step algorithm of spec §4.5 against a
// pre-fingerprinted corpus. isSuppressed may be nil, in which case no
// suppression filtering is applied (used by pre-create checks, which
// never consult the index for suppressions).
func (e *Engine) Discover(items []Fingerprinted, isSuppressed ActiveSuppressionCheck) []DuplicateCluster {
	exactGroups := e.groupExactOrPattern(items, false)
	patternGroups := e.groupExactOrPattern(items, true)
	blockGroups := e.groupBlocks(items)

	exactClusters := e.toClusters(exactGroups, KindExact)
	patternClusters := e.toClusters(patternGroups, KindPattern)
	blockClusters := e.toClusters(blockGroups, KindBlock)

	patternClusters = dropPatternSupersetsOfExact(exactClusters, patternClusters)

	all := make([]DuplicateCluster, 0, len(exactClusters)+len(patternClusters)+len(blockClusters))
	all = append(all, exactClusters...)
	all = append(all, patternClusters...)
	all = append(all, blockClusters...)

	if isSuppressed != nil {
		all = filterSuppressed(all, isSuppressed)
	}

	sortClusters(all)
	return all
}

// groupKey partitions by (kind, fingerprint_type, digest) per step 1/2.
type groupKey struct {
	kind   unit.Kind
	digest fingerprint.Digest
}

func (e *Engine) groupExactOrPattern(items []Fingerprinted, pattern bool) map[groupKey][]Fingerprinted {
	groups := make(map[groupKey][]Fingerprinted)
	for _, it := range items {
		if it.Unit.Kind == unit.KindBlock {
			continue
		}
		digest := it.Fingerprint.ExactHash
		if pattern {
			digest = it.Fingerprint.PatternHash
		}
		key := groupKey{kind: it.Unit.Kind, digest: digest}
		groups[key] = append(groups[key], it)
	}
	return filterGroupsBySize(groups)
}

func (e *Engine) groupBlocks(items []Fingerprinted) map[groupKey][]Fingerprinted {
	if !e.Thresholds.IncludeBlocks {
		return nil
	}
	groups := make(map[groupKey][]Fingerprinted)
	for _, it := range items {
		if it.Unit.Kind != unit.KindBlock {
			continue
		}
		key := groupKey{kind: it.Unit.Kind, digest: it.Fingerprint.ExactHash}
		groups[key] = append(groups[key], it)
	}
	return filterGroupsBySize(groups)
}

func filterGroupsBySize(groups map[groupKey][]Fingerprinted) map[groupKey][]Fingerprinted {
	out := make(map[groupKey][]Fingerprinted, len(groups))
	for k, members := range groups {
		if len(members) >= 2 {
			out[k] = members
		}
	}
	return out
}

func (e *Engine) toClusters(groups map[groupKey][]Fingerprinted, kind ClusterKind) []DuplicateCluster {
	var clusters []DuplicateCluster
	for key, members := range groups {
		if !e.passesThreshold(kind, members) {
			continue
		}
		clusters = append(clusters, buildCluster(kind, key.digest, members))
	}
	return clusters
}

func (e *Engine) passesThreshold(kind ClusterKind, members []Fingerprinted) bool {
	for _, m := range members {
		switch kind {
		case KindBlock:
			if m.Unit.NodeCount < e.Thresholds.MinNodeCountBlock || m.Unit.LineCount() < e.Thresholds.MinBlockLines {
				return false
			}
		default:
			if m.Unit.NodeCount < e.Thresholds.MinNodeCountExact {
				return false
			}
		}
	}
	return true
}

func buildCluster(kind ClusterKind, digest fingerprint.Digest, members []Fingerprinted) DuplicateCluster {
	units := make([]unit.CodeUnit, len(members))
	langs := make(map[string]bool)
	for i, m := range members {
		units[i] = m.Unit
		langs[m.Unit.LanguageID] = true
	}
	lang := ""
	for l := range langs {
		lang = l
		break
	}
	if len(langs) > 1 {
		lang = MixedLanguage
	}
	return DuplicateCluster{
		Kind:        kind,
		Fingerprint: digest,
		NodeCount:   members[0].Unit.NodeCount,
		LineCount:   members[0].Unit.LineCount(),
		LanguageID:  lang,
		Members:     units,
	}
}

// dropPatternSupersetsOfExact implements the tie-break rule: "when a
// pattern cluster is a strict superset of an exact cluster with
// identical membership, report only the exact cluster."
func dropPatternSupersetsOfExact(exact, pattern []DuplicateCluster) []DuplicateCluster {
	exactMemberSets := make([]map[string]bool, len(exact))
	for i, c := range exact {
		exactMemberSets[i] = memberSet(c)
	}

	var out []DuplicateCluster
	for _, p := range pattern {
		pSet := memberSet(p)
		covered := false
		for _, eSet := range exactMemberSets {
			if isSupersetOf(pSet, eSet) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, p)
		}
	}
	return out
}

func memberSet(c DuplicateCluster) map[string]bool {
	s := make(map[string]bool, len(c.Members))
	for _, m := range c.Members {
		s[memberKey(m)] = true
	}
	return s
}

func memberKey(u unit.CodeUnit) string {
	return u.FilePath + ":" + u.Name + ":" + strconv.Itoa(u.StartLine) + ":" + strconv.Itoa(u.EndLine)
}

func isSupersetOf(superset, subset map[string]bool) bool {
	if len(superset) < len(subset) {
		return false
	}
	for k := range subset {
		if !superset[k] {
			return false
		}
	}
	return true
}

func filterSuppressed(clusters []DuplicateCluster, isSuppressed ActiveSuppressionCheck) []DuplicateCluster {
	var out []DuplicateCluster
	for _, c := range clusters {
		if isSuppressed(c.ClusterKey()) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sortClusters applies the deterministic ordering of spec §4.5:
// (kind, descending node_count, first file_path, first start_line).
func sortClusters(clusters []DuplicateCluster) {
	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.NodeCount != b.NodeCount {
			return a.NodeCount > b.NodeCount
		}
		fa, la := firstLocation(a)
		fb, lb := firstLocation(b)
		if fa != fb {
			return fa < fb
		}
		return la < lb
	})
}

func firstLocation(c DuplicateCluster) (string, int) {
	if len(c.Members) == 0 {
		return "", 0
	}
	best := c.Members[0]
	for _, m := range c.Members[1:] {
		if m.FilePath < best.FilePath || (m.FilePath == best.FilePath && m.StartLine < best.StartLine) {
			best = m
		}
	}
	return best.FilePath, best.StartLine
}

func hexDigest(d fingerprint.Digest) string {
	const hexChars = "0123456789abcdef"
	out := make([]byte, len(d)*2)
	for i, b := range d {
		out[i*2] = hexChars[b>>4]
		out[i*2+1] = hexChars[b&0x0f]
	}
	return string(out)
}

// Summary is the run-scoped aggregate returned by Analyze (spec
// §3-NEW Analysis).
type Summary struct {
	Clusters      []DuplicateCluster
	FilesScanned  int
	FilesFailed   []FileFailure
	UnitsTotal    int
	UnitsFiltered int
}

// FileFailure records a per-file parse_failure/io_error accumulation
// (spec §7).
type FileFailure struct {
	Path    string
	Kind    string
	Message string
}
