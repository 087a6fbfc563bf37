package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrograph-io/astrograph/pkg/discovery"
	"github.com/astrograph-io/astrograph/pkg/unit"
)

func unitAt(name, filePath string, start, end, nodeCount int) unit.CodeUnit {
	return unit.CodeUnit{
		Kind:       unit.KindFunction,
		Name:       name,
		LanguageID: "go",
		FilePath:   filePath,
		StartLine:  start,
		EndLine:    end,
		NodeCount:  nodeCount,
	}
}

func TestRecommend_ExtractToUtility(t *testing.T) {
	cluster := discovery.DuplicateCluster{
		Kind:       discovery.KindExact,
		NodeCount:  40,
		LanguageID: "go",
		Members: []unit.CodeUnit{
			unitAt("validateInput", "pkg/a/a.go", 10, 40, 40),
			unitAt("validateInput", "pkg/b/b.go", 5, 35, 40),
		},
	}

	recs := NewEngine().Recommend([]discovery.DuplicateCluster{cluster})
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, ActionExtractToUtility, rec.Action)
	assert.Equal(t, cluster.ClusterKey(), rec.ClusterKey)
	assert.Equal(t, 2, rec.FilesAffected)
	assert.NotEmpty(t, rec.SuggestedName)
	assert.Greater(t, rec.ConfidenceScore, 0.5)
}

func TestRecommend_ConsolidateInPlace(t *testing.T) {
	cluster := discovery.DuplicateCluster{
		Kind:      discovery.KindExact,
		NodeCount: 12,
		Members: []unit.CodeUnit{
			unitAt("helperOne", "pkg/a/a.go", 1, 10, 12),
			unitAt("helperTwo", "pkg/a/b.go", 1, 10, 12),
		},
	}

	recs := NewEngine().Recommend([]discovery.DuplicateCluster{cluster})
	require.Len(t, recs, 1)
	assert.Equal(t, ActionConsolidateInPlace, recs[0].Action)
}

func TestRecommend_ReviewTestDuplication(t *testing.T) {
	cluster := discovery.DuplicateCluster{
		Kind:      discovery.KindExact,
		NodeCount: 8,
		Members: []unit.CodeUnit{
			unitAt("TestFoo", "pkg/a/a_test.go", 1, 8, 8),
			unitAt("TestBar", "pkg/b/b_test.go", 1, 8, 8),
		},
	}

	recs := NewEngine().Recommend([]discovery.DuplicateCluster{cluster})
	require.Len(t, recs, 1)
	assert.Equal(t, ActionReviewTestDuplication, recs[0].Action)
}

func TestRecommend_SkipsSingletonClusters(t *testing.T) {
	cluster := discovery.DuplicateCluster{
		Members: []unit.CodeUnit{unitAt("onlyOne", "pkg/a/a.go", 1, 5, 5)},
	}
	recs := NewEngine().Recommend([]discovery.DuplicateCluster{cluster})
	assert.Empty(t, recs)
}

func TestRecommend_SortedByDescendingImpact(t *testing.T) {
	small := discovery.DuplicateCluster{
		Kind:      discovery.KindExact,
		NodeCount: 8,
		Members: []unit.CodeUnit{
			unitAt("a", "pkg/a/a.go", 1, 6, 8),
			unitAt("b", "pkg/b/b.go", 1, 6, 8),
		},
	}
	big := discovery.DuplicateCluster{
		Kind:      discovery.KindExact,
		NodeCount: 80,
		Members: []unit.CodeUnit{
			unitAt("bigOne", "pkg/c/c.go", 1, 60, 80),
			unitAt("bigTwo", "pkg/d/d.go", 1, 60, 80),
			unitAt("bigThree", "pkg/e/e.go", 1, 60, 80),
		},
	}

	recs := NewEngine().Recommend([]discovery.DuplicateCluster{small, big})
	require.Len(t, recs, 2)
	assert.GreaterOrEqual(t, recs[0].ImpactScore, recs[1].ImpactScore)
	assert.Equal(t, big.ClusterKey(), recs[0].ClusterKey)
}

func TestHeavyDuplicationThreshold_Empty(t *testing.T) {
	assert.Equal(t, 0.0, heavyDuplicationThreshold(nil))
}

func TestSuggestName_CommonPrefix(t *testing.T) {
	members := []unit.CodeUnit{
		{Name: "validate_user_input"},
		{Name: "validate_user_email"},
	}
	name := suggestName(members)
	assert.Contains(t, name, "validate")
}
