package mcpserver

import (
	"testing"

	"github.com/astrograph-io/astrograph/pkg/astrograph"
	"github.com/astrograph-io/astrograph/pkg/index"
	"github.com/astrograph-io/astrograph/pkg/plugin"
	"github.com/astrograph-io/astrograph/pkg/plugin/golang"
)

func TestNewServer_DefaultsVersion(t *testing.T) {
	store, err := index.Open(t.TempDir())
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	defer store.Close()

	reg := plugin.NewRegistry(golang.New())
	engine := astrograph.New(reg, store)

	server := NewServer(engine, ".", "")
	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.server == nil {
		t.Fatal("NewServer().server is nil")
	}
}

func TestDescriptions_AllNonEmpty(t *testing.T) {
	descriptions := map[string]func() string{
		"analyze":            describeAnalyze,
		"write":              describeWrite,
		"edit":               describeEdit,
		"suppress":           describeSuppress,
		"unsuppress":         describeUnsuppress,
		"list_suppressions":  describeListSuppressions,
		"suppress_idiomatic": describeSuppressIdiomatic,
	}
	for name, fn := range descriptions {
		if got := fn(); got == "" {
			t.Errorf("%s description is empty", name)
		}
	}
}

func TestDefaultThresholdOptions(t *testing.T) {
	thorough := defaultThresholdOptions(true)
	if thorough.MinNodeCountExact != 2 || !thorough.IncludeBlocks {
		t.Errorf("thorough options = %+v, want lowered thresholds with blocks included", thorough)
	}

	normal := defaultThresholdOptions(false)
	if normal.MinNodeCountExact != 0 || normal.IncludeBlocks {
		t.Errorf("default options = %+v, want zero-value thresholds (engine applies its own defaults)", normal)
	}
	if !normal.IncludeRecommendations || !thorough.IncludeRecommendations {
		t.Error("both option sets should include recommendations")
	}
}
