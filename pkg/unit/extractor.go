package unit

// unitSource is the slice of plugin.Plugin this package needs.
// Defined locally (rather than importing pkg/plugin) so that
// pkg/plugin's Plugin interface can reference unit.CodeUnit without
// creating an import cycle; any plugin.Plugin satisfies this
// structurally.
type unitSource interface {
	ExtractCodeUnits(src []byte, filePath string) ([]CodeUnit, error)
}

// Extractor runs a plugin over file bytes and applies the
// import-only filter (spec §4.3) uniformly, so neither pkg/discovery
// nor pkg/lspunits has to remember to call IsImportOnly itself.
type Extractor struct {
	Plugin unitSource
}

// NewExtractor wraps p.
func NewExtractor(p unitSource) *Extractor {
	return &Extractor{Plugin: p}
}

// Extract returns the plugin's code units for src, minus any unit
// whose extracted_code is import-only.
func (e *Extractor) Extract(src []byte, filePath string) ([]CodeUnit, error) {
	units, err := e.Plugin.ExtractCodeUnits(src, filePath)
	if err != nil {
		return nil, err
	}
	out := units[:0]
	for _, u := range units {
		if IsImportOnly(u.ExtractedCode) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
