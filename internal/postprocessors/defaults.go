package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/postprocessors/cleanup"
)

// Built-in processor names.
const (
	StageNormaliseWhitespace = "normalise_whitespace"
	StageDropEmpty           = "drop_empty"
)

// DefaultStages is the pipeline used when configuration names none.
var DefaultStages = []string{StageDropEmpty}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register(StageNormaliseWhitespace, buildWhitespace)
	r.Register(StageDropEmpty, buildDropEmpty)
}

// BuildPipeline constructs a pipeline from stage names and per-stage config.
// A nil or empty stage list yields DefaultStages.
func BuildPipeline(r *Registry, stages []string, cfgs map[string]map[string]any) (*Pipeline, error) {
	if len(stages) == 0 {
		stages = DefaultStages
	}

	p := NewPipeline()
	for _, name := range stages {
		proc, err := r.Build(name, cfgs[name])
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		p.Add(proc)
	}
	return p, nil
}

// buildWhitespace creates a whitespace normaliser. It takes no config.
func buildWhitespace(_ map[string]any) (driven.UnitProcessor, error) {
	return cleanup.NewWhitespace(), nil
}

// buildDropEmpty creates a filter for blank units.
// Supported config keys:
//   - min_chars (int): Units with fewer non-space characters are dropped (default: 1)
func buildDropEmpty(cfg map[string]any) (driven.UnitProcessor, error) {
	if minChars := getIntFromConfig(cfg, "min_chars"); minChars > 0 {
		return cleanup.NewDropEmpty(cleanup.WithMinChars(minChars)), nil
	}
	return cleanup.NewDropEmpty(), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
