package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// SeedSource is the unit source of built-in seed units.
const SeedSource = "system"

// seedFile is the YAML layout of a seed file:
//
//	units:
//	  - content: "ragcore answers questions from your documents."
//	    type: description
type seedFile struct {
	Units []seedUnit `yaml:"units"`
}

type seedUnit struct {
	Content string `yaml:"content"`
	Type    string `yaml:"type"`
}

var defaultSeed = []seedUnit{
	{
		Content: "ACAI Assistant is an AI assistant that uses RAG technology to give precise answers.",
		Type:    "description",
	},
	{
		Content: "RAG (Retrieval-Augmented Generation) is a technique that combines document retrieval with generative AI models.",
		Type:    "explanation",
	},
}

// LoadSeedUnits returns the units inserted into a freshly created index.
// An empty path yields the built-in units.
func LoadSeedUnits(path string) ([]domain.TextUnit, error) {
	entries := defaultSeed
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		var f seedFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: seed file %s: %v", domain.ErrInvalidInput, path, err)
		}
		entries = f.Units
	}

	units := make([]domain.TextUnit, 0, len(entries))
	for _, e := range entries {
		content := strings.TrimSpace(e.Content)
		if content == "" {
			continue
		}
		meta := domain.UnitMetadata{
			Source:  SeedSource,
			DocType: domain.DocTypeSystem,
		}
		if e.Type != "" {
			meta.Extra = map[string]string{"type": e.Type}
		}
		units = append(units, domain.TextUnit{Content: content, Metadata: meta})
	}
	return units, nil
}
