package knowledge

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFact is one entry of a YAML seed file.
type SeedFact struct {
	Topic   string `yaml:"topic"`
	Content string `yaml:"content"`
}

type seedFile struct {
	Facts []SeedFact `yaml:"facts"`
}

// LoadSeedFile reads a YAML seed file of knowledge facts. Every entry
// must carry both topic and content.
func LoadSeedFile(path string) ([]SeedFact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Facts) == 0 {
		return nil, fmt.Errorf("seed file %s contains no facts", path)
	}

	for i, f := range file.Facts {
		if f.Topic == "" || f.Content == "" {
			return nil, fmt.Errorf("seed fact %d: topic and content are required", i)
		}
	}
	return file.Facts, nil
}

// Seed stores all facts into the backend. Returns the number stored
// before the first failure.
func Seed(ctx context.Context, backend Backend, facts []SeedFact) (int, error) {
	for i, f := range facts {
		if err := backend.StoreFact(ctx, f.Topic, f.Content); err != nil {
			return i, fmt.Errorf("store fact %q: %w", f.Topic, err)
		}
	}
	return len(facts), nil
}
