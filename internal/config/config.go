// Package config loads the acquisition config file: provider budgets,
// validation rules and source definitions. An invalid file halts startup;
// a worker must never run with a half-understood rule set.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bleubryce/AgentX-AI-sub001/internal/provider"
	"github.com/bleubryce/AgentX-AI-sub001/internal/validate"
)

// Source defines one acquisition source. API sources query a configured
// provider endpoint; crawl sources fetch listing pages from seed URLs.
type Source struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required,oneof=api crawl"`

	// API sources.
	Provider string              `yaml:"provider,omitempty"`
	Endpoint string              `yaml:"endpoint,omitempty"`
	Targets  []map[string]string `yaml:"targets,omitempty"`

	// Crawl sources.
	Seeds []string `yaml:"seeds,omitempty"`
}

type File struct {
	Providers  []provider.Config `yaml:"providers" validate:"dive"`
	Validation *validate.Rules   `yaml:"validation"`
	Sources    []Source          `yaml:"sources" validate:"min=1,dive"`
}

// Rules returns the configured validation rules, or the defaults when the
// file leaves the section out.
func (f *File) Rules() validate.Rules {
	if f.Validation == nil {
		return validate.DefaultRules()
	}
	return *f.Validation
}

func (f *File) Provider(name string) (provider.Config, bool) {
	for _, p := range f.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return provider.Config{}, false
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	v := validator.New()
	if err := v.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if f.Validation != nil {
		if err := v.Struct(f.Validation); err != nil {
			return nil, fmt.Errorf("invalid validation rules: %w", err)
		}
	}

	for _, src := range f.Sources {
		if src.Type == "api" {
			if src.Provider == "" || src.Endpoint == "" {
				return nil, fmt.Errorf("invalid config: api source %q needs provider and endpoint", src.Name)
			}
			if _, ok := f.Provider(src.Provider); !ok {
				return nil, fmt.Errorf("invalid config: source %q references unknown provider %q", src.Name, src.Provider)
			}
		}
		if src.Type == "crawl" && len(src.Seeds) == 0 && len(src.Targets) == 0 {
			return nil, fmt.Errorf("invalid config: crawl source %q has no seeds", src.Name)
		}
	}

	return &f, nil
}
