package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"propscan/adapters"
)

// Source feed types.
const (
	FeedFile    = "file"
	FeedBrowser = "browser"
	FeedMock    = "mock"
)

// SourceConfig describes one entry of the ordered source chain.
type SourceConfig struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Type       string   `yaml:"type"`
	Path       string   `yaml:"path,omitempty"`
	URLs       []string `yaml:"urls,omitempty"`
	Script     string   `yaml:"script,omitempty"`
	Timeout    string   `yaml:"timeout,omitempty"`
	MinResults int      `yaml:"min_results,omitempty"`
	Seed       int64    `yaml:"seed,omitempty"`
	Count      int      `yaml:"count,omitempty"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultSources is the chain used when no sources file exists: a single
// seeded mock feed, so a fresh checkout can run a pass offline.
func DefaultSources() []SourceConfig {
	return []SourceConfig{{
		Name:  "mock",
		Kind:  adapters.KindCommercial,
		Type:  FeedMock,
		Seed:  42,
		Count: 25,
	}}
}

// LoadSources reads the ordered source chain from a YAML file. A missing
// file yields DefaultSources; a present but invalid one is an error.
func LoadSources(path string) ([]SourceConfig, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSources(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read sources %q: %w", path, err)
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a sources document.
func ParseSources(data []byte) ([]SourceConfig, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse sources: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, errors.New("config: sources file lists no sources")
	}
	names := make(map[string]bool, len(f.Sources))
	for i := range f.Sources {
		s := &f.Sources[i]
		if s.Type == "" {
			s.Type = FeedFile
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("config: source %d: %w", i, err)
		}
		if names[s.Name] {
			return nil, fmt.Errorf("config: source %d: duplicate name %q", i, s.Name)
		}
		names[s.Name] = true
	}
	return f.Sources, nil
}

// Validate checks that the entry can be turned into a feed.
func (s SourceConfig) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if !slices.Contains(adapters.Kinds(), s.Kind) {
		return fmt.Errorf("%q: unknown kind %q", s.Name, s.Kind)
	}
	switch s.Type {
	case FeedFile:
		if s.Path == "" {
			return fmt.Errorf("%q: file source needs a path", s.Name)
		}
	case FeedBrowser:
		if len(s.URLs) == 0 {
			return fmt.Errorf("%q: browser source needs urls", s.Name)
		}
	case FeedMock:
	default:
		return fmt.Errorf("%q: unknown type %q", s.Name, s.Type)
	}
	if _, err := s.TimeoutDuration(); err != nil {
		return fmt.Errorf("%q: %w", s.Name, err)
	}
	return nil
}

// TimeoutDuration parses Timeout. Zero means use the orchestrator default.
func (s SourceConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("bad timeout %q: %w", s.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %q", s.Timeout)
	}
	return d, nil
}
