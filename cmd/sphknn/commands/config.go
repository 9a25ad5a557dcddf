package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/viant/sphere-knn/index/cover"
	"github.com/viant/sphere-knn/sphere"
)

// Config is the YAML file accepted by --config and query -f.
//
//	unit: degrees
//	index: cover
//	k: 3
//	cover:
//	  base: 1.3
//	  bound: node
//	  distance: great_circle
//	points:
//	  - id: north
//	    polar: 0
//	    azimuth: 0
type Config struct {
	Unit   string       `yaml:"unit,omitempty"`
	Index  string       `yaml:"index,omitempty"`
	K      int          `yaml:"k,omitempty"`
	Cover  CoverConfig  `yaml:"cover,omitempty"`
	Points []PointEntry `yaml:"points,omitempty"`
}

// CoverConfig tunes cover tree indexes.
type CoverConfig struct {
	Base      float64 `yaml:"base,omitempty"`
	Bound     string  `yaml:"bound,omitempty"`
	Distance  string  `yaml:"distance,omitempty"`
	BestFirst bool    `yaml:"bestFirst,omitempty"`
	Parallel  int     `yaml:"parallel,omitempty"`
}

// PointEntry is one named point.
type PointEntry struct {
	ID      string  `yaml:"id"`
	Label   string  `yaml:"label,omitempty"`
	Polar   float64 `yaml:"polar"`
	Azimuth float64 `yaml:"azimuth"`
}

// LoadConfig reads a YAML config file; "-" reads stdin.
func LoadConfig(path string) (*Config, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates YAML config bytes.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	switch strings.ToLower(cfg.Unit) {
	case "", "deg", "degrees", "rad", "radians":
	default:
		return nil, fmt.Errorf("unknown unit %q, want degrees or radians", cfg.Unit)
	}
	seen := make(map[string]bool, len(cfg.Points))
	for i, p := range cfg.Points {
		if p.ID == "" {
			return nil, fmt.Errorf("point %d: id is required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("point %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	return cfg, nil
}

// Radians reports whether angles in the file are radians.
func (c *Config) Radians() bool {
	switch strings.ToLower(c.Unit) {
	case "rad", "radians":
		return true
	}
	return false
}

// Sphere converts the points using the given unit and validates them.
func (c *Config) Sphere(radians bool) ([]string, []sphere.Point, error) {
	ids := make([]string, len(c.Points))
	points := make([]sphere.Point, len(c.Points))
	for i, p := range c.Points {
		ids[i] = p.ID
		if radians {
			points[i] = sphere.NewPoint(p.Polar, p.Azimuth)
		} else {
			points[i] = sphere.FromDegrees(p.Polar, p.Azimuth)
		}
		if err := points[i].Validate(); err != nil {
			return nil, nil, fmt.Errorf("point %q: %w", p.ID, err)
		}
	}
	return ids, points, nil
}

// CoverOptions maps the cover section to index options.
func (c *Config) CoverOptions() ([]cover.Option, error) {
	var opts []cover.Option
	if c.Cover.Base != 0 {
		opts = append(opts, cover.WithBase(c.Cover.Base))
	}
	switch strings.ToLower(c.Cover.Bound) {
	case "":
	case "node", "per_node":
		opts = append(opts, cover.WithBoundStrategy(cover.BoundPerNode))
	case "level":
		opts = append(opts, cover.WithBoundStrategy(cover.BoundLevel))
	default:
		return nil, fmt.Errorf("unknown cover bound %q", c.Cover.Bound)
	}
	switch d := cover.DistanceFunction(strings.ToLower(c.Cover.Distance)); d {
	case "":
	case cover.DistanceFunctionGreatCircle, cover.DistanceFunctionChord:
		opts = append(opts, cover.WithDistance(d))
	default:
		return nil, fmt.Errorf("unknown cover distance %q", c.Cover.Distance)
	}
	if c.Cover.BestFirst {
		opts = append(opts, cover.WithBestFirst(true))
	}
	if c.Cover.Parallel > 0 {
		opts = append(opts, cover.WithBuildParallelism(c.Cover.Parallel))
	}
	return opts, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
