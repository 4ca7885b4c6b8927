package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a reusable export request stored as YAML.
//
//	name: spring-catalog
//	kind: product
//	fields: [ID, Title, Parent ID]
//	meta: [_price]
//	taxonomies: [product_tag]
//	formats: [csv, json]
//	headers: {Title: Name}
//	filters:
//	  types: [simple, variable]
//	  mode: modified
//	  date_range: last90
type Profile struct {
	Name        string            `yaml:"name"`
	Kind        string            `yaml:"kind"`
	Fields      []string          `yaml:"fields"`
	Meta        []string          `yaml:"meta"`
	Taxonomies  []string          `yaml:"taxonomies"`
	Formats     []string          `yaml:"formats"`
	ColumnOrder []string          `yaml:"column_order"`
	Headers     map[string]string `yaml:"headers"`
	Filters     ProfileFilters    `yaml:"filters"`
}

// ProfileFilters mirrors the filter keys accepted for each entity kind.
type ProfileFilters struct {
	Types     []string `yaml:"types"`
	Statuses  []string `yaml:"statuses"`
	Roles     []string `yaml:"roles"`
	Mode      string   `yaml:"mode"`
	DateRange string   `yaml:"date_range"`
	DateFrom  string   `yaml:"date_from"`
	DateTo    string   `yaml:"date_to"`
}

// LoadProfile reads and decodes an export profile from path.
func LoadProfile(path string) (*Profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("invalid profile %q: %w", path, err)
	}

	if p.Kind == "" {
		return nil, fmt.Errorf("profile %q: kind is required", path)
	}

	return &p, nil
}
