// Package config loads the portal configuration: upstream API endpoints,
// the default search query scope, and the children page size. Values come
// from an optional YAML file with flag overrides applied by the CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

// Config holds the endpoints and fetch tuning for a browsing session.
type Config struct {
	// SearchAPI is the dataset search service queried for counts.
	SearchAPI string `yaml:"search_api"`
	// BioThingsAPI serves NCBI Taxonomy lineage and children.
	BioThingsAPI string `yaml:"biothings_api"`
	// OLSAPI serves every other ontology.
	OLSAPI string `yaml:"ols_api"`
	// Query scopes dataset counts; empty means count everything.
	Query string `yaml:"query"`
	// PageSize is the children page size.
	PageSize int `yaml:"page_size"`
	// SettingsPath overrides the view-settings file location.
	SettingsPath string `yaml:"settings_path"`
	// Debug enables verbose logging.
	Debug bool `yaml:"debug"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		SearchAPI:    "https://api.data.niaid.nih.gov/v1",
		BioThingsAPI: "https://t.biothings.io/v1",
		OLSAPI:       "https://www.ebi.ac.uk/ols4/api",
		PageSize:     model.DefaultPageSize,
	}
}

// Load reads the configuration at path. An empty path returns defaults; a
// named file must exist and parse. Unset fields fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	defaults := Default()
	if cfg.SearchAPI == "" {
		cfg.SearchAPI = defaults.SearchAPI
	}
	if cfg.BioThingsAPI == "" {
		cfg.BioThingsAPI = defaults.BioThingsAPI
	}
	if cfg.OLSAPI == "" {
		cfg.OLSAPI = defaults.OLSAPI
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	return cfg, nil
}
