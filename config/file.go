package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = ".sheetxml.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SHEETXML_"

// Load builds the configuration from defaults, the YAML file at path and the
// environment, then validates it. An empty path means FileName in the
// working directory. A missing file is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = FileName
	}

	cfg, err := loadFile(path, Default())
	if err != nil {
		return Config{}, err
	}

	var o Overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg = cfg.With(o)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over base. Keys absent from the
// file keep the base value; a languages list replaces the base list.
func loadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := base.clone()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

const fileHeader = `# sheetxml configuration.
# Languages map a values-<code> directory to a zero-based sheet column;
# column 0 holds the resource key. SHEETXML_* environment variables and
# command-line flags override these settings.
`

// WriteFile writes cfg as YAML to path. It refuses to overwrite an
// existing file.
func WriteFile(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	return os.WriteFile(path, append([]byte(fileHeader), data...), 0644)
}
