package unusedvars

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the project config file looked up in the checked
// directory.
const ConfigFile = ".unusedvars.yaml"

// Config is the YAML project configuration:
//
//	options:            # a vars string, or a map
//	  vars: local
//	  args: none
//	globals: [$, jQuery]
//	extensions: [.js, .mjs]
type Config struct {
	Options    any      `yaml:"options"`
	Globals    []string `yaml:"globals"`
	Extensions []string `yaml:"extensions"`
}

// LoadConfig reads and decodes the config file at path. Unknown keys are
// rejected. An empty file is an empty Config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unusedvars: config: %w", err)
	}
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unusedvars: config %s: %w", path, err)
	}
	return cfg, nil
}

// FindConfig loads ConfigFile from dir and returns it with the path it
// was read from. A missing file is not an error; it yields an empty
// Config and an empty path.
func FindConfig(dir string) (*Config, string, error) {
	path := filepath.Join(dir, ConfigFile)
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Apply overlays the config's options on p.
func (c *Config) Apply(p Policy) Policy {
	return p.Apply(c.Options)
}

// EngineOptions returns the Engine options the config implies, policy
// excluded.
func (c *Config) EngineOptions() []Option {
	var opts []Option
	if len(c.Globals) > 0 {
		opts = append(opts, WithGlobals(c.Globals...))
	}
	if len(c.Extensions) > 0 {
		opts = append(opts, WithExtensions(c.Extensions...))
	}
	return opts
}
