// Package config loads run settings from a YAML file and the environment.
// Sources stack: explicit values win over DOCGEN_* environment variables,
// which win over the config file.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config mirrors the request options that make sense to persist. Pointer
// fields distinguish "not set" from a zero value so merging keeps lower
// layers intact.
type Config struct {
	Inputs   []string `yaml:"input"`
	Template string   `yaml:"template"`
	Output   string   `yaml:"output"`
	Schema   string   `yaml:"schema"`
	Mode     string   `yaml:"mode"`
	Engine   string   `yaml:"engine"`

	Strict *bool `yaml:"strict"`
	Force  *bool `yaml:"force"`
	Delete *bool `yaml:"delete"`

	Skip     string `yaml:"skip"`
	PreHook  string `yaml:"pre_hook"`
	PostHook string `yaml:"post_hook"`

	Vars map[string]any `yaml:"vars"`

	Workers *int `yaml:"workers"`

	Delimiter    string `yaml:"delimiter"`
	Sheet        string `yaml:"sheet"`
	SheetIndex   *int   `yaml:"sheet_index"`
	HeaderRow    *int   `yaml:"header_row"`
	HeaderColumn *int   `yaml:"header_column"`
}

var knownKeys = map[string]struct{}{
	"input": {}, "template": {}, "output": {}, "schema": {}, "mode": {},
	"engine": {}, "strict": {}, "force": {}, "delete": {}, "skip": {},
	"pre_hook": {}, "post_hook": {}, "vars": {}, "workers": {},
	"delimiter": {}, "sheet": {}, "sheet_index": {}, "header_row": {},
	"header_column": {},
}

// Parse reads a config document. Unknown top-level keys are reported as
// warnings, not errors, so configs stay forward compatible.
func Parse(data []byte) (*Config, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("config: parse document: %w", err)
	}

	cfg := &Config{}
	if root.Kind == 0 {
		return cfg, nil, nil
	}
	if err := root.Decode(cfg); err != nil {
		return nil, nil, fmt.Errorf("config: decode document: %w", err)
	}

	var warnings []string
	if len(root.Content) > 0 && root.Content[0].Kind == yaml.MappingNode {
		doc := root.Content[0]
		for i := 0; i+1 < len(doc.Content); i += 2 {
			key := doc.Content[i].Value
			if _, ok := knownKeys[key]; !ok {
				warnings = append(warnings, fmt.Sprintf("unknown config key %q", key))
			}
		}
	}
	return cfg, warnings, nil
}

// LoadFile reads and parses a config file from disk.
func LoadFile(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, warnings, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, warnings, nil
}

// EnvPrefix is the prefix of environment variables read by FromEnv.
const EnvPrefix = "DOCGEN_"

// FromEnv builds a config layer from DOCGEN_* variables. Variable names
// are the upper-cased config keys; DOCGEN_INPUT holds a path list split
// on the OS path list separator.
func FromEnv() (*Config, error) {
	return fromEnviron(os.Environ())
}

func fromEnviron(environ []string) (*Config, error) {
	cfg := &Config{}
	sort.Strings(environ)
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		if err := cfg.setKey(key, value); err != nil {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return cfg, nil
}

func (c *Config) setKey(key, value string) error {
	switch key {
	case "input":
		c.Inputs = strings.Split(value, string(os.PathListSeparator))
	case "template":
		c.Template = value
	case "output":
		c.Output = value
	case "schema":
		c.Schema = value
	case "mode":
		c.Mode = value
	case "engine":
		c.Engine = value
	case "strict", "force", "delete":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		switch key {
		case "strict":
			c.Strict = &b
		case "force":
			c.Force = &b
		case "delete":
			c.Delete = &b
		}
	case "skip":
		c.Skip = value
	case "pre_hook":
		c.PreHook = value
	case "post_hook":
		c.PostHook = value
	case "workers", "sheet_index", "header_row", "header_column":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("not an integer: %q", value)
		}
		switch key {
		case "workers":
			c.Workers = &n
		case "sheet_index":
			c.SheetIndex = &n
		case "header_row":
			c.HeaderRow = &n
		case "header_column":
			c.HeaderColumn = &n
		}
	case "delimiter":
		c.Delimiter = value
	case "sheet":
		c.Sheet = value
	}
	// Unknown DOCGEN_ variables are ignored; they may belong to hooks.
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// Merge overlays over onto c. Fields set in over win; everything else keeps
// the value already in c. Vars merge key by key.
func (c *Config) Merge(over *Config) {
	if over == nil {
		return
	}
	if len(over.Inputs) > 0 {
		c.Inputs = over.Inputs
	}
	if over.Template != "" {
		c.Template = over.Template
	}
	if over.Output != "" {
		c.Output = over.Output
	}
	if over.Schema != "" {
		c.Schema = over.Schema
	}
	if over.Mode != "" {
		c.Mode = over.Mode
	}
	if over.Engine != "" {
		c.Engine = over.Engine
	}
	if over.Strict != nil {
		c.Strict = over.Strict
	}
	if over.Force != nil {
		c.Force = over.Force
	}
	if over.Delete != nil {
		c.Delete = over.Delete
	}
	if over.Skip != "" {
		c.Skip = over.Skip
	}
	if over.PreHook != "" {
		c.PreHook = over.PreHook
	}
	if over.PostHook != "" {
		c.PostHook = over.PostHook
	}
	if len(over.Vars) > 0 {
		if c.Vars == nil {
			c.Vars = make(map[string]any, len(over.Vars))
		}
		for k, v := range over.Vars {
			c.Vars[k] = v
		}
	}
	if over.Workers != nil {
		c.Workers = over.Workers
	}
	if over.Delimiter != "" {
		c.Delimiter = over.Delimiter
	}
	if over.Sheet != "" {
		c.Sheet = over.Sheet
	}
	if over.SheetIndex != nil {
		c.SheetIndex = over.SheetIndex
	}
	if over.HeaderRow != nil {
		c.HeaderRow = over.HeaderRow
	}
	if over.HeaderColumn != nil {
		c.HeaderColumn = over.HeaderColumn
	}
}

// Layered resolves the full stack for a run: file (lowest), environment,
// then the explicit overrides (highest). file may be empty.
func Layered(file string, overrides *Config) (*Config, []string, error) {
	cfg := &Config{}
	var warnings []string
	if file != "" {
		fileCfg, w, err := LoadFile(file)
		if err != nil {
			return nil, nil, err
		}
		warnings = w
		cfg = fileCfg
	}
	envCfg, err := FromEnv()
	if err != nil {
		return nil, warnings, err
	}
	cfg.Merge(envCfg)
	cfg.Merge(overrides)
	return cfg, warnings, nil
}
