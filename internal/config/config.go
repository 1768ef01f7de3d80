// Package config loads the mockgraph.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "mockgraph.yaml"

// DefaultDatabase is the SQLite path used when the file names none.
const DefaultDatabase = ".mockgraph.db"

var validate = validator.New()

// Config is one project: the modules to index and how to resolve them.
type Config struct {
	// Database is the SQLite file descriptors are persisted to.
	Database string `yaml:"database"`

	// Workers bounds parallel parsing and layer building. Zero means one
	// worker per CPU.
	Workers int `yaml:"workers" validate:"gte=0"`

	// PolicyScript is an optional Risor script deciding which otherwise
	// mockable types are slated for output.
	PolicyScript string `yaml:"policy_script"`

	Modules []Module `yaml:"modules" validate:"required,min=1,unique=Name,dive"`
}

// Module is one source module.
type Module struct {
	Name string `yaml:"name" validate:"required"`

	// Sources are files or directories; directories are walked for .swift
	// files.
	Sources []string `yaml:"sources" validate:"required,min=1,dive,required"`

	// Mock marks the module as one mocks are generated for. Types of other
	// modules only contribute inherited members.
	Mock bool `yaml:"mock"`

	// Imports are added to every file of the module, for modules whose
	// sources rely on implicit imports.
	Imports []string `yaml:"imports" validate:"dive,required"`

	// Aliases maps alias names declared at module scope to their targets.
	Aliases map[string]string `yaml:"aliases" validate:"dive,keys,required,endkeys,required"`
}

// Load reads, validates and normalizes the file at path. Relative source
// paths, the database path and the policy script path are resolved against
// the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes and validates YAML configuration. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return fmt.Errorf("validate: %w", err)
	}
	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		messages = append(messages, fieldPath(ve.Namespace())+": "+formatValidationError(ve))
	}
	return fmt.Errorf("validate: %s", strings.Join(messages, "; "))
}

// MockedModules returns the names of modules marked for mocking.
func (c *Config) MockedModules() []string {
	var out []string
	for _, m := range c.Modules {
		if m.Mock {
			out = append(out, m.Name)
		}
	}
	return out
}

func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Database = abs(c.Database)
	c.PolicyScript = abs(c.PolicyScript)
	for i := range c.Modules {
		for j, src := range c.Modules[i].Sources {
			c.Modules[i].Sources[j] = abs(src)
		}
	}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + ve.Param() + " entries"
	case "gte":
		return "must be at least " + ve.Param()
	case "unique":
		return "must be unique by " + ve.Param()
	default:
		return "failed " + ve.Tag()
	}
}
