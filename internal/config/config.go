// Package config loads the configuration shared by the quizgen binaries:
// Temporal connection, pipeline paths and tunings, the admin listen
// address, and the LLM client stack. One YAML document with ${VAR}
// expansion feeds both the worker and the admin service, so they cannot
// drift on paths or queue names.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.temporal.io/sdk/client"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-quizgen/internal/llm/configuration"
	"github.com/ahrav/go-quizgen/internal/logging"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TemporalConfig locates the Temporal service.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" validate:"required"`
	Namespace string `yaml:"namespace" validate:"required"`
}

// PathsConfig is the filesystem surface of the pipeline.
type PathsConfig struct {
	// SourceDir holds the .docx procedure documents to scan.
	SourceDir string `yaml:"source_dir" validate:"required"`
	// TrackingFile is the JSON tracking store.
	TrackingFile string `yaml:"tracking_file" validate:"required"`
	// CatalogFile is the xlsx question catalog.
	CatalogFile string `yaml:"catalog_file" validate:"required"`
	// MirrorFile is the JSON mirror of the catalog.
	MirrorFile string `yaml:"mirror_file" validate:"required"`
}

// PipelineConfig tunes the generation pipeline.
type PipelineConfig struct {
	// ValidationThreshold overrides the weighted approval bar. Zero keeps
	// the domain default.
	ValidationThreshold float64 `yaml:"validation_threshold" validate:"gte=0,lte=1"`

	// QuestionDelay pauses validation between consecutive questions.
	QuestionDelay time.Duration `yaml:"question_delay" validate:"min=0"`

	// ItemDelay pauses the workflow between queued procedures.
	ItemDelay time.Duration `yaml:"item_delay" validate:"min=0"`
}

// AdminConfig configures the admin HTTP service.
type AdminConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
}

// Config is the root configuration document.
type Config struct {
	Temporal TemporalConfig       `yaml:"temporal"`
	Paths    PathsConfig          `yaml:"paths"`
	Pipeline PipelineConfig       `yaml:"pipeline"`
	Admin    AdminConfig          `yaml:"admin"`
	Logging  logging.Config       `yaml:"logging"`
	LLM      configuration.Config `yaml:"llm"`
}

// DefaultConfig returns the configuration the binaries start from before
// the YAML document is applied on top.
func DefaultConfig() *Config {
	return &Config{
		Temporal: TemporalConfig{
			HostPort:  client.DefaultHostPort,
			Namespace: client.DefaultNamespace,
		},
		Paths: PathsConfig{
			SourceDir:    "./procedimientos",
			TrackingFile: "./data/seguimiento.json",
			CatalogFile:  "./data/catalogo.xlsx",
			MirrorFile:   "./data/catalogo.json",
		},
		Pipeline: PipelineConfig{
			QuestionDelay: time.Second,
		},
		Admin: AdminConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
		LLM: *configuration.Default(),
	}
}

// Load reads and parses the YAML document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands ${VAR} references, applies the document over the
// defaults, pulls provider API keys from the environment, and validates
// the result. Split from Load so tests can feed documents directly.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	cfg.loadAPIKeys()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the whole document, including the embedded LLM stack.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("invalid llm configuration: %w", err)
	}
	return nil
}

// loadAPIKeys fills provider credentials from <PROVIDER>_API_KEY
// environment variables. Keys never live in the YAML document.
func (c *Config) loadAPIKeys() {
	for name, provider := range c.LLM.Providers {
		envName := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
		if key := os.Getenv(envName); key != "" {
			provider.APIKey = key
			c.LLM.Providers[name] = provider
		}
	}
}
