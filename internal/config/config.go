package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models chemecare.yml. The LLM API key is deliberately absent: it is
// a secret and comes from the environment (CHEMECARE_API_KEY).
type Config struct {
	Facility struct {
		Name string `yaml:"name"`
	} `yaml:"facility"`
	Storage struct {
		EventsFile string `yaml:"events_file"`
		TodosFile  string `yaml:"todos_file"`
	} `yaml:"storage"`
	AI struct {
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		MaxTokens      int    `yaml:"max_tokens"`
	} `yaml:"ai"`
	Dashboard struct {
		Compliance float64 `yaml:"compliance"`
		Cost       float64 `yaml:"cost"`
		CostUnit   string  `yaml:"cost_unit"`
	} `yaml:"dashboard"`
}

// AITimeout returns the configured LLM request timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Facility.Name == "" {
		return fmt.Errorf("config.facility.name is required")
	}
	if c.Storage.EventsFile == "" {
		return fmt.Errorf("config.storage.events_file is required")
	}
	if c.Storage.TodosFile == "" {
		return fmt.Errorf("config.storage.todos_file is required")
	}
	if c.Storage.EventsFile == c.Storage.TodosFile {
		return fmt.Errorf("config.storage events and todos files must differ")
	}
	for _, f := range []string{c.Storage.EventsFile, c.Storage.TodosFile} {
		if strings.ContainsRune(f, os.PathSeparator) {
			return fmt.Errorf("config.storage file %q must be a bare file name", f)
		}
	}
	if c.AI.BaseURL == "" {
		return fmt.Errorf("config.ai.base_url is required")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("config.ai.model is required")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.ai.timeout_seconds must be positive")
	}
	return nil
}

// Path returns the config file path for a data dir.
func Path(dataDir string) string {
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, "chemecare.yml")
}

// Load reads and validates config from the data dir.
func Load(dataDir string) (*Config, error) {
	data, err := os.ReadFile(Path(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found", Path(dataDir))
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(dataDir string) (*Config, error) {
	data, err := os.ReadFile(Path(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteDefault writes the default config template to path.
func WriteDefault(path string) error {
	return os.WriteFile(path, []byte(defaultTemplate), 0o644)
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `facility:
  name: Chem-E-Care

storage:
  events_file: events.json
  todos_file: todos.json

ai:
  base_url: https://api.together.xyz/v1
  model: kimi-k2-instruct
  timeout_seconds: 30
  max_tokens: 1024

dashboard:
  compliance: 92
  cost: 1.23
  cost_unit: M
`
