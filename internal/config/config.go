package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"homesolution/internal/domain"
	"homesolution/internal/engine"
)

const (
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
	JournalNone     = "none"
)

// Config models homesolution.yml.
type Config struct {
	Journal struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"journal"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Seed Seed `yaml:"seed"`
}

// Seed is the workforce and project list a fresh engine starts with.
type Seed struct {
	Workers  []SeedWorker         `yaml:"workers"`
	Projects []engine.ProjectSpec `yaml:"projects"`
}

type SeedWorker struct {
	Kind     string  `yaml:"kind"`
	Name     string  `yaml:"name"`
	Rate     float64 `yaml:"rate"`
	Category string  `yaml:"category,omitempty"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with hs seed > %s", path, path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

func (c *Config) applyDefaults() {
	if c.Journal.Driver == "" {
		c.Journal.Driver = JournalSQLite
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/v0"
	}
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Journal.Driver {
	case JournalSQLite, JournalNone:
	case JournalPostgres:
		if c.Journal.DSN == "" {
			return fmt.Errorf("config.journal.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config.journal.driver must be sqlite, postgres or none, got %q", c.Journal.Driver)
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	for i, w := range c.Seed.Workers {
		if strings.TrimSpace(w.Name) == "" {
			return fmt.Errorf("seed.workers[%d].name is required", i)
		}
		if w.Rate <= 0 {
			return fmt.Errorf("seed.workers[%d].rate must be greater than 0", i)
		}
		switch domain.WorkerKind(w.Kind) {
		case domain.KindHourly:
			if w.Category != "" {
				return fmt.Errorf("seed.workers[%d]: hourly workers have no category", i)
			}
		case domain.KindSalaried:
			if _, err := domain.ParseCategory(w.Category); err != nil {
				return fmt.Errorf("seed.workers[%d]: %w", i, err)
			}
		default:
			return fmt.Errorf("seed.workers[%d].kind must be hourly or salaried", i)
		}
	}
	for i, p := range c.Seed.Projects {
		if strings.TrimSpace(p.Address) == "" || strings.TrimSpace(p.Client) == "" {
			return fmt.Errorf("seed.projects[%d] needs address and client", i)
		}
		start, err := domain.ParseDate(p.Start)
		if err != nil {
			return fmt.Errorf("seed.projects[%d].start: %w", i, err)
		}
		end, err := domain.ParseDate(p.EstimatedEnd)
		if err != nil {
			return fmt.Errorf("seed.projects[%d].estimated_end: %w", i, err)
		}
		if end.Before(start) {
			return fmt.Errorf("seed.projects[%d]: estimated_end is before start", i)
		}
		for j, t := range p.Tasks {
			if strings.TrimSpace(t.Title) != "" && t.Days <= 0 {
				return fmt.Errorf("seed.projects[%d].tasks[%d].days must be greater than 0", i, j)
			}
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "homesolution.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	cfg.applyDefaults()
	return &cfg
}

const defaultTemplate = `journal:
  driver: sqlite
  # dsn: postgres://homesolution@localhost:5432/homesolution

server:
  addr: 127.0.0.1:8080
  base_path: /v0

seed:
  workers:
    - kind: hourly
      name: Juan
      rate: 15000
    - kind: salaried
      name: Luis
      rate: 80000
      category: EXPERT
    - kind: hourly
      name: Julieta
      rate: 15000

  projects:
    - address: San Martin 1000
      client: Pedro Gomez
      start: "2025-11-01"
      estimated_end: "2025-11-05"
      tasks:
        - title: Paint
          description: Paint interior walls
          days: 4
        - title: Wiring
          description: Outlets and lighting
          days: 2
        - title: Gardening
          description: Pruning and garden upkeep
          days: 1
        - title: Air conditioning
          description: Install the AC unit
          days: 0.5
`
