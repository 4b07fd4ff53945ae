package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/ranking"
)

// FileName is the workspace config file.
const FileName = "freelancehub.yml"

// JWTSecretEnv overrides auth.jwt_secret when set.
const JWTSecretEnv = "FREELANCEHUB_JWT_SECRET"

// Config models freelancehub.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
		// DevLogin enables token minting without credentials. Never turn on outside development.
		DevLogin bool `yaml:"dev_login"`
	} `yaml:"auth"`
	Ranking struct {
		TieFloor   float64                    `yaml:"tie_floor"`
		Priorities map[string]ranking.Weights `yaml:"priorities"`
	} `yaml:"ranking"`
	Retry struct {
		MaxRetries   int           `yaml:"max_retries"`
		InitialDelay time.Duration `yaml:"initial_delay"`
		MaxDelay     time.Duration `yaml:"max_delay"`
	} `yaml:"retry"`
	Webhooks []Webhook `yaml:"webhooks"`
	Log      struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Webhook is an outbound subscription to audit events.
type Webhook struct {
	URL    string   `yaml:"url"`
	Events []string `yaml:"events"`
	Secret string   `yaml:"secret"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with freelancehub init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Ranking.TieFloor < 0 || c.Ranking.TieFloor >= 1 || math.IsNaN(c.Ranking.TieFloor) {
		return fmt.Errorf("config.ranking.tie_floor must be in [0,1)")
	}
	for _, p := range domain.Priorities {
		w, ok := c.Ranking.Priorities[string(p)]
		if !ok {
			return fmt.Errorf("config.ranking.priorities.%s is required", p)
		}
		if w.Price < 0 || w.Time < 0 || w.Reputation < 0 || w.Skills < 0 {
			return fmt.Errorf("config.ranking.priorities.%s has a negative weight", p)
		}
		if w.Price+w.Time+w.Reputation+w.Skills == 0 && c.Ranking.TieFloor == 0 {
			return fmt.Errorf("config.ranking.priorities.%s needs a positive weight", p)
		}
	}
	for name := range c.Ranking.Priorities {
		if !knownPriority(name) {
			return fmt.Errorf("config.ranking.priorities has unknown priority %s", name)
		}
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("config.retry.max_retries must be >= 0")
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level must be one of debug, info, warn, error")
	}
	return nil
}

func knownPriority(name string) bool {
	for _, p := range domain.Priorities {
		if string(p) == name {
			return true
		}
	}
	return false
}

// RankingPolicy converts the ranking section into a scoring policy.
func (c *Config) RankingPolicy() ranking.Policy {
	if c == nil {
		return ranking.DefaultPolicy()
	}
	p := ranking.Policy{Priorities: map[domain.Priority]ranking.Weights{}, TieFloor: c.Ranking.TieFloor}
	for name, w := range c.Ranking.Priorities {
		p.Priorities[domain.Priority(name)] = w
	}
	return p
}

// Secret returns the JWT signing secret, preferring the environment.
func (c *Config) Secret() string {
	if v := os.Getenv(JWTSecretEnv); v != "" {
		return v
	}
	if c == nil {
		return ""
	}
	return c.Auth.JWTSecret
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
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

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Sections left
// out of the file keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /api

auth:
  jwt_secret: ""
  issuer: freelancehub
  dev_login: false

ranking:
  # zero price/time/reputation weights are raised to tie_floor, then each priority
  # is normalized to sum to 1. skills (overlap with required skills) is opt-in.
  tie_floor: 0.01
  priorities:
    balanced: {price: 1, time: 1, reputation: 1}
    price: {price: 1, time: 0, reputation: 0}
    time: {price: 0, time: 1, reputation: 0}
    ratings: {price: 0, time: 0, reputation: 1}

retry:
  max_retries: 3
  initial_delay: 20ms
  max_delay: 500ms

webhooks: []

log:
  level: info
`
