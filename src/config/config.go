// Package config provides configuration management for mfe-publish.
//
// Values come from built-in defaults, then an optional YAML file, then MFEPUB_*
// environment variables. envconfig also falls back to the unprefixed name
// (GITLAB_HOST, PRIVATE_TOKEN, REDPANDA_BROKERS, ...) when the prefixed one is unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"mfe-publish/src/retry"
	"mfe-publish/src/watch"
)

// EnvPrefix prefixes every environment variable, e.g. MFEPUB_PRIVATE_TOKEN.
const EnvPrefix = "MFEPUB"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = ".mfepub.yaml"

// Config holds the application configuration.
type Config struct {
	// GitLabHost is the scheme and host of the GitLab instance.
	GitLabHost string `yaml:"gitlabHost" envconfig:"GITLAB_HOST"`
	// PrivateToken authenticates CI API calls. Empty means the manual publish path.
	PrivateToken string `yaml:"privateToken" envconfig:"PRIVATE_TOKEN"`

	// Debug switches the tag job to the dev stage/job and lifts the master-branch rule.
	Debug   bool   `yaml:"debug" envconfig:"PUBLISH_DEBUG"`
	Stage   string `yaml:"stage" envconfig:"PUBLISH_STAGE"`
	JobName string `yaml:"jobName" envconfig:"PUBLISH_JOB"`

	FindAttempts  int           `yaml:"findAttempts" envconfig:"FIND_ATTEMPTS"`
	FindDelay     time.Duration `yaml:"findDelay" envconfig:"FIND_DELAY"`
	ReadyAttempts int           `yaml:"readyAttempts" envconfig:"READY_ATTEMPTS"`
	ReadyDelay    time.Duration `yaml:"readyDelay" envconfig:"READY_DELAY"`
	PollInterval  time.Duration `yaml:"pollInterval" envconfig:"POLL_INTERVAL"`
	// ResetPolicy is "resync" or "fail".
	ResetPolicy string `yaml:"resetPolicy" envconfig:"RESET_POLICY"`

	PostgresDSN     string   `yaml:"postgresDSN" envconfig:"POSTGRES_DSN"`
	RedpandaBrokers []string `yaml:"redpandaBrokers" envconfig:"REDPANDA_BROKERS"`
	LogLevel        string   `yaml:"logLevel" envconfig:"LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		GitLabHost:    "https://gitlab.com",
		FindAttempts:  10,
		FindDelay:     500 * time.Millisecond,
		ReadyAttempts: 10,
		ReadyDelay:    1500 * time.Millisecond,
		PollInterval:  time.Second,
		ResetPolicy:   "resync",
		LogLevel:      "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from defaults and environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// LoadDefault loads DefaultFile from the working directory when it exists.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	return Load("")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error

	if !strings.HasPrefix(c.GitLabHost, "http://") && !strings.HasPrefix(c.GitLabHost, "https://") {
		errs = append(errs, fmt.Errorf("gitlab host must start with http:// or https://, got %q", c.GitLabHost))
	}
	if c.FindAttempts < 1 {
		errs = append(errs, fmt.Errorf("find attempts must be at least 1, got %d", c.FindAttempts))
	}
	if c.ReadyAttempts < 1 {
		errs = append(errs, fmt.Errorf("ready attempts must be at least 1, got %d", c.ReadyAttempts))
	}
	if c.FindDelay < 0 || c.ReadyDelay < 0 || c.PollInterval < 0 {
		errs = append(errs, errors.New("delays and poll interval must not be negative"))
	}
	if _, err := watch.ParseResetPolicy(c.ResetPolicy); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// HasToken reports whether CI automation is possible.
func (c *Config) HasToken() bool {
	return c.PrivateToken != ""
}

// CIStage returns the stage the tag job runs in.
func (c *Config) CIStage() string {
	if c.Stage != "" {
		return c.Stage
	}
	if c.Debug {
		return "dev"
	}
	return "test"
}

// CIJobName returns the name of the tag job.
func (c *Config) CIJobName() string {
	if c.JobName != "" {
		return c.JobName
	}
	if c.Debug {
		return "dev"
	}
	return "simulate"
}

// FindPolicy is the retry policy for locating the tag job.
func (c *Config) FindPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.FindAttempts, Delay: c.FindDelay}
}

// ReadyPolicy is the retry policy for waiting until the job leaves "created".
func (c *Config) ReadyPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.ReadyAttempts, Delay: c.ReadyDelay}
}

// Reset returns the parsed trace reset policy.
func (c *Config) Reset() watch.ResetPolicy {
	p, _ := watch.ParseResetPolicy(c.ResetPolicy)
	return p
}

// TokenURL is where users create a personal access token.
func (c *Config) TokenURL() string {
	return strings.TrimRight(c.GitLabHost, "/") + "/-/user_settings/personal_access_tokens"
}
