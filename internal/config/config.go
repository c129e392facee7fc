// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"patchwork/internal/errors"
	"patchwork/internal/graph"
	"patchwork/internal/repo"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when no config path is
// given explicitly.
const EnvPath = "PATCHWORK_CONFIG"

type Config struct {
	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	Commit struct {
		AllowEmpty bool `json:"allow_empty" yaml:"allow_empty"`
	} `json:"commit" yaml:"commit"`

	Cache struct {
		Size int `json:"size" yaml:"size" validate:"gte=0,lte=1048576"`
	} `json:"cache" yaml:"cache"`

	Watch struct {
		Ignore []string `json:"ignore" yaml:"ignore" validate:"dive,required"`
	} `json:"watch" yaml:"watch"`

	Snapshot struct {
		Compress bool `json:"compress" yaml:"compress"` // zstd even without a .zst suffix
	} `json:"snapshot" yaml:"snapshot"`
}

var validate = validator.New()

func Default() *Config {
	var c Config
	c.LogLevel = "info"
	c.Cache.Size = graph.DefaultCacheSize
	c.Watch.Ignore = []string{".git", "node_modules"}
	return &c
}

// Path returns explicit if set, otherwise the value of PATCHWORK_CONFIG.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(EnvPath)
}

// Load reads a JSON or YAML (.yaml, .yml) file over the defaults and
// validates the result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("parsing config %s", path), err.Error())
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.InvalidInput("invalid config", err.Error())
	}
	return nil
}

// Options maps the config onto repository options.
func (c *Config) Options(logger *zap.Logger) repo.Options {
	policy := repo.RejectEmpty
	if c.Commit.AllowEmpty {
		policy = repo.AllowEmpty
	}
	return repo.Options{
		Logger:       logger,
		EmptyCommits: policy,
		CacheSize:    c.Cache.Size,
	}
}
