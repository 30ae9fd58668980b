package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/CIDgravity/snakelet"
)

// config structure
type Config struct {
	API       APIConfig       `mapstructure:"API"`
	Github    GithubConfig    `mapstructure:"GITHUB"`
	Tasks     TasksConfig     `mapstructure:"TASKS"`
	RateLimit RateLimitConfig `mapstructure:"RATELIMIT"`
	Cache     CacheConfig     `mapstructure:"CACHE"`
	Logs      LogsConfig      `mapstructure:"LOGS"`
}

type APIConfig struct {
	ListenPort string `mapstructure:"ListenPort"`
}

type GithubConfig struct {
	Token string `mapstructure:"Token"` // optional: unauthenticated requests use the lower anonymous ceiling
}

type TasksConfig struct {
	MaxParallelTasksAllowed int `mapstructure:"MaxParallelTasksAllowed"`
}

type RateLimitConfig struct {
	RequestsPerWindow int `mapstructure:"RequestsPerWindow"`
	WindowSeconds     int `mapstructure:"WindowSeconds"`
}

type CacheConfig struct {
	TTLHours   int    `mapstructure:"TTLHours"`
	SqlitePath string `mapstructure:"SqlitePath"` // empty = keep the cache in memory only
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info - case insensitive
	OutputLogsAsJson bool   `mapstructure:"OutputLogsAsJson"`
}

// Load
func Load() (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))

	if err != nil {
		return nil, err
	}

	// check config file exists
	configFilePath := dir + "/config/config.toml"

	if _, err := os.Stat(dir + "/config/config.toml"); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat("config/config.toml"); errors.Is(err, os.ErrNotExist) {
			return nil, err
		} else {
			configFilePath = "config/config.toml"
		}
	}

	// load default and config file content
	cfg := GetDefault()
	_, err = snakelet.InitAndLoad(cfg, configFilePath)

	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDefault
func GetDefault() *Config {
	return &Config{
		API: APIConfig{
			ListenPort: "5000",
		},
		Github: GithubConfig{
			Token: "",
		},
		Tasks: TasksConfig{
			MaxParallelTasksAllowed: 5,
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: 10,
			WindowSeconds:     60,
		},
		Cache: CacheConfig{
			TTLHours:   24,
			SqlitePath: "data/skills_cache.db",
		},
		Logs: LogsConfig{
			Level:            "debug",
			OutputLogsAsJson: false,
		},
	}
}
