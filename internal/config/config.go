package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Binance  BinanceConfig  `mapstructure:"binance"`
	Coverage CoverageConfig `mapstructure:"coverage"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// StorageConfig selects where shard files live.
type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// BinanceConfig tunes the reference remote source.
type BinanceConfig struct {
	BaseURL   string  `mapstructure:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second
	MaxPages  int     `mapstructure:"max_pages"`
	PageLimit int     `mapstructure:"page_limit"`
}

// CoverageConfig tunes the gap analyzer thresholds.
type CoverageConfig struct {
	MinRatio  float64 `mapstructure:"min_ratio"`
	GapFactor float64 `mapstructure:"gap_factor"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "localfs"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/candles"
	}
	if cfg.Binance.RateLimit == 0 {
		cfg.Binance.RateLimit = 5
	}
	if cfg.Binance.MaxPages == 0 {
		cfg.Binance.MaxPages = 10
	}
	if cfg.Binance.PageLimit == 0 {
		cfg.Binance.PageLimit = 1000
	}
	if cfg.Coverage.MinRatio == 0 {
		cfg.Coverage.MinRatio = 0.8
	}
	if cfg.Coverage.GapFactor == 0 {
		cfg.Coverage.GapFactor = 2
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "localfs", "s3", "none":
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3 storage requires a bucket")
	}
	if c.Coverage.MinRatio < 0 || c.Coverage.MinRatio > 1 {
		return fmt.Errorf("coverage min_ratio must be in [0, 1]")
	}
	return nil
}
