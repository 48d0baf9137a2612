// internal/config/config.go
package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Network           string   `mapstructure:"network"`
	Nodes             []string `mapstructure:"nodes"`
	TimeoutMs         int      `mapstructure:"timeout_ms"`
	MaxRetries        int      `mapstructure:"max_retries"`
	FailureThreshold  int      `mapstructure:"failure_threshold"`
	CircuitCooldownMs int      `mapstructure:"circuit_cooldown_ms"`
	CacheTTLMs        int      `mapstructure:"cache_ttl_ms"`
	RateLimitRPS      int      `mapstructure:"rate_limit_rps"`
	MetricsAddr       string   `mapstructure:"metrics_addr"`
	DebugLogging      bool     `mapstructure:"debug_logging"`
	LogFile           string   `mapstructure:"log_file"`
}

const (
	DefaultNetwork           = "mainnet"
	DefaultTimeoutMs         = 10000
	DefaultMaxRetries        = 3
	DefaultFailureThreshold  = 5
	DefaultCircuitCooldownMs = 30000
	DefaultCacheTTLMs        = 6000
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"network":             DefaultNetwork,
		"timeout_ms":          DefaultTimeoutMs,
		"max_retries":         DefaultMaxRetries,
		"failure_threshold":   DefaultFailureThreshold,
		"circuit_cooldown_ms": DefaultCircuitCooldownMs,
		"cache_ttl_ms":        DefaultCacheTTLMs,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.Network != "mainnet" && cfg.Network != "testnet" {
		return errors.New("network must be mainnet or testnet")
	}
	for _, node := range cfg.Nodes {
		if err := validateHTTPURL(node); err != nil {
			return err
		}
	}
	if cfg.TimeoutMs <= 0 {
		return errors.New("invalid timeout_ms")
	}
	if cfg.MaxRetries <= 0 {
		return errors.New("invalid max_retries")
	}
	if cfg.FailureThreshold <= 0 {
		return errors.New("invalid failure_threshold")
	}
	if cfg.CircuitCooldownMs <= 0 {
		return errors.New("invalid circuit_cooldown_ms")
	}
	if cfg.CacheTTLMs <= 0 {
		return errors.New("invalid cache_ttl_ms")
	}
	if cfg.RateLimitRPS < 0 {
		return errors.New("invalid rate_limit_rps")
	}
	return nil
}

func validateHTTPURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid node URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return errors.New("node URL must use http or https")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("HIVEPUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if network := v.GetString("NETWORK"); network != "" {
		cfg.Network = network
	}

	if nodeList := v.GetString("NODES"); nodeList != "" {
		var clean []string
		for _, node := range strings.Split(nodeList, ",") {
			if node = strings.TrimSpace(node); node != "" {
				clean = append(clean, node)
			}
		}
		if len(clean) > 0 {
			cfg.Nodes = clean
		}
	}
}
