// Package config loads propcore service configuration from YAML files
// and PROPCORE_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fundedlabs/propcore/internal/audit"
	"github.com/fundedlabs/propcore/internal/challenge"
	"github.com/fundedlabs/propcore/internal/messaging"
	"github.com/fundedlabs/propcore/internal/snapshot"
	"github.com/fundedlabs/propcore/pkg/money"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // gin mode: debug/release/test
}

// ChallengeTypeConfig is the rule preset for one challenge type,
// expressed as decimal strings so YAML round-trips exactly.
type ChallengeTypeConfig struct {
	InitialBalance      string `mapstructure:"initial_balance"`
	Currency            string `mapstructure:"currency"`
	MaxDailyDrawdownPct string `mapstructure:"max_daily_drawdown_pct"`
	MaxTotalDrawdownPct string `mapstructure:"max_total_drawdown_pct"`
	ProfitTargetPct     string `mapstructure:"profit_target_pct"`
}

// Parameters materialises the preset into validated challenge
// parameters.
func (c ChallengeTypeConfig) Parameters(challengeType string) (challenge.Parameters, error) {
	balance, err := money.NewFromString(c.InitialBalance, c.Currency)
	if err != nil {
		return challenge.Parameters{}, err
	}
	daily, err := money.NewPercentageFromString(c.MaxDailyDrawdownPct)
	if err != nil {
		return challenge.Parameters{}, err
	}
	total, err := money.NewPercentageFromString(c.MaxTotalDrawdownPct)
	if err != nil {
		return challenge.Parameters{}, err
	}
	target, err := money.NewPercentageFromString(c.ProfitTargetPct)
	if err != nil {
		return challenge.Parameters{}, err
	}
	return challenge.NewParameters(balance, daily, total, target, challengeType)
}

// Config is the full service configuration.
type Config struct {
	Environment string                         `mapstructure:"environment"`
	LogLevel    string                         `mapstructure:"log_level"`
	Server      ServerConfig                   `mapstructure:"server"`
	Kafka       messaging.Config               `mapstructure:"kafka"`
	Audit       audit.Config                   `mapstructure:"audit"`
	Snapshot    snapshot.Config                `mapstructure:"snapshot"`
	Challenges  map[string]ChallengeTypeConfig `mapstructure:"challenges"`
}

// YAML renders the effective configuration for operator inspection.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ChallengeType looks up a preset by its tag.
func (c *Config) ChallengeType(tag string) (ChallengeTypeConfig, error) {
	preset, ok := c.Challenges[tag]
	if !ok {
		return ChallengeTypeConfig{}, fmt.Errorf("config: unknown challenge type %q", tag)
	}
	return preset, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")

	kafka := messaging.DefaultConfig()
	v.SetDefault("kafka.brokers", kafka.Brokers)
	v.SetDefault("kafka.topic", kafka.Topic)
	v.SetDefault("kafka.batch_timeout", kafka.BatchTimeout)
	v.SetDefault("kafka.write_timeout", kafka.WriteTimeout)
	v.SetDefault("kafka.required_acks", kafka.RequiredAcks)
	v.SetDefault("kafka.max_attempts", kafka.MaxAttempts)

	v.SetDefault("audit.driver", "sqlite")
	v.SetDefault("audit.dsn", "propcore_audit.db")

	v.SetDefault("snapshot.addr", "localhost:6379")
	v.SetDefault("snapshot.db", 0)
	v.SetDefault("snapshot.ttl", 24*time.Hour)

	v.SetDefault("challenges", map[string]ChallengeTypeConfig{
		"PHASE_1": {
			InitialBalance:      "10000",
			Currency:            "USD",
			MaxDailyDrawdownPct: "5",
			MaxTotalDrawdownPct: "10",
			ProfitTargetPct:     "8",
		},
		"PHASE_2": {
			InitialBalance:      "10000",
			Currency:            "USD",
			MaxDailyDrawdownPct: "5",
			MaxTotalDrawdownPct: "10",
			ProfitTargetPct:     "5",
		},
	})
}

// Load reads configuration from the given file (optional) plus the
// environment, applies defaults and validates the presets.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PROPCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	for tag, preset := range cfg.Challenges {
		if _, err := preset.Parameters(tag); err != nil {
			return nil, fmt.Errorf("config: challenge type %s: %w", tag, err)
		}
	}
	return &cfg, nil
}
