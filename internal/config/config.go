package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Rate     RateConfig     `mapstructure:"rate"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type AuthConfig struct {
	// OwnerKey gates the administrative routes (config init, deposits).
	OwnerKey      string `mapstructure:"owner_key"`
	RequireAPIKey bool   `mapstructure:"require_api_key"`
	APIKey        string `mapstructure:"api_key"`
}

type DatabaseConfig struct {
	// DSN selects postgres when set; empty falls back to a local sqlite file.
	DSN        string `mapstructure:"dsn"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	HoldersKey    string `mapstructure:"holders_key"`
	SignalChannel string `mapstructure:"signal_channel"`
}

type OracleConfig struct {
	FeedURL      string `mapstructure:"feed_url"`
	TimeoutMs    int    `mapstructure:"timeout_ms"`
	StaleSeconds int64  `mapstructure:"stale_seconds"`
	// StaticPrice serves dev setups without a feed, e.g. "1.25".
	StaticPrice string `mapstructure:"static_price"`
}

type VaultConfig struct {
	HoldingAccount string `mapstructure:"holding_account"`
	ReserveAccount string `mapstructure:"reserve_account"`
}

type PolicyConfig struct {
	TrancheInterval int64  `mapstructure:"tranche_interval"`
	MaxTxPercentBP  uint64 `mapstructure:"max_tx_percent_bp"`
}

type RateConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. TRANCHEGATE_DATABASE_DSN
	viper.SetEnvPrefix("tranchegate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("auth.require_api_key", false)
	viper.SetDefault("database.sqlite_path", "./data/tranchegate.db")
	viper.SetDefault("redis.holders_key", "tranchegate:holders:count")
	viper.SetDefault("redis.signal_channel", "tranchegate:rebase")
	viper.SetDefault("oracle.timeout_ms", 5000)
	viper.SetDefault("oracle.stale_seconds", 60)
	viper.SetDefault("vault.holding_account", "vault:holding")
	viper.SetDefault("vault.reserve_account", "vault:anchor")
	viper.SetDefault("policy.tranche_interval", 86400)
	viper.SetDefault("policy.max_tx_percent_bp", 100)
	viper.SetDefault("rate.qps", 20)
	viper.SetDefault("rate.burst", 40)
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
