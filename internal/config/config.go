// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Lottery   LotteryConfig   `mapstructure:"lottery"`
	Games     GamesConfig     `mapstructure:"games"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// LedgerConfig holds ledger configuration.
type LedgerConfig struct {
	// DefaultBalance is the balance every player implicitly starts with.
	DefaultBalance int64 `mapstructure:"default_balance"`
	// TopSize is how many players the leaderboard shows.
	TopSize int `mapstructure:"top_size"`
}

// LotteryConfig holds lottery round configuration.
type LotteryConfig struct {
	// WindowSeconds is the betting collection window after the poll opens.
	WindowSeconds int `mapstructure:"window_seconds"`
	// WinAmount is paid to each winner of a draw.
	WinAmount int64 `mapstructure:"win_amount"`
	// LoserPenalty is taken from each loser with at least MinStake.
	LoserPenalty int64 `mapstructure:"loser_penalty"`
	// MinStake is the balance required to receive a payout or a penalty.
	MinStake int64 `mapstructure:"min_stake"`
}

// GamesConfig holds mini-game configuration.
type GamesConfig struct {
	// MinStake is the balance required to throw a dice emoji.
	MinStake int64 `mapstructure:"min_stake"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Window returns the betting window as a duration.
func (l *LotteryConfig) Window() time.Duration {
	return time.Duration(l.WindowSeconds) * time.Second
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, LOTTERY_WINDOW_SECONDS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "lotobot")
	v.SetDefault("database.name", "lotobot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Ledger defaults
	v.SetDefault("ledger.default_balance", 1000)
	v.SetDefault("ledger.top_size", 10)

	// Lottery defaults
	v.SetDefault("lottery.window_seconds", 60)
	v.SetDefault("lottery.win_amount", 50)
	v.SetDefault("lottery.loser_penalty", 10)
	v.SetDefault("lottery.min_stake", 10)

	// Mini-game defaults
	v.SetDefault("games.min_stake", 1)
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
