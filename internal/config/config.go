package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type OCRConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RewardsConfig holds the points policy constants. Defaults mirror the
// reference behavior: 10 points per currency unit, redemption in blocks
// of 100 points.
type RewardsConfig struct {
	PointsPerUnit   int     `mapstructure:"points_per_unit"`
	RedeemThreshold int64   `mapstructure:"redeem_threshold"`
	MaxReceiptTotal float64 `mapstructure:"max_receipt_total"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Rewards  RewardsConfig  `mapstructure:"rewards"`
}

var (
	appConfig *Config
	loadErr   error
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
// The first call decides the outcome; later calls return the same config or
// the same error.
func Load(path string) (*Config, error) {
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// policy defaults, overridable per deployment
		v.SetDefault("rewards.points_per_unit", 10)
		v.SetDefault("rewards.redeem_threshold", 100)
		v.SetDefault("rewards.max_receipt_total", 10000.0)
		v.SetDefault("ocr.timeout_seconds", 15)
		v.SetDefault("security.bcrypt_cost", 12)

		// environment overrides, e.g. CSR_SERVER_PORT=9000
		v.SetEnvPrefix("CSR") // coffee shop rewards
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			loadErr = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err := v.Unmarshal(&c); err != nil {
			loadErr = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
