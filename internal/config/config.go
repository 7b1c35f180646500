package config

import (
	"strings"

	"github.com/spf13/viper"

	"hypercore-tracker/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	App       App             `mapstructure:"app"`
	APIs      APIs            `mapstructure:"apis"`
	Hypercore Hypercore       `mapstructure:"hypercore"`
	Pricing   Pricing         `mapstructure:"pricing"`
	Logger    Logger          `mapstructure:"logger"`
	Server    Server          `mapstructure:"server"`
	Database  Database        `mapstructure:"database"`
	Wallets   []models.Wallet `mapstructure:"wallets"`
}

// App holds application-level settings.
type App struct {
	Title                  string `mapstructure:"title"`
	RefreshIntervalSeconds int    `mapstructure:"refresh_interval_seconds"`
}

// APIs holds the endpoints of the external data sources.
type APIs struct {
	RPCEndpoint  string `mapstructure:"rpc_endpoint"`
	HypercoreAPI string `mapstructure:"hypercore_api"`
	PriceAPI     string `mapstructure:"price_api"`
}

// Hypercore holds tuning knobs for the info-endpoint client.
type Hypercore struct {
	RateLimit       float64 `mapstructure:"rate_limit"`
	RateLimitBurst  int     `mapstructure:"rate_limit_burst"`
	TradeWindowDays int     `mapstructure:"trade_window_days"`
	TradeLimit      int     `mapstructure:"trade_limit"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds"`
}

// Pricing holds the price table settings.
type Pricing struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// Server holds the configuration for the read API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("app.title", "HyperCore Wallet Tracker")
	viper.SetDefault("app.refresh_interval_seconds", 300)
	viper.SetDefault("apis.rpc_endpoint", "https://rpc.hyperliquid.xyz/evm")
	viper.SetDefault("apis.hypercore_api", "https://api.hyperliquid.xyz/info")
	viper.SetDefault("apis.price_api", "https://hermes.pyth.network/v2/updates/price/latest")
	viper.SetDefault("hypercore.rate_limit", 10) // requests per second
	viper.SetDefault("hypercore.rate_limit_burst", 5)
	viper.SetDefault("hypercore.trade_window_days", 30)
	viper.SetDefault("hypercore.trade_limit", 50)
	viper.SetDefault("hypercore.cache_ttl_seconds", 300)
	viper.SetDefault("pricing.cache_ttl_seconds", 300)
	viper.SetDefault("database.dsn", "data/wallet_data.db")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
