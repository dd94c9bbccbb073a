// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Feeder    FeederConfig    `mapstructure:"feeder"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// RedisConfig holds the connection and the key/channel layout shared by the
// feeder and the analyzer.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	TLSEnabled   bool          `mapstructure:"tls_enabled"`
	Channel      string        `mapstructure:"channel"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	SnapshotTTL  time.Duration `mapstructure:"snapshot_ttl"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// AnalyzerConfig holds opportunity detection settings.
type AnalyzerConfig struct {
	FullScanInterval       int                `mapstructure:"full_scan_interval"`
	MinAbsoluteProfit      float64            `mapstructure:"min_absolute_profit"`
	MinROIPercentage       float64            `mapstructure:"min_roi_percentage"`
	MaxNotionalUSD         float64            `mapstructure:"max_notional_usd"`
	DefaultReferencePrice  float64            `mapstructure:"default_reference_price"`
	ReferencePrices        map[string]float64 `mapstructure:"reference_prices"`
	WrappedAssets          map[string]string  `mapstructure:"wrapped_assets"`
	WrappedPriceAdjustment float64            `mapstructure:"wrapped_price_adjustment"`
	ScanWorkers            int                `mapstructure:"scan_workers"`
	TargetedBothSides      bool               `mapstructure:"targeted_both_sides"`
	TUIMode                bool               `mapstructure:"-"` // Set at runtime, not from config file
}

// FeesConfig is the fee schedule. Venue names are matched lowercase; asset
// tickers are matched uppercase.
type FeesConfig struct {
	UseMarketOrders   bool                      `mapstructure:"use_market_orders"`
	DefaultFeePercent float64                   `mapstructure:"default_fee_percent"`
	Venues            map[string]VenueFeeConfig `mapstructure:"venues"`
	WithdrawalFees    map[string]float64        `mapstructure:"withdrawal_fees"`
}

// VenueFeeConfig is one venue row of the fee schedule.
type VenueFeeConfig struct {
	TakerPercent float64 `mapstructure:"taker_percent"`
	MakerPercent float64 `mapstructure:"maker_percent"`
	GasCostUSD   float64 `mapstructure:"gas_cost_usd"`
}

// EthereumConfig drives the live gas cost feed for on-chain venues.
type EthereumConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	HTTPURL         string        `mapstructure:"http_url"`
	GasLimit        uint64        `mapstructure:"gas_limit"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	MaxGasPriceGwei float64       `mapstructure:"max_gas_price_gwei"`
	ETHPriceUSD     float64       `mapstructure:"eth_price_usd"`
	ETHPriceBook    string        `mapstructure:"eth_price_book"`
	OnChainVenue    string        `mapstructure:"onchain_venue"`
}

// FeederConfig holds the Binance depth feeder settings.
type FeederConfig struct {
	Exchange     string        `mapstructure:"exchange"`
	WebSocketURL string        `mapstructure:"websocket_url"` // wss://stream.binance.com:9443 or wss://stream.binance.us:9443 for US
	RESTURL      string        `mapstructure:"rest_url"`      // https://api.binance.com or https://api.binance.us
	SeedOnStart  bool          `mapstructure:"seed_on_start"` // publish a REST depth snapshot before streaming
	RESTTimeout  time.Duration `mapstructure:"rest_timeout"`
	Symbols      []string      `mapstructure:"symbols"`
	DepthSpeedMs int           `mapstructure:"depth_speed_ms"`
	Depth        int           `mapstructure:"depth"`
	PublishRate  float64       `mapstructure:"publish_rate"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	Insecure       bool   `mapstructure:"insecure"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the probe server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Redis (REDIS_ADDR / REDIS_PASS are what the feeder scripts export)
	v.BindEnv("redis.addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "ARB_REDIS_PASSWORD", "REDIS_PASS")
	v.BindEnv("redis.db", "ARB_REDIS_DB", "REDIS_DB")
	v.BindEnv("redis.channel", "ARB_REDIS_CHANNEL")

	// Analyzer
	v.BindEnv("analyzer.full_scan_interval", "ARB_FULL_SCAN_INTERVAL")
	v.BindEnv("analyzer.min_absolute_profit", "ARB_MIN_ABSOLUTE_PROFIT")
	v.BindEnv("analyzer.min_roi_percentage", "ARB_MIN_ROI_PERCENTAGE")
	v.BindEnv("analyzer.scan_workers", "ARB_SCAN_WORKERS")

	// Ethereum
	v.BindEnv("ethereum.enabled", "ARB_ETH_ENABLED")
	v.BindEnv("ethereum.http_url", "ARB_ETH_HTTP_URL", "ETH_HTTP_URL")

	// Feeder
	v.BindEnv("feeder.websocket_url", "ARB_BINANCE_WS_URL", "BINANCE_WS_URL")
	v.BindEnv("feeder.symbols", "ARB_BINANCE_SYMBOLS", "BINANCE_SYMBOLS")
	v.BindEnv("feeder.rest_url", "ARB_BINANCE_REST_URL", "BINANCE_REST_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "ARB_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")

	// Health
	v.BindEnv("health.port", "ARB_HEALTH_PORT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "spread-analyzer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.channel", "orderbook_updates")
	v.SetDefault("redis.key_prefix", "orderbook:")
	v.SetDefault("redis.snapshot_ttl", "30s")
	v.SetDefault("redis.fetch_timeout", "2s")

	// Analyzer defaults
	v.SetDefault("analyzer.full_scan_interval", 10)
	v.SetDefault("analyzer.min_absolute_profit", 1.0)
	v.SetDefault("analyzer.min_roi_percentage", 0.1)
	v.SetDefault("analyzer.max_notional_usd", 100000)
	v.SetDefault("analyzer.default_reference_price", 50000)
	v.SetDefault("analyzer.reference_prices", map[string]any{"BTC": 50000.0})
	v.SetDefault("analyzer.wrapped_assets", map[string]any{"WBTC": "BTC"})
	v.SetDefault("analyzer.wrapped_price_adjustment", 0.9999)
	v.SetDefault("analyzer.scan_workers", 4)
	v.SetDefault("analyzer.targeted_both_sides", true)

	// Fee schedule defaults
	v.SetDefault("fees.use_market_orders", true)
	v.SetDefault("fees.default_fee_percent", 0.15)
	v.SetDefault("fees.venues", map[string]any{
		"binance": map[string]any{
			"taker_percent": 0.1,
			"maker_percent": 0.1,
		},
		"uniswap-v3-exact": map[string]any{
			"taker_percent": 0.3,
			"maker_percent": 0.3,
			"gas_cost_usd":  50.0,
		},
	})
	v.SetDefault("fees.withdrawal_fees", map[string]any{
		"BTC":  0.0005,
		"WBTC": 0.0005,
		"ETH":  0.005,
		"USDT": 10.0,
	})

	// Ethereum defaults
	v.SetDefault("ethereum.enabled", false)
	v.SetDefault("ethereum.gas_limit", 200000)
	v.SetDefault("ethereum.refresh_interval", "15s")
	v.SetDefault("ethereum.cache_ttl", "12s")
	v.SetDefault("ethereum.max_gas_price_gwei", 500)
	v.SetDefault("ethereum.eth_price_usd", 3000)
	v.SetDefault("ethereum.eth_price_book", "binance:ETHUSDT")
	v.SetDefault("ethereum.onchain_venue", "uniswap-v3-exact")

	// Feeder defaults
	v.SetDefault("feeder.exchange", "binance")
	v.SetDefault("feeder.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("feeder.rest_url", "https://api.binance.com")
	v.SetDefault("feeder.seed_on_start", true)
	v.SetDefault("feeder.rest_timeout", "10s")
	v.SetDefault("feeder.symbols", []string{"BTCUSDT", "ETHUSDT"})
	v.SetDefault("feeder.depth_speed_ms", 100)
	v.SetDefault("feeder.depth", 20)
	v.SetDefault("feeder.publish_rate", 2)
	v.SetDefault("feeder.read_timeout", "30s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "spread-analyzer")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}

// normalize canonicalises map keys: viper lowercases every key, but tickers
// are compared uppercase.
func (c *Config) normalize() {
	c.Analyzer.ReferencePrices = upperKeys(c.Analyzer.ReferencePrices)
	c.Fees.WithdrawalFees = upperKeys(c.Fees.WithdrawalFees)

	wrapped := make(map[string]string, len(c.Analyzer.WrappedAssets))
	for k, v := range c.Analyzer.WrappedAssets {
		wrapped[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	c.Analyzer.WrappedAssets = wrapped

	venues := make(map[string]VenueFeeConfig, len(c.Fees.Venues))
	for k, v := range c.Fees.Venues {
		venues[strings.ToLower(k)] = v
	}
	c.Fees.Venues = venues

	for i, s := range c.Feeder.Symbols {
		c.Feeder.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

func upperKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Redis.Channel == "" {
		return fmt.Errorf("redis.channel is required")
	}
	if c.Analyzer.FullScanInterval < 1 {
		return fmt.Errorf("analyzer.full_scan_interval must be >= 1, got %d", c.Analyzer.FullScanInterval)
	}
	if c.Analyzer.MinAbsoluteProfit < 0 || c.Analyzer.MinROIPercentage < 0 {
		return fmt.Errorf("analyzer thresholds must be non-negative")
	}
	if c.Analyzer.MaxNotionalUSD <= 0 {
		return fmt.Errorf("analyzer.max_notional_usd must be positive")
	}
	if c.Analyzer.DefaultReferencePrice <= 0 {
		return fmt.Errorf("analyzer.default_reference_price must be positive")
	}
	for asset, p := range c.Analyzer.ReferencePrices {
		if p <= 0 {
			return fmt.Errorf("analyzer.reference_prices.%s must be positive", asset)
		}
	}
	if a := c.Analyzer.WrappedPriceAdjustment; a <= 0 || a > 1 {
		return fmt.Errorf("analyzer.wrapped_price_adjustment must be in (0, 1], got %v", a)
	}
	if c.Analyzer.ScanWorkers < 1 {
		return fmt.Errorf("analyzer.scan_workers must be >= 1")
	}
	if c.Fees.DefaultFeePercent < 0 {
		return fmt.Errorf("fees.default_fee_percent must be non-negative")
	}
	for venue, f := range c.Fees.Venues {
		if f.TakerPercent < 0 || f.MakerPercent < 0 || f.GasCostUSD < 0 {
			return fmt.Errorf("fees.venues.%s has a negative value", venue)
		}
	}
	for asset, f := range c.Fees.WithdrawalFees {
		if f < 0 {
			return fmt.Errorf("fees.withdrawal_fees.%s must be non-negative", asset)
		}
	}
	if c.Ethereum.Enabled {
		if c.Ethereum.HTTPURL == "" {
			return fmt.Errorf("ethereum.http_url is required when ethereum.enabled")
		}
		if c.Ethereum.RefreshInterval <= 0 {
			return fmt.Errorf("ethereum.refresh_interval must be positive")
		}
	}
	return nil
}

// ValidateFeeder checks the settings only the feeder binary needs.
func (c *Config) ValidateFeeder() error {
	if len(c.Feeder.Symbols) == 0 {
		return fmt.Errorf("feeder.symbols cannot be empty")
	}
	if c.Feeder.Exchange == "" {
		return fmt.Errorf("feeder.exchange is required")
	}
	if c.Feeder.Depth < 1 {
		return fmt.Errorf("feeder.depth must be >= 1")
	}
	if c.Redis.SnapshotTTL <= 0 {
		return fmt.Errorf("redis.snapshot_ttl must be positive")
	}
	return nil
}
