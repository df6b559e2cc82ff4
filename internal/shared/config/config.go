package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Arbitrage  ArbitrageConfig  `yaml:"arbitrage"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

type ServerConfig struct {
	Address           string        `yaml:"address"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period"`
}

type BlockchainConfig struct {
	EthereumRPCURL     string `yaml:"ethereum_rpc_url"`
	ConnectionPoolSize int    `yaml:"connection_pool_size"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// ArbitrageConfig tunes the solver: the pool fee as a retained-input ratio
// and whether the closed form runs on raw reserves instead of the scaled
// fixed-width discipline.
type ArbitrageConfig struct {
	FeeNumerator   uint64 `yaml:"fee_numerator"`
	FeeDenominator uint64 `yaml:"fee_denominator"`
	FullPrecision  bool   `yaml:"full_precision"`
}

// TelemetryConfig points the opportunity reporter at an InfluxDB instance.
// Reporting is disabled while the URL is empty.
type TelemetryConfig struct {
	InfluxURL    string `yaml:"influx_url"`
	InfluxToken  string `yaml:"influx_token"`
	InfluxOrg    string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`
}

func LoadConfig(configPath string) (*Config, error) {
	config := getDefaultConfig()

	if configPath != "" {
		if err := loadFromYAML(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	rpcURL := os.Getenv("ETHEREUM_RPC_URL")
	if rpcURL == "" {
		return nil, fmt.Errorf("ETHEREUM_RPC_URL environment variable is required")
	}
	config.Blockchain.EthereumRPCURL = rpcURL

	if token := os.Getenv("INFLUX_TOKEN"); token != "" {
		config.Telemetry.InfluxToken = token
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	fee := c.Arbitrage
	if fee.FeeNumerator == 0 || fee.FeeDenominator == 0 || fee.FeeNumerator > fee.FeeDenominator {
		return fmt.Errorf("invalid arbitrage fee ratio %d/%d", fee.FeeNumerator, fee.FeeDenominator)
	}
	if c.Blockchain.ConnectionPoolSize <= 0 {
		return fmt.Errorf("connection pool size must be positive, got %d", c.Blockchain.ConnectionPoolSize)
	}
	return nil
}

func loadFromYAML(configPath string, config *Config) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:           ":1337",
			ShutdownTimeout:   30 * time.Second,
			HealthCheckPeriod: time.Minute,
		},
		Blockchain: BlockchainConfig{
			ConnectionPoolSize: 5,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600, // 10 requests per second (Infura-friendly)
		},
		Arbitrage: ArbitrageConfig{
			FeeNumerator:   997,
			FeeDenominator: 1000,
		},
	}
}
