package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/mpesa-stk/internal/adapters/mpesa"
	"github.com/kevin07696/mpesa-stk/internal/domain"
)

// Config holds all application configuration
type Config struct {
	MPesa    MPesaConfig
	Server   ServerConfig
	Database DatabaseConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// MPesaConfig holds Daraja API credentials and client settings
type MPesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
	Environment    domain.Environment
	Timeout        time.Duration
	BaseURL        string // overrides the environment host when set

	// Secret manager paths, used when SECRET_MANAGER is not "env"
	ConsumerSecretPath string
	PasskeyPath        string
}

// ServerConfig holds callback listener configuration
type ServerConfig struct {
	Port         int
	MetricsPort  int
	CallbackPath string
	RateLimit    float64 // requests per second per client IP
	RateBurst    int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL      string // empty disables persistence
	MaxConns int32
	MinConns int32
}

// Enabled reports whether push records should be persisted
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// SecretsConfig selects where credential secrets come from
type SecretsConfig struct {
	Manager     string // env, local, aws or vault
	LocalPath   string
	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string
	VaultAddr   string
	VaultToken  string
	VaultMount  string
	CacheTTL    time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Environment string // production selects JSON logging
}

// LoadFromEnv loads configuration from environment variables.
// Credentials are not required here since they may come from a secret manager.
func LoadFromEnv() (*Config, error) {
	env, err := domain.ParseEnvironment(getEnv("MPESA_ENVIRONMENT", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MPesa: MPesaConfig{
			ConsumerKey:        getEnv("MPESA_CONSUMER_KEY", ""),
			ConsumerSecret:     getEnv("MPESA_CONSUMER_SECRET", ""),
			Passkey:            getEnv("MPESA_PASSKEY", ""),
			Environment:        env,
			Timeout:            time.Duration(getEnvAsInt("MPESA_TIMEOUT_SECONDS", 30)) * time.Second,
			BaseURL:            getEnv("MPESA_BASE_URL", ""),
			ConsumerSecretPath: getEnv("MPESA_CONSUMER_SECRET_PATH", "mpesa/consumer_secret"),
			PasskeyPath:        getEnv("MPESA_PASSKEY_PATH", "mpesa/passkey"),
		},
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_HTTP_PORT", 8080),
			MetricsPort:  getEnvAsInt("METRICS_PORT", 9090),
			CallbackPath: getEnv("CALLBACK_PATH", "/mpesa/callback"),
			RateLimit:    getEnvAsFloat("CALLBACK_RATE_LIMIT", 10),
			RateBurst:    getEnvAsInt("CALLBACK_RATE_BURST", 20),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 1)),
		},
		Secrets: SecretsConfig{
			Manager:     strings.ToLower(getEnv("SECRET_MANAGER", SecretManagerEnv)),
			LocalPath:   getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			AWSRegion:   getEnv("AWS_REGION", "eu-west-1"),
			AWSProfile:  getEnv("AWS_PROFILE", ""),
			AWSEndpoint: getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddr:   getEnv("VAULT_ADDR", "http://127.0.0.1:8200"),
			VaultToken:  getEnv("VAULT_TOKEN", ""),
			VaultMount:  getEnv("VAULT_MOUNT_PATH", "secret"),
			CacheTTL:    time.Duration(getEnvAsInt("SECRET_CACHE_TTL_MINUTES", 5)) * time.Minute,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
	}

	if cfg.MPesa.Timeout <= 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeConfigError, "MPESA_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

// Validate checks the credentials required to talk to M-Pesa
func (c MPesaConfig) Validate() error {
	return c.AuthConfig().Validate()
}

// AuthConfig returns the immutable credential value used by the client
func (c MPesaConfig) AuthConfig() domain.AuthConfig {
	return domain.AuthConfig{
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		Passkey:        c.Passkey,
		Environment:    c.Environment,
	}
}

// ClientConfig returns the endpoint configuration for the environment,
// honouring the base URL override
func (c MPesaConfig) ClientConfig() *mpesa.ClientConfig {
	cc := mpesa.DefaultClientConfig(c.Environment)
	if c.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	return cc
}

type authFile struct {
	ConsumerKey    *string `json:"consumer_key"`
	ConsumerSecret *string `json:"consumer_secret"`
	Passkey        string  `json:"passkey"`
	Sandbox        *bool   `json:"sandbox"`
}

// LoadAuthConfigFromFile reads credentials from a JSON file of the form
// {"consumer_key": "...", "consumer_secret": "...", "passkey": "...", "sandbox": true}.
// Missing sandbox selects the sandbox.
func LoadAuthConfigFromFile(path string) (*domain.AuthConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrorCodeConfigError, "configuration file not found: "+path, err)
		}
		return nil, domain.WrapError(domain.ErrorCodeConfigError, "unable to open configuration file: "+path, err)
	}

	var f authFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeParseError, "failed to parse configuration file", err)
	}

	if f.ConsumerKey == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeConfigError, "missing 'consumer_key' in config file")
	}
	if f.ConsumerSecret == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeConfigError, "missing 'consumer_secret' in config file")
	}

	env := domain.EnvironmentSandbox
	if f.Sandbox != nil && !*f.Sandbox {
		env = domain.EnvironmentProduction
	}

	return &domain.AuthConfig{
		ConsumerKey:    *f.ConsumerKey,
		ConsumerSecret: *f.ConsumerSecret,
		Passkey:        f.Passkey,
		Environment:    env,
	}, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// String hides credentials when a config is logged with %v
func (c MPesaConfig) String() string {
	return fmt.Sprintf("MPesaConfig{Environment:%s BaseURL:%s Timeout:%s ConsumerKey:%s}",
		c.Environment, c.BaseURL, c.Timeout, mask(c.ConsumerKey))
}

func mask(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
