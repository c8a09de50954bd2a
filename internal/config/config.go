package config

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mediscreen/patienthistory/internal/platform/auth"
	"github.com/mediscreen/patienthistory/internal/platform/patientindex"
)

const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverMemory   = "memory"
)

type Config struct {
	Port                  string        `mapstructure:"PORT"`
	Env                   string        `mapstructure:"ENV"`
	StoreDriver           string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL           string        `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32         `mapstructure:"DB_MIN_CONNS"`
	BoltPath              string        `mapstructure:"BOLT_PATH"`
	PatientServiceHost    string        `mapstructure:"PATIENT_SERVICE_HOST"`
	PatientServicePort    string        `mapstructure:"PATIENT_SERVICE_PORT"`
	PatientServiceTimeout time.Duration `mapstructure:"PATIENT_SERVICE_TIMEOUT"`
	CORSOrigins           []string      `mapstructure:"CORS_ORIGINS"`
	RequestTimeout        time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit             string        `mapstructure:"BODY_LIMIT"`
	AuthSigningKey        string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer            string        `mapstructure:"AUTH_ISSUER"`
	RateLimitRPS          float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int           `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"PORT", "ENV", "STORE_DRIVER", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"BOLT_PATH", "PATIENT_SERVICE_HOST", "PATIENT_SERVICE_PORT", "PATIENT_SERVICE_TIMEOUT",
	"CORS_ORIGINS", "REQUEST_TIMEOUT", "BODY_LIMIT", "AUTH_SIGNING_KEY", "AUTH_ISSUER",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// Load reads the environment, then an optional .env file in the working
// directory. It does not validate; call Validate before serving.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8082")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("BOLT_PATH", "patienthistory.db")
	v.SetDefault("PATIENT_SERVICE_HOST", "127.0.0.1")
	v.SetDefault("PATIENT_SERVICE_PORT", "8080")
	v.SetDefault("PATIENT_SERVICE_TIMEOUT", "10s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:8082")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("AUTH_ISSUER", "patienthistory")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	// Bind explicitly so Unmarshal sees env-only keys.
	for _, k := range keys {
		v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", DriverPostgres)
		}
		if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) and DB_MAX_CONNS (%d) are inconsistent", c.DBMinConns, c.DBMaxConns)
		}
	case DriverBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("BOLT_PATH is required when STORE_DRIVER is %q", DriverBolt)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q, %q, or %q, got %q", DriverPostgres, DriverBolt, DriverMemory, c.StoreDriver)
	}

	if c.AuthSigningKey == "" {
		if c.IsProduction() {
			return fmt.Errorf("AUTH_SIGNING_KEY is required in production")
		}
	} else {
		key, err := hex.DecodeString(c.AuthSigningKey)
		if err != nil {
			return fmt.Errorf("AUTH_SIGNING_KEY is not valid hex: %w", err)
		}
		if len(key) < 32 {
			return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes (64 hex chars), got %d bytes", len(key))
		}
	}

	if port, err := strconv.Atoi(c.PatientServicePort); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PATIENT_SERVICE_PORT must be a port number, got %q", c.PatientServicePort)
	}
	if c.PatientServiceTimeout <= 0 {
		return fmt.Errorf("PATIENT_SERVICE_TIMEOUT must be positive, got %s", c.PatientServiceTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	return nil
}

// AuthEnabled reports whether the JSON API requires bearer tokens.
func (c *Config) AuthEnabled() bool {
	return c.AuthSigningKey != ""
}

// JWT returns the token settings. Call only after Validate.
func (c *Config) JWT() auth.JWTConfig {
	key, _ := hex.DecodeString(c.AuthSigningKey)
	return auth.JWTConfig{Issuer: c.AuthIssuer, SigningKey: key}
}

func (c *Config) PatientIndex() patientindex.Config {
	return patientindex.Config{
		Host:    c.PatientServiceHost,
		Port:    c.PatientServicePort,
		Timeout: c.PatientServiceTimeout,
	}
}
