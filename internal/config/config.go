// Package config loads server settings from the environment.
//
// SOURCES, lowest to highest priority:
//  1. Defaults set in code (see setDefaults)
//  2. An optional config file named by CONFIG_FILE (any format viper reads:
//     yaml, json, toml, ...)
//  3. Environment variables, after a .env file (if present) has been merged
//     into the environment. Variables already set in the real environment
//     win over .env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/flipit/internal/auth"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Token schemes.
const (
	SchemeUserID = "userid"
	SchemeJWT    = "jwt"
)

// minJWTSecret mirrors auth.MinSecretLength; config is validated before
// the auth package is ever touched.
const minJWTSecret = 16

// Config holds every runtime setting of the server.
type Config struct {
	Port            int
	StoreBackend    string
	DataPath        string // JSON snapshot file (json backend)
	DBPath          string // SQLite database file (sqlite backend)
	TokenScheme     string
	JWTSecret       string
	JWTTTL          time.Duration // 0 = tokens never expire
	BcryptCost      int
	LogLevel        string
	ShutdownTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("STORE_BACKEND", BackendJSON)
	v.SetDefault("DATA_PATH", "data/flipit.json")
	v.SetDefault("DB_PATH", "data/flipit.db")
	v.SetDefault("AUTH_TOKEN_SCHEME", SchemeUserID)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "0s")
	v.SetDefault("BCRYPT_COST", auth.DefaultCost)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
}

// Load reads the configuration. envFiles are merged into the environment
// first; with none given, ./.env is tried. Missing env files are not an
// error, a CONFIG_FILE that cannot be read is.
//
// The returned Config has not been validated; call Validate.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	}

	return &Config{
		Port:            v.GetInt("PORT"),
		StoreBackend:    v.GetString("STORE_BACKEND"),
		DataPath:        v.GetString("DATA_PATH"),
		DBPath:          v.GetString("DB_PATH"),
		TokenScheme:     v.GetString("AUTH_TOKEN_SCHEME"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTTTL:          v.GetDuration("JWT_TTL"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}

	switch c.StoreBackend {
	case BackendJSON:
		if c.DataPath == "" {
			return errors.New("config: DATA_PATH is required for the json backend")
		}
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q (want %q or %q)", c.StoreBackend, BackendJSON, BackendSQLite)
	}

	switch c.TokenScheme {
	case SchemeUserID:
	case SchemeJWT:
		if len(c.JWTSecret) < minJWTSecret {
			return fmt.Errorf("config: JWT_SECRET must be at least %d characters when AUTH_TOKEN_SCHEME=jwt", minJWTSecret)
		}
	default:
		return fmt.Errorf("config: unknown AUTH_TOKEN_SCHEME %q (want %q or %q)", c.TokenScheme, SchemeUserID, SchemeJWT)
	}

	if c.JWTTTL < 0 {
		return errors.New("config: JWT_TTL must not be negative")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST %d outside %d..%d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
