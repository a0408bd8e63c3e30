package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/aurora-backend/aurora/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the API server will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Redis to keep sessions in. If empty sessions live in process memory
	RedisURL string

	// Secrets for signing JWT tokens. Access and refresh tokens are signed
	// with different keys
	AccessSecret  string
	RefreshSecret string

	// Postmark server token for outgoing mail. If empty reset keys are
	// logged instead of mailed
	PostmarkToken string
	EmailFrom     string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":        setString(&c.ListenAddr),
		"DATABASE_URI":       setString(&c.DatabaseDSN),
		"REDIS_URL":          setString(&c.RedisURL),
		"JWT_SECRET":         setString(&c.AccessSecret),
		"JWT_REFRESH_SECRET": setString(&c.RefreshSecret),
		"POSTMARK_TOKEN":     setString(&c.PostmarkToken),
		"EMAIL_FROM":         setString(&c.EmailFrom),
		"LOG_LEVEL":          setString(&c.LogLevel),
		"ENVIRONMENT":        setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("aurora", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.RedisURL, "redis", "r", c.RedisURL, "Redis connection URL for session storage")
	fs.StringVarP(&c.AccessSecret, "secret", "s", c.AccessSecret, "Secret key for signing access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret key for signing refresh tokens")
	fs.StringVar(&c.PostmarkToken, "postmark-token", c.PostmarkToken, "Postmark server token for outgoing mail")
	fs.StringVar(&c.EmailFrom, "email-from", c.EmailFrom, "Sender address for outgoing mail")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
