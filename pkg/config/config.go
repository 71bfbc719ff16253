// Package config loads relgraph settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	LogLevel   slog.Level
	CORSOrigin string

	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
	Neo4jDatabase string

	NATSURL     string
	NATSSubject string

	SeedFile        string
	CredentialsPath string

	// WriteRate caps relations committed per second; 0 disables the limit.
	WriteRate      float64
	ConnectRetries int
}

// Load reads the given .env files (".env" if none) and then the environment.
// Missing .env files are ignored; variables already set win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment alone.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:            envOr("PORT", "8080"),
		CORSOrigin:      envOr("CORS_ORIGIN", "*"),
		Neo4jURL:        os.Getenv("NEO4J_URL"),
		Neo4jUser:       envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:       os.Getenv("NEO4J_PASS"),
		Neo4jDatabase:   os.Getenv("NEO4J_DATABASE"),
		NATSURL:         os.Getenv("NATS_URL"),
		NATSSubject:     envOr("NATS_SUBJECT", "relgraph.relations.committed"),
		SeedFile:        envOr("SEED_FILE", "configs/seed.yaml"),
		CredentialsPath: envOr("RELGRAPH_CREDENTIALS", DefaultCredentialsPath()),
	}

	var err error
	if cfg.LogLevel, err = ParseLevel(envOr("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.WriteRate, err = strconv.ParseFloat(envOr("WRITE_RATE", "0"), 64); err != nil || cfg.WriteRate < 0 {
		return Config{}, fmt.Errorf("WRITE_RATE: invalid value %q", os.Getenv("WRITE_RATE"))
	}
	if cfg.ConnectRetries, err = strconv.Atoi(envOr("CONNECT_RETRIES", "3")); err != nil || cfg.ConnectRetries < 1 {
		return Config{}, fmt.Errorf("CONNECT_RETRIES: invalid value %q", os.Getenv("CONNECT_RETRIES"))
	}
	return cfg, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

// DefaultCredentialsPath is $HOME/.config/relgraph/credentials.yaml, or a
// relative path when the home directory is unknown.
func DefaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".relgraph", "credentials.yaml")
	}
	return filepath.Join(dir, "relgraph", "credentials.yaml")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
