// Package config reads server settings from the environment, after loading
// an optional .env file.
//
// Environment variables:
//
//	PORT             listen port (default: 8080)
//	STORE            sqlite or mongo (default: sqlite)
//	DB_PATH          SQLite file (default: ./data/splitmate.db)
//	MONGO_URI        MongoDB connection string (default: mongodb://localhost:27017)
//	MONGO_DB         MongoDB database name (default: splitmate)
//	JWT_SECRET       token signing key (required)
//	TOKEN_TTL        token lifetime as a Go duration (default: 720h)
//	UPLOAD_DIR       directory for uploaded proofs (default: ./data/uploads)
//	PUBLIC_BASE_URL  external URL of this server (default: http://localhost:PORT)
//	LOG_LEVEL        debug, info, warn, error (default: info)
//	LOG_FORMAT       text or json (default: text)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config holds the server settings.
type Config struct {
	Port          int
	Store         string
	DBPath        string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	TokenTTL      time.Duration
	UploadDir     string
	PublicBaseURL string
	LogLevel      string
	LogFormat     string
}

// Load reads envFiles (".env" when none are given) into the process
// environment without overriding variables that are already set, then
// builds the Config. Missing files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config using lookup for every key.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %q", get("PORT", ""))
	}
	ttl, err := time.ParseDuration(get("TOKEN_TTL", "720h"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", get("TOKEN_TTL", ""))
	}

	cfg := Config{
		Port:          port,
		Store:         strings.ToLower(get("STORE", StoreSQLite)),
		DBPath:        get("DB_PATH", "./data/splitmate.db"),
		MongoURI:      get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       get("MONGO_DB", "splitmate"),
		JWTSecret:     get("JWT_SECRET", ""),
		TokenTTL:      ttl,
		UploadDir:     get("UPLOAD_DIR", "./data/uploads"),
		PublicBaseURL: strings.TrimSuffix(get("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		LogLevel:      strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(get("LOG_FORMAT", "text")),
	}

	if cfg.Store != StoreSQLite && cfg.Store != StoreMongo {
		return Config{}, fmt.Errorf("invalid STORE %q: must be %s or %s", cfg.Store, StoreSQLite, StoreMongo)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q: must be text or json", cfg.LogFormat)
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// UploadsURL is the public prefix uploaded blobs are served under.
func (c Config) UploadsURL() string {
	return c.PublicBaseURL + "/uploads"
}
