// Package config loads runtime settings from an optional .env file and the
// environment, applies defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds every runtime setting.
type Config struct {
	Addr    string `validate:"required,hostname_port"`
	DataDir string `validate:"required"`

	Storage       string `validate:"oneof=sqlite redis memory"`
	RedisAddress  string `validate:"required_if=Storage redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0,lte=15"`

	CameraID     int `validate:"gte=0"`
	CanvasWidth  int `validate:"gte=16,lte=7680"`
	CanvasHeight int `validate:"gte=16,lte=4320"`
	OverlayImage string
	Images       []string
	StaticDir    string
	Smoothing    bool
	Tray         bool

	LogLevel string `validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	LogFile  string
	Env      string
}

// DBPath returns the SQLite database location inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "cosmozoom.db")
}

// Load reads envFiles (default ".env") when present, then the environment.
// Variables already set in the environment win over the files.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	home, _ := os.UserHomeDir()

	var cfg Config
	p := parser{}

	cfg.Addr = env("COSMOZOOM_ADDR", "127.0.0.1:8080")
	cfg.DataDir = env("COSMOZOOM_DATA_DIR", filepath.Join(home, ".cosmozoom"))
	cfg.Storage = strings.ToLower(env("COSMOZOOM_STORAGE", StorageSQLite))
	cfg.RedisAddress = env("REDIS_ADDRESS", "")
	cfg.RedisPassword = env("REDIS_PASSWORD", "")
	cfg.RedisDB = p.intVar("REDIS_DB", 0)
	cfg.CameraID = p.intVar("COSMOZOOM_CAMERA_ID", 0)
	cfg.CanvasWidth = p.intVar("COSMOZOOM_CANVAS_WIDTH", 640)
	cfg.CanvasHeight = p.intVar("COSMOZOOM_CANVAS_HEIGHT", 480)
	cfg.OverlayImage = env("COSMOZOOM_OVERLAY_IMAGE", "")
	cfg.Images = list(env("COSMOZOOM_IMAGES", ""))
	cfg.StaticDir = env("COSMOZOOM_STATIC_DIR", "web")
	cfg.Smoothing = p.boolVar("COSMOZOOM_SMOOTHING", false)
	cfg.Tray = p.boolVar("COSMOZOOM_TRAY", false)
	cfg.LogLevel = strings.ToLower(env("LOG_LEVEL", "info"))
	cfg.LogFile = env("LOG_FILE", "")
	cfg.Env = env("APP_ENV", "development")

	if p.err != nil {
		return Config{}, p.err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the struct tags on cfg.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func list(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first conversion error.
type parser struct {
	err error
}

func (p *parser) intVar(key string, def int) int {
	v := env(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return n
}

func (p *parser) boolVar(key string, def bool) bool {
	v := env(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return b
}
