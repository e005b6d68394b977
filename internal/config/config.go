package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string

	PuzzlePath string
	PuzzleURL  string

	RedisURL    string
	DatabaseURL string

	SessionTTL     time.Duration
	SetupMoveDelay time.Duration
	MoveInterval   time.Duration

	AutoplayEnabled bool

	MessageDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:        ":8480",
		SessionTTL:      time.Hour,
		SetupMoveDelay:  800 * time.Millisecond,
		MoveInterval:    500 * time.Millisecond,
		AutoplayEnabled: true,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}

	cfg.PuzzlePath = strings.TrimSpace(os.Getenv("PUZZLE_PATH"))
	cfg.PuzzleURL = strings.TrimSpace(os.Getenv("PUZZLE_URL"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessageDir = strings.TrimSpace(os.Getenv("MESSAGE_DIR"))

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("SETUP_MOVE_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SetupMoveDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("MOVE_INTERVAL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MoveInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("AUTOPLAY_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoplayEnabled = b
		}
	}

	if cfg.PuzzlePath == "" && cfg.PuzzleURL == "" {
		// The viewer can fall back to the bare starting position, but running
		// without any puzzle source at all is a deployment mistake.
		return nil, errors.New("PUZZLE_PATH or PUZZLE_URL is required")
	}

	return cfg, nil
}
