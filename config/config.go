package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	defaultServerURL         = "ws://localhost:3000/socket.io/?EIO=4&transport=websocket"
	defaultPort              = "8080"
	defaultReconnectInterval = 5 * time.Second
	defaultMaxRetryAttempts  = 5
)

type Config struct {
	ServerURL         string
	PlayerName        string
	Port              string
	DebugDisabled     bool
	RecordDir         string
	ReplayFile        string
	KeymapFile        string
	QueueDir          string
	ReconnectInterval time.Duration
	MaxRetryAttempts  int
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		ServerURL:         getEnv("SERVER_URL", defaultServerURL),
		PlayerName:        getEnv("PLAYER_NAME", defaultPlayerName()),
		Port:              getEnv("PORT", defaultPort),
		DebugDisabled:     os.Getenv("DEBUG_DISABLED") == "1",
		RecordDir:         os.Getenv("RECORD_DIR"),
		ReplayFile:        os.Getenv("REPLAY_FILE"),
		KeymapFile:        os.Getenv("KEYMAP_FILE"),
		QueueDir:          os.Getenv("QUEUE_DIR"),
		ReconnectInterval: defaultReconnectInterval,
		MaxRetryAttempts:  defaultMaxRetryAttempts,
	}

	if v := os.Getenv("RECONNECT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("RECONNECT_INTERVAL: %w", err)
		}
		cfg.ReconnectInterval = d
	}
	if v := os.Getenv("MAX_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("MAX_RETRY_ATTEMPTS: invalid value %q", v)
		}
		cfg.MaxRetryAttempts = n
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultPlayerName() string {
	return "Player-" + uuid.New().String()[:8]
}
