package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings for both the relay and a peer.
type Config struct {
	Relay   RelayConfig
	Peer    PeerConfig
	DB      DBConfig
	Logging LoggingConfig
}

type RelayConfig struct {
	Addr         string
	PingInterval time.Duration
	PeerBuffer   int
}

type PeerConfig struct {
	RelayURL         string
	ReconnectBackoff time.Duration
	DialTimeout      time.Duration
	DefaultArea      string
	DefaultDeckSize  int
}

type DBConfig struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

type LoggingConfig struct {
	Level  string
	Format string // "console" or "json"
}

// Load reads .env (if present) and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Relay: RelayConfig{
			Addr:         getEnv("RELAY_ADDR", ":8787"),
			PingInterval: getEnvDuration("RELAY_PING_INTERVAL", 30*time.Second),
			PeerBuffer:   getEnvInt("PEER_BUFFER", 64),
		},
		Peer: PeerConfig{
			RelayURL:         getEnv("RELAY_URL", "ws://localhost:8787/ws"),
			ReconnectBackoff: getEnvDuration("RECONNECT_BACKOFF", 2*time.Second),
			DialTimeout:      getEnvDuration("DIAL_TIMEOUT", 5*time.Second),
			DefaultArea:      getEnv("DEFAULT_AREA", "Hsinchu East"),
			DefaultDeckSize:  getEnvInt("DEFAULT_DECK_SIZE", 10),
		},
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "dinedecide.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

var ErrGroupRequired = errors.New("group id required (use -group or GROUP_ID env)")

// PeerFlags are the per-invocation settings of cmd/peer. Flags win over the
// environment, which wins over Config defaults.
type PeerFlags struct {
	GroupID   string
	Name      string
	CreateAs  string
	RelayURL  string
	DBDSN     string
	Anonymous bool
}

func ParsePeerFlags(args []string, cfg *Config) (PeerFlags, error) {
	var f PeerFlags

	fs := flag.NewFlagSet("peer", flag.ContinueOnError)
	fs.StringVar(&f.GroupID, "group", "", "Group id to join")
	fs.StringVar(&f.Name, "name", "", "Display name for this device")
	fs.StringVar(&f.CreateAs, "create", "", "Create the group with this name if it does not exist")
	fs.StringVar(&f.RelayURL, "relay", "", "Relay websocket URL")
	fs.StringVar(&f.DBDSN, "db", "", "Database DSN")
	fs.BoolVar(&f.Anonymous, "anonymous", false, "Hide voter names in results (new groups only)")

	if err := fs.Parse(args); err != nil {
		return PeerFlags{}, err
	}

	if f.GroupID == "" {
		f.GroupID = os.Getenv("GROUP_ID")
	}
	if f.GroupID == "" {
		return PeerFlags{}, ErrGroupRequired
	}
	if f.RelayURL == "" {
		f.RelayURL = cfg.Peer.RelayURL
	}
	if f.DBDSN == "" {
		f.DBDSN = cfg.DB.DSN
	}
	return f, nil
}
