package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// Auth Configuration
	Auth AuthConfig

	// Realtime messaging configuration
	Realtime RealtimeConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host           string   `envconfig:"SERVER_HOST" default:""`
	Port           string   `envconfig:"SERVER_PORT" default:"7005"`
	ReadTimeout    int      `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeout   int      `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `envconfig:"DB_HOST" default:"localhost"`
	Port         string `envconfig:"DB_PORT" default:"3306"`
	Username     string `envconfig:"DB_USER" default:"echochat"`
	Password     string `envconfig:"DB_PASSWORD" default:"echochat123"`
	DatabaseName string `envconfig:"DB_NAME" default:"echochat"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
}

// AuthConfig contains credential validation configuration
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" default:""`
}

// RealtimeConfig contains the knobs of the socket layer.
//
// PingInterval must stay shorter than PongWait or every connection times
// out between heartbeats.
type RealtimeConfig struct {
	PingInterval   time.Duration `envconfig:"RT_PING_INTERVAL" default:"25s"`
	PongWait       time.Duration `envconfig:"RT_PONG_WAIT" default:"60s"`
	WriteWait      time.Duration `envconfig:"RT_WRITE_WAIT" default:"10s"`
	SendBuffer     int           `envconfig:"RT_SEND_BUFFER" default:"256"`
	PresenceGrace  time.Duration `envconfig:"RT_PRESENCE_GRACE" default:"2s"`
	TypingTTL      time.Duration `envconfig:"RT_TYPING_TTL" default:"4s"`
	TypingSweep    time.Duration `envconfig:"RT_TYPING_SWEEP" default:"1s"`
	ClientPoll     time.Duration `envconfig:"RT_CLIENT_POLL" default:"5s"`
	MaxMessageSize int64         `envconfig:"RT_MAX_MESSAGE_SIZE" default:"4096"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`  // debug, info, warn, error
	Format string `envconfig:"LOG_FORMAT" default:"text"` // json, text
}

// LoadConfig reads configuration from environment variables, falling back
// to the defaults above. A .env file, if present, is loaded by main before
// this runs.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

// Addr returns the host:port the HTTP server binds to.
func (cfg *Config) Addr() string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}
