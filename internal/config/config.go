package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. ROOMSYNC_RELAY_PORT.
const EnvPrefix = "ROOMSYNC"

// DefaultTopic is the room every participant of one deployment joins.
const DefaultTopic = "fld-room-01"

// Config holds relay and client settings. Each binary reads the sections it needs.
type Config struct {
	Relay     *RelayConfig     `json:"relay" validate:"required"`
	WebSocket *WebSocketConfig `json:"websocket" validate:"required"`
	Redis     *RedisConfig     `json:"redis" validate:"required"`
	Room      *RoomConfig      `json:"room" validate:"required"`
	Client    *ClientConfig    `json:"client" validate:"required"`
	Content   *ContentConfig   `json:"content" validate:"required"`
	Log       *LogConfig       `json:"log" validate:"required"`
}

// RelayConfig is the HTTP side of the relay.
type RelayConfig struct {
	Host         string        `json:"host" validate:"required"`
	Port         int           `json:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `json:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout time.Duration `json:"write_timeout" split_words:"true" validate:"gt=0"`
	// Passcode is the shared static room passcode. Empty disables the check.
	Passcode   string `json:"passcode"`
	InstanceID string `json:"instance_id" split_words:"true"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval" split_words:"true" validate:"gt=0"`
	ReadTimeout  time.Duration `json:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout time.Duration `json:"write_timeout" split_words:"true" validate:"gt=0"`
	BufferSize   int           `json:"buffer_size" split_words:"true" validate:"gt=0"`
}

// RedisConfig enables the multi-instance backplane.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr" validate:"required_if=Enabled true"`
	Password string `json:"password"`
	DB       int    `json:"db" validate:"min=0"`
}

type RoomConfig struct {
	Topic     string  `json:"topic" validate:"required,max=128"`
	RateLimit float64 `json:"rate_limit" split_words:"true" validate:"gt=0"`
	RateBurst int     `json:"rate_burst" split_words:"true" validate:"gt=0"`
}

// ClientConfig is read by roomctl and any embedding of the client core.
type ClientConfig struct {
	RelayURL       string        `json:"relay_url" split_words:"true"`
	Role           string        `json:"role" validate:"oneof=teacher student"`
	ConnectTimeout time.Duration `json:"connect_timeout" split_words:"true" validate:"gt=0"`
}

// ContentConfig points at the chat-completions service used for suggestions.
type ContentConfig struct {
	BaseURL string        `json:"base_url" split_words:"true"`
	APIKey  string        `json:"api_key" split_words:"true"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
}

type LogConfig struct {
	Env   string `json:"env" validate:"oneof=development production"`
	Level string `json:"level" validate:"omitempty,oneof=debug info warn error"`
}

func DefaultConfig() *Config {
	return &Config{
		Relay: &RelayConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
		},
		Redis: &RedisConfig{
			Addr: "localhost:6379",
		},
		Room: &RoomConfig{
			Topic:     DefaultTopic,
			RateLimit: 20,
			RateBurst: 40,
		},
		Client: &ClientConfig{
			RelayURL:       "ws://localhost:8080/ws",
			Role:           "student",
			ConnectTimeout: 5 * time.Second,
		},
		Content: &ContentConfig{
			BaseURL: "https://api.groq.com",
			Model:   "llama-3.3-70b-versatile",
			Timeout: 30 * time.Second,
		},
		Log: &LogConfig{
			Env:   "production",
			Level: "info",
		},
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.WebSocket.PingInterval >= c.WebSocket.ReadTimeout {
		return fmt.Errorf("websocket ping interval %s must be shorter than read timeout %s",
			c.WebSocket.PingInterval, c.WebSocket.ReadTimeout)
	}
	if float64(c.Room.RateBurst) < c.Room.RateLimit {
		return fmt.Errorf("room rate burst %d must be at least the rate limit %.0f",
			c.Room.RateBurst, c.Room.RateLimit)
	}
	return nil
}

// LoadFromEnv overlays ROOMSYNC_* variables on the defaults. A .env file in
// the working directory is loaded first when present; real environment
// variables win over it.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// fileConfig mirrors Config with durations as strings such as "30s".
type fileConfig struct {
	Relay *struct {
		Host         string `json:"host"`
		Port         int    `json:"port"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
		Passcode     string `json:"passcode"`
		InstanceID   string `json:"instance_id"`
	} `json:"relay"`
	WebSocket *struct {
		PingInterval string `json:"ping_interval"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
		BufferSize   int    `json:"buffer_size"`
	} `json:"websocket"`
	Redis *struct {
		Enabled  *bool  `json:"enabled"`
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Room *struct {
		Topic     string  `json:"topic"`
		RateLimit float64 `json:"rate_limit"`
		RateBurst int     `json:"rate_burst"`
	} `json:"room"`
	Client *struct {
		RelayURL       string `json:"relay_url"`
		Role           string `json:"role"`
		ConnectTimeout string `json:"connect_timeout"`
	} `json:"client"`
	Content *struct {
		BaseURL string `json:"base_url"`
		APIKey  string `json:"api_key"`
		Model   string `json:"model"`
		Timeout string `json:"timeout"`
	} `json:"content"`
	Log *struct {
		Env   string `json:"env"`
		Level string `json:"level"`
	} `json:"log"`
}

// LoadFromFile reads a JSON config file over the defaults and validates it.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := overlayFile(cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigWithPrecedence resolves file > environment > defaults. File and
// environment errors fall back to the layer below.
func LoadConfigWithPrecedence(path string) *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		cfg = DefaultConfig()
	}
	if path == "" {
		return cfg
	}

	layered := cloneConfig(cfg)
	if err := overlayFile(layered, path); err != nil {
		return cfg
	}
	if err := layered.Validate(); err != nil {
		return cfg
	}
	return layered
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if r := fc.Relay; r != nil {
		setString(&cfg.Relay.Host, r.Host)
		setInt(&cfg.Relay.Port, r.Port)
		setString(&cfg.Relay.Passcode, r.Passcode)
		setString(&cfg.Relay.InstanceID, r.InstanceID)
		if err := setDuration(&cfg.Relay.ReadTimeout, r.ReadTimeout); err != nil {
			return err
		}
		if err := setDuration(&cfg.Relay.WriteTimeout, r.WriteTimeout); err != nil {
			return err
		}
	}
	if w := fc.WebSocket; w != nil {
		setInt(&cfg.WebSocket.BufferSize, w.BufferSize)
		if err := setDuration(&cfg.WebSocket.PingInterval, w.PingInterval); err != nil {
			return err
		}
		if err := setDuration(&cfg.WebSocket.ReadTimeout, w.ReadTimeout); err != nil {
			return err
		}
		if err := setDuration(&cfg.WebSocket.WriteTimeout, w.WriteTimeout); err != nil {
			return err
		}
	}
	if r := fc.Redis; r != nil {
		if r.Enabled != nil {
			cfg.Redis.Enabled = *r.Enabled
		}
		setString(&cfg.Redis.Addr, r.Addr)
		setString(&cfg.Redis.Password, r.Password)
		setInt(&cfg.Redis.DB, r.DB)
	}
	if r := fc.Room; r != nil {
		setString(&cfg.Room.Topic, r.Topic)
		if r.RateLimit > 0 {
			cfg.Room.RateLimit = r.RateLimit
		}
		setInt(&cfg.Room.RateBurst, r.RateBurst)
	}
	if c := fc.Client; c != nil {
		setString(&cfg.Client.RelayURL, c.RelayURL)
		setString(&cfg.Client.Role, c.Role)
		if err := setDuration(&cfg.Client.ConnectTimeout, c.ConnectTimeout); err != nil {
			return err
		}
	}
	if c := fc.Content; c != nil {
		setString(&cfg.Content.BaseURL, c.BaseURL)
		setString(&cfg.Content.APIKey, c.APIKey)
		setString(&cfg.Content.Model, c.Model)
		if err := setDuration(&cfg.Content.Timeout, c.Timeout); err != nil {
			return err
		}
	}
	if l := fc.Log; l != nil {
		setString(&cfg.Log.Env, l.Env)
		setString(&cfg.Log.Level, l.Level)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", v, err)
	}
	*dst = d
	return nil
}

func cloneConfig(c *Config) *Config {
	relay, ws, redis, room, client, content, log := *c.Relay, *c.WebSocket, *c.Redis, *c.Room, *c.Client, *c.Content, *c.Log
	return &Config{
		Relay:     &relay,
		WebSocket: &ws,
		Redis:     &redis,
		Room:      &room,
		Client:    &client,
		Content:   &content,
		Log:       &log,
	}
}

// RelayAddr is the listen address of the relay HTTP server.
func (c *Config) RelayAddr() string {
	return fmt.Sprintf("%s:%d", c.Relay.Host, c.Relay.Port)
}
