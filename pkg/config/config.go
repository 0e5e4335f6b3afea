package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"PivotPipe/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Mode        string `yaml:"mode"` // live or replay
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Candle struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"candle"`
	Session struct {
		DriverSymbol string `yaml:"driver_symbol"`
	} `yaml:"session"`
	Universe struct {
		Symbols       []string  `yaml:"symbols"`
		Omitted       []string  `yaml:"omitted"`
		ThresholdPct  float64   `yaml:"threshold_pct"`
		TopN          int       `yaml:"top_n"`
		TargetStepPct float64   `yaml:"target_step_pct"`
		TargetMaxPct  float64   `yaml:"target_max_pct"`
		FlipStepsPct  []float64 `yaml:"flip_steps_pct"`
	} `yaml:"universe"`
	Strategy struct {
		ID                 string `yaml:"id"`
		AutoAdvance        bool   `yaml:"auto_advance"`
		FlipTimeoutSeconds int    `yaml:"flip_timeout_seconds"`
	} `yaml:"strategy"`
	PrevDay struct {
		File string `yaml:"file"`
	} `yaml:"prev_day"`
	Feed struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"feed"`
	Replay struct {
		File  string    `yaml:"file"`
		Start time.Time `yaml:"start"`
	} `yaml:"replay"`
	Store struct {
		Backend string `yaml:"backend"` // memory or redis
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		IntentTopic  string   `yaml:"intent_topic"`
		FillTopic    string   `yaml:"fill_topic"`
		FillGroupID  string   `yaml:"fill_group_id"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Universe.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REPLAY_START"); v != "" {
		c.Replay.Start = util.ParseTimeDefault(v, c.Replay.Start)
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Mode != "live" && c.Mode != "replay" {
		return fmt.Errorf("mode must be 'live' or 'replay', got '%s'", c.Mode)
	}
	if len(c.Universe.Symbols) == 0 {
		return fmt.Errorf("universe.symbols cannot be empty")
	}
	if c.Universe.ThresholdPct <= 0 {
		return fmt.Errorf("universe.threshold_pct must be positive")
	}
	if c.Universe.TopN <= 0 {
		return fmt.Errorf("universe.top_n must be positive")
	}
	if c.Universe.TargetStepPct <= 0 || c.Universe.TargetMaxPct <= 0 {
		return fmt.Errorf("universe target ladder steps must be positive")
	}
	if c.Mode == "live" && c.Feed.WebSocketURL == "" {
		return fmt.Errorf("feed.websocket_url is required in live mode")
	}
	if c.Mode == "replay" && c.Replay.File == "" {
		return fmt.Errorf("replay.file is required in replay mode")
	}
	if c.Store.Backend != "" && c.Store.Backend != "memory" && c.Store.Backend != "redis" {
		return fmt.Errorf("store.backend must be 'memory' or 'redis', got '%s'", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the redis store backend")
	}
	return nil
}
