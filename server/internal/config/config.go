package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultBind          = "127.0.0.1"
	DefaultHTTPPort      = 7032
	DefaultInterval      = 200 * time.Millisecond
	DefaultIdleInterval  = time.Second
	DefaultInboxCapacity = 64
	DefaultWriteTimeout  = 10 * time.Second
	DefaultPongWait      = 60 * time.Second
	DefaultReadLimit     = 4096
	DefaultProcPath      = "/proc"
	DefaultScrapeTimeout = 5 * time.Second
)

// Metrics source types.
const (
	SourceProcfs       = "procfs"
	SourceNodeExporter = "node_exporter"
)

// Config is the full server configuration parsed from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Producer ProducerConfig `yaml:"producer"`
	Inbox    InboxConfig    `yaml:"inbox"`
	Session  SessionConfig  `yaml:"session"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

// ServerConfig holds listener and logging settings.
type ServerConfig struct {
	// Bind is the listen address (default 127.0.0.1).
	Bind string `yaml:"bind"`

	// HTTPPort serves the WebSocket endpoint, REST API and UI (default 7032).
	HTTPPort int `yaml:"http_port"`

	// UIDir serves static UI files from this directory; empty disables it.
	UIDir string `yaml:"ui_dir"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.HTTPPort)
}

// Level returns LogLevel as a slog.Level, defaulting to info.
func (s ServerConfig) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProducerConfig controls the snapshot cadence.
type ProducerConfig struct {
	// Interval is the pause between two snapshots.
	Interval time.Duration `yaml:"interval"`

	// IdleInterval is added to Interval while no session is connected.
	IdleInterval time.Duration `yaml:"idle_interval"`
}

// InboxConfig bounds the pending chat message queue.
type InboxConfig struct {
	Capacity int `yaml:"capacity"`
}

// SessionConfig holds per-connection transport limits.
type SessionConfig struct {
	// WriteTimeout is the deadline for a single frame write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PongWait is how long to wait for any frame or pong before treating
	// the connection as dead. Pings are sent at 9/10 of this.
	PongWait time.Duration `yaml:"pong_wait"`

	// ReadLimit is the maximum inbound frame size in bytes.
	ReadLimit int64 `yaml:"read_limit"`
}

// PingPeriod returns how often the writer sends ping frames.
func (s SessionConfig) PingPeriod() time.Duration {
	return (s.PongWait * 9) / 10
}

// MetricsConfig selects where host metrics come from.
type MetricsConfig struct {
	// Source is one of: procfs | node_exporter.
	Source string `yaml:"source"`

	// ProcPath is the procfs mount point used by the procfs source.
	ProcPath string `yaml:"proc_path"`

	// Endpoint is the node_exporter /metrics URL.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds one node_exporter scrape.
	Timeout time.Duration `yaml:"timeout"`
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "cpu_max > 90", "cpu_avg >= 75",
	// "mem_used_pct > 90", "sessions > 100".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path. An empty path skips the
// file and yields defaults. TOPCHAT_* environment variables override file
// values before validation.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Bind:     DefaultBind,
			HTTPPort: DefaultHTTPPort,
			LogLevel: "info",
		},
		Producer: ProducerConfig{
			Interval:     DefaultInterval,
			IdleInterval: DefaultIdleInterval,
		},
		Inbox: InboxConfig{Capacity: DefaultInboxCapacity},
		Session: SessionConfig{
			WriteTimeout: DefaultWriteTimeout,
			PongWait:     DefaultPongWait,
			ReadLimit:    DefaultReadLimit,
		},
		Metrics: MetricsConfig{
			Source:   SourceProcfs,
			ProcPath: DefaultProcPath,
			Timeout:  DefaultScrapeTimeout,
		},
	}
}

// applyEnv overrides selected fields from TOPCHAT_* environment variables.
func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("TOPCHAT_BIND"); ok {
		cfg.Server.Bind = v
	}
	if v, ok := os.LookupEnv("TOPCHAT_HTTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TOPCHAT_HTTP_PORT: %w", err)
		}
		cfg.Server.HTTPPort = port
	}
	if v, ok := os.LookupEnv("TOPCHAT_UI_DIR"); ok {
		cfg.Server.UIDir = v
	}
	if v, ok := os.LookupEnv("TOPCHAT_LOG_LEVEL"); ok {
		cfg.Server.LogLevel = v
	}
	if v, ok := os.LookupEnv("TOPCHAT_METRICS_SOURCE"); ok {
		cfg.Metrics.Source = v
	}
	if v, ok := os.LookupEnv("TOPCHAT_METRICS_ENDPOINT"); ok {
		cfg.Metrics.Endpoint = v
	}
	return nil
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("server.log_level %q unknown: want debug|info|warn|error", cfg.Server.LogLevel)
	}
	if cfg.Producer.Interval <= 0 {
		return fmt.Errorf("producer.interval must be positive")
	}
	if cfg.Producer.IdleInterval < 0 {
		return fmt.Errorf("producer.idle_interval must not be negative")
	}
	if cfg.Inbox.Capacity <= 0 {
		return fmt.Errorf("inbox.capacity must be positive")
	}
	if cfg.Session.WriteTimeout <= 0 {
		return fmt.Errorf("session.write_timeout must be positive")
	}
	if cfg.Session.PongWait <= 0 {
		return fmt.Errorf("session.pong_wait must be positive")
	}
	if cfg.Session.ReadLimit <= 0 {
		return fmt.Errorf("session.read_limit must be positive")
	}
	switch cfg.Metrics.Source {
	case SourceProcfs:
	case SourceNodeExporter:
		if cfg.Metrics.Endpoint == "" {
			return fmt.Errorf("metrics.endpoint is required for source %q", SourceNodeExporter)
		}
	default:
		return fmt.Errorf("metrics.source %q unknown: want procfs|node_exporter", cfg.Metrics.Source)
	}
	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if len(strings.Fields(r.Condition)) != 3 {
			return fmt.Errorf("alerts.rules[%d] %q: condition must be \"field op value\"", i, r.Name)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "teams", "slack", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}
	return nil
}
