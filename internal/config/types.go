package config

// Config is the whole process configuration. It is built once at startup
// (file, then environment, then defaults) and passed into each component.
//
// Every field can come from a JSON/YAML file and from the environment; the
// environment wins.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Webhook  WebhookConfig  `json:"webhook"`
	Logging  LoggingConfig  `json:"logging"`
	Debug    DebugConfig    `json:"debug"`
}

type TelegramConfig struct {
	Token string `json:"token" env:"TELEGRAM_BOT_TOKEN"`
	// AdminID is the single chat that receives every notification.
	AdminID int64 `json:"admin_id" env:"TELEGRAM_ADMIN_ID"`
	// WebAppURL drives the /start button: https opens the web app, anything
	// else becomes a plain link, empty means no button.
	WebAppURL string `json:"webapp_url" env:"WEBAPP_URL"`
	// PollTimeout is a Go duration string (e.g. "10s", "1m").
	PollTimeout string `json:"poll_timeout" env:"TELEGRAM_POLL_TIMEOUT"`
}

type WebhookConfig struct {
	Secret       string `json:"secret" env:"BOT_WEBHOOK_SECRET"`
	Host         string `json:"host" env:"WEBHOOK_HOST"`
	Port         int    `json:"port" env:"WEBHOOK_PORT"`
	MaxBodyBytes int64  `json:"max_body_bytes" env:"WEBHOOK_MAX_BODY_BYTES"`

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout" env:"WEBHOOK_READ_TIMEOUT"`
	WriteTimeout string `json:"write_timeout" env:"WEBHOOK_WRITE_TIMEOUT"`
	IdleTimeout  string `json:"idle_timeout" env:"WEBHOOK_IDLE_TIMEOUT"`
}

type LoggingConfig struct {
	Level    string          `json:"level" env:"LOG_LEVEL"`
	Console  bool            `json:"console" env:"LOG_CONSOLE"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled    bool   `json:"enabled" env:"LOG_FILE_ENABLED"`
	Path       string `json:"path" env:"LOG_FILE"`
	MaxSizeMB  int    `json:"max_size_mb" env:"LOG_FILE_MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups" env:"LOG_FILE_MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days" env:"LOG_FILE_MAX_AGE_DAYS"`
}

// LoggingTelegram mirrors warnings and errors into the admin chat.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled" env:"LOG_TELEGRAM_ENABLED"`
	MinLevel   string `json:"min_level" env:"LOG_TELEGRAM_MIN_LEVEL"`
	RatePerSec int    `json:"rate_per_sec" env:"LOG_TELEGRAM_RATE_PER_SEC"`
}

// DebugConfig controls the optional pprof listener. Non-loopback addresses
// need a token.
type DebugConfig struct {
	PprofEnabled bool   `json:"pprof_enabled" env:"PPROF_ENABLED"`
	PprofAddr    string `json:"pprof_addr" env:"PPROF_ADDR"`
	PprofToken   string `json:"pprof_token" env:"PPROF_TOKEN"`
}

const (
	DefaultPollTimeout   = "10s"
	DefaultWebhookHost   = "0.0.0.0"
	DefaultWebhookPort   = 3001
	DefaultMaxBodyBytes  = 1 << 20
	DefaultReadTimeout   = "10s"
	DefaultWriteTimeout  = "30s"
	DefaultIdleTimeout   = "60s"
	DefaultLogLevel      = "INFO"
	DefaultLogPath       = "./hacktaika.log"
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 5
	DefaultLogMaxAgeDays = 14
	DefaultLogTGMinLevel = "WARN"
	DefaultLogTGRate     = 1
	DefaultPprofAddr     = "127.0.0.1:6060"
)

// ApplyDefaults fills zero values. It is idempotent.
func (c *Config) ApplyDefaults() {
	if c.Telegram.PollTimeout == "" {
		c.Telegram.PollTimeout = DefaultPollTimeout
	}

	w := &c.Webhook
	if w.Host == "" {
		w.Host = DefaultWebhookHost
	}
	if w.Port == 0 {
		w.Port = DefaultWebhookPort
	}
	if w.MaxBodyBytes == 0 {
		w.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if w.ReadTimeout == "" {
		w.ReadTimeout = DefaultReadTimeout
	}
	if w.WriteTimeout == "" {
		w.WriteTimeout = DefaultWriteTimeout
	}
	if w.IdleTimeout == "" {
		w.IdleTimeout = DefaultIdleTimeout
	}

	l := &c.Logging
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if l.File.Path == "" {
		l.File.Path = DefaultLogPath
	}
	if l.File.MaxSizeMB == 0 {
		l.File.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if l.File.MaxBackups == 0 {
		l.File.MaxBackups = DefaultLogMaxBackups
	}
	if l.File.MaxAgeDays == 0 {
		l.File.MaxAgeDays = DefaultLogMaxAgeDays
	}
	if l.Telegram.MinLevel == "" {
		l.Telegram.MinLevel = DefaultLogTGMinLevel
	}
	if l.Telegram.RatePerSec == 0 {
		l.Telegram.RatePerSec = DefaultLogTGRate
	}

	if c.Debug.PprofAddr == "" {
		c.Debug.PprofAddr = DefaultPprofAddr
	}
}
