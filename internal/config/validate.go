package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Role selects which components a process runs.
type Role string

const (
	RoleBot     Role = "bot"
	RoleWebhook Role = "webhook"
	RoleAll     Role = "all"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleBot, RoleWebhook, RoleAll:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q (want bot, webhook or all)", s)
	}
}

func (r Role) RunsBot() bool     { return r == RoleBot || r == RoleAll }
func (r Role) RunsWebhook() bool { return r == RoleWebhook || r == RoleAll }

// Validate checks the config for the given role. All problems are reported
// together.
func (c *Config) Validate(role Role) error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if strings.TrimSpace(c.Telegram.Token) == "" {
		add("telegram.token is required (TELEGRAM_BOT_TOKEN)")
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		errs = append(errs, err)
	}
	if u := strings.TrimSpace(c.Telegram.WebAppURL); u != "" {
		if p, err := url.Parse(u); err != nil || p.Scheme == "" || p.Host == "" {
			add("telegram.webapp_url: invalid url %q", u)
		}
	}

	if role.RunsWebhook() {
		if c.Telegram.AdminID == 0 {
			add("telegram.admin_id is required for role %s (TELEGRAM_ADMIN_ID)", role)
		}
		if c.Webhook.Secret == "" {
			add("webhook.secret is required for role %s (BOT_WEBHOOK_SECRET)", role)
		}
		if c.Webhook.Port <= 0 || c.Webhook.Port > 65535 {
			add("webhook.port out of range: %d", c.Webhook.Port)
		}
		if c.Webhook.MaxBodyBytes <= 0 {
			add("webhook.max_body_bytes must be > 0")
		}
		for path, raw := range map[string]string{
			"webhook.read_timeout":  c.Webhook.ReadTimeout,
			"webhook.write_timeout": c.Webhook.WriteTimeout,
			"webhook.idle_timeout":  c.Webhook.IdleTimeout,
		} {
			if _, err := ParseDurationField(path, raw); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if c.Logging.Telegram.Enabled {
		if c.Telegram.AdminID == 0 {
			add("logging.telegram needs telegram.admin_id")
		}
		if c.Logging.Telegram.RatePerSec < 0 {
			add("logging.telegram.rate_per_sec must be >= 0")
		}
	}
	if c.Logging.File.MaxSizeMB < 0 || c.Logging.File.MaxBackups < 0 || c.Logging.File.MaxAgeDays < 0 {
		add("logging.file rotation limits must be >= 0")
	}
	if !validLevel(c.Logging.Level) {
		add("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Logging.Telegram.Enabled && !validLevel(c.Logging.Telegram.MinLevel) {
		add("logging.telegram.min_level: unknown level %q", c.Logging.Telegram.MinLevel)
	}

	if c.Debug.PprofEnabled {
		if _, _, err := net.SplitHostPort(c.Debug.PprofAddr); err != nil {
			add("debug.pprof_addr: %v", err)
		}
	}

	return errors.Join(errs...)
}

func validLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return true
	}
	return false
}
