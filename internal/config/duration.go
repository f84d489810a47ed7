package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// PollTimeoutDuration returns the long-poll timeout, 10s when unset.
func (t TelegramConfig) PollTimeoutDuration() (time.Duration, error) {
	return ParseDurationOrDefault("telegram.poll_timeout", t.PollTimeout, 10*time.Second)
}

// ServerTimeouts returns the read, write and idle timeouts of the listener.
func (w WebhookConfig) ServerTimeouts() (read, write, idle time.Duration, err error) {
	if read, err = ParseDurationOrDefault("webhook.read_timeout", w.ReadTimeout, 10*time.Second); err != nil {
		return
	}
	if write, err = ParseDurationOrDefault("webhook.write_timeout", w.WriteTimeout, 30*time.Second); err != nil {
		return
	}
	idle, err = ParseDurationOrDefault("webhook.idle_timeout", w.IdleTimeout, 60*time.Second)
	return
}

// Addr is the listen address in host:port form.
func (w WebhookConfig) Addr() string {
	return net.JoinHostPort(w.Host, strconv.Itoa(w.Port))
}
