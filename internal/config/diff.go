package config

import (
	"sort"

	logx "hacktaika/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and safe
// structured attrs for logging. Secrets (token, webhook secret) are never
// included, only whether they changed.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if ot != nt {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
			logx.Bool("telegram.admin_changed", ot.AdminID != nt.AdminID),
			logx.String("telegram.webapp_url", nt.WebAppURL),
			logx.String("telegram.poll_timeout", nt.PollTimeout),
		)
	}

	ow, nw := oldCfg.Webhook, newCfg.Webhook
	if ow != nw {
		changed = append(changed, "webhook")
		attrs = append(attrs,
			logx.Bool("webhook.secret_changed", ow.Secret != nw.Secret),
			logx.String("webhook.host", nw.Host),
			logx.Int("webhook.port", nw.Port),
			logx.Int64("webhook.max_body_bytes", nw.MaxBodyBytes),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	od, nd := oldCfg.Debug, newCfg.Debug
	if od != nd {
		changed = append(changed, "debug")
		attrs = append(attrs,
			logx.Bool("debug.pprof_enabled", nd.PprofEnabled),
			logx.String("debug.pprof_addr", nd.PprofAddr),
			logx.Bool("debug.pprof_token_changed", od.PprofToken != nd.PprofToken),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

// RestartRequired reports sections that changed but are only read at startup.
// Logging and debug are applied live.
func RestartRequired(changed []string) []string {
	out := make([]string, 0, len(changed))
	for _, s := range changed {
		if s != "logging" && s != "debug" {
			out = append(out, s)
		}
	}
	return out
}
