package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParseYAMLWithEnvOverride(t *testing.T) {
	p := writeFile(t, "config.yaml", `
telegram:
  token: file-token
  admin_id: 42
webhook:
  secret: file-secret
  port: 8080
logging:
  level: debug
`)
	t.Setenv("BOT_WEBHOOK_SECRET", "env-secret")
	t.Setenv("WEBAPP_URL", "https://app.example.com")

	cfg, err := NewManager(p).Load()
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, "env-secret", cfg.Webhook.Secret)
	assert.Equal(t, "https://app.example.com", cfg.Telegram.WebAppURL)
	assert.Equal(t, 8080, cfg.Webhook.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// defaults fill the rest
	assert.Equal(t, DefaultWebhookHost, cfg.Webhook.Host)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.Webhook.MaxBodyBytes)
	assert.Equal(t, DefaultLogTGMinLevel, cfg.Logging.Telegram.MinLevel)
}

func TestParseEnvOnly(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_ADMIN_ID", "-100500")
	t.Setenv("BOT_WEBHOOK_SECRET", "s3cret")
	t.Setenv("WEBHOOK_PORT", "3005")
	t.Setenv("LOG_FILE_ENABLED", "true")

	m := NewManager("")
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Same(t, cfg, m.Get())

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(-100500), cfg.Telegram.AdminID)
	assert.Equal(t, 3005, cfg.Webhook.Port)
	assert.True(t, cfg.Logging.File.Enabled)
	assert.Equal(t, DefaultLogPath, cfg.Logging.File.Path)
	assert.Equal(t, "0.0.0.0:3005", cfg.Webhook.Addr())
	require.NoError(t, cfg.Validate(RoleAll))
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		env  map[string]string
		want []string
	}{
		{name: "unknown field", file: "c.json", body: `{"telegram":{"tokn":"x"}}`, want: []string{"c.json", "section telegram", "tokn"}},
		{name: "unknown yaml field", file: "c.yaml", body: "webhook:\n  prot: 3001\n", want: []string{"c.yaml", "section webhook", "prot"}},
		{name: "wrong type", file: "c.yaml", body: "logging:\n  file:\n    max_size_mb: big\n", want: []string{"section logging"}},
		{name: "unknown section", file: "c.json", body: `{"telegarm":{}}`, want: []string{`unknown section "telegarm"`}},
		{name: "trailing data", file: "c.json", body: `{"telegram":{}} {}`, want: []string{"trailing data"}},
		{name: "bad yaml", file: "c.yml", body: "telegram: [\n", want: []string{"c.yml", "line"}},
		{name: "bad env int", file: "c.json", body: `{}`, env: map[string]string{"TELEGRAM_ADMIN_ID": "abc"}, want: []string{"env"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewManager(writeFile(t, tt.file, tt.body)).Parse()
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestValidateByRole(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Telegram.Token = "123:abc"
		c.ApplyDefaults()
		return c
	}

	t.Run("bot needs only token", func(t *testing.T) {
		assert.NoError(t, base().Validate(RoleBot))
	})

	t.Run("webhook needs admin and secret", func(t *testing.T) {
		err := base().Validate(RoleWebhook)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telegram.admin_id")
		assert.Contains(t, err.Error(), "webhook.secret")

		c := base()
		c.Telegram.AdminID = 1
		c.Webhook.Secret = "x"
		assert.NoError(t, c.Validate(RoleWebhook))
	})

	t.Run("missing token", func(t *testing.T) {
		c := base()
		c.Telegram.Token = " "
		assert.ErrorContains(t, c.Validate(RoleBot), "telegram.token")
	})

	t.Run("bad values", func(t *testing.T) {
		c := base()
		c.Telegram.AdminID = 1
		c.Webhook.Secret = "x"
		c.Webhook.Port = 70000
		c.Webhook.ReadTimeout = "soon"
		c.Telegram.WebAppURL = "not a url"
		c.Logging.Level = "LOUD"
		err := c.Validate(RoleAll)
		require.Error(t, err)
		for _, want := range []string{"webhook.port", "webhook.read_timeout", "telegram.webapp_url", "logging.level"} {
			assert.Contains(t, err.Error(), want)
		}
	})

	t.Run("telegram log sink needs admin", func(t *testing.T) {
		c := base()
		c.Logging.Telegram.Enabled = true
		assert.ErrorContains(t, c.Validate(RoleBot), "logging.telegram")
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Webhook ")
	require.NoError(t, err)
	assert.Equal(t, RoleWebhook, r)
	assert.True(t, RoleAll.RunsBot())
	assert.True(t, RoleAll.RunsWebhook())
	assert.False(t, RoleBot.RunsWebhook())

	_, err = ParseRole("worker")
	assert.Error(t, err)
}

func TestServerTimeouts(t *testing.T) {
	w := WebhookConfig{ReadTimeout: "5s"}
	read, write, idle, err := w.ServerTimeouts()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, read)
	assert.Equal(t, 30*time.Second, write)
	assert.Equal(t, 60*time.Second, idle)
}

func TestSummarizeConfigChangeHidesSecrets(t *testing.T) {
	oldCfg := &Config{}
	oldCfg.Webhook.Secret = "old-secret"
	newCfg := &Config{}
	newCfg.Webhook.Secret = "new-secret"
	newCfg.Logging.Level = "DEBUG"

	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	assert.Equal(t, []string{"logging", "webhook"}, changed)
	assert.NotEmpty(t, attrs)
	assert.Equal(t, []string{"webhook"}, RestartRequired(changed))
}

func TestDebugSectionIsLive(t *testing.T) {
	oldCfg := &Config{}
	newCfg := &Config{}
	newCfg.Debug.PprofEnabled = true
	newCfg.Debug.PprofToken = "t"

	changed, _ := SummarizeConfigChange(oldCfg, newCfg)
	assert.Equal(t, []string{"debug"}, changed)
	assert.Empty(t, RestartRequired(changed))
}

func TestValidatePprofAddr(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "x"
	cfg.ApplyDefaults()
	cfg.Debug.PprofEnabled = true
	require.NoError(t, cfg.Validate(RoleBot))

	cfg.Debug.PprofAddr = "no-port"
	assert.ErrorContains(t, cfg.Validate(RoleBot), "debug.pprof_addr")
}

func TestWatchPublishesChanges(t *testing.T) {
	p := writeFile(t, "config.json", `{"logging":{"level":"INFO"}}`)
	m := NewManager(p)
	_, err := m.Load()
	require.NoError(t, err)

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// give the watcher a moment to register the directory
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(p, []byte(`{"logging":{"level":"DEBUG"}}`), 0o600))

	select {
	case cfg := <-ch:
		assert.Equal(t, "DEBUG", cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not published")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestLoadDotEnvSkipsMissingAndKeepsEnv(t *testing.T) {
	p := writeFile(t, ".env", "HACKTAIKA_TEST_A=from-file\nHACKTAIKA_TEST_B=from-file\n")
	t.Setenv("HACKTAIKA_TEST_A", "from-env")
	t.Setenv("HACKTAIKA_TEST_B", "")
	os.Unsetenv("HACKTAIKA_TEST_B")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), p))
	assert.Equal(t, "from-env", os.Getenv("HACKTAIKA_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("HACKTAIKA_TEST_B"))
}
