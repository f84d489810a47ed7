package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"hacktaika/internal/config"
	"hacktaika/internal/notifier"
	"hacktaika/internal/observability/pprof"
	rtsup "hacktaika/internal/runtime/supervisor"
	kit "hacktaika/internal/transport"
	telegram "hacktaika/internal/transport/telegram/adapter"
	"hacktaika/internal/transport/telegram/router"
	"hacktaika/internal/webhook"
	logx "hacktaika/pkg/logx"
)

// App wires the bot and/or the webhook listener for one process role.
type App struct {
	role config.Role
	cfg  *config.Config

	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	adapter kit.Adapter
	notif   *notifier.Service
	hook    *webhook.Server
	cmdm    *router.CommandManager
	pprof   *pprof.Service

	updates  chan kit.Update
	stopOnce sync.Once
}

// New loads and validates the config for role and connects to Telegram.
func New(cfgPath string, role config.Role) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(role); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	pollTimeout, err := cfg.Telegram.PollTimeoutDuration()
	if err != nil {
		return nil, err
	}
	bootLog := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "telegram"))
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, bootLog)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newApp(cfgm, role, ad)
}

func newApp(cfgm *config.Manager, role config.Role, ad kit.Adapter) (*App, error) {
	cfg := cfgm.Get()
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	// Bootstrap with the Telegram sink off, set the target, then apply the
	// real config so Apply() never sees an enabled sink without a chat.
	logCfg := logxConfig(cfg.Logging)
	bootCfg := logCfg
	bootCfg.Telegram.Enabled = false
	logSvc, log := logx.New(bootCfg, ad)
	logSvc.SetTelegramTarget(kit.ChatTarget{ChatID: cfg.Telegram.AdminID})
	logSvc.Apply(logCfg)

	a := &App{
		role:    role,
		cfg:     cfg,
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		adapter: ad,
		updates: make(chan kit.Update, 256),
		pprof:   pprof.New(pprofConfig(cfg.Debug), log),
	}

	if role.RunsBot() {
		a.cmdm = router.NewCommandManager(log, ad, ad.Username)
		a.cmdm.Register(router.StartCommand(cfg.Telegram.WebAppURL))
	}

	if role.RunsWebhook() {
		a.notif = notifier.New(notifier.Config{AdminChatID: cfg.Telegram.AdminID}, ad, log)

		read, write, idle, err := cfg.Webhook.ServerTimeouts()
		if err != nil {
			return nil, err
		}
		hook, err := webhook.New(webhook.Config{
			Addr:         cfg.Webhook.Addr(),
			Secret:       cfg.Webhook.Secret,
			MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
			ReadTimeout:  read,
			WriteTimeout: write,
			IdleTimeout:  idle,
		}, a.notif, log)
		if err != nil {
			return nil, err
		}
		a.hook = hook
	}
	return a, nil
}

func logxConfig(l config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File: logx.FileConfig{
			Enabled:    l.File.Enabled,
			Path:       l.File.Path,
			MaxSizeMB:  l.File.MaxSizeMB,
			MaxBackups: l.File.MaxBackups,
			MaxAgeDays: l.File.MaxAgeDays,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			MinLevel:   l.Telegram.MinLevel,
			RatePerSec: l.Telegram.RatePerSec,
		},
	}
}

func pprofConfig(d config.DebugConfig) pprof.Config {
	return pprof.Config{Enabled: d.PprofEnabled, Addr: d.PprofAddr, Token: d.PprofToken}
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// WebhookAddr is the bound listener address, empty for the bot role.
func (a *App) WebhookAddr() string {
	if a.hook == nil {
		return ""
	}
	return a.hook.Addr()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return cfg.Validate(a.role)
	})

	if a.role.RunsBot() {
		if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
			return err
		}
		a.sup.Go("commands.dispatch", func(c context.Context) error {
			return a.cmdm.DispatchLoop(c, a.updates)
		})
	}

	if a.hook != nil {
		if err := a.hook.Start(a.sup.Context()); err != nil {
			return err
		}
		done := a.hook.Done()
		a.sup.Go("webhook.watch", func(c context.Context) error {
			select {
			case <-c.Done():
				return nil
			case <-done:
				if err := a.hook.Err(); err != nil {
					return fmt.Errorf("webhook: %w", err)
				}
				return nil
			}
		})
	}

	// A broken profiler must not block the service from starting.
	if err := a.pprof.Start(a.sup.Context()); err != nil {
		a.log.Warn("pprof not started", logx.Err(err))
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(c, newCfg)
			}
		}
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready sent")
	}

	a.log.Info("app started",
		logx.String("role", string(a.role)),
		logx.String("bot", a.adapter.Username()),
		logx.String("webhook_addr", a.WebhookAddr()),
	)
	return nil
}

// applyConfig applies what can change live (logging, debug) and flags the
// rest. The admin chat stays the one the process started with.
func (a *App) applyConfig(ctx context.Context, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(a.cfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	a.logs.Apply(logxConfig(newCfg.Logging))
	if err := a.pprof.Reconfigure(ctx, pprofConfig(newCfg.Debug)); err != nil {
		a.log.Warn("pprof reconfigure failed", logx.Err(err))
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
	if pending := config.RestartRequired(sections); len(pending) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect", logx.String("sections", strings.Join(pending, ",")))
	}

	next := *a.cfg
	next.Logging = newCfg.Logging
	next.Debug = newCfg.Debug
	a.cfg = &next
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	var err error
	a.stopOnce.Do(func() { err = a.stop(ctx, reason) })
	return err
}

func (a *App) stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return a.logs.Close()
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// Cancel first so background loops start unwinding immediately.
	a.sup.Cancel()

	// Run a shutdown step with an upper bound so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		if dl, ok := ctx.Deadline(); ok {
			// never extend the caller's deadline
			max = min(max, time.Until(dl))
		}
		if max <= 0 {
			a.log.Warn("stop step skipped (no time left)", logx.String("name", name))
			return
		}
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
	}

	// Drain webhook requests before the adapter goes away: in-flight
	// notifications still need to send.
	if a.hook != nil {
		step("webhook", 5*time.Second, a.hook.Stop)
	}
	if a.role.RunsBot() {
		step("adapter", 2*time.Second, a.adapter.Stop)
	}
	step("pprof", time.Second, a.pprof.Stop)
	step("supervisor", 2*time.Second, a.sup.Wait)

	a.log.Info("stopped")
	return a.logs.Close()
}

// Run starts the app for role and blocks until ctx is canceled or a
// component fails.
func Run(ctx context.Context, cfgPath string, role config.Role) error {
	a, err := New(cfgPath, role)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Stop(context.Background(), StopFatalError)
		return err
	}

	<-a.Done()

	reason := StopSignal
	if a.Err() != nil {
		reason = StopFatalError
	} else if ctx.Err() == nil {
		reason = StopAppStop
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Stop(stopCtx, reason); err != nil {
		fmt.Fprintln(os.Stderr, "stop:", err)
	}
	return a.Err()
}
