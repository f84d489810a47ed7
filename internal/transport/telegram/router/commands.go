package router

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	rtsup "hacktaika/internal/runtime/supervisor"
	kit "hacktaika/internal/transport"
	logx "hacktaika/pkg/logx"
)

type Command struct {
	// Name is the bare command word, e.g. "start".
	Name        string
	Description string
	Timeout     time.Duration // optional per-command limit
	Handle      HandlerFunc
}

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	// Payload is everything after the command word, e.g. the deep-link
	// parameter of "/start ref42".
	Payload string
	ReqID   string

	Sender kit.Sender
	Logger logx.Logger
}

// CommandManager routes "/command" messages to handlers on a small worker pool.
type CommandManager struct {
	mu   sync.RWMutex
	cmds map[string]Command

	log    logx.Logger
	sender kit.Sender
	// botName returns the bot username for "/cmd@bot" filtering; it may be empty
	// before the adapter is connected.
	botName func() string

	workers int
	jobs    chan func()
}

func NewCommandManager(log logx.Logger, sender kit.Sender, botName func() string) *CommandManager {
	if log.IsZero() {
		log = logx.Nop()
	}
	if botName == nil {
		botName = func() string { return "" }
	}
	return &CommandManager{
		cmds:    map[string]Command{},
		log:     log.With(logx.String("comp", "telegram.router")),
		sender:  sender,
		botName: botName,
		workers: 2,
		jobs:    make(chan func(), 64),
	}
}

// Register adds or replaces commands. Safe to call while dispatching.
func (m *CommandManager) Register(cmds ...Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cmds {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		m.cmds[name] = c
	}
}

func (m *CommandManager) lookup(name string) (Command, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cmds[name]
	return c, ok
}

// DispatchLoop consumes updates until ctx is done or the channel closes.
// Handlers run on the worker pool so a slow send does not stall routing.
func (m *CommandManager) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	sup := rtsup.NewSupervisor(ctx,
		rtsup.WithLogger(m.log),
		rtsup.WithCancelOnError(false),
	)

	for i := 0; i < m.workers; i++ {
		idx := i
		sup.GoRestart("command.worker."+strconv.Itoa(idx), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job, ok := <-m.jobs:
					if !ok {
						return nil
					}
					// middleware already recovers; this keeps the worker alive regardless
					func() {
						defer func() {
							if r := recover(); r != nil {
								m.log.Error("panic in command job", logx.Int("worker", idx), logx.Panic(r))
							}
						}()
						job()
					}()
				}
			}
		}, rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second))
	}
	m.log.Info("command dispatcher started", logx.Int("workers", m.workers), logx.Int("job_queue_cap", cap(m.jobs)))

	defer func() {
		sup.Cancel()
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		m.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Kind == kit.UpdateMessage {
				m.routeMessage(ctx, up)
			}
		}
	}
}

func (m *CommandManager) routeMessage(root context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil {
		return
	}
	name, payload, ok := parseCommand(msg.Text, m.botName())
	if !ok {
		return
	}
	cmd, ok := m.lookup(name)
	if !ok {
		m.log.Debug("unknown command ignored", logx.String("cmd", name), logx.Int64("chat_id", msg.ChatID))
		return
	}

	rid := newReqID()
	chat := kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}
	req := &Request{
		Update:  up,
		Chat:    chat,
		FromID:  msg.FromID,
		Command: cmd.Name,
		Payload: payload,
		ReqID:   rid,
		Sender:  m.sender,
		Logger: m.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
			logx.String("cmd", cmd.Name),
		),
	}

	// Request log is outermost so it sees recovered panics and timeouts.
	final := Chain(
		cmd.Handle,
		MWRequestLog(m.log),
		MWPanicRecover(m.log),
		MWTimeout(cmd.Timeout),
	)

	select {
	case m.jobs <- func() { _ = final(root, req) }:
	default:
		req.Logger.Warn("command dropped (workers busy)", logx.Int("queue_cap", cap(m.jobs)))
	}
}

// parseCommand splits "/name@bot payload". Commands addressed to another bot
// are rejected. The name is lower-cased.
func parseCommand(text, botName string) (name, payload string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	word, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		word, rest = text[:i], text[i:]
	}
	word = strings.TrimPrefix(word, "/")
	if base, target, found := strings.Cut(word, "@"); found {
		if botName != "" && !strings.EqualFold(target, botName) {
			return "", "", false
		}
		word = base
	}
	if word == "" {
		return "", "", false
	}
	return strings.ToLower(word), strings.TrimSpace(rest), true
}

func newReqID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
