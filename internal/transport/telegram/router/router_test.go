package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	kit "hacktaika/internal/transport"
	logx "hacktaika/pkg/logx"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []kit.SendOptions
	to   []kit.ChatTarget
	text []string
}

func (r *recordingSender) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, *opt)
	r.to = append(r.to, to)
	r.text = append(r.text, text)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(r.sent)}, nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text, bot   string
		name, param string
		ok          bool
	}{
		{text: "/start", name: "start", ok: true},
		{text: "  /Start  ", name: "start", ok: true},
		{text: "/start ref42", name: "start", param: "ref42", ok: true},
		{text: "/start\nref42", name: "start", param: "ref42", ok: true},
		{text: "/start@hacktaika_bot", bot: "HackTaika_Bot", name: "start", ok: true},
		{text: "/start@other_bot", bot: "hacktaika_bot", ok: false},
		{text: "/start@any_bot", bot: "", name: "start", ok: true},
		{text: "hello", ok: false},
		{text: "/", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, param, ok := parseCommand(tt.text, tt.bot)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.param, param)
		})
	}
}

func inlineButtons(t *testing.T, opt kit.SendOptions) [][]tele.InlineButton {
	t.Helper()
	if opt.ReplyMarkupAdapter == nil {
		return nil
	}
	rm, ok := opt.ReplyMarkupAdapter.(*tele.ReplyMarkup)
	require.True(t, ok)
	return rm.InlineKeyboard
}

func TestWelcomeMessageButtons(t *testing.T) {
	t.Run("https opens web app", func(t *testing.T) {
		msg := WelcomeMessage("https://app.example.com")
		kb := inlineButtons(t, *msg.Opt)
		require.Len(t, kb, 1)
		require.Len(t, kb[0], 1)
		assert.Equal(t, "🚀 Открыть HackTaika", kb[0][0].Text)
		require.NotNil(t, kb[0][0].WebApp)
		assert.Equal(t, "https://app.example.com", kb[0][0].WebApp.URL)
		assert.Empty(t, kb[0][0].URL)
	})

	t.Run("http gets plain link", func(t *testing.T) {
		msg := WelcomeMessage("http://app.example.com")
		kb := inlineButtons(t, *msg.Opt)
		require.Len(t, kb, 1)
		require.Len(t, kb[0], 1)
		assert.Equal(t, "🌐 Открыть сайт", kb[0][0].Text)
		assert.Equal(t, "http://app.example.com", kb[0][0].URL)
		assert.Nil(t, kb[0][0].WebApp)
	})

	t.Run("unset has no buttons", func(t *testing.T) {
		msg := WelcomeMessage("")
		assert.Nil(t, msg.Opt.ReplyMarkupAdapter)
	})
}

func TestWelcomeMessageText(t *testing.T) {
	msg := WelcomeMessage("")
	assert.Equal(t, "HTML", msg.Opt.ParseMode)
	assert.Contains(t, msg.Text, "👋 <b>Привет! Добро пожаловать в HackTaika!</b>")
	assert.Contains(t, msg.Text, "• Telegram Mini Apps")
	assert.Contains(t, msg.Text, "💡 Нажмите на кнопку ниже")
}

func runDispatcher(t *testing.T, m *CommandManager) (chan kit.Update, func()) {
	t.Helper()
	updates := make(chan kit.Update, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.DispatchLoop(ctx, updates) }()
	return updates, func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestDispatchStartReplies(t *testing.T) {
	rs := &recordingSender{}
	m := NewCommandManager(logx.Nop(), rs, func() string { return "hacktaika_bot" })
	m.Register(StartCommand("https://app.example.com"))

	updates, stop := runDispatcher(t, m)
	defer stop()

	updates <- kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{ChatID: 55, ThreadID: 3, Text: "just chatting"}}
	updates <- kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{ChatID: 55, Text: "/start@other_bot"}}
	updates <- kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{ChatID: 55, ThreadID: 3, Text: "/start"}}

	require.Eventually(t, func() bool { return rs.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	// give ignored updates a chance to misbehave
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rs.count())

	rs.mu.Lock()
	defer rs.mu.Unlock()
	assert.Equal(t, kit.ChatTarget{ChatID: 55, ThreadID: 3}, rs.to[0])
	assert.Contains(t, rs.text[0], "HackTaika")
}

func TestDispatchSurvivesFailingHandlers(t *testing.T) {
	rs := &recordingSender{}
	m := NewCommandManager(logx.Nop(), rs, nil)
	m.Register(
		Command{Name: "boom", Handle: func(context.Context, *Request) error { panic("handler bug") }},
		Command{Name: "fail", Handle: func(context.Context, *Request) error { return errors.New("send failed") }},
		StartCommand(""),
	)

	updates, stop := runDispatcher(t, m)
	defer stop()

	updates <- kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{ChatID: 1, Text: "/boom"}}
	updates <- kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{ChatID: 1, Text: "/fail"}}
	updates <- kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{ChatID: 1, Text: "/start"}}

	require.Eventually(t, func() bool { return rs.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *Request) error {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	h := Chain(func(context.Context, *Request) error {
		order = append(order, "handler")
		return nil
	}, mw("a"), mw("b"))

	require.NoError(t, h(context.Background(), &Request{}))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestPanicRecoverReturnsError(t *testing.T) {
	h := Chain(func(context.Context, *Request) error { panic("x") }, MWPanicRecover(logx.Nop()))
	err := h(context.Background(), &Request{})
	require.ErrorIs(t, err, ErrHandlerPanic)
	assert.Contains(t, err.Error(), "x")
}

func TestTimeoutDefaultsWhenUnset(t *testing.T) {
	var deadline time.Time
	h := Chain(func(ctx context.Context, _ *Request) error {
		deadline, _ = ctx.Deadline()
		return nil
	}, MWTimeout(0))

	start := time.Now()
	require.NoError(t, h(context.Background(), &Request{}))
	require.False(t, deadline.IsZero())
	assert.WithinDuration(t, start.Add(DefaultCommandTimeout), deadline, time.Second)
}

func TestReplyOutcome(t *testing.T) {
	assert.Equal(t, "replied", ReplyOutcome(nil))
	assert.Equal(t, "panic", ReplyOutcome(fmt.Errorf("%w: boom", ErrHandlerPanic)))
	assert.Equal(t, "timeout", ReplyOutcome(fmt.Errorf("send: %w", context.DeadlineExceeded)))
	assert.Equal(t, "send_failed", ReplyOutcome(errors.New("Forbidden: bot was blocked by the user")))
}

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestRequestLogRecordsStartParamAndOutcome(t *testing.T) {
	tests := []struct {
		name    string
		handler HandlerFunc
		level   string
		outcome string
	}{
		{name: "replied", handler: func(context.Context, *Request) error { return nil }, level: "info", outcome: "replied"},
		{name: "send failed", handler: func(context.Context, *Request) error { return errors.New("chat not found") }, level: "warn", outcome: "send_failed"},
		{name: "panic", handler: func(context.Context, *Request) error { panic("bug") }, level: "warn", outcome: "panic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logx.NewWriter(&buf, "debug")
			h := Chain(tt.handler, MWRequestLog(log), MWPanicRecover(logx.Nop()))

			req := &Request{
				Update:  kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{ChatID: 7, FromUsername: "ann", Text: "/start ref_vk"}},
				Command: "start",
				Payload: "ref_vk",
			}
			_ = h(context.Background(), req)

			lines := decodeLogLines(t, &buf)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.level, lines[0]["level"])
			assert.Equal(t, tt.outcome, lines[0]["outcome"])
			assert.Equal(t, "ref_vk", lines[0]["start_param"])
			assert.Equal(t, "ann", lines[0]["from"])
		})
	}
}

func TestClipKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "при…", clip("привет", 3))
	assert.Equal(t, "ok", clip("ok", 3))
}
