package notifier

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hacktaika/internal/submission"
	kit "hacktaika/internal/transport"
	logx "hacktaika/pkg/logx"
)

type sentMessage struct {
	to   kit.ChatTarget
	text string
	opt  kit.SendOptions
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []sentMessage
	err   error
	panic bool
}

func (f *fakeSender) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if f.panic {
		panic("sender exploded")
	}
	if f.err != nil {
		return kit.MessageRef{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to, text: text, opt: *opt})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func TestNotifyBasicSubmissionFillsPlaceholders(t *testing.T) {
	fs := &fakeSender{}
	svc := New(Config{AdminChatID: 777}, fs, logx.Nop())

	res := svc.NotifyBasicSubmission(context.Background(), submission.Basic{Name: "Ann", Email: "a@x.com"})
	require.NoError(t, res.Err)
	assert.True(t, res.Delivered)
	assert.Equal(t, KindOrder, res.Kind)
	assert.NotEmpty(t, res.DeliveryID)

	msg := fs.last(t)
	assert.Equal(t, int64(777), msg.to.ChatID)
	assert.Equal(t, "HTML", msg.opt.ParseMode)
	assert.True(t, msg.opt.DisablePreview)

	assert.Contains(t, msg.text, "🔔 <b>Новая заявка!</b>")
	assert.Contains(t, msg.text, "👤 <b>Имя:</b> Ann")
	assert.Contains(t, msg.text, "📧 <b>Email:</b> a@x.com")
	assert.Contains(t, msg.text, "📞 <b>Телефон:</b> Не указан")
	assert.Contains(t, msg.text, "💬 <b>Telegram:</b> Не указан")
	assert.Contains(t, msg.text, "📝 <b>Сообщение:</b>\nБез сообщения")
	assert.Contains(t, msg.text, "⏰ <b>Время:</b> Не указано")
}

func TestRenderBasicEveryFieldSubset(t *testing.T) {
	type field struct {
		set         func(*submission.Basic, string)
		placeholder string
	}
	fields := map[string]field{
		"name":      {func(b *submission.Basic, v string) { b.Name = submission.Text(v) }, "<b>Имя:</b> Не указано"},
		"email":     {func(b *submission.Basic, v string) { b.Email = submission.Text(v) }, "<b>Email:</b> Не указан"},
		"phone":     {func(b *submission.Basic, v string) { b.Phone = submission.Text(v) }, "<b>Телефон:</b> Не указан"},
		"telegram":  {func(b *submission.Basic, v string) { b.Telegram = submission.Text(v) }, "<b>Telegram:</b> Не указан"},
		"message":   {func(b *submission.Basic, v string) { b.Message = submission.Text(v) }, "Без сообщения"},
		"createdAt": {func(b *submission.Basic, v string) { b.CreatedAt = submission.Text(v) }, "<b>Время:</b> Не указано"},
	}
	names := []string{"name", "email", "phone", "telegram", "message", "createdAt"}

	for mask := 0; mask < 1<<len(names); mask++ {
		var b submission.Basic
		for i, n := range names {
			if mask&(1<<i) != 0 {
				fields[n].set(&b, "value-"+n)
			}
		}
		text := RenderBasic(b).Text
		for i, n := range names {
			if mask&(1<<i) != 0 {
				assert.Contains(t, text, "value-"+n, "mask %b", mask)
				assert.NotContains(t, text, fields[n].placeholder, "mask %b", mask)
			} else {
				assert.Contains(t, text, fields[n].placeholder, "mask %b", mask)
			}
		}
	}
}

func TestRenderEscapesValues(t *testing.T) {
	text := RenderBasic(submission.Basic{Name: "<script>alert(1)</script>", Message: "a & b"}).Text
	assert.Contains(t, text, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, text, "a &amp; b")
	assert.NotContains(t, text, "<script>")
}

func TestRenderDetailedAdditionalInfoOnlyWhenPresent(t *testing.T) {
	tests := []struct {
		name string
		info submission.Text
		want bool
	}{
		{name: "absent", info: "", want: false},
		{name: "whitespace", info: "  \n ", want: false},
		{name: "present", info: "Нужен NDA", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := RenderDetailed(submission.Detailed{FullName: "Bob", AdditionalInfo: tt.info}).Text
			assert.Equal(t, tt.want, strings.Contains(text, "ДОПОЛНИТЕЛЬНО"))
			if tt.want {
				assert.Contains(t, text, "<b>ℹ️ ДОПОЛНИТЕЛЬНО</b>\nНужен NDA")
			}
		})
	}
}

func TestRenderDetailedPlaceholders(t *testing.T) {
	text := RenderDetailed(submission.Detailed{}).Text
	for _, want := range []string{
		"🎯 <b>Новая подробная заявка!</b>",
		"<b>📋 КОНТАКТНЫЕ ДАННЫЕ</b>",
		"👤 <b>Имя:</b> Не указано",
		"📧 <b>Email:</b> Не указан",
		"💬 <b>Telegram:</b> Не указан",
		"🏷 <b>Тип:</b> Не указан",
		"🎯 <b>Проблема:</b> Не указана",
		"👥 <b>Аудитория:</b> Не указана",
		"💵 <b>Бюджет:</b> Не указан",
		"⏱ <b>Дедлайн:</b> Не указан",
		"<b>📝 ОПИСАНИЕ</b>\nНе указано",
		"⏰ <b>Время:</b> Не указано",
	} {
		assert.Contains(t, text, want)
	}
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	fs := &fakeSender{err: errors.New("telegram: bad gateway")}
	svc := New(Config{AdminChatID: 1}, fs, logx.NewWriter(&buf, "DEBUG"))

	var res Result
	require.NotPanics(t, func() {
		res = svc.NotifyDetailedSubmission(context.Background(), submission.Detailed{FullName: "Bob"})
	})
	assert.False(t, res.Delivered)
	assert.EqualError(t, res.Err, "telegram: bad gateway")
	assert.Equal(t, KindApplication, res.Kind)
	assert.Contains(t, buf.String(), "notification failed")
	assert.Contains(t, buf.String(), res.DeliveryID)
}

func TestSenderPanicIsRecovered(t *testing.T) {
	svc := New(Config{AdminChatID: 1}, &fakeSender{panic: true}, logx.Nop())

	var res Result
	require.NotPanics(t, func() {
		res = svc.NotifyBasicSubmission(context.Background(), submission.Basic{})
	})
	assert.False(t, res.Delivered)
	assert.ErrorContains(t, res.Err, "sender exploded")
}

func TestMissingAdminIsReported(t *testing.T) {
	fs := &fakeSender{}
	res := New(Config{}, fs, logx.Nop()).NotifyBasicSubmission(context.Background(), submission.Basic{})
	assert.ErrorIs(t, res.Err, ErrNoAdmin)
	assert.Empty(t, fs.sent)
}
