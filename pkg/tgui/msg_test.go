package tgui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestBuilderEscapesValues(t *testing.T) {
	msg := New().
		Title("🔔", "Новая заявка!").
		Blank().
		Field("👤", "Имя", "<Ann & Bob>").
		Label("📝", "Сообщение").
		Line("a < b").
		Build()

	want := "🔔 <b>Новая заявка!</b>\n\n" +
		"👤 <b>Имя:</b> &lt;Ann &amp; Bob&gt;\n" +
		"📝 <b>Сообщение:</b>\n" +
		"a &lt; b"
	assert.Equal(t, want, msg.Text)
	require.NotNil(t, msg.Opt)
	assert.Equal(t, "HTML", msg.Opt.ParseMode)
	assert.True(t, msg.Opt.DisablePreview)
	assert.Nil(t, msg.Opt.ReplyMarkupAdapter)
}

func TestBuilderSectionBoldsEmojiAndTitle(t *testing.T) {
	msg := New().Section("💼", "О ПРОЕКТЕ").Build()
	assert.Equal(t, "<b>💼 О ПРОЕКТЕ</b>", msg.Text)
}

func TestBuilderAttachesNonEmptyKeyboardOnly(t *testing.T) {
	empty := New().Inline(NewInline()).Line("x").Build()
	assert.Nil(t, empty.Opt.ReplyMarkupAdapter)

	kb := NewInline().Row(URLBtn("site", "http://example.com"))
	msg := New().Inline(kb).Line("x").Build()
	rm, ok := msg.Opt.ReplyMarkupAdapter.(*tele.ReplyMarkup)
	require.True(t, ok)
	require.Len(t, rm.InlineKeyboard, 1)
	assert.Equal(t, "http://example.com", rm.InlineKeyboard[0][0].URL)
}

func TestWebAppBtn(t *testing.T) {
	btn := WebAppBtn("open", "https://app.example.com")
	require.NotNil(t, btn.WebApp)
	assert.Equal(t, "https://app.example.com", btn.WebApp.URL)
	assert.Empty(t, btn.URL)
}
