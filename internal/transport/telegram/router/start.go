package router

import (
	"context"
	"strings"

	"hacktaika/pkg/tgui"
)

const (
	webAppButtonText = "🚀 Открыть HackTaika"
	siteButtonText   = "🌐 Открыть сайт"
)

// StartKeyboard picks the /start button. Telegram opens web apps only over
// https, so other links get a plain URL button. Empty url means no button.
func StartKeyboard(url string) *tgui.Inline {
	kb := tgui.NewInline()
	url = strings.TrimSpace(url)
	switch {
	case url == "":
	case strings.HasPrefix(strings.ToLower(url), "https://"):
		kb.Row(tgui.WebAppBtn(webAppButtonText, url))
	default:
		kb.Row(tgui.URLBtn(siteButtonText, url))
	}
	return kb
}

// WelcomeMessage is the /start reply.
func WelcomeMessage(webAppURL string) tgui.Message {
	return tgui.New().
		Title("👋", "Привет! Добро пожаловать в HackTaika!").
		Blank().
		Line("🎯 Мы создаем инновационные цифровые решения:").
		Bullets(
			"Веб-приложения",
			"Мобильные приложения",
			"Telegram Mini Apps",
			"CRM системы",
			"E-commerce",
		).
		Blank().
		Line("💡 Нажмите на кнопку ниже, чтобы открыть наш сайт и оставить заявку!").
		Inline(StartKeyboard(webAppURL)).
		Build()
}

// StartCommand answers /start in the chat it came from. Send errors are
// returned so the middleware logs them.
func StartCommand(webAppURL string) Command {
	return Command{
		Name:        "start",
		Description: "welcome message",
		Handle: func(ctx context.Context, req *Request) error {
			_, err := WelcomeMessage(webAppURL).Send(ctx, req.Sender, req.Chat)
			return err
		},
	}
}
