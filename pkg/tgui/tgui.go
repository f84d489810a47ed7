package tgui

import (
	tele "gopkg.in/telebot.v4"
)

// Inline is a small builder for inline keyboards (ReplyMarkup).
type Inline struct {
	rm   *tele.ReplyMarkup
	rows []tele.Row
}

func NewInline() *Inline {
	return &Inline{rm: &tele.ReplyMarkup{}}
}

// Row appends a row of buttons.
func (i *Inline) Row(btn ...tele.Btn) *Inline {
	i.rows = append(i.rows, i.rm.Row(btn...))
	i.rm.Inline(i.rows...)
	return i
}

// Rows returns the button rows added so far.
func (i *Inline) Rows() []tele.Row { return i.rows }

// Markup returns the underlying reply markup.
func (i *Inline) Markup() *tele.ReplyMarkup { return i.rm }

// URLBtn creates a button that opens url in the user's browser.
func URLBtn(text, url string) tele.Btn {
	return tele.Btn{Text: text, URL: url}
}

// WebAppBtn creates a button that opens url as a Telegram Mini App.
// Telegram only accepts https URLs here.
func WebAppBtn(text, url string) tele.Btn {
	return tele.Btn{Text: text, WebApp: &tele.WebApp{URL: url}}
}
