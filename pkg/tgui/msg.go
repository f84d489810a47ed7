package tgui

import (
	"context"
	"strings"

	kit "hacktaika/internal/transport"
)

// Message is a rendered UI payload: text + send options.
type Message struct {
	Text string
	Opt  *kit.SendOptions
}

// Send sends the Message via the provided sender.
func (m Message) Send(ctx context.Context, s kit.Sender, to kit.ChatTarget) (kit.MessageRef, error) {
	if m.Opt == nil {
		m.Opt = &kit.SendOptions{}
	}
	return s.SendText(ctx, to, m.Text, m.Opt)
}

// Builder assembles an HTML message line by line. Link previews are off:
// submitted URLs must not expand in the admin chat.
type Builder struct {
	kb    *Inline
	lines []string
}

func New() *Builder { return &Builder{} }

// Inline attaches an inline keyboard. A nil or empty keyboard attaches nothing.
func (b *Builder) Inline(kb *Inline) *Builder {
	b.kb = kb
	return b
}

// Title adds a bold title line prefixed by an emoji.
func (b *Builder) Title(emoji, title string) *Builder {
	b.lines = append(b.lines, emojiPrefix(emoji)+B(strings.TrimSpace(title)).String())
	return b
}

// Section adds a bold section header.
func (b *Builder) Section(emoji, title string) *Builder {
	b.lines = append(b.lines, B(emojiPrefix(emoji)+strings.TrimSpace(title)).String())
	return b
}

// Field adds "emoji <b>label:</b> value". The value is escaped.
func (b *Builder) Field(emoji, label, value string) *Builder {
	b.lines = append(b.lines, emojiPrefix(emoji)+B(label+":").String()+" "+Esc(value).String())
	return b
}

// Label adds "emoji <b>label:</b>" with nothing after it, for values that
// follow on the next lines.
func (b *Builder) Label(emoji, label string) *Builder {
	b.lines = append(b.lines, emojiPrefix(emoji)+B(label+":").String())
	return b
}

// Line adds a single escaped line.
func (b *Builder) Line(s string) *Builder {
	b.lines = append(b.lines, Esc(s).String())
	return b
}

// Blank inserts an empty line.
func (b *Builder) Blank() *Builder {
	b.lines = append(b.lines, "")
	return b
}

// Bullets adds "• item" lines.
func (b *Builder) Bullets(items ...string) *Builder {
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			b.Line("• " + it)
		}
	}
	return b
}

// Build produces a ready-to-send Message.
func (b *Builder) Build() Message {
	text := strings.Trim(strings.Join(b.lines, "\n"), "\n")
	opt := &kit.SendOptions{ParseMode: "HTML", DisablePreview: true}
	if b.kb != nil && len(b.kb.Rows()) > 0 {
		opt.ReplyMarkupAdapter = b.kb.Markup()
	}
	return Message{Text: text, Opt: opt}
}

func emojiPrefix(emoji string) string {
	if e := strings.TrimSpace(emoji); e != "" {
		return e + " "
	}
	return ""
}
