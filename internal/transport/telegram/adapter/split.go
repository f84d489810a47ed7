package adapter

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const telegramTextLimit = 4000

// splitTelegramText splits long messages into chunks Telegram accepts,
// preferring newline boundaries. In HTML mode tags and entities are never
// cut, and tags still open at a cut are closed at the end of the chunk and
// reopened at the start of the next one, so every chunk parses on its own.
func splitTelegramText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var toks []htmlToken
	if strings.EqualFold(parseMode, "HTML") {
		toks = tokenizeHTML(s)
	} else {
		toks = tokenizePlain(s)
	}
	return packTokens(toks, limit)
}

// htmlToken is an unbreakable piece of text: one rune, one entity or one tag.
type htmlToken struct {
	text  string
	runes int
	open  string // tag name for an opening tag
	close string // tag name for a closing tag
}

func tokenizePlain(s string) []htmlToken {
	toks := make([]htmlToken, 0, len(s))
	for _, r := range s {
		toks = append(toks, htmlToken{text: string(r), runes: 1})
	}
	return toks
}

func tokenizeHTML(s string) []htmlToken {
	toks := make([]htmlToken, 0, len(s))
	for i := 0; i < len(s); {
		switch s[i] {
		case '<':
			if j := strings.IndexByte(s[i:], '>'); j > 0 {
				tag := s[i : i+j+1]
				t := htmlToken{text: tag, runes: utf8.RuneCountInString(tag)}
				if name, closing := tagName(tag); name != "" {
					if closing {
						t.close = name
					} else {
						t.open = name
					}
				}
				toks = append(toks, t)
				i += j + 1
				continue
			}
		case '&':
			if j := entityEnd(s[i:]); j > 0 {
				toks = append(toks, htmlToken{text: s[i : i+j], runes: j})
				i += j
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		toks = append(toks, htmlToken{text: string(r), runes: 1})
		i += size
	}
	return toks
}

// tagName returns the lower-cased element name of "<b>", "</b>" or
// `<a href="...">`.
func tagName(tag string) (name string, closing bool) {
	body := strings.TrimSuffix(strings.TrimPrefix(tag, "<"), ">")
	if strings.HasPrefix(body, "/") {
		closing = true
		body = body[1:]
	}
	if strings.HasSuffix(body, "/") {
		// self-closing, nothing to balance
		return "", false
	}
	if k := strings.IndexAny(body, " \t\n"); k >= 0 {
		body = body[:k]
	}
	return strings.ToLower(body), closing
}

// entityEnd returns the length of "&name;" or "&#123;" at the start of s, or 0.
func entityEnd(s string) int {
	const maxEntity = 12
	for j := 1; j < len(s) && j <= maxEntity; j++ {
		c := s[j]
		switch {
		case c == ';':
			if j == 1 {
				return 0
			}
			return j + 1
		case c == '#' && j == 1,
			c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return 0
		}
	}
	return 0
}

func pushTag(stack []htmlToken, t htmlToken) []htmlToken {
	switch {
	case t.open != "":
		return append(slices.Clone(stack), t)
	case t.close != "":
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].open == t.close {
				return slices.Delete(slices.Clone(stack), i, i+1)
			}
		}
	}
	return stack
}

func reopen(stack []htmlToken) string {
	var b strings.Builder
	for _, t := range stack {
		b.WriteString(t.text)
	}
	return b.String()
}

func closeAll(stack []htmlToken) string {
	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteString("</" + stack[i].open + ">")
	}
	return b.String()
}

func packTokens(toks []htmlToken, limit int) []string {
	var (
		out   []string
		stack []htmlToken
	)
	for i := 0; i < len(toks); {
		for i < len(toks) && toks[i].text == "\n" {
			i++
		}
		if i == len(toks) {
			break
		}

		prefix := reopen(stack)
		prefixRunes := utf8.RuneCountInString(prefix)
		var b strings.Builder
		b.WriteString(prefix)
		n, added := prefixRunes, 0

		// last newline in this chunk with the tag state at that point
		nlTok, nlBytes, nlRunes := -1, 0, 0
		var nlStack []htmlToken

		for i < len(toks) {
			t := toks[i]
			next := pushTag(stack, t)
			if added > 0 && n+t.runes+utf8.RuneCountInString(closeAll(next)) > limit {
				break
			}
			b.WriteString(t.text)
			n += t.runes
			stack = next
			added++
			i++
			if t.text == "\n" {
				nlTok, nlBytes, nlRunes, nlStack = i, b.Len(), n, stack
			}
		}

		text := b.String()
		if i < len(toks) && nlTok >= 0 && nlRunes-prefixRunes >= limit/3 {
			text, stack, i = text[:nlBytes], nlStack, nlTok
		}
		out = append(out, strings.TrimRight(text, "\n")+closeAll(stack))
	}
	return out
}
