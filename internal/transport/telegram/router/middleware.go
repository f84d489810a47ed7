package router

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	logx "hacktaika/pkg/logx"
)

// DefaultCommandTimeout bounds a command whose Timeout is zero. A reply is a
// single sendMessage call.
const DefaultCommandTimeout = 15 * time.Second

// ErrHandlerPanic is returned by MWPanicRecover when a handler panics.
var ErrHandlerPanic = errors.New("command handler panicked")

type HandlerFunc func(ctx context.Context, req *Request) error

type Middleware func(next HandlerFunc) HandlerFunc

// Chain wraps h so that m[0] runs first.
func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func MWTimeout(d time.Duration) Middleware {
	if d <= 0 {
		d = DefaultCommandTimeout
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, req)
		}
	}
}

func MWPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				reqLog(log, req).Error("panic in command handler", logx.Panic(r))
				err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			}()
			return next(ctx, req)
		}
	}
}

// ReplyOutcome names how a command ended, for logs.
func ReplyOutcome(err error) string {
	switch {
	case err == nil:
		return "replied"
	case errors.Is(err, ErrHandlerPanic):
		return "panic"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "send_failed"
	}
}

// maxLoggedPayload matches Telegram's deep-link parameter limit.
const maxLoggedPayload = 64

// MWRequestLog records one line per handled command: who asked, the deep-link
// payload of /start (campaign or referral tag) and whether the reply went out.
func MWRequestLog(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			err := next(ctx, req)

			fields := []logx.Field{
				logx.String("outcome", ReplyOutcome(err)),
				logx.Duration("dur", time.Since(start)),
			}
			if req != nil {
				if m := req.Update.Message; m != nil {
					fields = append(fields, logx.Bool("group", m.IsGroup))
					if m.FromUsername != "" {
						fields = append(fields, logx.String("from", m.FromUsername))
					}
				}
				if req.Payload != "" {
					fields = append(fields, logx.String("start_param", clip(req.Payload, maxLoggedPayload)))
				}
			}

			l := reqLog(log, req)
			if err != nil {
				l.Warn("command failed", append(fields, logx.Err(err))...)
				return err
			}
			l.Info("command handled", fields...)
			return nil
		}
	}
}

func reqLog(log logx.Logger, req *Request) logx.Logger {
	if req != nil && !req.Logger.IsZero() {
		return req.Logger
	}
	return log
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
