package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hacktaika/internal/submission"
	kit "hacktaika/internal/transport"
	logx "hacktaika/pkg/logx"
	"hacktaika/pkg/tgui"
)

// Kind names the form a notification was rendered from.
type Kind string

const (
	KindOrder       Kind = "order"
	KindApplication Kind = "application"
)

var ErrNoAdmin = errors.New("admin chat id is not configured")

type Config struct {
	AdminChatID int64
}

// Result describes one delivery attempt. It is informational: a failed
// attempt has already been logged and is never retried.
type Result struct {
	DeliveryID string
	Kind       Kind
	Delivered  bool
	Err        error
	Took       time.Duration
}

// Service renders submissions and sends them to the admin chat.
// It is safe for concurrent use.
type Service struct {
	cfg    Config
	sender kit.Sender
	log    logx.Logger
}

func New(cfg Config, sender kit.Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, sender: sender, log: log.With(logx.String("comp", "notifier"))}
}

func (s *Service) NotifyBasicSubmission(ctx context.Context, b submission.Basic) Result {
	return s.deliver(ctx, KindOrder, func() tgui.Message { return RenderBasic(b) })
}

func (s *Service) NotifyDetailedSubmission(ctx context.Context, d submission.Detailed) Result {
	return s.deliver(ctx, KindApplication, func() tgui.Message { return RenderDetailed(d) })
}

// deliver never panics and never retries. Failures are logged here and
// handed back in the Result.
func (s *Service) deliver(ctx context.Context, kind Kind, render func() tgui.Message) (res Result) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	res = Result{DeliveryID: uuid.NewString(), Kind: kind}
	log := s.log.With(logx.String("delivery_id", res.DeliveryID), logx.String("kind", string(kind)))

	defer func() {
		if r := recover(); r != nil {
			res.Delivered = false
			res.Err = fmt.Errorf("panic: %v", r)
		}
		res.Took = time.Since(start)
		if res.Err != nil {
			log.Error("notification failed", logx.Int64("admin_id", s.cfg.AdminChatID), logx.Duration("took", res.Took), logx.Err(res.Err))
			return
		}
		log.Info("notification sent", logx.Int64("admin_id", s.cfg.AdminChatID), logx.Duration("took", res.Took))
	}()

	if s.sender == nil {
		res.Err = errors.New("no sender")
		return res
	}
	if s.cfg.AdminChatID == 0 {
		res.Err = ErrNoAdmin
		return res
	}

	msg := render()
	if _, err := msg.Send(ctx, s.sender, kit.ChatTarget{ChatID: s.cfg.AdminChatID}); err != nil {
		res.Err = err
		return res
	}
	res.Delivered = true
	return res
}
