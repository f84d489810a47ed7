package webhook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"hacktaika/internal/submission"
	logx "hacktaika/pkg/logx"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": ServiceName})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	b, err := submission.DecodeBasic(r.Body)
	if err != nil {
		s.respond(w, r, Outcome{Kind: OutcomeMalformedPayload, Err: err})
		return
	}
	// a client disconnect must not abort an attempt that already started
	res := s.notifier.NotifyBasicSubmission(context.WithoutCancel(r.Context()), b)
	s.respond(w, r, outcomeFromResult(res))
}

func (s *Server) handleApplication(w http.ResponseWriter, r *http.Request) {
	d, err := submission.DecodeDetailed(r.Body)
	if err != nil {
		s.respond(w, r, Outcome{Kind: OutcomeMalformedPayload, Err: err})
		return
	}
	res := s.notifier.NotifyDetailedSubmission(context.WithoutCancel(r.Context()), d)
	s.respond(w, r, outcomeFromResult(res))
}

// respond logs the outcome and writes its response.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, o Outcome) {
	log := s.log.With(
		logx.String("req_id", middleware.GetReqID(r.Context())),
		logx.String("path", r.URL.Path),
		logx.String("remote", r.RemoteAddr),
		logx.String("outcome", o.Kind.String()),
	)
	if o.DeliveryID != "" {
		log = log.With(logx.String("delivery_id", o.DeliveryID))
	}

	switch o.Kind {
	case OutcomeSuccess:
		log.Info("webhook handled")
	case OutcomeAuthError:
		log.Warn("webhook rejected: bad secret")
	case OutcomeDeliveryFailure:
		log.Warn("webhook accepted, notification not delivered", logx.Err(o.Err))
	default:
		log.Error("webhook failed", logx.Err(o.Err))
	}

	status, body := o.Response()
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
