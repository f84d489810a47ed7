package webhook

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	logx "hacktaika/pkg/logx"
)

// requireSecret rejects calls whose secret header does not match before the
// body is touched.
func (s *Server) requireSecret(next http.Handler) http.Handler {
	want := []byte(s.cfg.Secret)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get(SecretHeader))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			s.respond(w, r, Outcome{Kind: OutcomeAuthError, Err: errors.New("secret mismatch")})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// recoverer turns a handler panic into a JSON 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.log.Error("panic in webhook handler",
				logx.String("path", r.URL.Path),
				logx.Panic(rec),
			)
			s.respond(w, r, Outcome{Kind: OutcomeInternalError, Err: fmt.Errorf("internal error: %v", rec)})
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []logx.Field{
			logx.String("req_id", middleware.GetReqID(r.Context())),
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.Int("status", ww.Status()),
			logx.Int("bytes", ww.BytesWritten()),
			logx.Duration("dur", time.Since(start)),
		}
		if r.URL.Path == "/health" {
			s.log.Trace("http request", fields...)
			return
		}
		s.log.Debug("http request", fields...)
	})
}
