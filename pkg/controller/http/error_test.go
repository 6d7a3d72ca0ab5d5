package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
)

// brokenWriter accepts headers but fails every body write
type brokenWriter struct {
	header http.Header
	status int
}

func (w *brokenWriter) Header() http.Header {
	return w.header
}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func (w *brokenWriter) WriteHeader(status int) {
	w.status = status
}

func TestWriteError(t *testing.T) {
	t.Run("writes JSON body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/hooks/github/app", nil)

		writeError(w, r, errors.New("invalid signature"), http.StatusUnauthorized)

		gt.Number(t, w.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, w.Header().Get("Content-Type")).Equal("application/json")
		gt.String(t, w.Body.String()).Contains(`"error":"invalid signature"`)
	})

	t.Run("logs encode failure with request logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("request_id", "req-7")
		r := httptest.NewRequest(http.MethodPost, "/hooks/github/app", nil)
		r = r.WithContext(ctxlog.With(context.Background(), logger))
		w := &brokenWriter{header: http.Header{}}

		writeError(w, r, errors.New("invalid signature"), http.StatusUnauthorized)

		gt.Number(t, w.status).Equal(http.StatusUnauthorized)
		gt.String(t, buf.String()).Contains("Failed to encode error response")
		gt.String(t, buf.String()).Contains("connection reset by peer")
		gt.String(t, buf.String()).Contains("req-7")
	})
}
