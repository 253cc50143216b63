package serv

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/xid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDHeader = "X-Request-Id"

// requestLogger logs one entry per request once the response is written.
func (s *MusicService) requestLogger(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if rid == "" {
			rid = xid.New().String()
		}
		w.Header().Set(requestIDHeader, rid)

		if !s.zlog.Core().Enabled(zapcore.InfoLevel) {
			h.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		h.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		fields := []zapcore.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
			zap.String("request_id", rid),
		}

		if status >= http.StatusInternalServerError {
			s.zlog.Error("request", fields...)
		} else {
			s.zlog.Info("request", fields...)
		}
	}

	return http.HandlerFunc(fn)
}
