package serv

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-http-utils/headers"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const serverName = "musicserv"

func routesHandler(s *MusicService) (http.Handler, error) {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(setServerHeader)
	mux.Use(s.requestLogger)

	if s.conf.telemetryEnabled() {
		mux.Use(s.withTracing)
	}

	notFound := func(w http.ResponseWriter, r *http.Request) {
		renderStatus(w, http.StatusNotFound)
	}
	mux.NotFound(notFound)
	mux.MethodNotAllowed(notFound)

	// Healthcheck API
	if s.conf.HealthPath != "" {
		hh := healthV1Handler(s)
		mux.Method(http.MethodGet, s.conf.HealthPath, hh)
		mux.Method(http.MethodHead, s.conf.HealthPath, hh)
	}

	h, err := s.musicRoute()
	if err != nil {
		return nil, err
	}

	methods := []string{http.MethodGet, http.MethodHead}
	if len(s.conf.AllowedOrigins) != 0 {
		methods = append(methods, http.MethodOptions)
	}

	for _, p := range routePatterns(s.conf.RoutePrefix) {
		for _, m := range methods {
			mux.Method(m, p, h)
		}
	}

	return mux, nil
}

// musicRoute wraps the file handler with the per route middleware.
func (s *MusicService) musicRoute() (http.Handler, error) {
	var h http.Handler = newMusicHandler(s.fs, s.root, s.conf, s.zlog)

	if s.conf.HTTPGZip {
		if gz, err := gzhttp.NewWrapper(gzhttp.CompressionLevel(6)); err != nil {
			return nil, err
		} else {
			h = gz(h)
		}
	}

	if s.conf.rateLimiterEnable() {
		h = s.rateLimiter(h)
	}

	if len(s.conf.AllowedOrigins) != 0 {
		opt := cors.Options{
			AllowedOrigins: s.conf.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
			AllowedHeaders: append([]string{headers.Range}, s.conf.AllowedHeaders...),
			ExposedHeaders: []string{
				headers.AcceptRanges,
				headers.ContentRange,
				headers.ContentLength,
				headers.ETag,
			},
		}

		// a logger turns on cors debug output
		if s.conf.DebugCORS {
			opt.Logger = zap.NewStdLog(s.zlog)
		}
		h = cors.New(opt).Handler(h)
	}

	return h, nil
}

// routePatterns returns the router patterns that match the prefix and
// everything below it.
func routePatterns(prefix string) []string {
	if prefix == "/" {
		return []string{"/*"}
	}
	return []string{prefix, prefix + "/*"}
}

func setServerHeader(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headers.Server, serverName)
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
