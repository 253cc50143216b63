package serv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dosco/musicserv/internal/util"
	"github.com/spf13/afero"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// MusicService serves a directory of audio files over HTTP.
type MusicService struct {
	log     *zap.SugaredLogger // logger
	zlog    *zap.Logger        // faster logger
	conf    *Config            // parsed config
	fs      afero.Fs           // filesystem the root directory lives on
	root    string             // absolute path of the root directory
	tp      trace.TracerProvider
	limiter *ipLimiter
	handler http.Handler
	closeFn func()
}

type Option func(*MusicService) error

// OptionSetFS sets the filesystem the root directory is read from.
func OptionSetFS(fs afero.Fs) Option {
	return func(s *MusicService) error {
		s.fs = fs
		return nil
	}
}

// OptionSetLogger sets the logger used by the service.
func OptionSetLogger(zlog *zap.Logger) Option {
	return func(s *MusicService) error {
		s.zlog = zlog
		return nil
	}
}

// OptionSetTracerProvider sets the tracer provider used when tracing is enabled.
func OptionSetTracerProvider(tp trace.TracerProvider) Option {
	return func(s *MusicService) error {
		s.tp = tp
		return nil
	}
}

// NewMusicService validates the config and sets up the routes. It fails
// when the root directory does not exist.
func NewMusicService(conf *Config, options ...Option) (*MusicService, error) {
	if conf == nil {
		conf = NewDefaultConfig()
	}

	s := &MusicService{conf: conf}

	for _, op := range options {
		if err := op(s); err != nil {
			return nil, err
		}
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	if s.zlog == nil {
		s.zlog = util.NewLoggerWithLevel(conf.LogFormat == "json", util.ParseLevel(conf.LogLevel))
	}
	s.log = s.zlog.Sugar()

	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}

	if err := s.initRoot(); err != nil {
		return nil, err
	}

	if err := addMimeTypes(conf.MimeTypes); err != nil {
		return nil, err
	}

	if conf.rateLimiterEnable() {
		var err error
		if s.limiter, err = newIPLimiter(conf); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrStartup, err)
		}
	}

	if conf.telemetryEnabled() && s.tp == nil {
		tp := newTracerProvider(conf, s.zlog)
		s.tp = tp
		s.closeFn = func() { s.shutdownTracer(tp) }
	}

	var err error
	if s.handler, err = routesHandler(s); err != nil {
		return nil, fmt.Errorf("%w: routes: %w", ErrStartup, err)
	}

	return s, nil
}

func (s *MusicService) initRoot() error {
	root, err := s.conf.RootPath()
	if err != nil {
		return fmt.Errorf("%w: root directory: %w", ErrStartup, err)
	}

	fi, err := s.fs.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: root directory: %w", ErrStartup, err)
	}

	if !fi.IsDir() {
		return fmt.Errorf("%w: root directory: not a directory: %s", ErrStartup, root)
	}

	s.root = root
	return nil
}

// Handler returns the http handler serving all routes, for use with
// an existing http server.
func (s *MusicService) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and serves until the process
// receives an interrupt or terminate signal.
func (s *MusicService) Start() error {
	ln, err := net.Listen("tcp", s.conf.hostPort)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Serve(ctx, ln)
}

// Serve serves on the listener until ctx is done, then shuts the
// server down gracefully.
func (s *MusicService) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          zap.NewStdLog(s.zlog),
	}

	srv.RegisterOnShutdown(func() {
		s.log.Info("shutdown signal received")
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return s.shutdown(srv)
	})

	if s.conf.WatchAndReload && !s.conf.Production {
		g.Go(func() error {
			return startConfigWatcher(ctx, s)
		})
	}

	s.log.Infof("%s listening on %s, serving %s", s.conf.AppName, listenURL(ln.Addr(), s.conf), s.root)

	return g.Wait()
}

func (s *MusicService) shutdown(srv *http.Server) error {
	timeout := s.conf.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	c, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(c)
	if errors.Is(err, context.DeadlineExceeded) {
		s.log.Warnf("shutdown timed out after %s, closing open connections", timeout)
		err = srv.Close()
	}

	if s.closeFn != nil {
		s.closeFn()
	}
	s.log.Info("shutdown complete")
	return err
}

func (s *MusicService) shutdownTracer(tp *sdktrace.TracerProvider) {
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Shutdown(c); err != nil {
		s.log.Warnf("tracer shutdown: %s", err)
	}
}

// listenURL returns a browsable url for the listening address and prefix.
func listenURL(addr net.Addr, c *Config) string {
	host, port, err := net.SplitHostPort(c.hostPort)
	if err != nil {
		host = ""
	}

	if ta, ok := addr.(*net.TCPAddr); ok {
		port = strconv.Itoa(ta.Port)
	}

	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}

	u := "http://" + net.JoinHostPort(host, port)
	if c.RoutePrefix != "/" {
		u += c.RoutePrefix
	}
	return u
}
