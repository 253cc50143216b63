package serv

import (
	"net"
	"net/http"
	"strings"
	"time"

	cache "github.com/go-pkgz/expirable-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	ipCache cache.Cache
	limit   rate.Limit
	bucket  int
	header  string
}

func newIPLimiter(c *Config) (*ipLimiter, error) {
	ipCache, err := cache.NewCache(cache.MaxKeys(c.RateLimiter.MaxClients), cache.TTL(time.Minute*5))
	if err != nil {
		return nil, err
	}

	return &ipLimiter{
		ipCache: ipCache,
		limit:   rate.Limit(c.RateLimiter.Rate),
		bucket:  c.RateLimiter.Bucket,
		header:  c.RateLimiter.IPHeader,
	}, nil
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	v, exists := l.ipCache.Get(ip)
	if !exists {
		limiter := rate.NewLimiter(l.limit, l.bucket)
		l.ipCache.Set(ip, limiter, 0)
		return limiter
	}

	return v.(*rate.Limiter)
}

func (l *ipLimiter) clientIP(r *http.Request) (string, error) {
	var iph string

	// client supplied headers are only trusted when configured
	if l.header != "" {
		iph = r.Header.Get(l.header)
	}

	if iph != "" {
		v := strings.Split(iph, ",")
		if n := len(v); n > 1 {
			return strings.TrimSpace(v[n-2]), nil
		}
		return strings.TrimSpace(v[0]), nil
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	return ip, err
}

func (s *MusicService) rateLimiter(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ip, err := s.limiter.clientIP(r)
		if err != nil {
			s.zlog.Error("Rate Limiter", zap.Error(err))
			renderStatus(w, http.StatusInternalServerError)
			return
		}

		if !s.limiter.get(ip).Allow() {
			http.Error(w, "429 Too Many Requests", http.StatusTooManyRequests)
			return
		}

		h.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
