package serv

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-http-utils/headers"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	dotfilesIgnore = "ignore"
	dotfilesAllow  = "allow"
	dotfilesDeny   = "deny"
)

// musicHandler serves the files under a root directory at a URL prefix.
// Conditional and range requests are left to http.ServeContent.
type musicHandler struct {
	fs       afero.Fs
	prefix   string
	index    string
	redirect bool
	dotfiles string
	etag     bool
	maxAge   time.Duration
	zlog     *zap.Logger
}

func newMusicHandler(fs afero.Fs, root string, c *Config, zlog *zap.Logger) *musicHandler {
	return &musicHandler{
		fs:       afero.NewReadOnlyFs(afero.NewBasePathFs(fs, root)),
		prefix:   c.RoutePrefix,
		index:    c.Index,
		redirect: c.Redirect,
		dotfiles: c.Dotfiles,
		etag:     c.ETag,
		maxAge:   c.CacheMaxAge,
		zlog:     zlog,
	}
}

func (h *musicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		renderStatus(w, http.StatusNotFound)
		return
	}

	rel, ok := trimPrefix(r.URL.Path, h.prefix)
	if !ok {
		renderStatus(w, http.StatusNotFound)
		return
	}

	if err := h.serveFile(w, r, rel); err != nil {
		h.renderErr(w, r, err)
	}
}

func (h *musicHandler) serveFile(w http.ResponseWriter, r *http.Request, rel string) error {
	if !validPath(rel) {
		return ErrNotFound
	}
	name := path.Clean("/" + rel)

	if h.dotfiles != dotfilesAllow && hasDotfile(name) {
		if h.dotfiles == dotfilesDeny {
			return ErrForbidden
		}
		return ErrNotFound
	}

	f, err := h.fs.Open(name)
	if err != nil {
		return classifyFSError(err)
	}
	defer f.Close() //nolint: errcheck

	fi, err := f.Stat()
	if err != nil {
		return classifyFSError(err)
	}

	if fi.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			if !h.redirect {
				return ErrNotFound
			}
			// leading slashes are collapsed so the target stays on this host
			u := url.URL{Path: "/" + strings.TrimLeft(r.URL.Path, "/") + "/", RawQuery: r.URL.RawQuery}
			http.Redirect(w, r, u.String(), http.StatusMovedPermanently)
			return nil
		}

		if h.index == "" {
			return ErrNotFound
		}
		name = path.Join(name, h.index)

		idx, err := h.fs.Open(name)
		if err != nil {
			return classifyFSError(err)
		}
		defer idx.Close() //nolint: errcheck

		if fi, err = idx.Stat(); err != nil {
			return classifyFSError(err)
		}
		f = idx

	} else if strings.HasSuffix(rel, "/") {
		return ErrNotFound
	}

	if !fi.Mode().IsRegular() {
		return ErrNotFound
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("file.path", name),
		attribute.Int64("file.size", fi.Size()))

	hdr := w.Header()
	if ct := contentType(name); ct != "" {
		hdr.Set(headers.ContentType, ct)
	}
	hdr.Set(headers.CacheControl, fmt.Sprintf("public, max-age=%d", int64(h.maxAge/time.Second)))

	if h.etag {
		hdr.Set(headers.ETag, weakETag(fi.Size(), fi.ModTime()))
	}

	http.ServeContent(w, r, name, fi.ModTime(), f)
	return nil
}

func (h *musicHandler) renderErr(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatus(err)

	if code == http.StatusInternalServerError {
		spanError(trace.SpanFromContext(r.Context()), err)
		h.zlog.Error("file request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	renderStatus(w, code)
}

func renderStatus(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

// trimPrefix returns the request path below prefix. The path must be the
// prefix itself or continue it with a slash.
func trimPrefix(p, prefix string) (string, bool) {
	if prefix == "/" {
		return p, true
	}

	switch {
	case p == prefix:
		return "", true
	case strings.HasPrefix(p, prefix+"/"):
		return p[len(prefix):], true
	}
	return "", false
}

// validPath rejects paths that try to step out of the root directory or
// that no file on disk can match.
func validPath(p string) bool {
	if strings.ContainsAny(p, "\x00\\") {
		return false
	}

	if !strings.Contains(p, "..") {
		return true
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

func hasDotfile(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func weakETag(size int64, modtime time.Time) string {
	return fmt.Sprintf(`W/"%x-%x"`, size, modtime.UnixMilli())
}
