package middleware

// cache.go implements the Redis response cache for calendar window reads.
// A cached window is exactly the advisory pool the appointment composer
// checks against before submitting, so staleness here is expected and
// harmless: the store re-runs the conflict check authoritatively on every
// write.  Only successful responses to configured methods are cached.

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/law-office-scheduling/internal/config"
)

// recordingWriter tees the response body into a buffer (up to limit
// bytes) while forwarding it to the client unchanged.
type recordingWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if w.limit <= 0 || w.size < w.limit {
		if w.limit <= 0 {
			w.buf.Write(b)
		} else if remain := w.limit - w.size; remain > 0 {
			if int64(len(b)) <= remain {
				w.buf.Write(b)
			} else {
				w.buf.Write(b[:remain])
			}
		}
		w.size += int64(len(b))
	}
	return w.ResponseWriter.Write(b)
}

// cachedResponse is the envelope stored in Redis.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// applyCachedHeaders copies stored headers onto a response that may
// already carry defaults.  A stored header replaces any existing values
// for the same key rather than appending, so a replayed Content-Type
// never shows up twice; multi-value headers keep all their values.
// Content-Length is skipped and left to the writer.
func applyCachedHeaders(dst, cached http.Header) {
	for k, vals := range cached {
		if strings.EqualFold(k, "Content-Length") {
			continue
		}
		dst.Del(k)
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
}

// cacheKeyFrom builds a stable key from the configured strategy; the
// variable tail is hashed so paths and query strings of any length
// produce fixed-size keys.  The concrete request path is used, never
// the route pattern: two calendars share a route but must never share
// a cache entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	path := r.URL.Path
	query := r.URL.RawQuery

	var tail string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "path":
		tail = "path:" + path
	case "method_path":
		tail = "method:" + r.Method + ":path:" + path
	case "method_path_query":
		tail = "method:" + r.Method + ":path:" + path + ":q:" + query
	default: // "path_query"
		tail = "path:" + path + ":q:" + query
	}
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// NewRedisCache returns the response-cache middleware.  Headers are
// stored alongside the body so a HIT is byte-identical to the original
// response.  Disabled config or a nil client yields a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(bs, &cached) == nil {
					applyCachedHeaders(c.Response().Header(), cached.Header)
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(cached.Status)
					if len(cached.Body) > 0 {
						_, _ = c.Response().Write(cached.Body)
					}
					return nil
				}
			}

			rw := &recordingWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = rw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rw.status == http.StatusOK {
				hdr := make(http.Header, len(c.Response().Header()))
				for k, vals := range c.Response().Header() {
					vv := make([]string, len(vals))
					copy(vv, vals)
					hdr[k] = vv
				}
				body := rw.buf.Bytes()
				if maxBody > 0 && int64(len(body)) > maxBody {
					body = body[:maxBody]
				}
				if payload, err := json.Marshal(cachedResponse{Status: rw.status, Header: hdr, Body: body}); err == nil {
					// The request context may already be done once the response
					// is written; cache fill uses its own.
					_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
				}
			}
			return nil
		}
	}
}
