package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/law-office-scheduling/internal/config"
)

func cacheCtx(method, target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestCacheKeyDistinctPerCalendar(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "path_query"}

	// same route pattern, same query, different calendars: the cached
	// window of one calendar must never answer for another
	k1 := cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/v1/calendars/1/occurrences?from=a&to=b"))
	k2 := cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/v1/calendars/2/occurrences?from=a&to=b"))
	assert.NotEqual(t, k1, k2)

	// identical requests share one entry
	again := cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/v1/calendars/1/occurrences?from=a&to=b"))
	assert.Equal(t, k1, again)
}

func TestCacheKeyDistinctPerQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "path_query"}

	k1 := cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/v1/calendars/1/occurrences?from=a&to=b"))
	k2 := cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/v1/calendars/1/occurrences?from=a&to=c"))
	assert.NotEqual(t, k1, k2)
}

func TestCacheKeyStrategies(t *testing.T) {
	target := "/v1/calendars/1/occurrences?from=a&to=b"

	// "path" ignores the query string
	pathCfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "path"}
	k1 := cacheKeyFrom(pathCfg, cacheCtx(http.MethodGet, target))
	k2 := cacheKeyFrom(pathCfg, cacheCtx(http.MethodGet, "/v1/calendars/1/occurrences?from=x&to=y"))
	assert.Equal(t, k1, k2)

	// but never the path itself
	k3 := cacheKeyFrom(pathCfg, cacheCtx(http.MethodGet, "/v1/calendars/2/occurrences"))
	assert.NotEqual(t, k1, k3)

	// "method_path" separates verbs
	mpCfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "method_path"}
	getKey := cacheKeyFrom(mpCfg, cacheCtx(http.MethodGet, target))
	headKey := cacheKeyFrom(mpCfg, cacheCtx(http.MethodHead, target))
	assert.NotEqual(t, getKey, headKey)
}

func TestApplyCachedHeadersReplacesInsteadOfAppending(t *testing.T) {
	dst := http.Header{}
	dst.Set("Content-Type", "text/plain")

	cached := http.Header{
		"Content-Type":   {"application/json; charset=UTF-8"},
		"Content-Length": {"123"},
		"Set-Cookie":     {"a=1", "b=2"},
	}

	applyCachedHeaders(dst, cached)

	// the stored value wins and is not duplicated next to the default
	require.Len(t, dst.Values("Content-Type"), 1)
	assert.Equal(t, "application/json; charset=UTF-8", dst.Get("Content-Type"))

	// multi-value headers keep every value
	assert.Equal(t, []string{"a=1", "b=2"}, dst.Values("Set-Cookie"))

	// Content-Length is left to the writer
	assert.Empty(t, dst.Values("Content-Length"))
}
