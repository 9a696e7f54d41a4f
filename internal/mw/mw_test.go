package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2, "X-Real-IP"))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Real-IP", ip)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"), "burst exhausted")
	assert.Equal(t, http.StatusOK, do("10.0.0.2"), "clients are limited independently")
}

func TestClientRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewClientRateLimiter(rate.Limit(1), 1)
	a := l.GetLimiter("a")
	assert.Same(t, a, l.GetLimiter("a"))
	assert.NotSame(t, a, l.GetLimiter("b"))
	assert.Equal(t, 2, l.Len())
}

func TestCache(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.GET("/areas", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/missing", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	get := func(path string, headers map[string]string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		r.ServeHTTP(w, req)
		return w
	}

	first := get("/areas", nil)
	assert.Equal(t, "MISS", first.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"calls":1}`, first.Body.String())

	second := get("/areas", nil)
	assert.Equal(t, "HIT", second.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"calls":1}`, second.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls)

	refreshed := get("/areas", map[string]string{"Cache-Control": "no-cache"})
	assert.Equal(t, "MISS", refreshed.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"calls":2}`, refreshed.Body.String())
	assert.JSONEq(t, `{"calls":2}`, get("/areas", nil).Body.String(), "bypass refreshes the entry")

	get("/missing", nil)
	get("/missing", nil)
	assert.Equal(t, 4, calls, "errors are not cached")
}

type staticAuth bool

func (s staticAuth) IsAuthenticated() bool { return bool(s) }

func TestRequireAuth(t *testing.T) {
	for _, tc := range []struct {
		name   string
		authed bool
		want   int
	}{
		{name: "Signed in", authed: true, want: http.StatusOK},
		{name: "Signed out", authed: false, want: http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/guarded", RequireAuth(staticAuth(tc.authed)), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
