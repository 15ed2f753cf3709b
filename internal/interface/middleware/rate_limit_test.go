package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimited(t *testing.T, max int, allow AllowFunc) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP(false))
	r.POST("/login", RateLimit(rdb, max, time.Minute, KeyByIPAndPath(), allow), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, mr
}

func hit(r http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BlocksAfterMax(t *testing.T) {
	r, mr := newLimited(t, 2, nil)

	w := hit(r, "198.51.100.1:1234")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, hit(r, "198.51.100.1:1234").Code)

	w = hit(r, "198.51.100.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(r, "198.51.100.2:1234").Code, "other clients keep their own bucket")

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit(r, "198.51.100.1:1234").Code, "window expired")
}

func TestRateLimit_AllowBypass(t *testing.T) {
	r, _ := newLimited(t, 1, AllowPrivateIP())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.5:1234").Code)
	}
	assert.Equal(t, http.StatusOK, hit(r, "198.51.100.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "198.51.100.1:1234").Code)
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	r, mr := newLimited(t, 1, nil)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "198.51.100.1:1234").Code)
	}
}

func TestRateLimit_DisabledWithoutClient(t *testing.T) {
	h := RateLimit(nil, 1, time.Minute, KeyByIP(), nil)
	require.NotNil(t, h)

	r := gin.New()
	r.POST("/login", h, func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "198.51.100.1:1234").Code)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trust   bool
		headers map[string]string
		want    string
	}{
		{"headers ignored by default", false, map[string]string{"X-Forwarded-For": "203.0.113.9"}, "192.0.2.1"},
		{"cloudflare first", true, map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "203.0.113.9"}, "203.0.113.7"},
		{"left-most forwarded", true, map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"garbage falls back", true, map[string]string{"X-Forwarded-For": "nope"}, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			r := gin.New()
			r.GET("/", RealIP(tt.trust), func(c *gin.Context) { got = c.GetString(CtxRealIPKey) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:5555"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var got string
	r := gin.New()
	r.GET("/", RequestIDMiddleware(), func(c *gin.Context) { got = c.GetString("request_id") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, got)
	assert.Equal(t, got, w.Header().Get(HeaderRequestID))

	const incoming = "0b5c7a5e-2f43-4c5b-9a53-3c2e7f3b1d10"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, incoming)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, got)
}

func TestKeyByUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPatch, "/users/updatePassword", nil)
	c.Set(CtxRealIPKey, "198.51.100.4")
	assert.Equal(t, "rl:user:anon:ip:198.51.100.4", KeyByUserID()(c))

	c.Set(CtxUserIDKey, "u1")
	assert.Equal(t, "rl:user:u1", KeyByUserID()(c))
}

func TestAllowCIDRs(t *testing.T) {
	allow := AllowCIDRs("203.0.113.0/24", "not-a-cidr", "2001:db8::/32")
	tests := []struct {
		ip   string
		want bool
	}{
		{"203.0.113.40", true},
		{"::ffff:203.0.113.41", true},
		{"2001:db8::1", true},
		{"198.51.100.1", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/login", nil)
		c.Set(CtxRealIPKey, tt.ip)
		assert.Equal(t, tt.want, allow(c), tt.ip)
	}
}
