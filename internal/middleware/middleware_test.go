package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
})

func request(h http.Handler, method, target string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	r.RemoteAddr = "203.0.113.7:5000"
	if mutate != nil {
		mutate(r)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestSecurityHeaders(t *testing.T) {
	w := request(SecurityHeaders(ok), "GET", "/health", nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.cleersplit.app")(ok)

	w := request(h, "GET", "http://api.cleersplit.app:8080/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(h, "GET", "http://evil.example/health", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Forbidden"}`, w.Body.String())

	w = request(HostCheck("")(ok), "GET", "http://anything/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Hour), 2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per IP")
	assert.Equal(t, 2, l.Len())

	assert.Zero(t, l.Cleanup(time.Now()))
	assert.Equal(t, 2, l.Cleanup(time.Now().Add(limiterTTL+time.Minute)))
	assert.Zero(t, l.Len())
}

func TestLimitMiddleware(t *testing.T) {
	h := SignIn().Limit("Too many sign-in attempts. Please try again later.")(ok)

	assert.Equal(t, http.StatusOK, request(h, "POST", "/api/session/sign-in", nil).Code)
	assert.Equal(t, http.StatusOK, request(h, "POST", "/api/session/sign-in", nil).Code)

	w := request(h, "POST", "/api/session/sign-in", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	other := request(h, "POST", "/api/session/sign-in", func(r *http.Request) {
		r.RemoteAddr = "198.51.100.2:1234"
	})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestProductionSecurityChain(t *testing.T) {
	var h http.Handler = ok
	mws := ProductionSecurity("api.cleersplit.app", Global())
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	w := request(h, "GET", "http://api.cleersplit.app/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://cleersplit.app"})(ok)

	w := request(h, http.MethodOptions, "/api/profile", func(r *http.Request) {
		r.Header.Set("Origin", "https://cleersplit.app")
		r.Header.Set("Access-Control-Request-Method", "POST")
	})
	assert.Equal(t, "https://cleersplit.app", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = request(h, http.MethodGet, "/api/profile", func(r *http.Request) {
		r.Header.Set("Origin", "https://evil.example")
	})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRedisRateLimitFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisRateLimit(client, "sign-in", time.Minute, 5, nil)
	assert.Equal(t, "cleersplit:ratelimit:sign-in:203.0.113.7", l.key("203.0.113.7"))

	w := request(l.Middleware(ok), "POST", "/api/session/sign-in", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRedisRateLimitRejectsAfterBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisRateLimit(client, "sign-in", time.Minute, 10, nil)
	h := l.Middleware(ok)
	key := l.key("203.0.113.7")

	for i := 1; i <= 10; i++ {
		w := request(h, "POST", "/api/session/sign-in", nil)
		require.Equal(t, http.StatusOK, w.Code, "attempt %d", i)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(10-i), w.Header().Get("X-RateLimit-Remaining"))
	}
	assert.Equal(t, time.Minute, mr.TTL(key), "window starts on the first attempt")

	w := request(h, "POST", "/api/session/sign-in", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "Too many sign-in attempts")

	other := request(h, "POST", "/api/session/sign-in", func(r *http.Request) {
		r.RemoteAddr = "198.51.100.4:5000"
	})
	assert.Equal(t, http.StatusOK, other.Code, "budgets are per client")

	mr.FastForward(time.Minute)
	w = request(h, "POST", "/api/session/sign-in", nil)
	assert.Equal(t, http.StatusOK, w.Code, "a new window restores the budget")
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	h := chimw.RequestID(RequestLogger(logger)(notFound))

	request(h, "GET", "/missing", nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "/missing", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.Equal(t, "203.0.113.7", fields["ip"])
	assert.NotEmpty(t, fields["request_id"])
}
