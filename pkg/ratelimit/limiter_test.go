package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_BurstAndRefill(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := NewLimiter(5, 1.0, 0, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("key1"), "burst request %d", i+1)
	}
	assert.False(t, l.Allow("key1"), "bucket should be drained")

	clock.Advance(2 * time.Second)
	assert.True(t, l.Allow("key1"))
	assert.True(t, l.Allow("key1"))
	assert.False(t, l.Allow("key1"), "only two tokens refilled")
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := NewLimiter(1, 1.0, 0, WithClock(clock.Now))

	assert.True(t, l.Allow("key1"))
	assert.False(t, l.Allow("key1"))
	assert.True(t, l.Allow("key2"), "key2 has its own bucket")
	assert.Equal(t, 2, l.ActiveKeys())
}

func TestLimiter_Reset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := NewLimiter(1, 1.0, 0, WithClock(clock.Now))

	l.Allow("key1")
	assert.False(t, l.Allow("key1"))

	l.Reset("key1")
	assert.True(t, l.Allow("key1"))
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	l := NewLimiter(1000, 1000.0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.Allow("shared")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, l.ActiveKeys())
}

func TestMiddleware_EndpointLimit(t *testing.T) {
	config := DefaultConfig()
	config.PerIPEnabled = false
	config.PerAccountEnabled = false
	config.EndpointLimits = map[string]EndpointLimit{
		"POST /auth/login": {Capacity: 2, RefillRate: 1.0 / 60.0},
	}
	m := NewMiddleware(config)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "198.51.100.7:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/auth/login"))
	assert.Equal(t, http.StatusOK, do("/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, do("/auth/login"))
	assert.Equal(t, http.StatusOK, do("/auth/other"), "other endpoints are unaffected")
}

func TestMiddleware_PerIP(t *testing.T) {
	config := DefaultConfig()
	config.PerIPCapacity = 2
	config.PerAccountEnabled = false
	m := NewMiddleware(config)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("203.0.113.9"))
	assert.Equal(t, http.StatusOK, do("203.0.113.9"))
	resp := do("203.0.113.9")
	assert.Equal(t, http.StatusTooManyRequests, resp)
	assert.Equal(t, http.StatusOK, do("203.0.113.10"), "other clients keep their budget")
}

// The per-account limit only sees claims when a jwtauth Verifier runs ahead
// of it in the chain, the way the server wires it.
func TestMiddleware_PerAccount(t *testing.T) {
	config := DefaultConfig()
	config.PerIPEnabled = false
	config.PerAccountCapacity = 2
	m := NewMiddleware(config)

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	_, tokenA, err := tokenAuth.Encode(map[string]interface{}{"sub": "account-a"})
	require.NoError(t, err)
	_, tokenB, err := tokenAuth.Encode(map[string]interface{}{"sub": "account-b"})
	require.NoError(t, err)

	handler := jwtauth.Verifier(tokenAuth)(m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	do := func(token, ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// The account budget follows the token across client addresses
	assert.Equal(t, http.StatusOK, do(tokenA, "203.0.113.1"))
	assert.Equal(t, http.StatusOK, do(tokenA, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, do(tokenA, "203.0.113.3"))

	assert.Equal(t, http.StatusOK, do(tokenB, "203.0.113.1"), "other accounts keep their budget")
	assert.Equal(t, http.StatusOK, do("", "203.0.113.1"), "anonymous requests bypass the account limit")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:39218"
	assert.Equal(t, "192.0.2.4", clientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.5")
	assert.Equal(t, "203.0.113.5", clientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	assert.Equal(t, "198.51.100.1", clientIP(req))
}
