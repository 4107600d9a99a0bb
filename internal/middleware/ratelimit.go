package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// limitStore counts hits per client within the current window.
type limitStore interface {
	// Hit records one request for key and reports whether the per-window
	// budget is now exceeded.
	Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimiter applies a fixed window per client IP to mutating requests.
// GETs for static assets and health checks pass through untouched.
type RateLimiter struct {
	requests int
	window   time.Duration
	store    limitStore
}

// NewRateLimiter builds an in-memory limiter. Zero requests or window
// disables limiting.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 || window <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{
		requests: requests,
		window:   window,
		store:    newMemoryStore(),
	}
}

// NewRedisRateLimiter shares the window across instances via Redis INCR with
// a TTL set on the first hit of each window.
func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration) *RateLimiter {
	if requests <= 0 || window <= 0 || client == nil {
		return &RateLimiter{}
	}
	return &RateLimiter{
		requests: requests,
		window:   window,
		store:    &redisStore{client: client},
	}
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	if r == nil || r.requests == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			next.ServeHTTP(w, req)
			return
		}

		exceeded, err := r.store.Hit(req.Context(), clientKey(req), r.requests, r.window)
		if err != nil {
			// A broken limiter store should not take the service down.
			next.ServeHTTP(w, req)
			return
		}
		if exceeded {
			w.Header().Set("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, req)
	})
}

type memoryStore struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
}

type clientWindow struct {
	count   int
	expires time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{clients: make(map[string]*clientWindow)}
}

func (m *memoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	state, ok := m.clients[key]
	if !ok || now.After(state.expires) {
		m.clients[key] = &clientWindow{count: 1, expires: now.Add(window)}
		return false, nil
	}
	if state.count >= limit {
		return true, nil
	}
	state.count++
	return false, nil
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := "ratelimit:" + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, err
		}
	}
	return count > int64(limit), nil
}

func clientKey(r *http.Request) string {
	if r == nil {
		return "unknown"
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}
