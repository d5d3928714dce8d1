package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit(NewRateLimitPolicy("Apply-Discount", time.Minute, 2), limiter, nil)(okHandler())

	u1, u2 := uuid.New(), uuid.New()
	send := func(user uuid.UUID) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/apply-discount", nil)
		req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: user, Role: enums.RoleCustomer}))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	assert.Equal(t, http.StatusOK, send(u1))
	assert.Equal(t, http.StatusOK, send(u1))
	assert.Equal(t, http.StatusTooManyRequests, send(u1))
	assert.Equal(t, http.StatusOK, send(u2), "counters are per user")
	assert.Contains(t, limiter.counts, "apply-discount:user:"+u1.String())
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit(NewRateLimitPolicy("products", time.Minute, 1), limiter, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Contains(t, limiter.counts, "products:ip:203.0.113.5")
}

func TestRateLimitDisabledOrFailing(t *testing.T) {
	disabled := RateLimit(NewRateLimitPolicy("x", 0, 0), &fakeLimiter{err: errors.New("boom")}, nil)(okHandler())
	resp := httptest.NewRecorder()
	disabled.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	failing := RateLimit(NewRateLimitPolicy("x", time.Minute, 1), &fakeLimiter{err: errors.New("boom")}, nil)(okHandler())
	resp = httptest.NewRecorder()
	failing.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
