package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/grocery-backend/pkg/config"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	resp := serve(t, HealthLive(cfg), testRequest{method: http.MethodGet, target: "/health/live"})

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-Grocery-Env"))
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	resp := serve(t, HealthReady(cfg, nil, map[string]Pinger{"db": ok, "redis": ok}), testRequest{method: http.MethodGet, target: "/health/ready"})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = serve(t, HealthReady(cfg, nil, map[string]Pinger{"db": ok, "redis": down}), testRequest{method: http.MethodGet, target: "/health/ready"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
