package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/literaryhaven-backend/pkg/config"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp, _ := serve(t, HealthLive(cfg), newRequest(http.MethodGet, "/health/live", "", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "dev", resp.Header().Get(envHeader))
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	resp, _ := serve(t, HealthReady(cfg, map[string]Pinger{"db": ok, "redis": ok}, nil), newRequest(http.MethodGet, "/health/ready", "", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp, body := serve(t, HealthReady(cfg, map[string]Pinger{"db": ok, "redis": down}, nil), newRequest(http.MethodGet, "/health/ready", "", nil))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Contains(t, string(body.Error.Details), "redis")
	require.NotContains(t, string(body.Error.Details), "connection refused")
}
