package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrichment-workers/internal/common/config"
	"enrichment-workers/internal/common/database"
	"enrichment-workers/internal/common/logger"
)

func serve(t *testing.T, checks []readinessCheck, path string) (int, map[string]interface{}) {
	t.Helper()
	srv := newServer(":0", checks, logger.NewTestLogger(t))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestServer_Health(t *testing.T) {
	code, body := serve(t, nil, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_Ready(t *testing.T) {
	ok := readinessCheck{name: "redis", check: func(context.Context) error { return nil }}
	down := readinessCheck{name: "elasticsearch", check: func(context.Context) error { return errors.New("connection refused") }}

	code, body := serve(t, []readinessCheck{ok}, "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	code, body = serve(t, []readinessCheck{ok, down}, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, map[string]interface{}{"elasticsearch": "connection refused"}, body["failing"])
}

func TestServer_Metrics(t *testing.T) {
	code, _ := serve(t, nil, "/metrics")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_ReadyWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	b := &backends{redis: database.NewRedis(config.RedisConfig{Address: mr.Addr()})}
	defer b.Close()

	code, _ := serve(t, b.readinessChecks(), "/ready")
	assert.Equal(t, http.StatusOK, code)

	mr.Close()
	code, body := serve(t, b.readinessChecks(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body["failing"], "redis")
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	calls := 0
	err := retryWithBackoff(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, log, "op")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	err = retryWithBackoff(context.Background(), func(context.Context) error {
		return errors.New("down")
	}, 2, time.Millisecond, log, "op")
	assert.ErrorContains(t, err, "op failed after 2 attempts")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retryWithBackoff(ctx, func(context.Context) error { return errors.New("down") }, 5, time.Hour, log, "op")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNeedsRedis(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		config.WorkerAnonymizeContent: {Enabled: false},
		config.WorkerRestoreContent:   {Enabled: false},
	}}
	assert.False(t, needsRedis(cfg))

	cfg.Workers[config.WorkerRestoreContent] = config.WorkerConfig{Enabled: true}
	assert.True(t, needsRedis(cfg))
}
