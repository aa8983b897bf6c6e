package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"enrichment-workers/internal/common/config"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"permission denied", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.err)))
		})
	}
}

func TestWithRetry(t *testing.T) {
	rc := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := withRetry(context.Background(), rc, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = withRetry(context.Background(), rc, func(context.Context) error {
		calls++
		return errors.New("permission denied")
	})
	assert.EqualError(t, err, "permission denied")
	assert.Equal(t, 1, calls)
}

func TestConfigFrom(t *testing.T) {
	cc := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", Timeout: 5000, RequestTimeout: 2000})
	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.Equal(t, 5*time.Second, cc.ConnectionTimeout)
	assert.Equal(t, 2*time.Second, cc.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cc.RetryConfig)
}
