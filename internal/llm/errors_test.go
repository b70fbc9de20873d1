package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want Kind
	}{
		{"rate limited", 429, "", KindRateLimit},
		{"bad gateway", 502, "", KindUnavailable},
		{"unavailable", 503, "", KindUnavailable},
		{"gateway timeout", 504, "", KindUnavailable},
		{"bad request", 400, "", KindBadRequest},
		{"unauthorized", 401, "", KindBadRequest},
		{"unknown status falls back to body", 500, "temporary failure", KindUnavailable},
		{"unknown status, unknown body", 500, "boom", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyStatus(tt.code, tt.body))
		})
	}
}

func TestClassifyText(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"Rate Limit exceeded, slow down", KindRateLimit},
		{"request timeout after 30s", KindTimeout},
		{"connection reset by peer", KindNetwork},
		{"network unreachable", KindNetwork},
		{"service unavailable", KindUnavailable},
		{"temporary glitch upstream", KindUnavailable},
		{"upstream returned 503", KindUnavailable},
		{"invalid api key", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyText(tt.msg))
		})
	}
}

func TestKindRetryable(t *testing.T) {
	retryable := []Kind{KindRateLimit, KindTimeout, KindNetwork, KindUnavailable}
	for _, k := range retryable {
		assert.True(t, k.Retryable(), k.String())
	}
	terminal := []Kind{KindUnknown, KindNotConfigured, KindBadRequest, KindBadResponse}
	for _, k := range terminal {
		assert.False(t, k.Retryable(), k.String())
	}
}

func TestIsNotConfigured(t *testing.T) {
	base := &Error{Kind: KindNotConfigured, Err: errors.New("no key")}
	assert.True(t, IsNotConfigured(base))
	assert.True(t, IsNotConfigured(fmt.Errorf("wrapped: %w", base)))
	assert.False(t, IsNotConfigured(&Error{Kind: KindRateLimit, Err: errors.New("429")}))
	assert.False(t, IsNotConfigured(errors.New("plain")))
}

func TestErrorMessageIncludesAttempts(t *testing.T) {
	err := &Error{Kind: KindRateLimit, Attempts: 3, Err: errors.New("too many requests")}
	assert.Contains(t, err.Error(), "after 3 attempts")

	single := &Error{Kind: KindBadRequest, Attempts: 1, Err: errors.New("bad payload")}
	assert.NotContains(t, single.Error(), "attempts")
}
