package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metaconscious/internal/config"
)

func testClient(t *testing.T, baseURL string) *GroqClient {
	t.Helper()
	c, err := NewGroqClient(config.LLMConfig{
		Provider: "groq",
		APIKey:   "test-key",
		Model:    "groq/test-model",
		BaseURL:  baseURL,
		Timeout:  config.Duration(5 * time.Second),
	}, zap.NewNop())
	require.NoError(t, err)
	c.SetRetry(3, time.Millisecond)
	return c
}

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestNewGroqClientRequiresKey(t *testing.T) {
	_, err := NewGroqClient(config.LLMConfig{Model: "m"}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, IsNotConfigured(err))
}

func TestNewGroqClientModelResolution(t *testing.T) {
	c, err := NewGroqClient(config.LLMConfig{
		Provider: "groq", APIKey: "k", Model: "llama-3.3-70b-versatile",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "groq/llama-3.3-70b-versatile", c.model)

	c, err = NewGroqClient(config.LLMConfig{
		Provider: "groq", APIKey: "k", Model: "other/model",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "other/model", c.model)
}

func TestCompleteSuccess(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, completionBody("  hello world  "))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	out, err := c.Complete(context.Background(), "sys", "user", Options{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
	assert.Equal(t, "Bearer test-key", gotAuth)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "sys", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
	assert.Equal(t, 2000, gotReq.MaxTokens)
	assert.InDelta(t, 0.7, gotReq.Temperature, 1e-9)
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error": {"message": "rate limit"}}`)
			return
		}
		fmt.Fprint(w, completionBody("ok"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	out, err := c.Complete(context.Background(), "s", "u", Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "invalid model"}}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "s", "u", Options{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindBadRequest, le.Kind)
	assert.Equal(t, 1, le.Attempts)
}

func TestCompleteExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "s", "u", Options{})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindUnavailable, le.Kind)
	assert.Equal(t, 3, le.Attempts)
	assert.Contains(t, le.Err.Error(), "failed after 3 attempts")
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "s", "u", Options{})
	require.Error(t, err)

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, KindBadResponse, le.Kind)
}

func TestCompleteHonorsContextDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	c.SetRetry(3, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Complete(ctx, "s", "u", Options{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
