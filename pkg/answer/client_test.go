package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BackoffBase: time.Millisecond, BackoffMax: 5 * time.Millisecond}
}

func TestAskSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/answer", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "how many absences?", req.Query)

		json.NewEncoder(w).Encode(Response{Answer: "Three absences this week.", Confidence: 0.92})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetryConfig(fastRetry(3)))
	resp, err := client.Ask(context.Background(), "how many absences?")
	require.NoError(t, err)
	assert.Equal(t, "Three absences this week.", resp.Answer)
	assert.InDelta(t, 0.92, resp.Confidence, 0.001)
}

func TestAskRetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Response{Answer: "ok", Confidence: 0.7})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetryConfig(fastRetry(3)))
	resp, err := client.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAskRetriesOnRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(Response{Answer: "ok", Confidence: 0.7})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetryConfig(fastRetry(2)))
	_, err := client.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAskDoesNotRetryClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetryConfig(fastRetry(3)))
	_, err := client.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAskExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetryConfig(fastRetry(3)))
	_, err := client.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAskHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithRetryConfig(RetryConfig{
		MaxAttempts: 5,
		BackoffBase: 200 * time.Millisecond,
		BackoffMax:  time.Second,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Ask(ctx, "q")
	require.Error(t, err)
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	client := NewClient("http://localhost:0")
	_, err := client.Ask(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestCalculateBackoffDoublesWithCap(t *testing.T) {
	client := NewClient("http://localhost:0", WithRetryConfig(RetryConfig{
		MaxAttempts: 5,
		BackoffBase: 100 * time.Millisecond,
		BackoffMax:  300 * time.Millisecond,
	}))

	for attempt := 1; attempt <= 4; attempt++ {
		delay := client.calculateBackoff(attempt)
		assert.Greater(t, delay, time.Duration(0))
		// Jitter is bounded to 25% above the capped base delay.
		assert.LessOrEqual(t, delay, 375*time.Millisecond)
	}
}
