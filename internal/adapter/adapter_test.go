package adapter_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kronicd/WA-Covid-Mailer/internal/adapter"
	"github.com/kronicd/WA-Covid-Mailer/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestGetReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello")
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)
	body, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestGetRetriesRateLimiting(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, "finally")
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)
	body, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "finally", string(body))
	assert.Equal(t, 3, attempts)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, 1, attempts, "non-OK statuses other than 429 are permanent")
}

func TestPostJSONSingleAttempt(t *testing.T) {
	attempts := 0
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)
	status, _, err := client.PostJSON(context.Background(), server.URL, map[string]string{"content": "hi"})
	require.NoError(t, err, "transport succeeded; status is the caller's problem")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "hi", payload["content"])
	assert.Equal(t, 1, attempts, "delivery paths never retry")
}

func TestPostFormEncodesValues(t *testing.T) {
	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		_, _ = io.WriteString(w, "ok")
	}))
	defer server.Close()

	client := adapter.NewHTTPClient(5 * time.Second)
	status, body, err := client.PostForm(context.Background(), server.URL, url.Values{
		"cmd": {"announcement_list-post_announcement"},
		"key": {"secret"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "secret", got.Get("key"))
}
