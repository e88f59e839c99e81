package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		require.Len(t, req.Messages, 2)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello"}},
			},
		})
	}))
	defer server.Close()

	c := NewOpenAI("test-key", "gpt-3.5-turbo", 5*time.Second)
	c.apiURL = server.URL

	text, err := c.Complete(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestOpenAICompleteQuotaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewOpenAI("test-key", "gpt-3.5-turbo", 5*time.Second)
	c.apiURL = server.URL

	_, err := c.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAICompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid key", "type": "auth"},
		})
	}))
	defer server.Close()

	c := NewOpenAI("bad-key", "gpt-3.5-turbo", 5*time.Second)
	c.apiURL = server.URL

	_, err := c.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeminiComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-pro")
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "pong"}},
				}},
			},
		})
	}))
	defer server.Close()

	c := NewGemini("secret", "gemini-pro", 5*time.Second)
	c.apiURL = server.URL

	text, err := c.Complete(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", text)
}

func TestGeminiCompleteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewGemini("secret", "gemini-pro", 5*time.Second)
	c.apiURL = server.URL

	_, err := c.Complete(context.Background(), "ping")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
