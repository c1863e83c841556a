package imagegen

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

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "dall-e-3", cfg.Model)
	assert.Equal(t, "1024x1024", cfg.Size)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.EqualValues(t, 3, cfg.MaxInFlight)
}

func TestClient_Generate(t *testing.T) {
	var gotBody struct {
		Prompt         string `json:"prompt"`
		Model          string `json:"model"`
		N              int    `json:"n"`
		Size           string `json:"size"`
		ResponseFormat string `json:"response_format"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example/cat.png"}]}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
	})

	url, err := client.Generate(context.Background(), "draw a cat")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/cat.png", url)

	// Exactly one square high-resolution image per request.
	assert.Equal(t, "draw a cat", gotBody.Prompt)
	assert.Equal(t, "dall-e-3", gotBody.Model)
	assert.Equal(t, 1, gotBody.N)
	assert.Equal(t, "1024x1024", gotBody.Size)
	assert.Equal(t, "url", gotBody.ResponseFormat)
}

func TestClient_GenerateRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL + "/v1"})

	_, err := client.Generate(context.Background(), "draw a cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestClient_GenerateEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	_, err := client.Generate(context.Background(), "draw a cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty image response")
}

func TestClient_GenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example/late.png"}]}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Timeout: 20 * time.Millisecond,
	})

	_, err := client.Generate(context.Background(), "draw a cat")
	require.Error(t, err)
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	client := NewClient(&Config{APIKey: "test-key"})
	assert.Equal(t, "dall-e-3", client.config.Model)
	assert.Equal(t, "1024x1024", client.config.Size)
	assert.Equal(t, 60*time.Second, client.config.Timeout)
}
