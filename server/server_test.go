package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptjam/promptjam/internal/profile"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		Mode:          "dev",
		Port:          8081,
		SessionSecret: "test-secret",
		SessionTTL:    time.Minute,
		Teams:         profile.DefaultTeams,
	}
}

func TestNewServer_ServesLoginPage(t *testing.T) {
	s, err := NewServer(context.Background(), testProfile())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PromptJam")
}

func TestNewServer_UnknownRouteIs404(t *testing.T) {
	s, err := NewServer(context.Background(), testProfile())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
