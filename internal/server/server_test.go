package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:     config.Test,
		ServerHost:      "127.0.0.1",
		ServerPort:      "0",
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		OTELServiceName: "foodgram-test",
	}
}

func TestNew(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	cfg := testConfig()

	srv := New(cfg, router.SetupRouter(router.Dependencies{Config: cfg, DB: db}))
	require.NotNil(t, srv)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "foodgram_http_requests_total")

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStartAndShutdown(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	cfg := testConfig()
	srv := New(cfg, router.SetupRouter(router.Dependencies{Config: cfg, DB: db}))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
