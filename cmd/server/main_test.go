package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"speaksea/config"
	"speaksea/internal/ratelimit"
	"speaksea/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type silentCompleter struct{}

func (silentCompleter) Name() string { return "silent" }

func (silentCompleter) Complete(context.Context, services.CompletionRequest) (string, error) {
	return "Tell me about the video.", nil
}

func testApp(t *testing.T, requests int) (*config.Config, *application) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	speech := services.NewOpenAISpeech("")
	dialogue, err := services.NewDialogueClient(silentCompleter{})
	require.NoError(t, err)
	orch, err := services.NewOrchestrator(speech, dialogue, speech)
	require.NoError(t, err)

	return cfg, &application{
		orchestrator: orch,
		speech:       speech,
		limiter:      ratelimit.NewMemoryLimiter(requests, time.Hour),
	}
}

func TestSetupRouter_Routes(t *testing.T) {
	cfg, app := testApp(t, 100)
	router := setupRouter(cfg, app, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/chat/prompts/test", http.StatusOK},
		{http.MethodGet, "/api/voice/voices", http.StatusOK},
		{http.MethodPost, "/api/chat/conversation", http.StatusBadRequest},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
		require.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestSetupRouter_RateLimitsAPI(t *testing.T) {
	cfg, app := testApp(t, 2)
	router := setupRouter(cfg, app, slog.New(slog.NewTextHandler(io.Discard, nil)))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/voice/voices", nil))
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{200, 200, 429}, codes)

	// health checks are never limited
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNewCompleter(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = "openai"
	c, err := newCompleter(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &services.ChatCompletionsClient{}, c)

	cfg.LLM.Provider = "anthropomorphic"
	_, err = newCompleter(context.Background(), cfg)
	require.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "warn"
	logger := setupLogger(cfg)
	require.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
