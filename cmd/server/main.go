package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"speaksea/config"
	"speaksea/controllers"
	"speaksea/db"
	"speaksea/internal/ratelimit"
	"speaksea/middlewares"
	"speaksea/routes"
	"speaksea/services"
	"speaksea/websocket"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./config/config.prod.yml", "path to config file")
	flag.Parse()

	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()
	app, cleanup, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	router := setupRouter(cfg, app, logger)
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "llm_provider", cfg.LLM.Provider)
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cleanup()
			os.Exit(1)
		}
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		_ = server.Close()
	}
}

type application struct {
	orchestrator *services.Orchestrator
	speech       *services.OpenAISpeech
	limiter      ratelimit.Limiter
}

// buildApp wires the adapters into the pipeline. MongoDB and Redis are
// optional; without them records are not archived and rate limits are kept
// in memory.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	dialogue, err := services.NewDialogueClient(completer,
		services.WithSampling(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
		services.WithCompletionTimeout(cfg.LLM.Timeout),
		services.WithDialogueLogger(logger),
	)
	if err != nil {
		return nil, cleanup, err
	}

	speech := services.NewOpenAISpeech(cfg.Speech.APIKey,
		services.WithSpeechBaseURL(cfg.Speech.BaseURL),
		services.WithSpeechModels(cfg.Speech.STTModel, cfg.Speech.TTSModel),
		services.WithVoice(cfg.Speech.Voice),
		services.WithSpeechHTTPClient(&http.Client{Timeout: cfg.Speech.Timeout}),
	)

	opts := []services.OrchestratorOption{
		services.WithOrchestratorLogger(logger),
		services.WithTextOnlyOnSynthesisFailure(cfg.Speech.TextOnlyOnSynthesisFailure),
	}
	if cfg.Database.URI != "" {
		client, database, err := db.ConnectMongoDB(ctx, cfg.Database.URI)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		opts = append(opts, services.WithRecordSink(db.NewExamRecordStore(database)))
	} else {
		logger.Info("no database configured, exam records will not be archived")
	}

	orch, err := services.NewOrchestrator(speech, dialogue, speech, opts...)
	if err != nil {
		return nil, cleanup, err
	}

	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		logger.Info("rate limiting via redis", "addr", cfg.Redis.Addr)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	return &application{orchestrator: orch, speech: speech, limiter: limiter}, cleanup, nil
}

func newCompleter(ctx context.Context, cfg *config.Config) (services.Completer, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		var opts []services.GeminiOption
		if cfg.Gemini.BaseURL != "" {
			opts = append(opts, services.WithGeminiBaseURL(cfg.Gemini.BaseURL))
		}
		return services.NewGeminiCompleter(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, opts...)
	case "openai", "sealion":
		return services.NewChatCompletionsClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, nil), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func setupRouter(cfg *config.Config, app *application, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Set trusted proxies (adjust as needed)
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(
		middlewares.RequestIDMiddleware(),
		middlewares.LoggerMiddleware(logger),
		middlewares.CORSMiddleware(cfg.Server.AllowedOrigins),
	)

	router.GET("/", controllers.Root)
	router.GET("/health", controllers.Health)

	limited := middlewares.RateLimitMiddleware(app.limiter, logger)

	api := router.Group("/api")
	api.Use(limited)
	{
		routes.SetupChatRoutes(api, controllers.NewConversationController(app.orchestrator, logger))
		routes.SetupVoiceRoutes(api, controllers.NewVoiceController(app.speech, app.speech, logger))
	}

	ws := websocket.NewConversationHandler(app.orchestrator, cfg.Server.AllowedOrigins, logger)
	router.GET("/ws/conversation", limited, ws.Handle)

	return router
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
