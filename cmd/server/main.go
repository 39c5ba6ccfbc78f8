package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/convobridge/server/internal/agent/model"
	"github.com/convobridge/server/internal/agent/repo"
	"github.com/convobridge/server/internal/agent/responder"
	"github.com/convobridge/server/internal/core"
	"github.com/convobridge/server/internal/slot"
	"github.com/convobridge/server/internal/webhook"
	logx "github.com/convobridge/server/pkg/logger"
	pkgredis "github.com/convobridge/server/pkg/redis"
)

// consumerRetryWait is the fetchresponse endpoint's single in-request retry.
// Only the Redis-backed deployment uses it.
const consumerRetryWait = 3 * time.Second

// AppConfig defines all configurable parameters of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Addr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Response     model.ResponseModelConfig
	Prompt       model.ResponsePromptConfig
	Conversation model.ConversationConfig
}

func main() {
	ctx := context.Background()

	// Load .env file for local runs; absence is fine in deployed environments.
	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Env)})

	var (
		store     slot.Store
		history   model.ConversationRepository
		retryWait time.Duration
	)
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New()
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to initialise Redis client")
		}
		defer rdb.Close()

		historyTTL, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			logx.Fatal().Err(err).Str("ttl", cfg.Conversation.TTL).Msg("invalid CONVERSATION_TTL")
		}

		store = slot.NewRedisStore(rdb, slot.DefaultTTL)
		history = repo.NewRedisConversationRepository(rdb, historyTTL)
		retryWait = consumerRetryWait
		logx.Info().Msg("using Redis response store")
	} else {
		store = slot.NewMemoryStore(slot.DefaultTTL)
		logx.Warn().Msg("REDIS_URL not set: using in-process response store, single instance only, pending replies lost on restart")
	}

	var rsp model.Responder
	if cfg.APIKey != "" {
		g, err := responder.NewGemini(ctx, responder.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Response,
			Prompt:   cfg.Prompt,
			History:  history,
			MaxTurns: cfg.Conversation.MaxTurns,
		})
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to build Gemini responder")
		}
		rsp = g
	} else {
		rsp = responder.Echo{}
		logx.Warn().Msg("GEMINI_API_KEY not set: using echo responder")
	}

	h := webhook.NewHandler(store, rsp, retryWait)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
	logx.Info().Msg("server stopped")
}
