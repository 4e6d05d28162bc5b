package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/voxlink-ai/voxlink/internal/api"
	"github.com/voxlink-ai/voxlink/internal/config"
	"github.com/voxlink-ai/voxlink/internal/events"
	"github.com/voxlink-ai/voxlink/internal/gateway"
	"github.com/voxlink-ai/voxlink/internal/middleware"
	iredis "github.com/voxlink-ai/voxlink/internal/redis"
	"github.com/voxlink-ai/voxlink/internal/server"
	"github.com/voxlink-ai/voxlink/internal/session"
	"github.com/voxlink-ai/voxlink/internal/signal"
	"github.com/voxlink-ai/voxlink/internal/speech"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (optional, rate limiting only)
	var rateLimiter *middleware.RateLimiter
	if cfg.Redis.Enabled {
		redisClient, err := iredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("connecting to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		if cfg.RateLimit.Enabled {
			rateLimiter = middleware.NewRateLimiter(redisClient, cfg.RateLimit.MaxReqs, cfg.RateLimit.WindowSec)
		}
	}

	// NATS (optional, telemetry only)
	var natsClient *events.Client
	if cfg.NATS.URL != "" {
		natsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
	}
	publisher := events.NewPublisher(natsClient)

	// Signal extraction
	extractor := signal.NewHeuristic()

	// Response gateway: remote chat, local-inference fallback, canned floor
	var remote gateway.Generator
	if cfg.Chat.Endpoint != "" {
		remote = gateway.NewChatClient(cfg.Chat)
	}
	probe := gateway.NewProbe(cfg.Probe)
	var local gateway.Generator
	if probe != nil {
		// The local inference server speaks the same chat API.
		local = gateway.NewChatClient(config.ChatConfig{
			Endpoint: cfg.Probe.Endpoint,
			Timeout:  cfg.Chat.Timeout,
		})
	}
	var synth gateway.Synthesizer
	if s := gateway.NewSynthesisClient(cfg.Synthesis); s != nil {
		synth = s
	}
	gw := gateway.New(remote, local, probe, synth, extractor)

	// Speech recognition (optional, text-only sessions without it)
	var recognizer speech.Recognizer
	if cfg.Recognition.Endpoint != "" {
		recognizer = speech.NewWebSocketRecognizer(cfg.Recognition)
	} else {
		slog.Warn("no recognition endpoint configured, voice input disabled")
	}

	// Sessions
	mgr := session.NewManager(cfg.Agent, recognizer, gw, extractor, publisher)
	go mgr.Run(ctx)
	sessionHandler := session.NewHandler(mgr)

	// Router
	routerCfg := api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
	}
	if rateLimiter != nil {
		routerCfg.SessionRateLimiter = rateLimiter.Middleware
	}

	router := api.NewRouter(natsClient, routerCfg, api.HandlerSet{
		CreateSession: sessionHandler.Create,
		GetSession:    sessionHandler.Get,
		DeleteSession: sessionHandler.Delete,
		SubmitText:    sessionHandler.SubmitText,
		ToggleCapture: sessionHandler.ToggleCapture,
		PlaybackDone:  sessionHandler.PlaybackDone,
		GetClip:       sessionHandler.GetClip,
		Feed:          sessionHandler.Feed,

		GatewayReady: func() bool {
			return cfg.Chat.Endpoint != "" || probe != nil
		},
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
