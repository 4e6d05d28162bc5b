package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Chat        ChatConfig
	Synthesis   SynthesisConfig
	Recognition RecognitionConfig
	Probe       ProbeConfig
	Agent       AgentConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Log         LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	// URL of the NATS server. Empty disables event publishing.
	URL string
}

// ChatConfig configures the remote text-generation endpoint.
type ChatConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// SynthesisConfig configures the speech-synthesis endpoint. An empty
// APIKey disables synthesis; the agent degrades to text-only replies.
type SynthesisConfig struct {
	Endpoint string
	APIKey   string
	VoiceID  string
	Timeout  time.Duration
}

// RecognitionConfig configures the streaming speech-to-text provider.
type RecognitionConfig struct {
	Endpoint   string
	APIKey     string
	SampleRate int
	Language   string
}

// ProbeConfig configures the optional local-inference availability probe.
type ProbeConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// AgentConfig tunes the per-session interaction engine.
type AgentConfig struct {
	ContextWindow    int
	ThinkingDelayMin time.Duration
	ThinkingDelayMax time.Duration
	PlaybackTimeout  time.Duration
	SessionTTL       time.Duration
}

type RateLimitConfig struct {
	Enabled   bool
	MaxReqs   int
	WindowSec int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
			Enabled:  k.Bool("redis.enabled"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		Chat: ChatConfig{
			Endpoint: k.String("chat.endpoint"),
			APIKey:   k.String("chat.api.key"),
		},
		Synthesis: SynthesisConfig{
			Endpoint: k.String("synthesis.endpoint"),
			APIKey:   k.String("synthesis.api.key"),
			VoiceID:  k.String("synthesis.voice.id"),
		},
		Recognition: RecognitionConfig{
			Endpoint:   k.String("recognition.endpoint"),
			APIKey:     k.String("recognition.api.key"),
			SampleRate: k.Int("recognition.sample.rate"),
			Language:   k.String("recognition.language"),
		},
		Probe: ProbeConfig{
			Endpoint: k.String("probe.endpoint"),
		},
		Agent: AgentConfig{
			ContextWindow: k.Int("agent.context.window"),
		},
		RateLimit: RateLimitConfig{
			Enabled:   k.Bool("ratelimit.enabled"),
			MaxReqs:   k.Int("ratelimit.max.reqs"),
			WindowSec: k.Int("ratelimit.window.sec"),
		},
		CORS: CORSConfig{
			AllowedOrigins: k.Strings("cors.allowed.origins"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Synthesis.VoiceID == "" {
		cfg.Synthesis.VoiceID = "nova"
	}
	if cfg.Recognition.SampleRate == 0 {
		cfg.Recognition.SampleRate = 16000
	}
	if cfg.Recognition.Language == "" {
		cfg.Recognition.Language = "en-US"
	}
	if cfg.Agent.ContextWindow == 0 {
		cfg.Agent.ContextWindow = 10
	}
	if cfg.RateLimit.MaxReqs == 0 {
		cfg.RateLimit.MaxReqs = 60
	}
	if cfg.RateLimit.WindowSec == 0 {
		cfg.RateLimit.WindowSec = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	cfg.Chat.Timeout, err = parseDuration(k, "chat.timeout", "30s")
	if err != nil {
		return nil, err
	}
	cfg.Synthesis.Timeout, err = parseDuration(k, "synthesis.timeout", "20s")
	if err != nil {
		return nil, err
	}
	cfg.Probe.Timeout, err = parseDuration(k, "probe.timeout", "3s")
	if err != nil {
		return nil, err
	}
	cfg.Agent.ThinkingDelayMin, err = parseDuration(k, "agent.thinking.delay.min", "1500ms")
	if err != nil {
		return nil, err
	}
	cfg.Agent.ThinkingDelayMax, err = parseDuration(k, "agent.thinking.delay.max", "2500ms")
	if err != nil {
		return nil, err
	}
	cfg.Agent.PlaybackTimeout, err = parseDuration(k, "agent.playback.timeout", "60s")
	if err != nil {
		return nil, err
	}
	cfg.Agent.SessionTTL, err = parseDuration(k, "agent.session.ttl", "30m")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(k *koanf.Koanf, key, fallback string) (time.Duration, error) {
	s := k.String(key)
	if s == "" {
		s = fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}
