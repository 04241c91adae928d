package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bnema/chatdrive/internal/adapters/api"
	statusadapter "github.com/bnema/chatdrive/internal/adapters/render/status"
	tomlrepo "github.com/bnema/chatdrive/internal/adapters/repo/toml"
	"github.com/bnema/chatdrive/internal/adapters/repo/tokens"
	"github.com/bnema/chatdrive/internal/application"
	"github.com/bnema/chatdrive/internal/ports"
)

type app struct {
	cfg          appConfig
	log          *logrus.Logger
	pool         *application.PoolService
	auth         *application.AuthService
	chat         *application.ChatService
	client       *api.Client
	summaries    ports.RunSummaryRepository
	renderStatus func(statusadapter.View, statusadapter.RenderOptions) (string, error)
	now          func() time.Time
}

type appConfig struct {
	BaseURL     string
	TokenFile   string
	Model       string
	Language    string
	SettleDelay time.Duration
	SendEvery   time.Duration
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg := appConfig{
		BaseURL:     envOrDefault("CHATDRIVE_BASE_URL", "https://chat.example.com/api"),
		TokenFile:   envOrDefault("CHATDRIVE_TOKEN_FILE", filepath.Join(homeDir, ".chatdrive", "tokens.txt")),
		Model:       envOrDefault("CHATDRIVE_MODEL", ""),
		Language:    envOrDefault("CHATDRIVE_LANGUAGE", "en"),
		SettleDelay: envDurationOrDefault("CHATDRIVE_SETTLE_DELAY", application.DefaultSettleDelay),
		SendEvery:   envDurationOrDefault("CHATDRIVE_SEND_EVERY", 5*time.Second),
	}

	log := newLogger()

	store := tokens.NewStore(cfg.TokenFile)
	pool := application.NewPoolService(store, log)

	executor := api.NewExecutor(api.DefaultRetryPolicy(), pool, ports.SystemSleeper{}, log)
	client := api.NewClient(cfg.BaseURL, nil, pool, executor, log)

	auth := application.NewAuthService(pool, client, log)
	resolver := application.NewOutcomeResolver(client, ports.SystemSleeper{}, cfg.SettleDelay, log)
	chat := application.NewChatService(client, client, resolver, ports.SystemClock{}, log)
	chat.SetModel(cfg.Model)
	chat.SetLanguage(cfg.Language)

	summaries, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire run summary repository: %w", err)
	}

	return &app{
		cfg:          cfg,
		log:          log,
		pool:         pool,
		auth:         auth,
		chat:         chat,
		client:       client,
		summaries:    summaries,
		renderStatus: statusadapter.Render,
		now:          time.Now,
	}, nil
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(envOrDefault("CHATDRIVE_LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
