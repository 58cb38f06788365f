package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"telegram-companion-bot/internal/config"
	"telegram-companion-bot/internal/dialogue"
	"telegram-companion-bot/internal/fx"
	"telegram-companion-bot/internal/handlers"
	"telegram-companion-bot/internal/llm"
	"telegram-companion-bot/internal/scheduler"
	"telegram-companion-bot/internal/session"
	"telegram-companion-bot/internal/storage"
	"telegram-companion-bot/internal/weather"
)

func main() {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN etc.

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.Telegram.Token == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	db, err := storage.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer db.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}
	logger.Info("authorized", zap.String("username", bot.Self.UserName))

	gen := llm.New(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
		Retries:     cfg.OpenAI.Retries,
	}, logger)
	if !gen.Available() {
		logger.Info("OPENAI_API_KEY is not set, replies degrade to canned text")
	}

	sessions := session.NewTracker()
	router := dialogue.NewRouter(db, sessions, gen, logger)
	h := handlers.New(bot, db, sessions, router,
		weather.New(cfg.Weather.APIKey, ""), fx.New(cfg.FX.BaseURL), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := scheduler.New(db, h, logger).Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	for upd := range updates {
		go h.HandleUpdate(ctx, upd)
	}

	logger.Info("shutting down")
}
