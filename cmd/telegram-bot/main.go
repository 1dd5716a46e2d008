package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/Prxnesh/Task-Manager-App/internal/bot"
	"github.com/Prxnesh/Task-Manager-App/internal/config"
	"github.com/Prxnesh/Task-Manager-App/internal/logger"
	"github.com/Prxnesh/Task-Manager-App/internal/manager"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
	"github.com/Prxnesh/Task-Manager-App/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logger.Setup(cfg.Env, cfg.LogPath); err != nil {
		logger.Error(ctx, err, "logger setup failed")
		os.Exit(1)
	}
	defer logger.Close()
	logger.Info(ctx, "starting telegram bot")

	if cfg.Telegram.Token == "" {
		logger.Error(ctx, nil, "telegram token is not set (TELEGRAM_TOKEN)")
		os.Exit(1)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Error(ctx, err, "storage open failed")
		os.Exit(1)
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		logger.Error(ctx, err, "schema init failed")
		os.Exit(1)
	}

	var owner *models.User
	if cfg.Auth.Enabled {
		users := manager.NewUserManager(store, cfg.Auth.BcryptCost, cfg.Auth.SessionTTL)
		owner, err = users.FindUser(ctx, cfg.Telegram.Owner)
		if err != nil {
			logger.Error(ctx, err, "telegram owner not found", "owner", cfg.Telegram.Owner)
			os.Exit(1)
		}
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Error(ctx, err, "bot creation failed")
		os.Exit(1)
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info(ctx, "authorized", "bot", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := api.GetUpdatesChan(u)
	if err != nil {
		logger.Error(ctx, err, "get updates failed")
		os.Exit(1)
	}

	tasks := manager.NewTaskManager(store, cfg.Auth.Enabled)
	bot.New(api, tasks, owner).Run(ctx, updates)

	api.StopReceivingUpdates()
	logger.Info(context.Background(), "bot stopped")
}
