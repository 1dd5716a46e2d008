package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/Prxnesh/Task-Manager-App/internal/config"
	"github.com/Prxnesh/Task-Manager-App/internal/manager"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
	"github.com/Prxnesh/Task-Manager-App/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	username := flag.String("user", "", "create this user after the schema is ready")
	password := flag.String("password", "", "password for -user")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("config: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal("open storage: ", err)
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		log.Fatal("init schema: ", err)
	}
	log.Printf("schema ready (%s)", cfg.Storage.Driver)

	if *username == "" {
		return
	}

	users := manager.NewUserManager(store, cfg.Auth.BcryptCost, cfg.Auth.SessionTTL)
	user, err := users.Register(ctx, models.Credentials{Username: *username, Password: *password})
	switch {
	case errors.Is(err, models.ErrConflict):
		log.Printf("user %q already exists", *username)
	case err != nil:
		log.Fatal("create user: ", err)
	default:
		log.Printf("user %q created with id %d", user.Username, user.ID)
	}
}
