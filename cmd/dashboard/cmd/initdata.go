package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/go-login-boilerplate/internal/cache"
	"github.com/pribylovaa/go-login-boilerplate/internal/config"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/redact"
	"github.com/pribylovaa/go-login-boilerplate/internal/service"
	"github.com/pribylovaa/go-login-boilerplate/internal/storage/postgres"
)

var initDataCmd = &cobra.Command{
	Use:   "init-data",
	Short: "Create the first superuser if it does not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return initData(cmd.Context())
	},
}

func initData(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := setupLogger(cfg.Env)

	if cfg.Bootstrap.SuperuserEmail == "" {
		return errors.New("init-data: bootstrap.superuser_email is not set")
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		return err
	}
	defer str.Close()

	// Кэш отзыва команде не нужен: токены здесь не выпускаются.
	srvc := service.New(str, cache.NewMemory(), cfg.Auth)

	created, err := srvc.CreateSuperuser(dbCtx, cfg.Bootstrap.SuperuserEmail, cfg.Bootstrap.SuperuserPassword)
	if err != nil {
		log.Error("superuser_create_failed", slog.String("err", err.Error()))
		return err
	}

	email := redact.Email(cfg.Bootstrap.SuperuserEmail)
	if created {
		log.Info("superuser_created", slog.String("email", email))
	} else {
		log.Info("superuser_exists", slog.String("email", email))
	}

	return nil
}
