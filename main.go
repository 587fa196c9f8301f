package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carwash-backend/config"
	"carwash-backend/models"
	"carwash-backend/routes"
	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "carwash",
		Short:        "Car wash operations backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, _, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			logger.Info("database migrated")
			return nil
		},
	})

	var name, email, password string
	createAdmin := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a superadmin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			user := models.User{Name: name, Email: email, Password: password, Role: models.RoleSuperAdmin}
			if err := db.Create(&user).Error; err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			logger.Info("superadmin created", zap.Uint("id", user.ID), zap.String("email", user.Email))
			return nil
		},
	}
	createAdmin.Flags().StringVar(&name, "name", "Administrator", "display name")
	createAdmin.Flags().StringVar(&email, "email", "", "login email")
	createAdmin.Flags().StringVar(&password, "password", "", "login password")
	_ = createAdmin.MarkFlagRequired("email")
	_ = createAdmin.MarkFlagRequired("password")
	root.AddCommand(createAdmin)

	return root
}

// bootstrap loads config, connects the database and migrates it.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := config.NewLogger(cfg.Log)

	if cfg.TimeZone != "" {
		if err := utils.SetLocation(cfg.TimeZone); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	db, err := config.ConnectDB(cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := config.Migrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, logger, db, nil
}

func serve() error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cache := services.NewDashboardCache(cfg.Redis, logger)
	defer cache.Close()

	if cfg.Twilio.Enabled() && cfg.Reminders.Enabled {
		reminders := services.NewReminderService(db, services.NewTwilioSender(cfg.Twilio), cfg.Twilio, logger)
		scheduler, err := reminders.Start(cfg.Reminders.Cron)
		if err != nil {
			return fmt.Errorf("start reminders: %w", err)
		}
		defer scheduler.Stop()
	} else {
		logger.Info("wash reminders disabled")
	}

	r := routes.SetupRouter(routes.Deps{Config: cfg, Logger: logger, DB: db, Cache: cache})
	if !cfg.IsProduction() {
		printRoutes(r, logger)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func printRoutes(r *gin.Engine, logger *zap.Logger) {
	for _, route := range r.Routes() {
		logger.Debug("route", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}
