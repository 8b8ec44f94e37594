package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/application/port"
	"github.com/harborline/freightdesk/internal/application/service"
	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/config"
	httpserver "github.com/harborline/freightdesk/internal/interfaces/http"
	"github.com/harborline/freightdesk/internal/notification"
	"github.com/harborline/freightdesk/internal/repository"
	"github.com/harborline/freightdesk/pkg/database"
	"github.com/harborline/freightdesk/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("FREIGHTDESK_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting freightdesk fund request service",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.History.Path,
		MaxOpenConns:    cfg.History.MaxOpenConns,
		MaxIdleConns:    cfg.History.MaxIdleConns,
		ConnMaxLifetime: cfg.History.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open history database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.History.MigrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, logger)

	historyRepo := repository.NewHistoryRepository(db.DB, logger)

	var notifier port.Notifier = notification.NopNotifier{}
	if larkNotifier := notification.NewLarkNotifier(notification.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
	}, logger); larkNotifier != nil {
		notifier = larkNotifier
		logger.Info("Lark notifications enabled")
	}

	refData := service.NewRefDataService(client, logger)
	builder := service.NewBuilderService(refData, client, logger)
	submission := service.NewSubmissionService(client, refData, historyRepo, notifier, logger)
	approval := service.NewApprovalService(client, refData, historyRepo, notifier, logger)
	summary := service.NewSummaryService(client)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, refData, builder, submission, approval, summary, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
