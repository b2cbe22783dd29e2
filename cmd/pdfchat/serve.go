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

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/pdfchat/internal/api"
	"github.com/liliang-cn/pdfchat/internal/gateway"
	"github.com/liliang-cn/pdfchat/internal/logger"
	"github.com/liliang-cn/pdfchat/internal/normalize"
	"github.com/liliang-cn/pdfchat/internal/repository"
	"github.com/liliang-cn/pdfchat/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workspace HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	if cfg.Log.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Transcripts are optional; workspaces themselves live in memory
	var transcripts *repository.TranscriptRepository
	if cfg.Archive.Enabled {
		db, err := repository.NewDB(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		transcripts = repository.NewTranscriptRepository(db)
	}

	gw := gateway.NewClient(cfg.Backend, log)
	normalizer := normalize.New(normalize.RulesFromConfig(cfg.Normalizer))

	workspaces := service.NewWorkspaceService(cfg, gw, normalizer, transcripts, log)
	chatService := service.NewChatService(cfg, workspaces, transcripts, log)

	router := api.SetupRouter(chatService, workspaces, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       log,
	})

	// Backend calls bound the request time, so the write timeout follows them
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting pdfchat server",
			zap.String("address", cfg.Address()),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.Bool("archive", cfg.Archive.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}
