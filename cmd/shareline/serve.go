package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/shareline"
	"github.com/sagarc03/shareline/config"
	"github.com/sagarc03/shareline/database"
	"github.com/sagarc03/shareline/filesystem"
	sharelinehttp "github.com/sagarc03/shareline/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Shareline HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().String("base-url", "", "public base URL used in share links")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	repos, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()
	slog.Info("connected to database", "type", cfg.Database.Type)

	if err = os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	storage := filesystem.NewStore(root)

	detect, err := shareline.ParseDetectMode(cfg.Storage.Detect)
	if err != nil {
		return fmt.Errorf("parse detect mode: %w", err)
	}

	directory := shareline.NewDirectory(repos.Users)
	shares := shareline.NewShareEngine(repos.Files, shareline.ShareEngineConfig{})
	files, err := shareline.NewFileService(repos.Files, storage, shares, shareline.FileServiceConfig{
		Detect: detect,
	})
	if err != nil {
		return fmt.Errorf("create file service: %w", err)
	}

	sessions := sharelinehttp.NewSessions(sharelinehttp.SessionConfig{
		ProviderSecret: cfg.Auth.ProviderSecret,
		SessionSecret:  cfg.Auth.SessionSecret,
		TTL:            time.Duration(cfg.Auth.SessionTTL) * time.Second,
		CookieName:     cfg.Auth.CookieName,
		Secure:         cfg.Auth.SecureCookies,
	})

	handlerConfig := sharelinehttp.HandlerConfig{
		BaseURL:       cfg.Server.BaseURL,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
	}

	handler := sharelinehttp.NewHandler(&handlerConfig, sessions, directory, files, shares)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
