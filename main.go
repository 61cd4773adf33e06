package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/alimasry/resume-editor/config"
	"github.com/alimasry/resume-editor/editor"
	"github.com/alimasry/resume-editor/logger"
	"github.com/alimasry/resume-editor/server"
	"github.com/alimasry/resume-editor/store"
)

var (
	configFile   string
	addrFlag     string
	storeFlag    string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "resume-editor",
	Short: "Editing-session server for resumes and cover letters",
	Long: `Serves resumes and cover letters over REST and WebSocket.
Each open document gets one editing session with undo/redo history,
debounced checkpoints and autosave.

Stores:
- memory (default, lost on restart)
- firestore (write-behind cached, needs FIRESTORE_PROJECT)`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (defaults only when empty)")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "HTTP listen address (overrides server.addr)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Document store: memory or firestore")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
}

// applyFlags lets explicitly set flags win over file and environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = addrFlag
	}
	if flags.Changed("store") {
		cfg.Store.Backend = strings.ToLower(storeFlag)
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevelFlag
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	log := logger.Setup(os.Stdout, level, cfg.Logging.Color)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := server.NewHub(st, server.Options{
		Editor:           editor.Options{HistoryLimit: cfg.Editor.HistoryLimit},
		CommitDelay:      cfg.Editor.CommitDelay,
		AutosaveInterval: cfg.Editor.AutosaveInterval,
	})
	go hub.Run()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.NewHandler(hub, server.HandlerOptions{AllowedOrigins: cfg.Server.AllowedOrigins}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		hub.Close()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	// Sessions save before the store is flushed and closed.
	hub.Close()
	return nil
}

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.DocumentStore, func(), error) {
	switch cfg.Backend {
	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		cached := store.NewCachedStore(store.NewFirestoreStore(client, cfg.Collection), cfg.FlushInterval)
		return cached, func() {
			cached.Close()
			if err := client.Close(); err != nil {
				slog.Error("close firestore client", "error", err)
			}
		}, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
