package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/lavender/internal/analysis"
	"github.com/cesargomez89/lavender/internal/config"
	"github.com/cesargomez89/lavender/internal/constants"
	"github.com/cesargomez89/lavender/internal/fingerprint"
	"github.com/cesargomez89/lavender/internal/handlers"
	"github.com/cesargomez89/lavender/internal/httpclient"
	"github.com/cesargomez89/lavender/internal/logger"
	"github.com/cesargomez89/lavender/internal/recommend"
	"github.com/cesargomez89/lavender/internal/scanner"
	"github.com/cesargomez89/lavender/internal/store"
	"github.com/cesargomez89/lavender/internal/tagging"
)

func main() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		appLogger.Error("Failed to create data directory", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		appLogger.Error("Failed to ensure schema", "error", err)
		os.Exit(1)
	}

	tags := tagging.NewFileReader()
	sc := scanner.New(db, tags, appLogger)

	governor := httpclient.NewClient(
		&http.Client{Timeout: constants.RequestTimeout},
		constants.MinRequestInterval,
	)

	bridge := analysis.NewBridge(cfg.AnalysisCommand, cfg.AnalysisScript, appLogger)
	loader := recommend.NewContextLoader(db, tags, appLogger)
	resolver := recommend.NewResolver(loader, bridge, governor, cfg.MusicBrainzURL, nil, appLogger)

	fp := fingerprint.NewFpcalc(cfg.FpcalcPath)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := handlers.NewHandler(db, sc, resolver, tags, fp, cfg.MusicDir, appLogger)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
