package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nvarela/aipbundler/internal/api"
	"github.com/nvarela/aipbundler/internal/assemble"
	"github.com/nvarela/aipbundler/internal/config"
	"github.com/nvarela/aipbundler/internal/fetch"
	"github.com/nvarela/aipbundler/internal/inspect"
	"github.com/nvarela/aipbundler/internal/ocr"
	"github.com/nvarela/aipbundler/internal/pipeline"
)

func main() {
	godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OCR is optional: without the tesseract backend, scanned documents
	// are rebuilt image-only and the run proceeds.
	ocrStats := ocr.NewStats(time.Hour)
	var recognizer ocr.Recognizer
	ocrClient, err := ocr.NewClient(cfg.OCRLanguage)
	if err != nil {
		if errors.Is(err, ocr.ErrNotEnabled) {
			log.Warn("ocr backend not enabled, scanned documents stay image-only")
		} else {
			log.Warn("ocr backend init failed, scanned documents stay image-only", "error", err)
		}
	} else {
		recognizer = ocrClient
	}

	enricher := ocr.NewEnricher(ocr.FitzRasterizer{}, recognizer, cfg.OCRScale, ocrStats, log)
	inspector := inspect.New(cfg.MinTextChars)
	assembler := assemble.New(cfg, inspector, enricher, assemble.NewPDFMerger(), log)
	fetcher := fetch.NewClient(cfg.DownloadDir, cfg.DownloadTimeout, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, fetcher, assembler, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, ocrStats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if ocrClient != nil {
			ocrClient.Close()
		}
	}()

	log.Info("starting aipbundler", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
