package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"edgar_extract/pkg/api/filings"
	"edgar_extract/pkg/core/config"
)

func main() {
	// Load environment variables
	godotenv.Load()

	fs := pflag.CommandLine
	config.DefineFlags(fs)
	addr := fs.String("addr", ":8080", "Listen address")
	maxBody := fs.Int64("max-body", filings.DefaultMaxBodyBytes, "Maximum filing upload size in bytes")
	fs.Usage = config.Usage(fs, "api", "EDGAR filing extraction HTTP API", "--addr :9090 --process-all")
	pflag.Parse()

	settings, _, err := config.FromFlags(fs)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	logger := settings.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	asm, err := settings.NewAssembler(logger)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	handler, err := filings.NewHandler(asm, logger)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	handler.SetMaxBodyBytes(*maxBody)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("API server starting on %s...\n", *addr)
	fmt.Println("  - POST /api/filings/parse?ticker=&process_all=")
	fmt.Println("  - GET  /api/profiles")
	fmt.Println("  - GET  /healthz")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
