package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kfin/internal/api"
	"github.com/wonny/kfin/internal/api/handlers"
)

// apiCmd starts the REST API server
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health
  POST /api/financials/{ticker}/collect
  GET  /api/financials/{ticker}/latest
  GET  /api/financials/{ticker}
  GET  /api/valuations/{ticker}
  GET  /api/valuations/{ticker}/ttm
  GET  /api/valuations/{ticker}/eps-trend
  POST /api/valuations/{ticker}/refresh
  POST /api/valuations/refresh-all
  GET  /api/valuations/screen
  POST /api/collect/prices
  POST /api/collect/financials
  POST /api/collect/research
  GET  /api/research/{ticker}

Example:
  go run ./cmd/kfin api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	if apiPort != "" {
		d.cfg.Port = apiPort
	}

	financialHandler := handlers.NewFinancialHandler(d.financials, d.financialRepo, d.log)
	valuationHandler := handlers.NewValuationHandler(d.valuations, d.log)
	collectHandler := handlers.NewCollectHandler(d.collector, d.researchRepo, d.log)

	router := api.NewRouter(financialHandler, valuationHandler, collectHandler, d.log)
	server := api.New(d.cfg, d.log, router)

	go func() {
		if err := server.Start(); err != nil {
			d.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", d.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
