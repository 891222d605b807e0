package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/wonny/quantsim/internal/api"
	"github.com/wonny/quantsim/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                - Health check
  GET  /api/strategies        - 전략 목록
  GET  /api/strategies/{key}  - 전략 상세
  POST /api/backtests         - 백테스트 실행 (속도 제한)

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --file config/strategies.yaml`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiFile string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: API_PORT)")
	apiCmd.Flags().StringVar(&apiFile, "file", "", "전략 정의 YAML 경로")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	d, err := bootstrap(context.Background(), depOptions{strategyFile: apiFile})
	if err != nil {
		return err
	}
	defer d.close()

	cfg, log := d.cfg, d.log
	if apiPort != "" {
		cfg.API.Port = apiPort
	}

	routerCfg := api.RouterConfig{
		Backtest:  handlers.NewBacktestHandler(d.svc, log),
		RateLimit: rate.Limit(cfg.API.RateLimit),
		RateBurst: cfg.API.RateBurst,
		Logger:    log,
	}
	if d.db != nil {
		routerCfg.Database = d.db
	}

	server := api.New(cfg, log, api.NewRouter(routerCfg))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.API.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
