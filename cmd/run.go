package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"comanda/internal/app/workflow"
	"comanda/internal/shared/config"
	"comanda/internal/shared/logger"
	"comanda/internal/shared/postgres"
	"comanda/internal/shared/rabbitmq"
)

// Run wires the service together and blocks until ctx is cancelled or the
// HTTP server fails.
func Run(ctx context.Context) error {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New("comanda")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	pool, err := postgres.NewPool(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	rmq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rmq.Close()

	fanout := workflow.NewBroadcaster()
	fanout.Register(rabbitmq.NewRecipient(rmq))

	svc := workflow.New(
		workflow.Config{Restaurant: cfg.Restaurant.Name},
		postgres.NewTxManager(pool),
		postgres.NewOrdersRepo(),
		postgres.NewStaffRepo(),
		postgres.NewCatalogRepo(),
		workflow.NewChain(cfg.Restaurant.Name, log),
		fanout,
		workflow.NewHistory(),
		log,
	)

	mux := http.NewServeMux()
	workflow.NewHTTPHandler(svc, log).Register(mux)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	log.Info(ctx, "service_started",
		fmt.Sprintf("%s order workflow listening on %s", cfg.Restaurant.Name, cfg.HTTP.Addr),
		map[string]any{"addr": cfg.HTTP.Addr})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info(shutdownCtx, "service_stopping", "shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
