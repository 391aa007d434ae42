package main

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wallet/internal/cache"
	"wallet/internal/cli"
	"wallet/internal/events"
	apphttp "wallet/internal/http"
	"wallet/internal/ledger"
	"wallet/internal/log"
)

var flagSeed bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagSeed, "seed", false, "Load sample data when storage is empty")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := cli.GracefulShutdown(cmd.Context(), logger)
	defer stop()

	return withLedger(ctx, func(m *ledger.Manager) error {
		if flagSeed {
			seeded, err := m.Seed(ctx)
			if err != nil {
				return err
			}
			if seeded {
				logger.Info("Sample data loaded", "expenses", m.Len())
			}
		}

		srv, err := apphttp.NewServer(m, apphttp.Options{
			Addr:               cfg.Addr(),
			Logger:             logger,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			CacheSize:          cfg.CacheSize,
			CacheTTL:           cfg.CacheTTL,
			Ready:              m.Ping,
		})
		if err != nil {
			return err
		}

		caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
		caches.Register(srv.Views())

		// Dial the broker before anything runs, so a failure leaves nothing
		// to stop.
		var pub *events.Publisher
		if cfg.AMQPURL != "" {
			client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				return err
			}
			defer client.Close()

			pub = events.NewPublisher(client, 256, logger.WithComponent(log.ComponentEvents).Slog())
			unsubscribe := m.Subscribe(pub.Listen)
			defer unsubscribe()
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(gctx, cfg.ShutdownTimeout) })
		g.Go(func() error { return caches.Run(gctx, cfg.CacheTTL) })
		g.Go(func() error { return srv.Limiter().Run(gctx, 5*time.Minute) })
		if pub != nil {
			g.Go(func() error { return pub.Run(gctx) })
			logger.Info("Publishing ledger changes", "exchange", cfg.AMQPExchange)
		}

		logger.Info("Starting wallet dashboard",
			"addr", cfg.Addr(),
			log.FieldBackend, cfg.DataBackend,
			"expenses", m.Len())
		return g.Wait()
	})
}
