package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/config"
	"github.com/iliyamo/lab-registry/internal/database"
	"github.com/iliyamo/lab-registry/internal/logging"
	"github.com/iliyamo/lab-registry/internal/metrics"
	"github.com/iliyamo/lab-registry/internal/queue"
	"github.com/iliyamo/lab-registry/internal/repository"
)

func newAuditConsumer() *cobra.Command {
	return &cobra.Command{
		Use:          "audit-consumer",
		Long:         "Consume lifecycle events from RabbitMQ and record them in MySQL",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadAudit()
			log := logging.New(config.LogLevel()).With(zap.String("component", "audit-consumer"))
			defer func() { _ = log.Sync() }()
			metrics.Init()

			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			audit := repository.NewAuditRepo(db)
			if err := audit.EnsureSchema(ctx); err != nil {
				return err
			}

			c := &queue.Consumer{
				URL:   cfg.AMQPURL,
				Queue: cfg.Queue,
				Sink:  audit,
				Log:   log,
				Observe: func(result string) {
					metrics.AuditEvents.WithLabelValues("consume", result).Inc()
				},
			}
			log.Info("consuming", zap.String("queue", cfg.Queue))
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("stopped")
			return nil
		},
	}
}
