package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/config"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/db"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/kafka"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/logger"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/metrics"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/outbox"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/repository"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/sink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the outbox relay worker",
	RunE:  runRelay,
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Log.Level)
	log := logger.Named("relay")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	dbx, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
		PingTimeout:     cfg.MySQL.PingTimeout,
	})
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer dbx.Close()

	outboxRepo := repository.NewOutboxRepository(dbx)

	var deliverTo outbox.Sink
	switch strings.ToLower(strings.TrimSpace(cfg.Sink.Kind)) {
	case "", "kafka":
		producer := kafka.NewProducerFromConfig(kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		defer producer.Close()
		deliverTo = sink.NewKafkaSink(producer)
	case "webhook":
		if strings.TrimSpace(cfg.Sink.Webhook.URL) == "" {
			return fmt.Errorf("sink.webhook.url is required for the webhook sink")
		}
		deliverTo = sink.NewWebhookSink(
			cfg.Sink.Webhook.URL,
			cfg.Sink.Webhook.TimeoutMs,
			cfg.Sink.Webhook.FailThreshold,
			cfg.Sink.Webhook.OpenForMs,
		)
	default:
		return fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}

	relay := outbox.NewRelay(outboxRepo, deliverTo, outbox.Config{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		Lease:        cfg.Outbox.Lease,
		BackoffBase:  cfg.Outbox.BackoffBase,
		BackoffMax:   cfg.Outbox.BackoffMax,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("relay starting", zap.String("sink", cfg.Sink.Kind))

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
