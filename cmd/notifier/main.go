// Command notifier consumes queued notification commands from Kafka and delivers them by
// SMTP. It completes delivery for services running with notification.driver = "kafka".
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wyfcoding/distributorhub/internal/notification/application"
	"github.com/wyfcoding/distributorhub/internal/notification/infrastructure/persistence"
	"github.com/wyfcoding/distributorhub/internal/notification/infrastructure/sender"
	"github.com/wyfcoding/distributorhub/internal/notification/interfaces/consumer"
	"github.com/wyfcoding/distributorhub/pkg/config"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/metrics"
	"github.com/wyfcoding/distributorhub/pkg/mq"
)

var configPath = flag.String("config", config.GetEnv("APP_CONFIG", "configs/distributor/config.toml"), "config file path")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if _, err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
		Service:    cfg.ServiceName + "-notifier",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("notifier exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	kcfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	source, err := mq.NewConsumer(kcfg, cfg.Kafka.NotificationTopic)
	if err != nil {
		return err
	}
	defer source.Close()

	producer, err := mq.NewProducer(kcfg)
	if err != nil {
		return err
	}
	defer producer.Close()

	relay := application.NewRelay(
		persistence.NewNotificationRepository(database),
		sender.NewSMTPSender(sender.SMTPConfig{
			Host:     cfg.Notification.SMTPHost,
			Port:     cfg.Notification.SMTPPort,
			Username: cfg.Notification.SMTPUser,
			Password: cfg.Notification.SMTPPass,
			From:     cfg.Notification.From,
		}),
		metrics.New(cfg.ServiceName+"_notifier"),
	)
	dlq := mq.NewDeadLetterQueue(producer, cfg.Kafka.DeadLetterTopic)

	return consumer.New(source, relay, dlq).Run(ctx)
}
