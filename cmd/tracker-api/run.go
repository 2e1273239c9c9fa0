package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apiserver "github.com/pvetools/backup-tracker/internal/api_server"
	"github.com/pvetools/backup-tracker/internal/config"
	"github.com/pvetools/backup-tracker/internal/events"
	"github.com/pvetools/backup-tracker/internal/store"
	"github.com/pvetools/backup-tracker/pkg/log"
	"github.com/pvetools/backup-tracker/pkg/migrations"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the backup tracker api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
		if err != nil {
			logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}

		logger := log.InitLog(logLvl)
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		if cfg.Service.MigrationFolder != "" {
			if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
				zap.S().Fatalw("running migrations", "error", err)
			}
		}

		opts := []events.ProducerOptions{}
		if cfg.Service.Kafka.Topic != "" {
			opts = append(opts, events.WithOutputTopic(cfg.Service.Kafka.Topic))
		}
		eventProducer := events.NewEventProducer(newEventWriter(cfg), opts...)
		defer func() { _ = eventProducer.Close() }()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, s, listener, eventProducer)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("error running server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, s)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("error running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

// newEventWriter picks kafka when brokers are configured, stdout otherwise.
func newEventWriter(cfg *config.Config) events.Writer {
	if len(cfg.Service.Kafka.Brokers) == 0 {
		zap.S().Info("no kafka brokers configured, events go to stdout")
		return &events.StdoutWriter{}
	}

	saramaCfg := cfg.Service.Kafka.SaramaConfig
	if saramaCfg == nil {
		saramaCfg = sarama.NewConfig()
		if cfg.Service.Kafka.Version != (sarama.KafkaVersion{}) {
			saramaCfg.Version = cfg.Service.Kafka.Version
		}
		if cfg.Service.Kafka.ClientID != "" {
			saramaCfg.ClientID = cfg.Service.Kafka.ClientID
		}
	}

	w, err := events.NewKafkaWriter(cfg.Service.Kafka.Brokers, saramaCfg)
	if err != nil {
		zap.S().Errorw("failed to create kafka writer, falling back to stdout", "error", err)
		return &events.StdoutWriter{}
	}

	return w
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
