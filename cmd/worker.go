package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/gamestore/services/games/config"
	"example.com/gamestore/services/games/internal/events"
	"example.com/gamestore/services/games/internal/metrics"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to process payment-approved messages from Azure Service Bus and keep the search index fresh`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	d, err := initDependencies(cfg)
	if err != nil {
		return err
	}
	defer d.close()

	if d.notifier == nil {
		return errors.New("worker requires an Azure Service Bus connection string")
	}

	g, ctx := errgroup.WithContext(ctx)

	// Receive approved payments and feed them through the handler chain.
	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.PaymentQueue).Msg("Starting payment-approved processor")
		return d.notifier.ProcessMessages(ctx, func(ctx context.Context, message *azservicebus.ReceivedMessage) error {
			var approved events.PaymentApprovedEvent
			if err := json.Unmarshal(message.Body, &approved); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Malformed payment-approved message")
				return err
			}

			d.metrics.IncrementCounter(metrics.CounterEventsPublished)
			return d.bus.Publish(ctx, approved, events.PaymentApproved)
		})
	})

	// Periodically reindex the catalog to repair search index drift.
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				log.Info().Msg("Running catalog reindex job")
				if err := d.gameService.ReindexAll(ctx); err != nil {
					log.Error().Err(err).Msg("Catalog reindex failed")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
