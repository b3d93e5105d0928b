package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/viaviktor/rfisys/internal/core/events"
	"github.com/viaviktor/rfisys/internal/mail"
	"github.com/viaviktor/rfisys/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools",
	Long:  `Start and manage worker pools, currently the outbound mail dispatcher.`,
}

var mailWorkerCmd = &cobra.Command{
	Use:   "mail",
	Short: "Start mail dispatch worker pool",
	Long:  `Start the worker pool that delivers invitation and notification emails`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start a standalone event bus that logs everything it receives`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	mailMaxWorkers   int
	mailQueueSize    int
	mailAPIURLFlag   string
	mailAPIKeyFlag   string
	mailFromAddrFlag string
)

func startMailWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.L()

	mailConfig := mail.Config{
		APIURL:      getStringFlag(mailAPIURLFlag, config.Mail.APIURL),
		APIKey:      getStringFlag(mailAPIKeyFlag, config.Mail.APIKey),
		FromAddress: getStringFlag(mailFromAddrFlag, config.Mail.FromAddress),
		SendTimeout: config.Mail.SendTimeout,
		MaxWorkers:  getIntFlag(mailMaxWorkers, config.Mail.WorkerCount),
		QueueSize:   getIntFlag(mailQueueSize, config.Mail.QueueSize),
	}

	lg.Info("starting mail worker",
		"max_workers", mailConfig.MaxWorkers,
		"queue_size", mailConfig.QueueSize,
		"api_url", mailConfig.APIURL)

	client := mail.NewClient(mailConfig, lg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("mail worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down mail worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("mail worker pool shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	if _, err := loadConfig("."); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.L()

	eventBus := events.NewEventBus(lg)
	for _, eventType := range []string{
		events.EventTypeInvitationIssued,
		events.EventTypeRequestAutoApproved,
		events.EventTypeContactRegistered,
	} {
		eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			lg.Info("received event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
	}

	lg.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down event bus", "signal", sig)
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	mailWorkerCmd.Flags().IntVar(&mailMaxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	mailWorkerCmd.Flags().IntVar(&mailQueueSize, "queue-size", 0, "Job queue buffer size (overrides config)")
	mailWorkerCmd.Flags().StringVar(&mailAPIURLFlag, "api-url", "", "Mail API URL (overrides config)")
	mailWorkerCmd.Flags().StringVar(&mailAPIKeyFlag, "api-key", "", "Mail API key (overrides config)")
	mailWorkerCmd.Flags().StringVar(&mailFromAddrFlag, "from", "", "Sender address (overrides config)")

	workerCmd.AddCommand(mailWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
