package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erenbektas/blossom/internal/config"
	"github.com/erenbektas/blossom/internal/logger"
	"github.com/erenbektas/blossom/internal/metrics"
	"github.com/erenbektas/blossom/internal/server"
	"github.com/erenbektas/blossom/internal/slack"
	"github.com/erenbektas/blossom/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Run the webhook server in the foreground.
It listens for Slack and GitHub Sponsors webhooks and for record
API requests until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()
	zl := log.GetZerolog()

	st, err := store.Open(cfg.Database.Path, zl)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	var notifier slack.Notifier
	if cfg.Slack.Enabled {
		notifier = slack.NewClient(cfg.Slack.APIKey, zl)
	} else {
		log.Warn().Msg("Slack posting disabled, replies will only be logged")
		notifier = slack.NewNoopNotifier(zl)
	}

	srv := server.New(
		cfg,
		st,
		notifier,
		slack.NewDadJokeClient(),
		slack.NewLogRemover(zl),
		metrics.NewMetrics(),
		zl,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}
