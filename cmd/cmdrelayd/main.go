// cmdrelayd correlates player command submissions with server feedback and
// reports each command's final outcome to configured webhooks.
//
// The game-server bridge plugin connects over the listen address and streams
// trigger/feedback/quit events; cmdrelayd resolves one outcome per command
// and delivers one Discord-compatible embed per resolved outcome.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cmdrelay/cmdrelay/internal/admin"
	"github.com/cmdrelay/cmdrelay/internal/config"
	"github.com/cmdrelay/cmdrelay/internal/correlator"
	"github.com/cmdrelay/cmdrelay/internal/directory"
	"github.com/cmdrelay/cmdrelay/internal/ingest"
	"github.com/cmdrelay/cmdrelay/internal/notifier"
	"github.com/cmdrelay/cmdrelay/internal/registry"
)

var version = "dev"

func main() {
	var (
		configPath     string
		listenAddr     string
		metricsAddr    string
		webhookTimeout int
		debug          bool
	)

	rootCmd := &cobra.Command{
		Use:     "cmdrelayd",
		Short:   "Relay player command outcomes to webhooks",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, listenAddr, metricsAddr, webhookTimeout, debug)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file.")
	rootCmd.Flags().StringVar(&listenAddr, "listen-address", ":7667", "The address the bridge listener binds to.")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-bind-address", ":9090", "The address the metrics endpoint binds to. Empty disables metrics.")
	rootCmd.Flags().IntVar(&webhookTimeout, "webhook-timeout", 10, "Webhook HTTP request timeout in seconds.")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging (also enabled by the config file's debug flag).")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, listenAddr, metricsAddr string, webhookTimeout int, debug bool) error {
	store, err := config.NewStore(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := buildLogger(debug || store.Snapshot().Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting cmdrelayd",
		zap.String("version", version),
		zap.String("config", configPath),
		zap.String("listen_address", listenAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Delivery pipeline
	sender := notifier.NewWebhookSender(logger, notifier.WebhookSenderConfig{
		TimeoutSeconds: webhookTimeout,
	})
	sender.Start(ctx)
	dispatcher := notifier.NewDispatcher(store, sender, logger)

	// Host integration: the bridge server owns the roster, which backs the
	// known-command and group/link capabilities.
	roster := ingest.NewRoster()
	adminCmd := admin.NewCommand(store, logger)
	bridge := ingest.NewServer(listenAddr, roster, adminCmd, logger)

	dir := directory.New(roster, roster, logger)
	engine := correlator.New(registry.New(), store, roster, dir, dispatcher, logger)

	if metricsAddr != "" {
		go serveMetrics(ctx, metricsAddr, logger)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- bridge.Start(ctx) }()
	go func() { errCh <- engine.Start(ctx, bridge) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			stop()
			sender.Close()
			return err
		}
	}

	// Let queued webhook deliveries drain before exiting.
	sender.Close()
	logger.Info("cmdrelayd stopped")
	return nil
}

// buildLogger creates the production logger, at debug level when requested.
func buildLogger(debug bool) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return logConfig.Build()
}

// serveMetrics exposes the Prometheus registry until the context ends.
func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("Metrics endpoint started", zap.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics endpoint failed", zap.Error(err))
	}
}
