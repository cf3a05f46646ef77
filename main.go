package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	workloadControllers "github.com/zefiro/zefiro-job/api/controllers/workloads"
	workloadApi "github.com/zefiro/zefiro-job/api/workloads"
	"github.com/zefiro/zefiro-job/kube"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/pkg/dispatch"
	"github.com/zefiro/zefiro-job/pkg/notifications"
	"github.com/zefiro/zefiro-job/pkg/registry"
	"github.com/zefiro/zefiro-job/pkg/transport"
	"github.com/zefiro/zefiro-job/router"
)

const shutdownTimeout = 2 * time.Minute

func main() {
	fs := initializeFlagSet()
	var (
		port       = fs.StringP("port", "p", "", "Port where the admin API will be served")
		configFile = fs.StringP("config", "c", strings.TrimSpace(os.Getenv("ZEFIRO_CONFIG_FILE")), "YAML configuration file")
	)
	parseFlagsFromArgs(fs)

	cfg, err := models.NewConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if fs.Changed("port") {
		cfg.Port = *port
	}
	initLogger(cfg)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("zefiro-job stopped")
	}
}

func run(cfg *models.Config) error {
	kubeUtil, err := models.NewKubeUtil(cfg)
	if err != nil {
		return err
	}
	nc, err := nats.Connect(cfg.NatsURL, nats.Name(cfg.ServiceName))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NatsURL, err)
	}
	defer nc.Close()

	gw := kube.NewGateway(kubeUtil)
	workloadRegistry := registry.New(gw)
	defer workloadRegistry.Close()
	notifier := notifications.NewMulti(
		notifications.NewNATSNotifier(nc, cfg.EventsSubject),
		notifications.NewWebhookNotifier(cfg.WebhookURL),
	)
	dispatcher := dispatch.New(gw, workloadRegistry, notifier, dispatch.NewOptions(cfg))

	endpoint, err := transport.NewNATSEndpoint(nc, transport.NATSConfig{
		Name:        cfg.ServiceName,
		Version:     cfg.ServiceVersion,
		Description: "Runs tool containers as Kubernetes Jobs",
	}, dispatcher)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runDone := make(chan error, 1)
	go func() {
		runDone <- dispatcher.Run(ctx, endpoint.Messages())
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.NewServer(workloadControllers.New(workloadApi.New(dispatcher))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("zefiro-job admin API is serving on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Info().Str("namespace", kubeUtil.CurrentNamespace()).Str("service", cfg.ServiceName).Msg("zefiro-job started")
	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case runErr = <-serverErr:
		log.Error().Err(runErr).Msg("admin API server crashed")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := endpoint.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop NATS service")
	}
	<-runDone
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cleanup of workloads failed")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("failed to stop admin API server")
	}
	if err := nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain NATS connection")
	}
	return runErr
}

func initLogger(cfg *models.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond
	if cfg.LogPretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger
}

func initializeFlagSet() *pflag.FlagSet {
	// Flag domain.
	fs := pflag.NewFlagSet("default", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "DESCRIPTION\n")
		fmt.Fprint(os.Stderr, "zefiro-job runs tool containers as Kubernetes Jobs on request.\n")
		fmt.Fprint(os.Stderr, "\n")
		fmt.Fprint(os.Stderr, "FLAGS\n")
		fs.PrintDefaults()
	}
	return fs
}

func parseFlagsFromArgs(fs *pflag.FlagSet) {
	err := fs.Parse(os.Args[1:])
	switch {
	case errors.Is(err, pflag.ErrHelp):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err.Error())
		fs.Usage()
		os.Exit(2)
	}
}
