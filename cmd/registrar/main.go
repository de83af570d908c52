// Command registrar runs the account-linking service: the OAuth
// handshake endpoints, the identity directory API and the background
// session sweeper.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/snapcal/registrar/internal/config"
	"github.com/snapcal/registrar/internal/http/router"
	"github.com/snapcal/registrar/internal/http/services"
	"github.com/snapcal/registrar/internal/http/services/link"
	"github.com/snapcal/registrar/internal/notify"
	"github.com/snapcal/registrar/internal/oauth/google"
	"github.com/snapcal/registrar/internal/observability/logger"
	"github.com/snapcal/registrar/internal/store"
	"github.com/snapcal/registrar/internal/sweep"
)

var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.L().Fatal("failed to load configuration", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "registrar",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open stores", logger.Err(err))
	}
	defer stores.Close()

	var provider link.ProviderClient
	if cfg.GoogleConfigured() {
		provider = link.NewGoogleProvider(google.New(
			cfg.Google.ClientID,
			cfg.Google.ClientSecret,
			cfg.Google.RedirectURL,
			nil,
		))
	} else {
		log.Warn("google credentials absent, link initiation will be refused")
	}

	var notifier notify.Notifier
	switch cfg.Notify.Kind {
	case "discord":
		notifier = notify.NewDiscord(cfg.Notify.Discord.BotToken, cfg.Notify.Discord.APIBase)
	default:
		notifier = notify.Noop{}
	}

	svcs := services.New(services.Deps{
		Sessions:        stores.Sessions,
		Identities:      stores.Identities,
		Provider:        provider,
		Notifier:        notifier,
		SessionTTL:      cfg.SessionTTL(),
		ExchangeTimeout: cfg.ExchangeTimeout(),
	})

	sweeper := sweep.New(stores.Sessions, cfg.Sessions.SweepCron)
	if err := sweeper.Start(); err != nil {
		log.Fatal("failed to start session sweeper", logger.Err(err))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.New(cfg, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sweeper.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited with error", logger.Err(err))
	}
	log.Info("server stopped")
}
