package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathakanu/memoflow/internal/api"
	"github.com/pathakanu/memoflow/internal/bot"
	"github.com/pathakanu/memoflow/internal/model"
	"github.com/pathakanu/memoflow/internal/twilio"
)

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the WhatsApp webhook and the review scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logger := rt.cfg, rt.logger

	twilioClient := twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, logger)
	memoBot := bot.New(rt.svc, logger, bot.Options{
		Sender:     twilioClient,
		Validator:  twilioClient,
		WebhookURL: cfg.TwilioWebhookURL,
		NotifyTo:   cfg.NotifyWhatsAppTo,
		Location:   cfg.LocalTimezone,
	})

	if cfg.SchedulerEnabled {
		if err := memoBot.StartScheduler(rt.svc.GetSettings(ctx)); err != nil {
			return err
		}
		rt.svc.OnSettingsChanged(func(s model.AppSettings) {
			if err := memoBot.Reschedule(s); err != nil {
				logger.Error().Err(err).Msg("scheduler: reschedule")
			}
		})
		defer memoBot.StopScheduler()
	}

	routerCfg := api.Config{
		AllowedOrigins: cfg.Origins(),
		Location:       cfg.LocalTimezone,
		Metrics:        rt.metrics.Handler(),
	}
	if cfg.TwilioEnabled() {
		routerCfg.Webhook = memoBot.Handler()
	}
	rt.metrics.SetMemoCount(len(rt.svc.ListMemos(ctx)))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(rt.svc, logger, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	return waitForShutdown(server, errc, rt)
}

func waitForShutdown(server *http.Server, errc <-chan error, rt *runtime) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errc:
		rt.logger.Error().Err(err).Msg("server error")
		return err
	case <-stop:
	}
	rt.logger.Info().Msg("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		rt.logger.Error().Err(err).Msg("server shutdown error")
		return err
	}
	return nil
}
