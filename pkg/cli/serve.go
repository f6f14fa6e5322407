package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/cli/config"
	httpCtrl "github.com/ops-deck/vigil/pkg/controller/http"
	slackCtrl "github.com/ops-deck/vigil/pkg/controller/slack"
	"github.com/ops-deck/vigil/pkg/service/notify"
	"github.com/ops-deck/vigil/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg     config.Server
		slackCfg      config.Slack
		firestoreCfg  config.Firestore
		notifyCfg     config.Notify
		statusPageCfg config.StatusPage
	)

	flags := joinFlags(
		serverCfg.Flags(),
		slackCfg.Flags(),
		firestoreCfg.Flags(),
		notifyCfg.Flags(),
		statusPageCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting vigil server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("slack", slackCfg),
				slog.Any("firestore", firestoreCfg),
				slog.Any("notify", notifyCfg),
				slog.Any("statuspage", statusPageCfg),
			)

			repo, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			slackSvc := slackCfg.Configure()
			if slackSvc == nil {
				return goerr.New("Slack configuration is required. Provide VIGIL_SLACK_OAUTH_TOKEN and VIGIL_SLACK_SIGNING_SECRET")
			}

			routing, err := notifyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load routing configuration")
			}

			router, err := notify.NewRouter(repo, slackSvc, routing,
				notify.WithThrottleWindow(notifyCfg.ThrottleWindow),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create notification router")
			}

			serveCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			incidentOpts := []usecase.IncidentOption{
				usecase.WithChannelProvisioner(slackSvc),
			}
			if worker := statusPageCfg.ConfigureOptional(logger); worker != nil {
				go worker.Start(serveCtx)
				incidentOpts = append(incidentOpts, usecase.WithStatusPage(worker))
			}

			incidentUC := usecase.NewIncident(repo, router, incidentOpts...)
			postmortemUC := usecase.NewPostmortem(repo)

			commands := slackCtrl.NewCommandHandler(incidentUC, postmortemUC, slackSvc, routing)
			slackHandler := slackCtrl.NewHandler(slackCfg.SigningSecret, commands)

			server := httpCtrl.NewServer(ctx, serverCfg.Addr, slackHandler)

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
