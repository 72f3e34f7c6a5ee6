package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mail-agent/internal/mailbox"
	"github.com/nhle/mail-agent/internal/metrics"
)

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the mailbox until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			group, groupCtx := errgroup.WithContext(ctx)

			group.Go(func() error {
				err := a.agent.Run(groupCtx)
				// The agent ending, for any reason, stops the metrics listener.
				stop()
				return err
			})

			if len(triggerSignals) > 0 {
				sigs := make(chan os.Signal, 1)
				signal.Notify(sigs, triggerSignals...)
				defer signal.Stop(sigs)
				group.Go(func() error {
					relayTriggers(groupCtx, sigs, a.agent.Trigger, a.log)
					return nil
				})
			}

			if addr := a.cfg.Metrics.Listen; addr != "" {
				srv := metrics.NewServer(addr, a.metrics, a.log)
				srv.AddReadinessCheck("agent", a.agent.Ready)
				srv.OnTrigger(a.agent.Trigger)
				group.Go(func() error {
					return srv.Run(groupCtx)
				})
			}

			if err := group.Wait(); err != nil {
				a.log.Error("agent exited with error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func onceCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single polling cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			return runSingleCycle(ctx, a, cmd)
		},
	}
}

func runSingleCycle(ctx context.Context, a *app, cmd *cobra.Command) error {
	if err := a.mail.Connect(ctx); err != nil {
		if mailbox.IsAuthError(err) {
			return fmt.Errorf("mailbox rejected the credentials, try `mailagent credentials set mail`: %w", err)
		}
		return fmt.Errorf("connecting to mailbox: %w", err)
	}
	defer func() {
		if err := a.mail.Disconnect(); err != nil {
			a.log.Warn("disconnecting mailbox", zap.Error(err))
		}
	}()

	report, err := a.agent.RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: fetched %d, processed %d, skipped %d\n",
		report.ID, report.Fetched, report.Processed, report.Skipped)
	return nil
}
