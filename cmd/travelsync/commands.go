package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/service"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the journey live until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, closeClient, err := a.client()
			if err != nil {
				return err
			}
			defer closeClient()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			unsubscribe := c.Store.Subscribe(func(s service.Snapshot) {
				fmt.Fprintln(out, renderSnapshot(s))
			})
			defer unsubscribe()

			// A failed first pull is not fatal: the push channel and its
			// retries keep running and the next snapshot replaces the error.
			if err := c.Activate(ctx); err != nil {
				slog.Warn("initial status pull failed", "error", err)
			}
			<-ctx.Done()
			c.Deactivate()
			return nil
		},
	}
}

func newStartCmd(a *app) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "start <destination>",
		Short: "Start a journey to a destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *service.Client) error {
				if _, err := c.StartJourney(ctx, args[0], travel.Mode(mode)); err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderSnapshot(c.Snapshot()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "travel mode: smart, active or quiet")
	return cmd
}

func newChooseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "choose <label>",
		Short: "Answer the event awaiting a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *service.Client) error {
				if err := c.FetchStatus(ctx); err != nil {
					return err
				}
				if err := c.SubmitChoice(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderSnapshot(c.Snapshot()))
				return nil
			})
		},
	}
}

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the journey in progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *service.Client) error {
				if err := c.FetchStatus(ctx); err != nil {
					return err
				}
				if err := c.CancelJourney(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), statusStyle.Render("journey cancelled"))
				return nil
			})
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the authoritative journey status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *service.Client) error {
				if err := c.FetchStatus(ctx); err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderSnapshot(c.Snapshot()))
				return nil
			})
		},
	}
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <session-id>",
		Short: "Show a single session by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, closeCache, err := a.remote()
			if err != nil {
				return err
			}
			defer closeCache()

			v, err := api.SessionStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderView(*v))
			return nil
		},
	}
}

// withClient runs fn against a client that only uses the command endpoints.
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *service.Client) error) error {
	c, closeClient, err := a.client()
	if err != nil {
		return err
	}
	defer closeClient()
	return fn(cmd.Context(), c)
}
