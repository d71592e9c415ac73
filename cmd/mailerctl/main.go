package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/unclebandit/mailing-service/internal/app"
	"github.com/unclebandit/mailing-service/internal/config"
	"github.com/unclebandit/mailing-service/internal/logger"
	"github.com/unclebandit/mailing-service/internal/model"
	"github.com/unclebandit/mailing-service/internal/service"
)

var (
	asJSON bool
	userID int
)

// operator is the identity CLI actions run as.
var operator = model.Actor{UserID: 0, Role: model.RoleManager}

// Operations the CLI needs. *app.App satisfies it through its services.
type backend interface {
	Send(ctx context.Context, campaignID int) (*service.DispatchResult, error)
	Disable(ctx context.Context, campaignID int) (*model.Campaign, error)
	Stats(ctx context.Context, scope model.Scope) (*model.Statistics, error)
}

type appBackend struct{ a *app.App }

func (b appBackend) Send(ctx context.Context, id int) (*service.DispatchResult, error) {
	return b.a.Trigger.Fire(ctx, id)
}

func (b appBackend) Disable(ctx context.Context, id int) (*model.Campaign, error) {
	return b.a.Campaigns.DisableCampaign(ctx, operator, id)
}

func (b appBackend) Stats(ctx context.Context, scope model.Scope) (*model.Statistics, error) {
	return b.a.Stats.Aggregate(ctx, scope)
}

func main() {
	root := newRootCmd(func(ctx context.Context) (backend, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		a, err := app.New(ctx, cfg, logger.New(cfg.AppConfig.Env))
		if err != nil {
			return nil, nil, err
		}
		return appBackend{a}, func() { a.Close() }, nil
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type connectFunc func(ctx context.Context) (backend, func(), error)

func newRootCmd(connect connectFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "mailerctl",
		Short:         "Operate mailing campaigns from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON output")

	root.AddCommand(&cobra.Command{
		Use:   "send <campaign-id>",
		Short: "Run one dispatch invocation for a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(connect, func(ctx context.Context, b backend, out io.Writer, id int) error {
			res, err := b.Send(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, res)
			}
			if !res.Dispatched {
				fmt.Fprintf(out, "Campaign %d not dispatchable (status %s)\n", id, res.Status)
				return nil
			}
			fmt.Fprintf(out, "Campaign %d dispatched: %d successful, %d failed, status %s\n",
				id, res.Successful(), res.Failed(), res.Status)
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "disable <campaign-id>",
		Short: "Deactivate a campaign so it is never dispatched again",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(connect, func(ctx context.Context, b backend, out io.Writer, id int) error {
			c, err := b.Disable(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, c)
			}
			fmt.Fprintf(out, "Campaign %d disabled\n", c.ID)
			return nil
		}),
	})

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show campaign and delivery statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, closeFn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			scope := model.Scope{All: true}
			if userID > 0 {
				scope = model.Scope{UserID: userID}
			}
			stats, err := b.Stats(cmd.Context(), scope)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, stats)
			}
			fmt.Fprintf(out, "Campaigns:           %d\n", stats.TotalCampaigns)
			fmt.Fprintf(out, "Attempts:            %d\n", stats.TotalAttempts)
			fmt.Fprintf(out, "  successful:        %d\n", stats.SuccessfulAttempts)
			fmt.Fprintf(out, "  failed:            %d\n", stats.FailedAttempts)
			fmt.Fprintf(out, "Messages sent:       %d\n", stats.MessagesSent)
			return nil
		},
	}
	statsCmd.Flags().IntVar(&userID, "user", 0, "restrict to one member's active campaigns")
	root.AddCommand(statsCmd)

	return root
}

func withBackend(connect connectFunc, fn func(context.Context, backend, io.Writer, int) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid campaign id %q", args[0])
		}
		b, closeFn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd.Context(), b, cmd.OutOrStdout(), id)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
