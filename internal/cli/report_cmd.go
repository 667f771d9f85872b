package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"siteledger/internal/core"

	"github.com/spf13/cobra"
)

type reportFunc func(ctx context.Context, svc *core.Service) (any, error)

func newReportCmd(flags *globalFlags) *cobra.Command {
	var siteID string
	reports := map[string]reportFunc{
		"low-stock": func(ctx context.Context, svc *core.Service) (any, error) {
			return svc.LowStockItems(ctx, siteID)
		},
		"site-progress": func(ctx context.Context, svc *core.Service) (any, error) {
			return svc.SiteProgressSummary(ctx)
		},
		"supplier-trips": func(ctx context.Context, svc *core.Service) (any, error) {
			return svc.SupplierTripSummary(ctx)
		},
		"dashboard": func(ctx context.Context, svc *core.Service) (any, error) {
			return svc.DashboardCounts(ctx)
		},
	}

	cmd := &cobra.Command{
		Use:       "report {low-stock|site-progress|supplier-trips|dashboard}",
		Short:     "Print an aggregate report as JSON",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"low-stock", "site-progress", "supplier-trips", "dashboard"},
		RunE: func(cmd *cobra.Command, args []string) error {
			report, ok := reports[args[0]]
			if !ok {
				return fmt.Errorf("unknown report %q", args[0])
			}
			rt, err := bootstrap(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			data, err := report(cmd.Context(), rt.svc)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
	cmd.Flags().StringVar(&siteID, "site", "", "limit low-stock to one site")
	return cmd
}
