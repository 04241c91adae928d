package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/chatdrive/internal/adapters/render/status"
	"github.com/bnema/chatdrive/internal/domain"
)

func newStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the credential pool and the last run summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := statusadapter.View{}

			if err := app.pool.Load(cmd.Context()); err == nil {
				view.Tokens = app.pool.Tokens()
				view.PoolSize = app.pool.PoolSize()
			}

			summary, err := app.summaries.Get(cmd.Context())
			switch {
			case err == nil:
				view.Summary = &summary
			case errors.Is(err, domain.ErrSummaryNotFound):
				// First run; the renderer shows an empty state.
			default:
				return err
			}

			output, err := app.renderStatus(view, statusadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}
