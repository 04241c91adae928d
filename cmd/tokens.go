package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/chatdrive/internal/domain"
)

func newTokensCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Inspect and maintain the credential pool",
	}

	cmd.AddCommand(
		newTokensListCmd(app),
		newTokensVerifyCmd(app),
	)

	return cmd
}

func newTokensListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pooled credentials (masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.pool.Load(cmd.Context()); err != nil {
				return err
			}

			tokens := app.pool.Tokens()
			fmt.Fprintf(cmd.OutOrStdout(), "credentials: %d\n", len(tokens))
			for i, token := range tokens {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i, token.Masked())
			}

			return nil
		},
	}
}

func newTokensVerifyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Challenge every credential and prune the rejected ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.pool.Load(cmd.Context()); err != nil {
				return err
			}

			checked := app.pool.PoolSize()
			var kept int
			sweep := func(ctx context.Context) error {
				var err error
				kept, err = app.pool.VerifyAndPrune(ctx, func(ctx context.Context, cred domain.Credential) (bool, error) {
					_, valid, err := app.client.ValidateCredential(ctx, cred)
					return valid, err
				})
				return err
			}

			if err := runVerifySpinner(cmd.Context(), cmd.ErrOrStderr(), sweep); err != nil {
				return err
			}

			recordPrune(cmd, app)
			fmt.Fprintf(cmd.OutOrStdout(), "kept %d of %d credentials\n", kept, checked)
			return nil
		},
	}
}

func recordPrune(cmd *cobra.Command, app *app) {
	summary, err := app.summaries.Get(cmd.Context())
	if err != nil {
		summary = domain.RunSummary{}
	}
	summary.LastPrunedAt = app.now()
	summary.PoolSize = app.pool.PoolSize()

	if err := app.summaries.Save(cmd.Context(), summary); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "save run summary: %v\n", err)
	}
}
