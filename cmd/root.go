package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chatdrive",
		Short:         "chatdrive: drive an automated chat session over a flaky service",
		Long:          "chatdrive sends prompts to a remote chat service through a pool of rotating session credentials, retrying transient failures and verifying aborted streams against the account's usage counter.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newChatCmd(app),
		newRunCmd(app),
		newTokensCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}
