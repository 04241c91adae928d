package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChatCmd(app *app) *cobra.Command {
	var model string
	var title string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message and print the assistant reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if model != "" {
				app.chat.SetModel(model)
			}

			if _, err := app.auth.Login(cmd.Context(), false); err != nil {
				return err
			}

			app.chat.CreateThread(title)
			reply, err := app.chat.Send(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Target model (default: CHATDRIVE_MODEL)")
	cmd.Flags().StringVar(&title, "title", "", "Thread title")

	return cmd
}
