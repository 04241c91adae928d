package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/bnema/chatdrive/internal/domain"
)

func newRunCmd(app *app) *cobra.Command {
	var model string
	var title string
	var inputPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send prompts from stdin (or a file) one at a time",
		Long:  "run reads one prompt per line and sends each through the chat session, waiting for settlement (including any verification delay) before the next. An interrupt stops scheduling further sends.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if model != "" {
				app.chat.SetModel(model)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			input := cmd.InOrStdin()
			if inputPath != "" {
				file, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("open prompt file: %w", err)
				}
				defer file.Close()
				input = file
			}

			if _, err := app.auth.Login(ctx, false); err != nil {
				return err
			}

			pointsBefore, pointsErr := app.client.FetchInferencePoints(ctx)

			app.chat.CreateThread(title)
			limiter := rate.NewLimiter(rate.Every(app.cfg.SendEvery), 1)

			delivered := 0
			failed := 0
			scanner := bufio.NewScanner(input)
			for scanner.Scan() {
				prompt := strings.TrimSpace(scanner.Text())
				if prompt == "" {
					continue
				}

				if err := limiter.Wait(ctx); err != nil {
					break
				}

				reply, err := app.chat.Send(ctx, prompt)
				if err != nil {
					failed++
					if errors.Is(err, domain.ErrNoModelSelected) {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "send failed: %v\n", err)
					continue
				}

				delivered++
				fmt.Fprintln(cmd.OutOrStdout(), reply)
			}
			if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read prompts: %w", err)
			}

			saveRunSummary(cmd, app, delivered, failed, pointsBefore, pointsErr == nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Target model (default: CHATDRIVE_MODEL)")
	cmd.Flags().StringVar(&title, "title", "", "Thread title")
	cmd.Flags().StringVar(&inputPath, "input", "", "Prompt file, one prompt per line (default: stdin)")

	return cmd
}

// saveRunSummary records counters for the status screen. Best effort: a
// failed save is reported but never fails the run.
func saveRunSummary(cmd *cobra.Command, app *app, delivered, failed int, pointsBefore int64, havePoints bool) {
	summary := domain.RunSummary{
		LastRunAt:         app.now(),
		Model:             app.cfg.Model,
		MessagesDelivered: delivered,
		MessagesFailed:    failed,
		PoolSize:          app.pool.PoolSize(),
	}
	if previous, err := app.summaries.Get(cmd.Context()); err == nil {
		summary.LastPrunedAt = previous.LastPrunedAt
	}

	if havePoints {
		if pointsAfter, err := app.client.FetchInferencePoints(cmd.Context()); err == nil && pointsAfter > pointsBefore {
			summary.PointsConsumed = pointsAfter - pointsBefore
		}
	}

	if err := app.summaries.Save(cmd.Context(), summary); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "save run summary: %v\n", err)
	}
}
