package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/pkg/configuration"
	"github.com/finenotify/finenotify/pkg/dispatch"
	"github.com/finenotify/finenotify/pkg/whatsapp"
)

func newSendCmd() *cobra.Command {
	var (
		rosterPath string
		reportPath string
		yes        bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Dispatch a roster of fine notices one by one",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			logger := conf.Logger()

			batch, rowErrors, err := dispatch.LoadRoster(rosterPath)
			if err != nil {
				return err
			}
			for _, rowErr := range rowErrors {
				fmt.Fprintln(os.Stderr, "skipped:", rowErr.String())
			}
			fmt.Printf("Loaded %d recipients from %s (%d rows skipped)\n", batch.Len(), rosterPath, len(rowErrors))

			if dryRun {
				for _, item := range batch.Items() {
					fmt.Printf("  #%d %s %s (%s, %s)\n", item.Index, item.Phone, item.FullName, item.Plate, item.Amount)
				}
				return nil
			}
			if !yes && !confirm(cmd, batch.Len()) {
				fmt.Println("Aborted.")
				return nil
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			reconciler := dispatch.NewReconciler(batch, logger)
			observer, err := dispatch.Connect(ctx, conf.Dispatch.ServerURL, reconciler, logger)
			if err != nil {
				return err
			}
			defer observer.Close()
			go func() {
				if listenErr := observer.Listen(ctx); listenErr != nil && ctx.Err() == nil {
					logger.WithError(listenErr).Warn("status stream closed")
				}
			}()

			client := whatsapp.NewClient(whatsapp.Config{
				BaseURL:       conf.WhatsApp.BaseURL,
				PhoneNumberID: conf.WhatsApp.PhoneNumberID,
				AccessToken:   conf.WhatsApp.AccessToken,
				Timeout:       conf.WhatsApp.RequestTimeout,
			})
			sequencer := dispatch.NewSequencer(client, dispatch.SequencerOptions{
				Template: conf.WhatsApp.TemplateName,
				Language: conf.WhatsApp.TemplateLanguage,
				Pacing:   conf.Dispatch.PacingInterval,
				Logger:   logger,
				OnItemFailed: func(item delivery.Item, sendErr error) {
					fmt.Fprintf(os.Stderr, "send failed: #%d %s: %v\n", item.Index, item.Phone, sendErr)
				},
			})
			if err := sequencer.Dispatch(ctx, batch); err != nil {
				return err
			}

			waitForSettlement(ctx, batch, conf.Dispatch.WatchTimeout)
			fmt.Println(dispatch.Summary(batch))

			if reportPath != "" {
				if err := dispatch.WriteReport(reportPath, batch); err != nil {
					return err
				}
				fmt.Println("Report written to", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rosterPath, "roster", "", "Roster spreadsheet (xlsx) with one recipient per row (required)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a delivery report to this xlsx path when done")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the parsed roster without sending anything")
	_ = cmd.MarkFlagRequired("roster")
	return cmd
}

func confirm(cmd *cobra.Command, count int) bool {
	fmt.Printf("About to message %d recipients. Continue? [y/N] ", count)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// waitForSettlement blocks until every item reached a terminal state or the
// watch window expires. Provider receipts keep trickling in after the last
// send, so a batch is rarely settled the moment dispatch returns.
func waitForSettlement(ctx context.Context, batch *dispatch.Batch, timeout time.Duration) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	for {
		if batch.Settled() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			fmt.Fprintln(os.Stderr, "watch window expired before every receipt arrived")
			return
		case <-tick.C:
		}
	}
}
