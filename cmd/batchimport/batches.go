package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/animelib/catalog/internal/core"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List recent import batches",
	Args:  cobra.NoArgs,
	RunE:  runBatches,
}

var errorsCmd = &cobra.Command{
	Use:   "errors <batch-id>",
	Short: "Show the logged errors of one batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runErrors,
}

func init() {
	batchesCmd.Flags().String("kind", "", "Only list batches of this kind")
	batchesCmd.Flags().Int("limit", core.DefaultHistoryLimit, "Number of batches to list")
	batchesCmd.Flags().Int("offset", 0, "Number of batches to skip")
	batchesCmd.Flags().Bool("json", false, "Output JSON")

	errorsCmd.Flags().Int("limit", core.MaxErrorPage, "Number of errors to show")
	errorsCmd.Flags().Bool("json", false, "Output JSON")
}

func runBatches(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	list, err := e.service.ListBatches(cmd.Context(), core.BatchListOptions{Kind: kind, Limit: limit, Offset: offset})
	if err != nil {
		return describe(err)
	}
	if asJSON {
		return printJSON(cmd.OutOrStdout(), list)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH\tKIND\tSTATUS\tTOTAL\tOK\tSKIPPED\tFAILED\tSTARTED\tDURATION")
	for _, b := range list.Batches {
		duration := "-"
		if b.Finished() {
			duration = b.Duration().Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			b.ID, b.Kind, b.Status, b.Total, b.Succeeded, b.Skipped, b.Failed,
			b.StartedAt.Local().Format(time.DateTime), duration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d batches\n", len(list.Batches), list.Total)
	return nil
}

func runErrors(cmd *cobra.Command, args []string) error {
	batchID := args[0]
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	batch, err := e.service.GetBatch(cmd.Context(), batchID)
	if err != nil {
		return describe(err)
	}
	entries, err := e.service.GetBatchErrors(cmd.Context(), batchID, limit, 0)
	if err != nil {
		return describe(err)
	}
	if asJSON {
		return printJSON(cmd.OutOrStdout(), entries)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "batch %s (%s): %s, %d failed of %d\n", batch.ID, batch.Kind, batch.Status, batch.Failed, batch.Total)
	if len(entries) == 0 {
		fmt.Fprintln(out, "no errors were logged")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORD\tCATEGORY\tMESSAGE")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", entry.RecordIndex, entry.Category, entry.Message)
	}
	return tw.Flush()
}
