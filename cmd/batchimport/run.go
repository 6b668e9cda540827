package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/animelib/catalog/internal/core"
)

var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import the records of a JSON or YAML file",
		Long: `Import every record of --file as --kind and print the report as JSON.

The file holds a list of records: a JSON array, a JSON object with a
"records" array (and optionally a "config" object), or a YAML sequence.
"-" reads JSON from stdin. Flags override the file's config.

With --preview nothing is written: the predicted outcome of every record
is printed instead.`,
		Args: cobra.NoArgs,
		RunE: runImport,
	}

	cmd.Flags().String("kind", "", "Kind of the records (title, studio, genre)")
	cmd.Flags().String("file", "", `Input file (.json, .yaml, .yml, or "-" for stdin)`)
	cmd.Flags().String("on-conflict", string(core.OnConflictSkip), "What to do with records that already exist: skip or update")
	cmd.Flags().Bool("skip-duplicates", true, "Look up each record's natural key before writing")
	cmd.Flags().Bool("log-errors", true, "Persist non-validation failures to the error log")
	cmd.Flags().Int("batch-size", core.DefaultBatchSize, "Records between progress log lines (1-1000)")
	cmd.Flags().Bool("preview", false, "Predict outcomes without writing")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kind, _ := cmd.Flags().GetString("kind")
	path, _ := cmd.Flags().GetString("file")
	preview, _ := cmd.Flags().GetBool("preview")

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	req, err := readInput(path, cmd.InOrStdin(), e.service.DefaultConfig(), e.cfg.Import.MaxRecords)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &req.Config); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if preview {
		report, err := e.service.PreviewBatch(ctx, kind, req.Records, req.Config)
		if err != nil {
			return describe(err)
		}
		return printJSON(out, report)
	}

	report, err := e.service.ImportBatch(ctx, kind, req.Records, req.Config)
	if err != nil {
		return describe(err)
	}

	slog.Info("import finished",
		"batch_id", report.BatchID,
		"status", report.Status,
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	if err := printJSON(out, report); err != nil {
		return err
	}
	if report.Status == core.ReportFailed && report.Total > 0 {
		return errors.Newf("no record of batch %s was imported", report.BatchID)
	}
	return nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, cfg *core.ImportConfig) error {
	flags := cmd.Flags()
	if flags.Changed("on-conflict") {
		v, _ := flags.GetString("on-conflict")
		cfg.OnConflict = core.OnConflict(v)
	}
	if flags.Changed("skip-duplicates") {
		cfg.SkipDuplicates, _ = flags.GetBool("skip-duplicates")
	}
	if flags.Changed("log-errors") {
		cfg.LogErrors, _ = flags.GetBool("log-errors")
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize, _ = flags.GetInt("batch-size")
	}
	return cfg.Validate()
}

// describe turns a whole-batch rejection into the message an operator acts on.
func describe(err error) error {
	msg := core.MapError(err)
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return errors.Newf("%s (%s): %v; hint: %s", msg.Message, msg.Code, err, hints[0])
	}
	return errors.Newf("%s (%s): %v", msg.Message, msg.Code, err)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	return f, nil
}
