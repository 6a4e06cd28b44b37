package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/pkg/watermark"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Embed or extract payloads for many files in parallel",
	Long: `Process every file in its own pipeline. A failing file is reported and
does not stop the others. The number of parallel files is set with
--workers or batch.workers in the config file.`,
}

var batchEmbedCmd = &cobra.Command{
	Use:   "embed [file...]",
	Short: "Embed the same payload into every file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatchEmbed,
}

var batchExtractCmd = &cobra.Command{
	Use:   "extract [file...]",
	Short: "Extract the payload of every file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatchExtract,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.AddCommand(batchEmbedCmd, batchExtractCmd)

	addPayloadFlags(batchEmbedCmd)
}

func newBatch() *watermark.Batch {
	return &watermark.Batch{
		Embedder:  newEmbedder(),
		Extractor: watermark.NewExtractor(newCanonicalizer(), logger.Log),
		Workers:   cfg.Batch.Workers,
		Logger:    logger.Log,
	}
}

func runBatchEmbed(cmd *cobra.Command, args []string) error {
	payload, err := payloadFromFlags(cmd)
	if err != nil {
		return err
	}
	jobs := make([]watermark.Job, len(args))
	for i, path := range args {
		jobs[i] = watermark.Job{Input: path, Payload: payload}
	}
	results := newBatch().Embed(cmd.Context(), jobs)
	printResults(cmd.OutOrStdout(), results, true)
	return batchError(results)
}

func runBatchExtract(cmd *cobra.Command, args []string) error {
	results := newBatch().Extract(cmd.Context(), args)
	printResults(cmd.OutOrStdout(), results, false)
	return batchError(results)
}

func printResults(w io.Writer, results []watermark.FileResult, embed bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if embed {
		fmt.Fprintln(tw, "INPUT\tOUTPUT\tTIME\tRESULT")
	} else {
		fmt.Fprintln(tw, "INPUT\tTIME\tPAYLOAD")
	}
	for _, r := range results {
		result := formatPayload(r.Payload)
		if r.Err != nil {
			result = "error: " + r.Err.Error()
		} else if embed {
			result = "ok"
		}
		if embed {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Input, r.Output, r.Duration.Round(time.Millisecond), result)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Input, r.Duration.Round(time.Millisecond), result)
		}
	}
	tw.Flush()
}

func batchError(results []watermark.FileResult) error {
	if n := watermark.Failed(results); n > 0 {
		return fmt.Errorf("%w: %d of %d", errSomeFailed, n, len(results))
	}
	return nil
}
