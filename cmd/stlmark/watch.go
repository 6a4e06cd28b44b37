package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/pkg/watcher"
	"github.com/philipparndt/stlmark/pkg/watermark"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch [dir|file...]",
	Short: "Report payloads of STL files whenever they change",
	Long: `Watch files or directories and extract the payload of every STL file
that is written. With --payload or --payload-hex the changed files are
watermarked instead, writing the suffixed copy next to each source.
OpenSCAD sources can be watched with --pattern "*.scad".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addPayloadFlags(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "*.stl", "File pattern for watched directories")
}

func runWatch(cmd *cobra.Command, args []string) error {
	embed := cmd.Flags().Changed("payload") || cmd.Flags().Changed("payload-hex")
	payload, err := payloadFromFlags(cmd)
	if err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger.Log)
	if err != nil {
		return err
	}
	defer fw.Close()

	out := cmd.OutOrStdout()
	extractor := watermark.NewExtractor(newCanonicalizer(), logger.Log)
	embedder := newEmbedder()
	suffix := strings.ToLower(cfg.Output.Suffix + ".stl")

	handle := func(path string) {
		if embed {
			// our own output lands in the watched directory
			if strings.HasSuffix(strings.ToLower(path), suffix) {
				return
			}
			written, err := embedFile(cmd.Context(), embedder, path, "", payload)
			if err != nil {
				logger.Error("watermark failed", zap.String("file", path), zap.Error(err))
				fmt.Fprintf(out, "%s: error: %v\n", path, err)
				return
			}
			fmt.Fprintf(out, "%s: embedded into %s\n", path, written.File)
			return
		}

		model, err := loadSolid(cmd.Context(), path)
		if err == nil {
			var p []byte
			if p, err = extractor.Extract(model); err == nil {
				fmt.Fprintf(out, "%s: %s\n", path, formatPayload(p))
				return
			}
		}
		fmt.Fprintf(out, "%s: error: %v\n", path, err)
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := fw.WatchDir(arg, watchPattern, handle); err != nil {
				return err
			}
			continue
		}
		files = append(files, arg)
	}
	if len(files) > 0 {
		if err := fw.WatchFiles(files, handle); err != nil {
			return err
		}
	}

	logger.Info("watching for changes", zap.Strings("paths", args), zap.Duration("debounce", cfg.Watch.Debounce))
	fmt.Fprintln(out, "Watching for changes, press Ctrl+C to stop")
	if err := fw.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
