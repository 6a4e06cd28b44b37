package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/openscad"
	"github.com/philipparndt/stlmark/pkg/stl"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadSolid reads an STL file, rendering OpenSCAD sources first.
func loadSolid(ctx context.Context, path string) (*stl.Solid, error) {
	if openscad.IsSource(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		logger.Info("rendering OpenSCAD source", zap.String("file", abs))
		return openscad.NewRenderer(filepath.Dir(abs), logger.Log).Load(ctx, abs)
	}
	return stl.Parse(path)
}

func newCanonicalizer() *canon.Canonicalizer {
	return canon.New(cfg.CanonOptions(), logger.Log)
}

// addPayloadFlags registers --payload and --payload-hex on cmd.
func addPayloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("payload", "p", "", "Payload text")
	cmd.Flags().String("payload-hex", "", "Payload as hex bytes")
	cmd.MarkFlagsMutuallyExclusive("payload", "payload-hex")
}

func payloadFromFlags(cmd *cobra.Command) ([]byte, error) {
	if cmd.Flags().Changed("payload-hex") {
		text, _ := cmd.Flags().GetString("payload-hex")
		return parseHexPayload(text)
	}
	text, _ := cmd.Flags().GetString("payload")
	return []byte(text), nil
}

func parseHexPayload(text string) ([]byte, error) {
	p, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid --payload-hex: %w", err)
	}
	return p, nil
}

// formatPayload renders a payload for the terminal: quoted text when it
// is printable, followed by its hex bytes.
func formatPayload(p []byte) string {
	if len(p) == 0 {
		return "(empty)"
	}
	h := hex.EncodeToString(p)
	if !printable(p) {
		return "hex " + h
	}
	return strconv.Quote(string(p)) + " (hex " + h + ")"
}

func printable(p []byte) bool {
	if !utf8.Valid(p) {
		return false
	}
	for _, r := range string(p) {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// errSomeFailed is returned by commands that report failures per file.
var errSomeFailed = errors.New("some files failed")
