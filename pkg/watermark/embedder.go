package watermark

import (
	"bytes"
	"fmt"

	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/permcodec"
	"github.com/philipparndt/stlmark/pkg/stl"
	"go.uber.org/zap"
)

// Embedder writes payloads into solids.
type Embedder struct {
	Canonicalizer *canon.Canonicalizer
	Format        stl.Format
	// Suffix names default output files, DefaultSuffix when empty.
	Suffix string
	// MaxFacets rejects larger solids before any work is done, no limit
	// when zero.
	MaxFacets int
	Logger    *zap.Logger
}

// NewEmbedder creates an embedder with the given settings. A nil logger
// discards output.
func NewEmbedder(c *canon.Canonicalizer, format stl.Format, log *zap.Logger) *Embedder {
	return &Embedder{Canonicalizer: c, Format: format, Logger: log}
}

func (e *Embedder) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Embedder) canonicalizer() *canon.Canonicalizer {
	if e.Canonicalizer == nil {
		return canon.New(canon.DefaultOptions(), e.Logger)
	}
	return e.Canonicalizer
}

// Embed returns a copy of s stored in the order that spells payload, and
// the reference that order was derived from. For binary output the
// geometry is first rounded to float32 so that the reference seen by the
// extractor matches the one used here.
func (e *Embedder) Embed(s *stl.Solid, payload []byte) (*stl.Solid, *canon.Reference, error) {
	if err := checkFacets(s, e.MaxFacets); err != nil {
		return nil, nil, err
	}
	if e.Format == stl.FormatBinary {
		s = s.Float32()
	}
	if limit := permcodec.Capacity(s.Len()); len(payload) > limit {
		return nil, nil, fmt.Errorf("%w: %d bytes, %q holds at most %d", permcodec.ErrCapacityExceeded, len(payload), s.Name, limit)
	}

	ref, err := e.canonicalizer().Reference(s)
	if err != nil {
		return nil, nil, err
	}
	if ref.Ambiguous {
		e.logger().Warn("embedding into an ambiguous reference, the payload will not survive transforms",
			zap.String("solid", s.Name))
	}

	ord, err := permcodec.Encode(ref.Order, payload)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.WithOrder(ord)
	if err != nil {
		return nil, nil, err
	}

	e.logger().Debug("payload embedded",
		zap.String("solid", s.Name),
		zap.Int("facets", s.Len()),
		zap.Int("payload_bytes", len(payload)),
		zap.Int("capacity_bytes", permcodec.Capacity(s.Len())),
	)
	return out, ref, nil
}

// EmbedFile loads in, embeds payload and writes the result to out. An
// empty out writes next to in with the configured suffix.
func (e *Embedder) EmbedFile(in, out string, payload []byte) (*stl.Solid, error) {
	s, err := stl.Parse(in)
	if err != nil {
		return nil, err
	}
	return e.EmbedSolid(s, out, payload)
}

// EmbedSolid embeds payload into s and writes the result to out. An
// empty out derives the name from s.File and the configured suffix, see
// OutputName.
func (e *Embedder) EmbedSolid(s *stl.Solid, out string, payload []byte) (*stl.Solid, error) {
	source := s.File
	if source == "" {
		source = s.Name
	}
	marked, _, err := e.Embed(s, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	if out == "" {
		suffix := e.Suffix
		if suffix == "" {
			suffix = DefaultSuffix
		}
		out = OutputName(s, suffix)
	}
	written, err := Watermark(marked, marked.Order(), out, e.Format)
	if err != nil {
		return nil, err
	}

	e.logger().Info("watermark written",
		zap.String("input", source),
		zap.String("output", out),
		zap.String("format", e.Format.String()),
		zap.Int("payload_bytes", len(payload)),
	)
	return written, nil
}

// EmbedBytes embeds payload into the STL file held in data and returns
// the encoded result.
func (e *Embedder) EmbedBytes(data, payload []byte) ([]byte, error) {
	s, err := stl.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	marked, _, err := e.Embed(s, payload)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := stl.Encode(&buf, marked, e.Format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
