package watermark

import (
	"bytes"
	"fmt"

	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/permcodec"
	"github.com/philipparndt/stlmark/pkg/stl"
	"go.uber.org/zap"
)

// Extractor reads payloads back from solids.
type Extractor struct {
	Canonicalizer *canon.Canonicalizer
	// MaxFacets rejects larger solids, no limit when zero.
	MaxFacets int
	Logger    *zap.Logger
}

// NewExtractor creates an extractor. A nil logger discards output.
func NewExtractor(c *canon.Canonicalizer, log *zap.Logger) *Extractor {
	return &Extractor{Canonicalizer: c, Logger: log}
}

// Extract recovers the payload carried by the storage order of s.
func (x *Extractor) Extract(s *stl.Solid) ([]byte, error) {
	if err := checkFacets(s, x.MaxFacets); err != nil {
		return nil, err
	}
	c := x.Canonicalizer
	if c == nil {
		c = canon.New(canon.DefaultOptions(), x.Logger)
	}
	ref, err := c.Reference(s)
	if err != nil {
		return nil, err
	}
	payload, err := permcodec.DecodeOrder(ref.Order, s.Order())
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s.Name, err)
	}

	if x.Logger != nil {
		x.Logger.Debug("payload extracted",
			zap.String("solid", s.Name),
			zap.Int("facets", s.Len()),
			zap.Int("payload_bytes", len(payload)),
		)
	}
	return payload, nil
}

// ExtractFile loads the STL file at path and extracts its payload.
func (x *Extractor) ExtractFile(path string) ([]byte, error) {
	s, err := stl.Parse(path)
	if err != nil {
		return nil, err
	}
	payload, err := x.Extract(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return payload, nil
}

// ExtractBytes extracts the payload from the STL file held in data.
func (x *Extractor) ExtractBytes(data []byte) ([]byte, error) {
	s, err := stl.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return x.Extract(s)
}
