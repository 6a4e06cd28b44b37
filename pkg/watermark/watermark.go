// Package watermark hides payloads in the storage order of STL facets and
// reads them back.
//
// The embedder computes the canonical reference order of a solid, turns
// the payload into a permutation of it and stores the facets in that
// order. The extractor recomputes the reference from whatever file it is
// given and ranks the order found on disk against it. Rotating or moving
// the solid does not change its reference, so the payload survives rigid
// transforms.
package watermark

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/philipparndt/stlmark/pkg/stl"
)

// DefaultSuffix is appended to the base name of watermarked files.
const DefaultSuffix = "_wm"

// ErrTooManyFacets is returned when a solid exceeds the facet limit of
// an Embedder or Extractor.
var ErrTooManyFacets = errors.New("too many facets")

func checkFacets(s *stl.Solid, limit int) error {
	if limit > 0 && s.Len() > limit {
		return fmt.Errorf("%w: %q has %d, the limit is %d", ErrTooManyFacets, s.Name, s.Len(), limit)
	}
	return nil
}

// Watermark stores the solid's facets in the given order and writes the
// result. ord lists arena indices of s. An empty fileName writes next to
// the source file, see OutputName. The returned solid is the reordered
// copy, s itself is not modified.
func Watermark(s *stl.Solid, ord []int, fileName string, format stl.Format) (*stl.Solid, error) {
	out, err := s.WithOrder(ord)
	if err != nil {
		return nil, err
	}
	if fileName == "" {
		fileName = OutputName(s, DefaultSuffix)
	}
	if err := stl.WriteFile(fileName, out, format); err != nil {
		return nil, err
	}
	out.File = fileName
	return out, nil
}

// OutputName derives the default output path from the solid's source
// file, e.g. parts/gear.stl becomes parts/gear_wm.stl. Solids that were
// not loaded from a file are named after the solid itself.
func OutputName(s *stl.Solid, suffix string) string {
	if s.File == "" {
		name := s.Name
		if name == "" {
			name = "solid"
		}
		return name + suffix + ".stl"
	}
	dir := filepath.Dir(s.File)
	base := strings.TrimSuffix(filepath.Base(s.File), filepath.Ext(s.File))
	return filepath.Join(dir, base+suffix+".stl")
}

// OrderFromIDs converts a storage order given as facet identities into
// arena indices of s. Every facet of s must be named exactly once.
func OrderFromIDs(s *stl.Solid, ids []stl.FacetID) ([]int, error) {
	if s.HasDuplicates() {
		return nil, fmt.Errorf("%w: solid contains duplicate facets", stl.ErrFacetSetMismatch)
	}
	if len(ids) != s.Len() {
		return nil, fmt.Errorf("%w: %d identities for %d facets", stl.ErrFacetSetMismatch, len(ids), s.Len())
	}
	ord := make([]int, len(ids))
	for i, id := range ids {
		idx, ok := s.IndexOf(id)
		if !ok {
			return nil, fmt.Errorf("%w: facet %s is not part of %q", stl.ErrFacetSetMismatch, id.Short(), s.Name)
		}
		ord[i] = idx
	}
	// repeated identities leave other facets out, WithOrder reports that
	return ord, nil
}
