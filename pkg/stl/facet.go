package stl

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/philipparndt/stlmark/pkg/geometry"
)

// FacetID identifies a facet by its vertex set, independent of the
// vertex winding and of where the facet is stored.
type FacetID [sha256.Size]byte

// String returns the hex digest
func (id FacetID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 8 hex digits, enough for log output
func (id FacetID) Short() string {
	return id.String()[:8]
}

// Compare orders identities bytewise
func (id FacetID) Compare(other FacetID) int {
	return bytes.Compare(id[:], other[:])
}

// Facet is one triangle of a solid. Facets are values and never change
// after construction.
type Facet struct {
	geometry.Triangle
}

// NewFacet builds a facet. A stored normal that is not a unit vector
// agreeing with the vertex winding is replaced by the computed one.
func NewFacet(normal, v1, v2, v3 geometry.Vector3) Facet {
	tri := geometry.NewTriangle(normal, v1, v2, v3)
	computed := tri.CalculateNormal()
	if math.Abs(normal.Length()-1) > 1e-4 || normal.Dot(computed) <= 0 {
		tri.Normal = computed
	}
	return Facet{Triangle: tri}
}

// FacetFromTriangle wraps a triangle, fixing up its normal like NewFacet.
func FacetFromTriangle(t geometry.Triangle) Facet {
	return NewFacet(t.Normal, t.V1, t.V2, t.V3)
}

// ID hashes the three vertices in sorted order.
func (f Facet) ID() FacetID {
	verts := f.Vertices()
	sort.Slice(verts[:], func(i, j int) bool {
		return verts[i].Compare(verts[j], 0) < 0
	})

	h := sha256.New()
	var buf [8]byte
	for _, v := range verts {
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			// -0 and +0 are the same point
			if c == 0 {
				c = 0
			}
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(c))
			h.Write(buf[:])
		}
	}

	var id FacetID
	copy(id[:], h.Sum(nil))
	return id
}

// Serialize renders the facet as an ASCII STL block. Numbers use the
// shortest representation that parses back to the same float64.
func (f Facet) Serialize() string {
	const indent = "    "
	var b strings.Builder
	b.WriteString(indent + "facet normal " + formatVector(f.Normal) + "\n")
	b.WriteString(indent + indent + "outer loop\n")
	for _, v := range f.Vertices() {
		b.WriteString(indent + indent + indent + "vertex " + formatVector(v) + "\n")
	}
	b.WriteString(indent + indent + "endloop\n")
	b.WriteString(indent + "endfacet\n")
	return b.String()
}

func formatVector(v geometry.Vector3) string {
	return formatFloat(v.X) + " " + formatFloat(v.Y) + " " + formatFloat(v.Z)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'e', -1, 64)
}
