package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/stlmark/pkg/geometry"
)

const (
	binaryHeaderSize = 80
	binaryFacetSize  = 50
)

// Parse reads an STL file and returns a Solid whose storage order is the
// order of the facets in the file.
// It automatically detects whether the file is ASCII or binary format
func Parse(filename string) (*Solid, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	solid, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	solid.File = filename
	return solid, nil
}

// Decode reads an ASCII or binary STL solid from r.
func Decode(r io.Reader) (*Solid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	if isBinary(data) {
		return parseBinary(bytes.NewReader(data))
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCII(bytes.NewReader(data))
	}
	return parseBinary(bytes.NewReader(data))
}

// isBinary checks the facet count in the header against the data size.
// Some exporters start binary headers with "solid", so the prefix alone
// does not decide the format.
func isBinary(data []byte) bool {
	if len(data) < binaryHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[binaryHeaderSize:])
	return int64(binaryHeaderSize+4)+int64(count)*binaryFacetSize == int64(len(data))
}

// parseASCII parses an ASCII STL file
func parseASCII(reader io.Reader) (*Solid, error) {
	scanner := bufio.NewScanner(reader)

	var (
		name          string
		facets        []Facet
		currentNormal geometry.Vector3
		vertices      []geometry.Vector3
		inFacet       bool
		lineNo        int
	)

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())

		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}

		case "facet":
			if len(fields) < 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: line %d: expected 'facet normal x y z'", ErrMalformedSTL, lineNo)
			}
			n, err := parseVector(fields[2:5])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSTL, lineNo, err)
			}
			currentNormal = n
			vertices = vertices[:0]
			inFacet = true

		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: expected 'vertex x y z'", ErrMalformedSTL, lineNo)
			}
			v, err := parseVector(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSTL, lineNo, err)
			}
			vertices = append(vertices, v)

		case "endloop":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices, want 3", ErrMalformedSTL, lineNo, len(vertices))
			}

		case "endfacet":
			if !inFacet || len(vertices) != 3 {
				return nil, fmt.Errorf("%w: line %d: incomplete facet", ErrMalformedSTL, lineNo)
			}
			facets = append(facets, NewFacet(currentNormal, vertices[0], vertices[1], vertices[2]))
			vertices = vertices[:0]
			inFacet = false
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	if inFacet {
		return nil, fmt.Errorf("%w: unterminated facet at end of input", ErrMalformedSTL)
	}

	return NewSolid(name, facets), nil
}

func parseVector(fields []string) (geometry.Vector3, error) {
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Vector3{}, fmt.Errorf("bad number %q", f)
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

// parseBinary parses a binary STL file
func parseBinary(reader io.Reader) (*Solid, error) {
	header := make([]byte, binaryHeaderSize)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrMalformedSTL, err)
	}
	name := strings.TrimSpace(string(bytes.TrimRight(header, "\x00")))

	var triangleCount uint32
	if err := binary.Read(reader, binary.LittleEndian, &triangleCount); err != nil {
		return nil, fmt.Errorf("%w: failed to read triangle count: %v", ErrMalformedSTL, err)
	}

	facets := make([]Facet, 0, triangleCount)
	for i := uint32(0); i < triangleCount; i++ {
		var rec struct {
			Normal, V1, V2, V3 [3]float32
			Attribute          uint16
		}
		if err := binary.Read(reader, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: failed to read triangle %d: %v", ErrMalformedSTL, i, err)
		}
		facets = append(facets, NewFacet(vec32(rec.Normal), vec32(rec.V1), vec32(rec.V2), vec32(rec.V3)))
	}

	return NewSolid(name, facets), nil
}

func vec32(v [3]float32) geometry.Vector3 {
	return geometry.NewVector3(float64(v[0]), float64(v[1]), float64(v[2]))
}
