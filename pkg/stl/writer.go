package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format selects the on-disk STL encoding
type Format int

const (
	FormatASCII Format = iota
	FormatBinary
)

// ParseFormat accepts "ascii" or "binary"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii", "text":
		return FormatASCII, nil
	case "binary", "bin":
		return FormatBinary, nil
	}
	return FormatASCII, fmt.Errorf("unknown STL format %q (expected ascii or binary)", s)
}

func (f Format) String() string {
	if f == FormatBinary {
		return "binary"
	}
	return "ascii"
}

// Encode writes the solid's facets in storage order.
func Encode(w io.Writer, s *Solid, format Format) error {
	bw := bufio.NewWriter(w)
	var err error
	if format == FormatBinary {
		err = encodeBinary(bw, s)
	} else {
		err = encodeASCII(bw, s)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile encodes the solid into a new file at path.
func WriteFile(path string, s *Solid, format Format) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(file, s, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func encodeASCII(w *bufio.Writer, s *Solid) error {
	if _, err := fmt.Fprintf(w, "solid %s\n", s.Name); err != nil {
		return err
	}
	for _, f := range s.Facets() {
		if _, err := w.WriteString(f.Serialize()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "endsolid %s\n", s.Name)
	return err
}

func encodeBinary(w *bufio.Writer, s *Solid) error {
	var header [binaryHeaderSize]byte
	copy(header[:], s.Name)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(s.Len())); err != nil {
		return err
	}

	for _, f := range s.Facets() {
		rec := struct {
			Normal, V1, V2, V3 [3]float32
			Attribute          uint16
		}{
			Normal: [3]float32{float32(f.Normal.X), float32(f.Normal.Y), float32(f.Normal.Z)},
			V1:     [3]float32{float32(f.V1.X), float32(f.V1.Y), float32(f.V1.Z)},
			V2:     [3]float32{float32(f.V2.X), float32(f.V2.Y), float32(f.V2.Z)},
			V3:     [3]float32{float32(f.V3.X), float32(f.V3.Y), float32(f.V3.Z)},
		}
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return err
		}
	}
	return nil
}
