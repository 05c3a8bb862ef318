package raster

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// ReadNpy decodes a 2-D float64 .npy array
func ReadNpy(r io.Reader) (*mat.Dense, error) {
	reader, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open npy stream: %w", err)
	}
	if shape := reader.Header.Descr.Shape; len(shape) != 2 || shape[0] == 0 || shape[1] == 0 {
		return nil, fmt.Errorf("expected a non-empty 2-D array, got shape %v", shape)
	}
	data := &mat.Dense{}
	if err = reader.Read(data); err != nil {
		return nil, fmt.Errorf("could not read npy array: %w", err)
	}
	return data, nil
}

// ReadNpyFile loads a band from a .npy file, see NewBand for noData
func ReadNpyFile(path string, name string, transform GeoTransform, noData float64) (*Band, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := ReadNpy(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewBand(name, data, transform, noData), nil
}

// WriteNpy encodes the band's pixels, NaN for no-data
func WriteNpy(w io.Writer, b *Band) error {
	return npyio.Write(w, b.Data)
}

// WriteNpyFile writes the band to path, replacing any existing file
func WriteNpyFile(path string, b *Band) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err = WriteNpy(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
