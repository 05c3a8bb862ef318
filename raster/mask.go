package raster

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mask is a boolean raster with its own validity layer. Invalid pixels are
// masked out (no-data), which is distinct from a valid false.
type Mask struct {
	rows, cols int
	values     []bool
	valid      []bool
	Transform  GeoTransform
}

// NewMask returns an all-invalid mask
func NewMask(rows, cols int, transform GeoTransform) *Mask {
	return &Mask{
		rows:      rows,
		cols:      cols,
		values:    make([]bool, rows*cols),
		valid:     make([]bool, rows*cols),
		Transform: transform,
	}
}

// Dims returns the number of rows and columns
func (m *Mask) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// Value returns the pixel's boolean value, regardless of validity
func (m *Mask) Value(row, col int) bool {
	return m.values[row*m.cols+col]
}

// Valid reports whether the pixel is unmasked
func (m *Mask) Valid(row, col int) bool {
	return m.valid[row*m.cols+col]
}

// Selected reports whether the pixel is both valid and true
func (m *Mask) Selected(row, col int) bool {
	i := row*m.cols + col
	return m.valid[i] && m.values[i]
}

// Set stores a pixel's value and validity
func (m *Mask) Set(row, col int, value, valid bool) {
	i := row*m.cols + col
	m.values[i] = value
	m.valid[i] = valid
}

// Counts returns the number of selected pixels and of valid pixels
func (m *Mask) Counts() (selected, valid int) {
	for i := range m.values {
		if m.valid[i] {
			valid++
			if m.values[i] {
				selected++
			}
		}
	}
	return
}

// And combines two masks of the same shape. A pixel is valid when valid in
// both, and true when true in both. Detect uses it to restrict a scene's data
// mask to its region.
func (m *Mask) And(other *Mask) *Mask {
	out := NewMask(m.rows, m.cols, m.Transform)
	for i := range m.values {
		out.values[i] = m.values[i] && other.values[i]
		out.valid[i] = m.valid[i] && other.valid[i]
	}
	return out
}

// Clip masks out every pixel not selected in region
func (m *Mask) Clip(region *Mask) *Mask {
	out := NewMask(m.rows, m.cols, m.Transform)
	for i := range m.values {
		out.values[i] = m.values[i]
		out.valid[i] = m.valid[i] && region.valid[i] && region.values[i]
	}
	return out
}

// Band renders the mask as 1 for true, 0 for false and NaN for masked pixels
func (m *Mask) Band(name string) *Band {
	data := mat.NewDense(m.rows, m.cols, nil)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			switch {
			case !m.Valid(r, c):
				data.Set(r, c, math.NaN())
			case m.Value(r, c):
				data.Set(r, c, 1)
			}
		}
	}
	return &Band{Name: name, Data: data, Transform: m.Transform}
}

// MaskFromBand reads a 1/0/NaN band back into a mask. Any non-zero value is true.
func MaskFromBand(b *Band) *Mask {
	rows, cols := b.Dims()
	m := NewMask(rows, cols, b.Transform)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if b.Valid(r, c) {
				m.Set(r, c, b.At(r, c) != 0, true)
			}
		}
	}
	return m
}

// DataMask marks every pixel of b as valid, true where b holds data and false
// where it is no-data. Counting its selected pixels gives the scene coverage.
func DataMask(b *Band) *Mask {
	rows, cols := b.Dims()
	m := NewMask(rows, cols, b.Transform)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, b.Valid(r, c), true)
		}
	}
	return m
}

// ClassifyBelow marks every pixel whose value is strictly below threshold.
// The result has the band's shape and Value(r, c) == (value < threshold).
// Only the selected class is data: background and no-data pixels are both
// masked, so Band renders them as NaN rather than 0.
func ClassifyBelow(b *Band, threshold float64) *Mask {
	rows, cols := b.Dims()
	m := NewMask(rows, cols, b.Transform)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			below := b.At(r, c) < threshold
			m.Set(r, c, below, below)
		}
	}
	return m
}
