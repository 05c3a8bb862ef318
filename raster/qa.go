package raster

import (
	"fmt"
	"math"
)

// QA bits flagging unusable optical pixels
const (
	Landsat8CloudShadowBit = 3
	Landsat8CloudBit       = 5
	Sentinel2CloudBit      = 10
	Sentinel2CirrusBit     = 11
)

// ReflectanceScale converts surface reflectance digital numbers to [0, 1]
const ReflectanceScale = 1.0 / 10000

// MaskQABits returns a copy of b with every pixel whose qa value has any of
// bits set turned into no-data. Pixels with no-data QA are masked as well.
func MaskQABits(b, qa *Band, bits ...uint) (*Band, error) {
	if err := sameShape(b, qa); err != nil {
		return nil, err
	}
	var flags uint64
	for _, bit := range bits {
		if bit > 63 {
			return nil, fmt.Errorf("QA bit %d out of range", bit)
		}
		flags |= 1 << bit
	}

	out := b.Clone(b.Name)
	rows, cols := b.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			q := qa.At(r, c)
			if math.IsNaN(q) || q < 0 || uint64(q)&flags != 0 {
				out.Data.Set(r, c, math.NaN())
			}
		}
	}
	return out, nil
}

// MaskLandsat8QA removes cloud and cloud shadow pixels flagged in pixel_qa
func MaskLandsat8QA(b, pixelQA *Band) (*Band, error) {
	return MaskQABits(b, pixelQA, Landsat8CloudShadowBit, Landsat8CloudBit)
}

// MaskSentinel2QA60 removes opaque cloud and cirrus pixels flagged in QA60
func MaskSentinel2QA60(b, qa60 *Band) (*Band, error) {
	return MaskQABits(b, qa60, Sentinel2CloudBit, Sentinel2CirrusBit)
}
