// Package accuracy assesses classified rasters against reference samples
package accuracy

import (
	"fmt"

	"github.com/raviraj-dave96/Compoundflood-road-damage/raster"
	"gonum.org/v1/gonum/mat"
)

// ErrorMatrix is a confusion matrix: rows are actual classes, columns are
// predicted classes
type ErrorMatrix struct {
	counts *mat.Dense
}

// NewErrorMatrix tallies paired samples. Class labels must lie in [0, classes).
func NewErrorMatrix(actual, predicted []int, classes int) (*ErrorMatrix, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("%d actual labels but %d predicted labels", len(actual), len(predicted))
	}
	if classes < 1 {
		return nil, fmt.Errorf("need at least one class, got %d", classes)
	}
	counts := mat.NewDense(classes, classes, nil)
	for i := range actual {
		a, p := actual[i], predicted[i]
		if a < 0 || a >= classes || p < 0 || p >= classes {
			return nil, fmt.Errorf("sample %d has label outside [0, %d): actual=%d predicted=%d", i, classes, a, p)
		}
		counts.Set(a, p, counts.At(a, p)+1)
	}
	return &ErrorMatrix{counts: counts}, nil
}

// CompareMasks builds a two-class matrix (0 = background, 1 = selected).
// The predicted mask only carries the selected class, so coverage decides
// which pixels were classified at all: a pixel is sampled when it is valid in
// the reference and selected in coverage, and is predicted 1 when selected in
// predicted.
func CompareMasks(reference, predicted, coverage *raster.Mask) (*ErrorMatrix, error) {
	rr, rc := reference.Dims()
	for _, m := range []*raster.Mask{predicted, coverage} {
		if pr, pc := m.Dims(); rr != pr || rc != pc {
			return nil, fmt.Errorf("reference mask is %dx%d but compared mask is %dx%d", rr, rc, pr, pc)
		}
	}
	var actual, guessed []int
	for r := 0; r < rr; r++ {
		for c := 0; c < rc; c++ {
			if !reference.Valid(r, c) || !coverage.Selected(r, c) {
				continue
			}
			actual = append(actual, boolClass(reference.Value(r, c)))
			guessed = append(guessed, boolClass(predicted.Selected(r, c)))
		}
	}
	return NewErrorMatrix(actual, guessed, 2)
}

func boolClass(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Classes returns the number of classes
func (m *ErrorMatrix) Classes() int {
	n, _ := m.counts.Dims()
	return n
}

// At returns the number of samples of actual class a predicted as p
func (m *ErrorMatrix) At(a, p int) float64 {
	return m.counts.At(a, p)
}

// Total returns the number of samples
func (m *ErrorMatrix) Total() float64 {
	return mat.Sum(m.counts)
}

// Accuracy is the fraction of samples on the diagonal
func (m *ErrorMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return mat.Trace(m.counts) / total
}

// Kappa is Cohen's kappa: agreement corrected for chance
func (m *ErrorMatrix) Kappa() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	n := m.Classes()
	expected := 0.0
	for i := 0; i < n; i++ {
		expected += mat.Sum(m.counts.RowView(i)) * mat.Sum(m.counts.ColView(i))
	}
	expected /= total * total
	observed := m.Accuracy()
	if expected == 1 {
		return 1
	}
	return (observed - expected) / (1 - expected)
}

// ProducersAccuracy returns, per actual class, the fraction correctly
// predicted (recall). Classes with no samples report 0.
func (m *ErrorMatrix) ProducersAccuracy() []float64 {
	n := m.Classes()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if rowTotal := mat.Sum(m.counts.RowView(i)); rowTotal > 0 {
			out[i] = m.counts.At(i, i) / rowTotal
		}
	}
	return out
}

// ConsumersAccuracy returns, per predicted class, the fraction that was
// correct (precision). Classes never predicted report 0.
func (m *ErrorMatrix) ConsumersAccuracy() []float64 {
	n := m.Classes()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if colTotal := mat.Sum(m.counts.ColView(i)); colTotal > 0 {
			out[i] = m.counts.At(i, i) / colTotal
		}
	}
	return out
}

// Rows returns the raw counts as nested slices, row = actual class
func (m *ErrorMatrix) Rows() [][]float64 {
	n := m.Classes()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m.counts)
	}
	return rows
}
