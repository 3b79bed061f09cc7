package procrustes

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/matrix"
	"github.com/acorg/acmacs-chart-n/matrix/ops"
)

// Pair is one (primary point index, secondary point index) correspondence.
type Pair struct {
	Primary, Secondary int
}

// Options configures an Align call.
type Options struct {
	// Scaling allows a uniform scale factor alongside rotation/reflection
	// and translation.
	Scaling bool
}

// Result is the rigid (or similarity, if Scaling was set) transform that
// best aligns secondary onto primary over their common points, plus its
// residual.
type Result struct {
	Rotation    *chart.Layout // D x D orthonormal matrix (times Scale if scaling)
	Translation []float64
	Scale       float64
	RMSResidual float64
}

// Align computes the Procrustes transform of secondary onto primary using
// the point pairs in common: centered matrices X
// (primary) and Y (secondary) over the common points, SVD of XᵀJY,
// rotation T = V Uᵀ, optional scale
// s = tr(XᵀJYT) / tr(YᵀJY) folded into T, translation
// t = mean(X) - mean(Y)T, and rms_residual over the common points after
// applying the transform.
func Align(primary, secondary *chart.Projection, common []Pair, opts Options) (*Result, error) {
	dims := primary.NumberOfDimensions()
	if secondary.NumberOfDimensions() != dims {
		return nil, fmt.Errorf("procrustes.Align: %w", ErrDimensionMismatch)
	}
	if len(common) == 0 {
		return nil, fmt.Errorf("procrustes.Align: %w", ErrNoCommonPoints)
	}

	x := make([][]float64, len(common))
	y := make([][]float64, len(common))
	for k, pair := range common {
		row, err := primary.Layout().Row(pair.Primary)
		if err != nil {
			return nil, fmt.Errorf("procrustes.Align: %w", err)
		}
		x[k] = row
		row, err = secondary.Layout().Row(pair.Secondary)
		if err != nil {
			return nil, fmt.Errorf("procrustes.Align: %w", err)
		}
		y[k] = row
	}

	meanX := columnMean(x)
	meanY := columnMean(y)
	xc := center(x, meanX)
	yc := center(y, meanY)

	m, err := crossProduct(xc, yc, dims) // XtJY
	if err != nil {
		return nil, fmt.Errorf("procrustes.Align: %w", err)
	}

	u, _, vt, err := ops.SVD(m)
	if err != nil {
		return nil, fmt.Errorf("procrustes.Align: %w", err)
	}
	v, err := transpose(vt)
	if err != nil {
		return nil, fmt.Errorf("procrustes.Align: %w", err)
	}
	ut, err := transpose(u)
	if err != nil {
		return nil, fmt.Errorf("procrustes.Align: %w", err)
	}
	t, err := matMul(v, ut)
	if err != nil {
		return nil, fmt.Errorf("procrustes.Align: %w", err)
	}

	scale := 1.0
	if opts.Scaling {
		xtJY, err := crossProduct(xc, yc, dims)
		if err != nil {
			return nil, fmt.Errorf("procrustes.Align: %w", err)
		}
		xtJYT, err := matMul(xtJY, t)
		if err != nil {
			return nil, fmt.Errorf("procrustes.Align: %w", err)
		}
		ytJY, err := crossProduct(yc, yc, dims)
		if err != nil {
			return nil, fmt.Errorf("procrustes.Align: %w", err)
		}
		den := trace(ytJY)
		if den == 0 {
			return nil, fmt.Errorf("procrustes.Align: %w", ErrDegenerateScale)
		}
		scale = trace(xtJYT) / den
		t = scaleMatrix(t, scale)
	}

	meanYT := vecMatMul(meanY, t)
	translation := make([]float64, dims)
	for d := range translation {
		translation[d] = meanX[d] - meanYT[d]
	}

	var sumSq float64
	for k := range common {
		transformed := vecMatMul(y[k], t)
		for d := range transformed {
			transformed[d] += translation[d]
		}
		for d := 0; d < dims; d++ {
			diff := transformed[d] - x[k][d]
			sumSq += diff * diff
		}
	}
	rms := math.Sqrt(sumSq / float64(len(common)*dims))

	return &Result{Rotation: t, Translation: translation, Scale: scale, RMSResidual: rms}, nil
}

// Apply transforms every row of layout by result's rotation/scale and
// translation (the same formula Align's rms_residual is measured with),
// preserving NaN rows (disconnected points) unchanged.
func Apply(layout *chart.Layout, result *Result) (*chart.Layout, error) {
	rows, dims := layout.Rows(), layout.Cols()
	if result.Rotation.Cols() != dims {
		return nil, fmt.Errorf("procrustes.Apply: %w", ErrDimensionMismatch)
	}

	built := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row, err := layout.Row(i)
		if err != nil {
			return nil, fmt.Errorf("procrustes.Apply: %w", err)
		}
		if anyNaN(row) {
			built[i] = row

			continue
		}
		transformed := vecMatMul(row, result.Rotation)
		for d := range transformed {
			transformed[d] += result.Translation[d]
		}
		built[i] = transformed
	}

	out, err := matrix.NewDenseFromRows(built)
	if err != nil {
		return nil, fmt.Errorf("procrustes.Apply: %w", err)
	}

	return out, nil
}

func anyNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}
