package relax

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/matrix"
)

// flatten copies layout's rows into one flat row-major slice, the hot-path
// representation the optimizer's inner loop works on instead of repeatedly
// calling through *matrix.Dense's bounds-checked accessors.
func flatten(layout *chart.Layout) []float64 {
	rows, cols := layout.Rows(), layout.Cols()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		row, _ := layout.Row(i)
		out = append(out, row...)
	}

	return out
}

// unflatten rebuilds a *chart.Layout from a flat row-major buffer.
func unflatten(x []float64, rows, cols int) (*chart.Layout, error) {
	layout, err := matrix.NewDense(rows, cols)
	if err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		if err := layout.SetRow(i, x[i*cols:(i+1)*cols]); err != nil {
			return nil, err
		}
	}

	return layout, nil
}

// copyInto overwrites dst's rows with src's (same shape), used to leave
// Optimizer.Run's result in the caller's own Layout rather than a detached
// copy.
func copyInto(dst, src *chart.Layout) error {
	for i := 0; i < dst.Rows(); i++ {
		row, err := src.Row(i)
		if err != nil {
			return err
		}
		if err := dst.SetRow(i, row); err != nil {
			return fmt.Errorf("relax.copyInto: %w", err)
		}
	}

	return nil
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}

	return out
}

// addScaled returns a + scale*b.
func addScaled(a, b []float64, scale float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + scale*b[i]
	}

	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

// polakRibiere returns the Polak-Ribiere-plus beta for a CG update:
// max(0, dot(newGrad, newGrad-oldGrad) / dot(oldGrad, oldGrad)).
func polakRibiere(newGrad, oldGrad []float64) float64 {
	denom := dot(oldGrad, oldGrad)
	if denom == 0 {
		return 0
	}
	diff := make([]float64, len(newGrad))
	for i := range diff {
		diff[i] = newGrad[i] - oldGrad[i]
	}
	beta := dot(newGrad, diff) / denom
	if beta < 0 {
		return 0
	}

	return beta
}
