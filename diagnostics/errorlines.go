package diagnostics

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/stress"
)

// Color tags an ErrorLine by the sign of its residual, matching the
// two-color convention map viewers use: a map distance larger than the
// table demands (positive residual) versus smaller (negative).
type Color uint8

const (
	Positive Color = iota
	Negative
)

func (c Color) String() string {
	if c == Negative {
		return "negative"
	}

	return "positive"
}

// ErrorLine is one titer-implied antigen/serum pair's residual: the
// difference between the two points' map distance and the distance the
// table's titer demands (stress.Record.Target).
type ErrorLine struct {
	Antigen     int
	Serum       int
	Kind        stress.Kind
	Target      float64
	MapDistance float64
	Residual    float64
	Color       Color
}

// Compute builds one ErrorLine per stress.Record p's titer table implies,
// reusing stress.BuildTableDistances for the records.
// clampNegativeTargets matches the corresponding Relax/Stress option: a
// negative raw target (titer well above the column basis) is clamped to
// zero before the residual is computed.
func Compute(c *chart.Chart, p *chart.Projection, clampNegativeTargets bool) ([]ErrorLine, error) {
	td, err := stress.BuildTableDistances(c, p, clampNegativeTargets)
	if err != nil {
		return nil, fmt.Errorf("diagnostics.Compute: %w", err)
	}

	records := td.Records()
	lines := make([]ErrorLine, 0, len(records))
	for _, r := range records {
		iRow, err := p.Layout().Row(r.I)
		if err != nil {
			return nil, fmt.Errorf("diagnostics.Compute: %w", err)
		}
		jRow, err := p.Layout().Row(r.J)
		if err != nil {
			return nil, fmt.Errorf("diagnostics.Compute: %w", err)
		}

		dist := euclidean(iRow, jRow)
		residual := dist - r.Target
		color := Positive
		if residual < 0 {
			color = Negative
		}

		lines = append(lines, ErrorLine{
			Antigen:     r.I,
			Serum:       r.J - c.NumberOfAntigens(),
			Kind:        r.Kind,
			Target:      r.Target,
			MapDistance: dist,
			Residual:    residual,
			Color:       color,
		})
	}

	return lines, nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum)
}
