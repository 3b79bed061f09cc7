package serumcircle

import (
	"fmt"
	"math"
	"sort"

	"github.com/acorg/acmacs-chart-n/chart"
)

// DefaultFold is the default protection boundary, expressed in log2 units
// (2 log2-steps == 4-fold).
const DefaultFold = 2.0

// TheoreticalRadius computes the coverage radius implied by antigen a's
// homologous titer against serum s alone: column_basis(s) + fold -
// titer(a,s).LoggedForColumnBases(). Returns ErrNonRegularHomologousTiter
// if the titer is not a plain Regular measurement, or ErrTiterTooLow if
// the protection boundary (logged_titer - fold) is at or below zero.
func TheoreticalRadius(c *chart.Chart, p *chart.Projection, antigen, serum int, fold float64) (float64, error) {
	table := c.Table()
	homologous, err := table.Titer(antigen, serum)
	if err != nil {
		return 0, fmt.Errorf("serumcircle.TheoreticalRadius: %w", err)
	}
	if !homologous.IsRegular() {
		return 0, fmt.Errorf("serumcircle.TheoreticalRadius: %w", ErrNonRegularHomologousTiter)
	}
	logged := homologous.LoggedForColumnBases()
	if logged-fold <= 0 {
		return 0, fmt.Errorf("serumcircle.TheoreticalRadius: %w", ErrTiterTooLow)
	}

	basis, err := c.ColumnBasisForProjection(serum, p)
	if err != nil {
		return 0, fmt.Errorf("serumcircle.TheoreticalRadius: %w", err)
	}

	return basis + fold - logged, nil
}

// antigenDistance is one antigen's map distance from the serum and whether
// its titer protects it (the titer meets or exceeds the protection
// boundary implied by fold).
type antigenDistance struct {
	antigen   int
	distance  float64
	protected bool
}

// EmpiricalRadius sorts antigens (given by index) by map distance from
// serum and searches candidate radii (each a sample distance or the
// midpoint between two consecutive ones) for the one minimizing
// protected_outside + not_protected_inside. Ties
// are averaged.
func EmpiricalRadius(c *chart.Chart, p *chart.Projection, antigens []int, serum int, fold float64) (float64, error) {
	if len(antigens) == 0 {
		return 0, fmt.Errorf("serumcircle.EmpiricalRadius: %w", ErrNoAntigens)
	}

	table := c.Table()
	serumRow, err := p.Layout().Row(c.NumberOfAntigens() + serum)
	if err != nil {
		return 0, fmt.Errorf("serumcircle.EmpiricalRadius: %w", err)
	}

	entries := make([]antigenDistance, 0, len(antigens))
	for _, a := range antigens {
		row, err := p.Layout().Row(a)
		if err != nil {
			return 0, fmt.Errorf("serumcircle.EmpiricalRadius: %w", err)
		}
		if anyNaN(row) || anyNaN(serumRow) {
			continue
		}
		titer, err := table.Titer(a, serum)
		if err != nil {
			return 0, fmt.Errorf("serumcircle.EmpiricalRadius: %w", err)
		}
		logged := titer.LoggedForColumnBases()
		protected := logged >= 0 && logged-fold >= 0
		entries = append(entries, antigenDistance{antigen: a, distance: euclidean(row, serumRow), protected: protected})
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("serumcircle.EmpiricalRadius: %w", ErrNoAntigens)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].distance < entries[j].distance })

	candidates := candidateRadii(entries)
	best := mismatchCount(entries, candidates[0])
	bestRadii := []float64{candidates[0]}
	for _, r := range candidates[1:] {
		m := mismatchCount(entries, r)
		switch {
		case m < best:
			best = m
			bestRadii = []float64{r}
		case m == best:
			bestRadii = append(bestRadii, r)
		}
	}

	var sum float64
	for _, r := range bestRadii {
		sum += r
	}

	return sum / float64(len(bestRadii)), nil
}

// candidateRadii returns every sample distance plus the midpoint between
// each consecutive pair, sorted ascending.
func candidateRadii(entries []antigenDistance) []float64 {
	radii := make([]float64, 0, len(entries)*2)
	for i, e := range entries {
		radii = append(radii, e.distance)
		if i+1 < len(entries) {
			radii = append(radii, (e.distance+entries[i+1].distance)/2)
		}
	}
	sort.Float64s(radii)

	return radii
}

// mismatchCount is protected_outside(r) + not_protected_inside(r): the
// number of titer-protected antigens sitting outside the circle of radius
// r, plus the number of unprotected antigens sitting inside it.
func mismatchCount(entries []antigenDistance, r float64) int {
	var n int
	for _, e := range entries {
		outside := e.distance > r
		if e.protected && outside {
			n++
		} else if !e.protected && !outside {
			n++
		}
	}

	return n
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum)
}

func anyNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}
