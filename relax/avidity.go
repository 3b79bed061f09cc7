package relax

import (
	"fmt"
	"sort"

	"github.com/acorg/acmacs-chart-n/chart"
)

// AvidityTestResult is one candidate avidity adjustment's effect on a
// re-relaxed projection's stress, against a baseline re-relaxed with no
// adjustment.
type AvidityTestResult struct {
	Point      int
	Adjustment float64
	StressDiff float64
}

// AvidityTest cross-validates avidity adjusts (original_source/cc's
// avidity-test.hh): for every (point, adjustment) pair in candidates, it
// clones proj, sets that point's avidity adjust, re-relaxes with opts, and
// reports the stress delta against a baseline projection (also cloned,
// also re-relaxed, with no adjustment at all). Neither the caller's proj
// nor c is ever mutated (testable property: AvidityTest never mutates the
// input Chart/Projection).
func AvidityTest(c *chart.Chart, proj *chart.Projection, candidates map[int][]float64, opts Options) ([]AvidityTestResult, error) {
	baseline := proj.Clone()
	if err := Relax(c, baseline, opts); err != nil {
		return nil, fmt.Errorf("relax.AvidityTest: %w", err)
	}
	baselineStress, _ := baseline.StoredStress()

	points := make([]int, 0, len(candidates))
	for pt := range candidates {
		points = append(points, pt)
	}
	sort.Ints(points)

	var results []AvidityTestResult
	for _, pt := range points {
		for _, adj := range candidates[pt] {
			trial := proj.Clone()
			trial.SetAvidityAdjust(pt, adj)
			if err := Relax(c, trial, opts); err != nil {
				return nil, fmt.Errorf("relax.AvidityTest: %w", err)
			}
			trialStress, _ := trial.StoredStress()
			results = append(results, AvidityTestResult{
				Point:      pt,
				Adjustment: adj,
				StressDiff: trialStress - baselineStress,
			})
		}
	}

	return results, nil
}
