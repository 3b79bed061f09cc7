package resolutiontest

import (
	"math"

	"github.com/acorg/acmacs-chart-n/titer"
	"github.com/acorg/acmacs-chart-n/titertable"
)

// droppedEntry is one titer that master carried but trial replaced with
// DontCare.
type droppedEntry struct {
	antigen, serum int
	titer          titer.Titer
}

// droppedCells walks master and trial in lockstep, collecting every cell
// where master held a non-DontCare titer and trial no longer does.
func droppedCells(master, trial *titertable.Table) ([]droppedEntry, error) {
	var out []droppedEntry
	for a := 0; a < master.NumberOfAntigens(); a++ {
		for s := 0; s < master.NumberOfSera(); s++ {
			mv, err := master.Titer(a, s)
			if err != nil {
				return nil, err
			}
			if mv.IsDontCare() {
				continue
			}
			tv, err := trial.Titer(a, s)
			if err != nil {
				return nil, err
			}
			if tv.IsDontCare() {
				out = append(out, droppedEntry{antigen: a, serum: s, titer: mv})
			}
		}
	}

	return out, nil
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

// meanAbsoluteErrorAndSD returns the mean and population SD of |predicted -
// master| over paired samples.
func meanAbsoluteErrorAndSD(predicted, master []float64) (mean, sd float64) {
	if len(predicted) == 0 {
		return 0, 0
	}
	errs := make([]float64, len(predicted))
	for i := range predicted {
		errs[i] = math.Abs(predicted[i] - master[i])
	}

	return meanAndSD(errs)
}

func meanAndSD(values []float64) (mean, sd float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return mean, math.Sqrt(sq / float64(len(values)))
}

// pearsonCorrelation returns 0 for fewer than two samples or zero variance
// on either side, rather than NaN.
func pearsonCorrelation(x, y []float64) float64 {
	n := len(x)
	if n < 2 {
		return 0
	}

	mx, _ := meanAndSD(x)
	my, _ := meanAndSD(y)

	var num, dx2, dy2 float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	if dx2 == 0 || dy2 == 0 {
		return 0
	}

	return num / math.Sqrt(dx2*dy2)
}
