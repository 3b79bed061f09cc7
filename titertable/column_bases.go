package titertable

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/acorg/acmacs-chart-n/titer"
)

// MinimumColumnBasis is either "none" (no floor) or a log-titer floor taken
// from a plain titer numeral, e.g. "1280" means log2(1280/10) = 7 — the
// numeral is a titer value like any other, divided by 10 before logging.
type MinimumColumnBasis struct {
	raw   string
	value float64
	none  bool
}

// NoMinimumColumnBasis returns the floor that never raises a column basis.
func NoMinimumColumnBasis() MinimumColumnBasis {
	return MinimumColumnBasis{raw: "none", none: true}
}

// ParseMinimumColumnBasis parses "none" or a positive titer numeral such as
// "1280".
func ParseMinimumColumnBasis(s string) (MinimumColumnBasis, error) {
	if s == "" || s == "none" {
		return NoMinimumColumnBasis(), nil
	}
	tt, err := titer.FromString(s)
	if err != nil || !tt.IsRegular() {
		return MinimumColumnBasis{}, fmt.Errorf("titertable.ParseMinimumColumnBasis(%q): %w", s, ErrInvalidData)
	}
	logged, _ := tt.Logged()

	return MinimumColumnBasis{raw: s, value: logged}, nil
}

// None reports whether m carries no floor.
func (m MinimumColumnBasis) None() bool { return m.none }

// Value returns the log-titer floor; ok is false for NoMinimumColumnBasis.
func (m MinimumColumnBasis) Value() (v float64, ok bool) {
	if m.none {
		return 0, false
	}

	return m.value, true
}

// String returns the textual form this basis was parsed from ("none" or
// the original numeral); used as the computed-column-bases cache key.
func (m MinimumColumnBasis) String() string { return m.raw }

// ColumnBases is a length-N_sr vector of per-serum log-titer floors used as
// the stress objective's distance-to-serum-plane reference.
type ColumnBases struct {
	values []float64
}

// NewColumnBases wraps an already-computed slice; it takes ownership.
func NewColumnBases(values []float64) *ColumnBases {
	return &ColumnBases{values: values}
}

// Size returns the number of sera the basis vector covers.
func (cb *ColumnBases) Size() int { return len(cb.values) }

// Basis returns the column basis for serum s.
func (cb *ColumnBases) Basis(s int) (float64, error) {
	if s < 0 || s >= len(cb.values) {
		return 0, fmt.Errorf("titertable.ColumnBases.Basis(%d): %w", s, ErrIndexOutOfBounds)
	}

	return cb.values[s], nil
}

// ComputeColumnBases reduces table to one float64 per serum: the max over
// antigens of titer(a,s).LoggedForColumnBases() (Dodgy and DontCare cells
// contribute the -1 sentinel and are effectively ignored by the max unless
// every cell in the column is Dodgy/DontCare, in which case the column
// basis is 0), clamped up to minimum.
// Grounded on lvlath/matrix's per-column reduction helpers, generalized
// from a single accumulator loop to the max-reduction this computation
// needs.
func ComputeColumnBases(table *Table, minimum MinimumColumnBasis) (*ColumnBases, error) {
	nAg, nSr := table.NumberOfAntigens(), table.NumberOfSera()
	values := make([]float64, nSr)
	floor, hasFloor := minimum.Value()

	for s := 0; s < nSr; s++ {
		max := 0.0
		seen := false
		for a := 0; a < nAg; a++ {
			v, err := table.Titer(a, s)
			if err != nil {
				return nil, fmt.Errorf("titertable.ComputeColumnBases: %w", err)
			}
			contribution := v.LoggedForColumnBases()
			if contribution < 0 {
				continue
			}
			if !seen || contribution > max {
				max = contribution
				seen = true
			}
		}
		if hasFloor && (!seen || floor > max) {
			max = floor
		}
		values[s] = max
	}

	return NewColumnBases(values), nil
}

// ApplyForced overrides computed's entries with forced wherever forced[s]
// is not NaN. A forced value below minimum's floor is rejected — logged at
// Warn level and the computed (already minimum-clamped) value is kept
// instead: forced bases must dominate the minimum; otherwise the caller
// is warned and the minimum applies.
func ApplyForced(computed *ColumnBases, forced []float64, minimum MinimumColumnBasis) (*ColumnBases, error) {
	if forced == nil {
		return computed, nil
	}
	if len(forced) != computed.Size() {
		return nil, fmt.Errorf("titertable.ApplyForced: forced has %d entries, computed has %d: %w", len(forced), computed.Size(), ErrInvalidData)
	}
	floor, hasFloor := minimum.Value()

	out := make([]float64, computed.Size())
	copy(out, computed.values)
	for s, fv := range forced {
		if math.IsNaN(fv) {
			continue
		}
		if hasFloor && fv < floor {
			log.Warn().Int("serum", s).Float64("forced", fv).Float64("minimum", floor).
				Msg("titertable: forced column basis below minimum, minimum applies")
			continue
		}
		out[s] = fv
	}

	return NewColumnBases(out), nil
}
