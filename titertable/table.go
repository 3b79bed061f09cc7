package titertable

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/acorg/acmacs-chart-n/titer"
)

// Table is the logical (antigen_index, serum_index) -> titer.Titer mapping,
// with optional layers: earlier source tables kept for merge provenance.
// The zero value is not usable; construct with NewDense or NewSparse.
type Table struct {
	store  storage
	layers []*Table
}

// NewDense allocates an nAg x nSr table backed by a dense row-major slice,
// every cell initialized to titer.DontCareTiter().
func NewDense(nAg, nSr int) (*Table, error) {
	if nAg < 0 || nSr < 0 {
		return nil, fmt.Errorf("titertable.NewDense(%d,%d): %w", nAg, nSr, ErrInvalidData)
	}

	return &Table{store: newDenseStorage(nAg, nSr)}, nil
}

// NewDenseFromRows builds a dense table from nAg rows, each of exactly nSr
// titer strings (parsed with titer.FromString). Every row must have the
// same length or ErrInvalidData is returned.
func NewDenseFromRows(rows [][]string) (*Table, error) {
	nAg := len(rows)
	var nSr int
	if nAg > 0 {
		nSr = len(rows[0])
	}
	t, err := NewDense(nAg, nSr)
	if err != nil {
		return nil, err
	}
	for a, row := range rows {
		if len(row) != nSr {
			return nil, fmt.Errorf("titertable.NewDenseFromRows: row %d has %d cells, want %d: %w", a, len(row), nSr, ErrInvalidData)
		}
		for s, cell := range row {
			tt, perr := titer.FromString(cell)
			if perr != nil {
				return nil, fmt.Errorf("titertable.NewDenseFromRows[%d][%d]: %w", a, s, perr)
			}
			t.store.set(a, s, tt)
		}
	}

	return t, nil
}

// NewSparse allocates an nAg x nSr table backed by map-of-map storage;
// absent cells read as titer.DontCareTiter().
func NewSparse(nAg, nSr int) (*Table, error) {
	if nAg < 0 || nSr < 0 {
		return nil, fmt.Errorf("titertable.NewSparse(%d,%d): %w", nAg, nSr, ErrInvalidData)
	}

	return &Table{store: newSparseStorage(nAg, nSr)}, nil
}

// NumberOfAntigens returns the table's row count.
func (t *Table) NumberOfAntigens() int { return t.store.rows() }

// NumberOfSera returns the table's column count.
func (t *Table) NumberOfSera() int { return t.store.cols() }

func (t *Table) checkBounds(a, s int) error {
	if a < 0 || a >= t.store.rows() || s < 0 || s >= t.store.cols() {
		return fmt.Errorf("titertable: (%d,%d) out of bounds for %dx%d: %w", a, s, t.store.rows(), t.store.cols(), ErrIndexOutOfBounds)
	}

	return nil
}

// Titer returns the merged titer at (a, s): the last non-DontCare value
// across layers (most recent wins), falling back to the table's own cell
// if it has no layers.
func (t *Table) Titer(a, s int) (titer.Titer, error) {
	if err := t.checkBounds(a, s); err != nil {
		return titer.Titer{}, fmt.Errorf("titertable.Titer: %w", err)
	}
	if len(t.layers) == 0 {
		return t.store.at(a, s), nil
	}

	result := titer.DontCareTiter()
	for _, layer := range t.layers {
		v := layer.store.at(a, s)
		if !v.IsDontCare() {
			result = v
		}
	}

	return result, nil
}

// SetTiter sets the base (layer-0-less) cell at (a, s). It does not touch
// any layer.
func (t *Table) SetTiter(a, s int, v titer.Titer) error {
	if err := t.checkBounds(a, s); err != nil {
		return fmt.Errorf("titertable.SetTiter: %w", err)
	}
	t.store.set(a, s, v)

	return nil
}

// AddLayer appends a source table as a new layer. The layer's dimensions
// must match the parent's exactly.
func (t *Table) AddLayer(layer *Table) error {
	if layer.NumberOfAntigens() != t.NumberOfAntigens() || layer.NumberOfSera() != t.NumberOfSera() {
		return fmt.Errorf("titertable.AddLayer: layer is %dx%d, parent is %dx%d: %w",
			layer.NumberOfAntigens(), layer.NumberOfSera(), t.NumberOfAntigens(), t.NumberOfSera(), ErrInvalidData)
	}
	t.layers = append(t.layers, layer)

	return nil
}

// NumberOfLayers returns the count of source layers attached to t.
func (t *Table) NumberOfLayers() int { return len(t.layers) }

// Layer returns source layer l itself, as a *Table, so callers (chart's
// antigen/serum removal) can rebuild a re-indexed copy of it.
func (t *Table) Layer(l int) (*Table, error) {
	if l < 0 || l >= len(t.layers) {
		return nil, fmt.Errorf("titertable.Layer(%d): %w", l, ErrIndexOutOfBounds)
	}

	return t.layers[l], nil
}

// BaseTiter returns the table's own cell at (a, s), bypassing layer merge
// (for a table with no layers this is identical to Titer).
func (t *Table) BaseTiter(a, s int) (titer.Titer, error) {
	if err := t.checkBounds(a, s); err != nil {
		return titer.Titer{}, fmt.Errorf("titertable.BaseTiter: %w", err)
	}

	return t.store.at(a, s), nil
}

// TiterOfLayer returns the titer at (a, s) within layer L specifically,
// bypassing the most-recent-wins merge Titer performs.
func (t *Table) TiterOfLayer(l, a, s int) (titer.Titer, error) {
	if l < 0 || l >= len(t.layers) {
		return titer.Titer{}, fmt.Errorf("titertable.TiterOfLayer: layer %d: %w", l, ErrIndexOutOfBounds)
	}
	if err := t.checkBounds(a, s); err != nil {
		return titer.Titer{}, fmt.Errorf("titertable.TiterOfLayer: %w", err)
	}

	return t.layers[l].store.at(a, s), nil
}

// ForEach calls fn for every (antigen, serum, titer) cell whose merged
// value is not DontCare, in ascending (antigen, serum) order.
func (t *Table) ForEach(fn func(a, s int, v titer.Titer)) {
	for a := 0; a < t.NumberOfAntigens(); a++ {
		for s := 0; s < t.NumberOfSera(); s++ {
			v, _ := t.Titer(a, s)
			if !v.IsDontCare() {
				fn(a, s, v)
			}
		}
	}
}

// AntigensSeraOfLayer returns, in ascending order, the antigen and serum
// indices that have at least one non-DontCare cell in layer L.
func (t *Table) AntigensSeraOfLayer(l int) (antigens, sera []int, err error) {
	if l < 0 || l >= len(t.layers) {
		return nil, nil, fmt.Errorf("titertable.AntigensSeraOfLayer: layer %d: %w", l, ErrIndexOutOfBounds)
	}
	layer := t.layers[l]
	agSet := make(map[int]struct{})
	srSet := make(map[int]struct{})
	for a := 0; a < layer.NumberOfAntigens(); a++ {
		for s := 0; s < layer.NumberOfSera(); s++ {
			if !layer.store.at(a, s).IsDontCare() {
				agSet[a] = struct{}{}
				srSet[s] = struct{}{}
			}
		}
	}

	return sortedKeys(agSet), sortedKeys(srSet), nil
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)

	return out
}

// HavingTooFewNumericTiters returns, in a single combined index space
// (antigens 0..N_ag-1 followed by sera N_ag..N_ag+N_sr-1), every point with
// fewer than threshold Regular titers — used by relax to auto-disconnect
// points that cannot be usefully placed.
func (t *Table) HavingTooFewNumericTiters(threshold int) []int {
	nAg, nSr := t.NumberOfAntigens(), t.NumberOfSera()
	agCounts := make([]int, nAg)
	srCounts := make([]int, nSr)
	for a := 0; a < nAg; a++ {
		for s := 0; s < nSr; s++ {
			v, _ := t.Titer(a, s)
			if v.IsRegular() {
				agCounts[a]++
				srCounts[s]++
			}
		}
	}

	var out []int
	for a, c := range agCounts {
		if c < threshold {
			out = append(out, a)
		}
	}
	for s, c := range srCounts {
		if c < threshold {
			out = append(out, nAg+s)
		}
	}

	return out
}

// NumberOfNonDontCares returns the count of merged cells that are not
// DontCare; a table of all DontCare returns 0, so Stress on it is 0.
func (t *Table) NumberOfNonDontCares() int {
	n := 0
	t.ForEach(func(int, int, titer.Titer) { n++ })

	return n
}

// SetProportionOfTitersToDontCare returns a clone of t with a deterministic
// proportion p (in [0,1]) of its non-DontCare base cells replaced by
// titer.DontCareTiter(), walking cells in ascending (a,s) order and
// sampling from a rand.Source seeded with seed. Used for cross-validation
// (map resolution testing); layers are carried over unchanged.
func (t *Table) SetProportionOfTitersToDontCare(p float64, seed int64) (*Table, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("titertable.SetProportionOfTitersToDontCare(%v): %w", p, ErrInvalidData)
	}
	rng := rand.New(rand.NewSource(seed))
	out := &Table{store: t.store.clone(), layers: t.layers}
	for a := 0; a < out.NumberOfAntigens(); a++ {
		for s := 0; s < out.NumberOfSera(); s++ {
			if out.store.at(a, s).IsDontCare() {
				continue
			}
			if rng.Float64() < p {
				out.store.set(a, s, titer.DontCareTiter())
			}
		}
	}

	return out, nil
}
