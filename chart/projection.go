package chart

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/matrix"
	"github.com/acorg/acmacs-chart-n/titertable"
)

// Layout is a P x D matrix of real coordinates, one row per point
// (antigens first, then sera). A NaN row marks a disconnected point.
// Layout is exactly a *matrix.Dense, reusing its bounds-checked accessors
// rather than reinventing a coordinate matrix.
type Layout = matrix.Dense

// Transformation is the affine map (rotation/reflection + translation)
// Projection.TransformedLayout applies on read. Identity by default.
type Transformation struct {
	Matrix      *matrix.Dense // D x D; nil means identity
	Translation []float64     // length D; nil means zero
}

// IsIdentity reports whether t carries neither a matrix nor a translation
// (the default). An explicit identity matrix or zero translation still
// reports false.
func (t Transformation) IsIdentity() bool {
	if t.Matrix == nil && t.Translation == nil {
		return true
	}

	return false
}

// ProjectionOption configures a Projection at construction time.
type ProjectionOption func(*Projection)

// WithMinimumColumnBasis sets the minimum column basis this projection was
// relaxed against.
func WithMinimumColumnBasis(mcb titertable.MinimumColumnBasis) ProjectionOption {
	return func(p *Projection) { p.minimumColumnBasis = mcb }
}

// WithForcedColumnBases overrides computed column bases for this
// projection specifically.
func WithForcedColumnBases(forced []float64) ProjectionOption {
	return func(p *Projection) { p.forcedColumnBases = forced }
}

// WithDodgyTiterIsRegular sets the flag that makes Stress and
// TableDistances treat Dodgy titers as Regular for this projection.
func WithDodgyTiterIsRegular(v bool) ProjectionOption {
	return func(p *Projection) { p.dodgyTiterIsRegular = v }
}

// WithStressDiffToStop sets an early-stop threshold for relaxation: if an
// iteration improves stress by less than this amount, the optimizer may
// stop before reaching its gradient-norm tolerance.
func WithStressDiffToStop(v float64) ProjectionOption {
	return func(p *Projection) { p.stressDiffToStop = &v }
}

// Projection is one candidate embedding of a Chart's antigens and sera.
// It never holds a back-pointer to its owning Chart: operations that need
// Chart state (the titer table, column bases) take the Chart as a
// parameter, so a Projection can be cloned, serialized, or handed to a
// worker goroutine independently of its Chart.
type Projection struct {
	layout *Layout

	minimumColumnBasis  titertable.MinimumColumnBasis
	forcedColumnBases   []float64
	transformation      Transformation
	dodgyTiterIsRegular bool
	stressDiffToStop    *float64

	unmovable                map[int]struct{}
	disconnected             map[int]struct{}
	unmovableInLastDimension map[int]struct{}
	avidityAdjusts           map[int]float64

	storedStress    float64
	hasStoredStress bool
}

// NewProjection allocates a projection over nPoints rows and dim columns,
// every coordinate initialized to 0.
func NewProjection(nPoints, dim int, opts ...ProjectionOption) (*Projection, error) {
	layout, err := matrix.NewDense(nPoints, dim)
	if err != nil {
		return nil, fmt.Errorf("chart.NewProjection: %w", err)
	}
	p := &Projection{
		layout:                   layout,
		minimumColumnBasis:       titertable.NoMinimumColumnBasis(),
		unmovable:                make(map[int]struct{}),
		disconnected:             make(map[int]struct{}),
		unmovableInLastDimension: make(map[int]struct{}),
		avidityAdjusts:           make(map[int]float64),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// NewProjectionFromLayout wraps an existing Layout (taking ownership).
func NewProjectionFromLayout(layout *Layout, opts ...ProjectionOption) *Projection {
	p := &Projection{
		layout:                   layout,
		minimumColumnBasis:       titertable.NoMinimumColumnBasis(),
		unmovable:                make(map[int]struct{}),
		disconnected:             make(map[int]struct{}),
		unmovableInLastDimension: make(map[int]struct{}),
		avidityAdjusts:           make(map[int]float64),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Layout returns the projection's owned coordinate matrix.
func (p *Projection) Layout() *Layout { return p.layout }

// SetLayout replaces the projection's coordinate matrix outright, used by
// relax's dimension-annealing step: a change in dimensionality needs a new
// underlying matrix since Dense's column count is fixed at construction.
func (p *Projection) SetLayout(l *Layout) { p.layout = l }

// NumberOfPoints returns the layout's row count.
func (p *Projection) NumberOfPoints() int { return p.layout.Rows() }

// NumberOfDimensions returns the layout's column count.
func (p *Projection) NumberOfDimensions() int { return p.layout.Cols() }

// MinimumColumnBasis returns the floor this projection was relaxed
// against.
func (p *Projection) MinimumColumnBasis() titertable.MinimumColumnBasis { return p.minimumColumnBasis }

// ForcedColumnBases returns the projection-level override, or nil if none.
func (p *Projection) ForcedColumnBases() []float64 { return p.forcedColumnBases }

// DodgyTiterIsRegular reports whether this projection treats Dodgy titers
// as Regular. This flag is Projection-scoped only: Stress and TableDistances read it off the Projection passed
// to them at call time, never off the Chart.
func (p *Projection) DodgyTiterIsRegular() bool { return p.dodgyTiterIsRegular }

// StressDiffToStop returns the early-stop threshold and whether one is set.
func (p *Projection) StressDiffToStop() (float64, bool) {
	if p.stressDiffToStop == nil {
		return 0, false
	}

	return *p.stressDiffToStop, true
}

// SetUnmovable marks point i as held fixed during relaxation (it still
// contributes to stress, but receives zero gradient).
func (p *Projection) SetUnmovable(i int) { p.unmovable[i] = struct{}{} }

// IsUnmovable reports whether point i is held fixed.
func (p *Projection) IsUnmovable(i int) bool { _, ok := p.unmovable[i]; return ok }

// UnmovablePoints returns the unmovable set's members, unordered.
func (p *Projection) UnmovablePoints() []int { return keysOf(p.unmovable) }

// ClearUnmovable releases point i, used by merge's type4 strategy to
// release primary points held fixed during the first relax phase.
func (p *Projection) ClearUnmovable(i int) { delete(p.unmovable, i) }

// SetDisconnected marks point i as excluded from all distances (zero
// stress contribution, zero gradient).
func (p *Projection) SetDisconnected(i int) { p.disconnected[i] = struct{}{} }

// IsDisconnected reports whether point i is excluded from distances.
func (p *Projection) IsDisconnected(i int) bool { _, ok := p.disconnected[i]; return ok }

// DisconnectedPoints returns the disconnected set's members, unordered.
func (p *Projection) DisconnectedPoints() []int { return keysOf(p.disconnected) }

// SetUnmovableInLastDimension marks point i as fixed in its last
// coordinate only.
func (p *Projection) SetUnmovableInLastDimension(i int) {
	p.unmovableInLastDimension[i] = struct{}{}
}

// IsUnmovableInLastDimension reports whether point i is fixed in its last
// coordinate.
func (p *Projection) IsUnmovableInLastDimension(i int) bool {
	_, ok := p.unmovableInLastDimension[i]

	return ok
}

// UnmovableInLastDimensionPoints returns that set's members, unordered.
func (p *Projection) UnmovableInLastDimensionPoints() []int {
	return keysOf(p.unmovableInLastDimension)
}

// SetAvidityAdjust sets point i's per-point log-titer shift.
func (p *Projection) SetAvidityAdjust(i int, shift float64) { p.avidityAdjusts[i] = shift }

// AvidityAdjust returns point i's shift (0 if unset).
func (p *Projection) AvidityAdjust(i int) float64 { return p.avidityAdjusts[i] }

// AvidityAdjusts returns the full sparse shift map; callers must not
// mutate it.
func (p *Projection) AvidityAdjusts() map[int]float64 { return p.avidityAdjusts }

// Transformation returns the projection's affine transform.
func (p *Projection) Transformation() Transformation { return p.transformation }

// SetTransformation replaces the projection's affine transform.
func (p *Projection) SetTransformation(t Transformation) { p.transformation = t }

// StoredStress returns the last stress value Relax (or SetStoredStress)
// recorded, and whether one has been recorded at all.
func (p *Projection) StoredStress() (float64, bool) { return p.storedStress, p.hasStoredStress }

// SetStoredStress records value as the projection's stress, invariant:
// after Relax completes, StoredStress equals recomputing stress on the
// final layout within floating-point tolerance.
func (p *Projection) SetStoredStress(value float64) {
	p.storedStress = value
	p.hasStoredStress = true
}

// TransformedLayout applies the projection's Transformation to a copy of
// Layout and returns it; Layout itself is untouched.
func (p *Projection) TransformedLayout() (*Layout, error) {
	if p.transformation.IsIdentity() {
		return p.layout.Clone(), nil
	}
	rows, dim := p.layout.Rows(), p.layout.Cols()
	out, err := matrix.NewDense(rows, dim)
	if err != nil {
		return nil, fmt.Errorf("chart.Projection.TransformedLayout: %w", err)
	}
	for i := 0; i < rows; i++ {
		row, _ := p.layout.Row(i)
		if anyNaN(row) {
			for d := 0; d < dim; d++ {
				out.MustSet(i, d, math.NaN())
			}
			continue
		}
		transformed := make([]float64, dim)
		if p.transformation.Matrix != nil {
			for r := 0; r < dim; r++ {
				var sum float64
				for c := 0; c < dim; c++ {
					sum += p.transformation.Matrix.MustAt(r, c) * row[c]
				}
				transformed[r] = sum
			}
		} else {
			copy(transformed, row)
		}
		if p.transformation.Translation != nil {
			for d := 0; d < dim; d++ {
				transformed[d] += p.transformation.Translation[d]
			}
		}
		if err := out.SetRow(i, transformed); err != nil {
			return nil, fmt.Errorf("chart.Projection.TransformedLayout: %w", err)
		}
	}

	return out, nil
}

// Clone returns a deep copy: a new Layout, new transformation matrix, and
// copied point sets — used by relax.AvidityTest and
// gridtest.MakeNewProjectionAndRelax, which
// must perturb a projection without mutating the caller's original.
func (p *Projection) Clone() *Projection {
	out := &Projection{
		layout:                   p.layout.Clone(),
		minimumColumnBasis:       p.minimumColumnBasis,
		transformation:           p.transformation,
		dodgyTiterIsRegular:      p.dodgyTiterIsRegular,
		unmovable:                cloneSet(p.unmovable),
		disconnected:             cloneSet(p.disconnected),
		unmovableInLastDimension: cloneSet(p.unmovableInLastDimension),
		avidityAdjusts:           make(map[int]float64, len(p.avidityAdjusts)),
		storedStress:             p.storedStress,
		hasStoredStress:          p.hasStoredStress,
	}
	if p.forcedColumnBases != nil {
		out.forcedColumnBases = append([]float64(nil), p.forcedColumnBases...)
	}
	if p.stressDiffToStop != nil {
		v := *p.stressDiffToStop
		out.stressDiffToStop = &v
	}
	if p.transformation.Matrix != nil {
		out.transformation.Matrix = p.transformation.Matrix.Clone()
	}
	if p.transformation.Translation != nil {
		out.transformation.Translation = append([]float64(nil), p.transformation.Translation...)
	}
	for i, v := range p.avidityAdjusts {
		out.avidityAdjusts[i] = v
	}

	return out
}

func anyNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}

func keysOf(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	return out
}

func cloneSet(set map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}

	return out
}
