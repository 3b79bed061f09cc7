package chart

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/acorg/acmacs-chart-n/titertable"
)

// Chart aggregates a titer table with its antigens, sera, and the
// projections optimization has produced against it.
//
// Chart-level operations that delegate to
// another component (relax, make_stress, serum_circle_radius_*) are not
// methods here: Go has no forward-reference-free way to give Chart a
// Relax/MakeStress method without an import cycle (relax and stress both
// need to see inside Chart/Projection). Those live as free functions in
// their owning package instead — relax.MultiStart(c, opts),
// stress.BuildTableDistances(c, p, clamp) (whose result feeds stress.New),
// serumcircle.TheoreticalRadius(c, p, antigen, serum, fold) — each
// taking *Chart as their first argument, which is the idiomatic Go shape
// for "operation lives where its dependencies live."
type Chart struct {
	mu sync.RWMutex

	info    Info
	antigens []Antigen
	sera     []Serum
	table    *titertable.Table

	forcedColumnBases []float64
	minimumColumnBasis titertable.MinimumColumnBasis
	columnBasesCache   map[string]*titertable.ColumnBases

	projections []*Projection
	plotSpec    PlotSpec
}

// New builds a Chart from its antigen list, serum list, and titer table.
// len(antigens) must equal table.NumberOfAntigens(), len(sera) must equal
// table.NumberOfSera(), or ErrInvalidData is returned.
func New(info Info, antigens []Antigen, sera []Serum, table *titertable.Table) (*Chart, error) {
	if len(antigens) != table.NumberOfAntigens() || len(sera) != table.NumberOfSera() {
		return nil, fmt.Errorf("chart.New: %d antigens/%d sera vs table %dx%d: %w",
			len(antigens), len(sera), table.NumberOfAntigens(), table.NumberOfSera(), ErrInvalidData)
	}

	return &Chart{
		info:               info,
		antigens:           append([]Antigen(nil), antigens...),
		sera:                append([]Serum(nil), sera...),
		table:              table,
		minimumColumnBasis: titertable.NoMinimumColumnBasis(),
		columnBasesCache:   make(map[string]*titertable.ColumnBases),
	}, nil
}

// NumberOfAntigens returns N_ag.
func (c *Chart) NumberOfAntigens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.antigens)
}

// NumberOfSera returns N_sr.
func (c *Chart) NumberOfSera() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.sera)
}

// NumberOfPoints returns N_ag + N_sr.
func (c *Chart) NumberOfPoints() int { return c.NumberOfAntigens() + c.NumberOfSera() }

// Antigen returns a copy of antigen i.
func (c *Chart) Antigen(i int) (Antigen, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i < 0 || i >= len(c.antigens) {
		return Antigen{}, fmt.Errorf("chart.Antigen(%d): %w", i, ErrIndexOutOfBounds)
	}

	return c.antigens[i], nil
}

// Antigens returns a copy of the full antigen list.
func (c *Chart) Antigens() []Antigen {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Antigen(nil), c.antigens...)
}

// Serum returns a copy of serum i.
func (c *Chart) Serum(i int) (Serum, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i < 0 || i >= len(c.sera) {
		return Serum{}, fmt.Errorf("chart.Serum(%d): %w", i, ErrIndexOutOfBounds)
	}

	return c.sera[i], nil
}

// Sera returns a copy of the full serum list.
func (c *Chart) Sera() []Serum {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Serum(nil), c.sera...)
}

// Table returns the Chart's titer table.
func (c *Chart) Table() *titertable.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.table
}

// Info returns the Chart's metadata block.
func (c *Chart) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.info
}

// PlotSpec returns the Chart's plot hints.
func (c *Chart) PlotSpec() PlotSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.plotSpec
}

// SetPlotSpec replaces the Chart's plot hints.
func (c *Chart) SetPlotSpec(ps PlotSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.plotSpec = ps
}

// SetForcedColumnBases installs Chart-level forced column bases (NaN
// entries mean "not forced for this serum") and invalidates the cache.
func (c *Chart) SetForcedColumnBases(forced []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if forced != nil && len(forced) != len(c.sera) {
		return fmt.Errorf("chart.SetForcedColumnBases: %d entries, want %d: %w", len(forced), len(c.sera), ErrInvalidData)
	}
	c.forcedColumnBases = forced
	c.columnBasesCache = make(map[string]*titertable.ColumnBases)

	return nil
}

// ForcedColumnBases returns the Chart-level forced column bases installed
// by SetForcedColumnBases, or nil if none are set.
func (c *Chart) ForcedColumnBases() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]float64(nil), c.forcedColumnBases...)
}

// ComputedColumnBases returns the Chart's column bases for minimum,
// combining the computed reduction with any forced overrides. The result
// is cached per Chart keyed by minimum.String();
// useCache=false forces recomputation and refreshes the cache entry.
func (c *Chart) ComputedColumnBases(minimum titertable.MinimumColumnBasis, useCache bool) (*titertable.ColumnBases, error) {
	key := minimum.String()

	c.mu.RLock()
	if useCache {
		if cached, ok := c.columnBasesCache[key]; ok {
			c.mu.RUnlock()

			return cached, nil
		}
	}
	table, forced := c.table, c.forcedColumnBases
	c.mu.RUnlock()

	computed, err := titertable.ComputeColumnBases(table, minimum)
	if err != nil {
		return nil, fmt.Errorf("chart.ComputedColumnBases: %w", err)
	}
	result, err := titertable.ApplyForced(computed, forced, minimum)
	if err != nil {
		return nil, fmt.Errorf("chart.ComputedColumnBases: %w", err)
	}

	c.mu.Lock()
	c.columnBasesCache[key] = result
	c.mu.Unlock()

	return result, nil
}

// ColumnBasis returns the effective column basis for serum, under
// projection projectionNo's own minimum-column-basis/forced overrides if
// it has any, else the Chart-level default.
func (c *Chart) ColumnBasis(serum, projectionNo int) (float64, error) {
	proj, err := c.Projection(projectionNo)
	if err != nil {
		return 0, fmt.Errorf("chart.ColumnBasis: %w", err)
	}

	return c.ColumnBasisForProjection(serum, proj)
}

// ColumnBasisForProjection is ColumnBasis for a Projection not (yet)
// attached to the Chart, used by stress.BuildTableDistances while a
// candidate projection is still being relaxed.
func (c *Chart) ColumnBasisForProjection(serum int, proj *Projection) (float64, error) {
	minimum := proj.MinimumColumnBasis()
	cb, err := c.ComputedColumnBases(minimum, true)
	if err != nil {
		return 0, fmt.Errorf("chart.ColumnBasis: %w", err)
	}
	if forced := proj.ForcedColumnBases(); forced != nil {
		cb, err = titertable.ApplyForced(cb, forced, minimum)
		if err != nil {
			return 0, fmt.Errorf("chart.ColumnBasis: %w", err)
		}
	}

	v, err := cb.Basis(serum)
	if err != nil {
		return 0, fmt.Errorf("chart.ColumnBasis: %w", err)
	}

	return v, nil
}

// AddProjection appends a projection to the Chart under lock; used by
// relax.MultiStart to hand back results from parallel attempts.
func (c *Chart) AddProjection(p *Projection) error {
	if p.NumberOfPoints() != c.NumberOfPoints() {
		return fmt.Errorf("chart.AddProjection: projection has %d points, chart has %d: %w", p.NumberOfPoints(), c.NumberOfPoints(), ErrInvalidData)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projections = append(c.projections, p)

	return nil
}

// Projection returns projection i.
func (c *Chart) Projection(i int) (*Projection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i < 0 || i >= len(c.projections) {
		return nil, fmt.Errorf("chart.Projection(%d): %w", i, ErrIndexOutOfBounds)
	}

	return c.projections[i], nil
}

// Projections returns the Chart's projection list (not copied; callers
// must not mutate the slice itself, though mutating a *Projection's own
// state through its methods is fine and expected).
func (c *Chart) Projections() []*Projection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]*Projection(nil), c.projections...)
}

// NumberOfProjections returns the projection count.
func (c *Chart) NumberOfProjections() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.projections)
}

// SortProjectionsByStress reorders the projection list ascending by
// StoredStress; projections with no stored stress sort last.
func (c *Chart) SortProjectionsByStress() {
	c.mu.Lock()
	defer c.mu.Unlock()

	sort.SliceStable(c.projections, func(i, j int) bool {
		si, iok := c.projections[i].StoredStress()
		sj, jok := c.projections[j].StoredStress()
		if !iok {
			return false
		}
		if !jok {
			return true
		}

		return si < sj
	})
}

// Lineage returns the plurality lineage among antigens with a known
// (non-Unknown) lineage; ties favor Victoria arbitrarily over Yamagata
// only in that they are compared in enum order, matching Go's stable map
// iteration avoidance via an explicit ordered scan.
func (c *Chart) Lineage() Lineage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var victoria, yamagata int
	for _, ag := range c.antigens {
		switch ag.Lineage {
		case LineageVictoria:
			victoria++
		case LineageYamagata:
			yamagata++
		}
	}
	switch {
	case victoria == 0 && yamagata == 0:
		return LineageUnknown
	case victoria >= yamagata:
		return LineageVictoria
	default:
		return LineageYamagata
	}
}

// Description renders the human-readable summary chart-info prints by
// default: "<virus>/<subtype> (<lab>, <assay>) AG:<n_ag> SR:<n_sr>
// <date_min>-<date_max>", falling back to "unknown" for any absent field.
func (c *Chart) Description() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	orUnknown := func(s string) string {
		if s == "" {
			return "unknown"
		}

		return s
	}

	return fmt.Sprintf("%s/%s (%s, %s) AG:%d SR:%d %s-%s",
		orUnknown(c.info.Virus), orUnknown(c.info.Subtype),
		orUnknown(c.info.Lab), orUnknown(c.info.Assay),
		len(c.antigens), len(c.sera),
		orUnknown(c.info.DateMin), orUnknown(c.info.DateMax))
}

// ShowTable writes the titer table as tab-separated text to out: one
// header row of serum names, then one row per antigen. If layerNo is
// non-nil, the layer's own titers are shown instead of the merged table.
func (c *Chart) ShowTable(out io.Writer, layerNo *int) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, err := fmt.Fprint(out, "\t"); err != nil {
		return err
	}
	for i, s := range c.sera {
		sep := "\t"
		if i == len(c.sera)-1 {
			sep = "\n"
		}
		if _, err := fmt.Fprintf(out, "%s%s", s.Name, sep); err != nil {
			return err
		}
	}

	for a, ag := range c.antigens {
		if _, err := fmt.Fprintf(out, "%s\t", ag.Name); err != nil {
			return err
		}
		for s := 0; s < len(c.sera); s++ {
			var (
				titerString string
				err         error
			)
			if layerNo != nil {
				v, terr := c.table.TiterOfLayer(*layerNo, a, s)
				err = terr
				titerString = v.String()
			} else {
				v, terr := c.table.Titer(a, s)
				err = terr
				titerString = v.String()
			}
			if err != nil {
				return fmt.Errorf("chart.ShowTable: %w", err)
			}
			sep := "\t"
			if s == len(c.sera)-1 {
				sep = "\n"
			}
			if _, werr := fmt.Fprintf(out, "%s%s", titerString, sep); werr != nil {
				return werr
			}
		}
	}

	return nil
}
