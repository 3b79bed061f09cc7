package stress

import (
	"fmt"

	"github.com/acorg/acmacs-chart-n/chart"
)

// Kind tags a TableDistances record by the titer kind it was built from.
type Kind uint8

const (
	Regular Kind = iota
	Less
	More
	Dodgy
)

// Record is one antigen-serum distance target: the map distance between
// points I and J (I is always an antigen index, J = N_ag+serum index)
// should approach Target, subject to Kind's penalty shape.
type Record struct {
	I, J   int
	Kind   Kind
	Target float64
}

// TableDistances is the set of distance-target records a Chart's titer
// table implies for one Projection, built once per (Chart, Projection) at
// Stress construction time. Records are grouped by Kind.
type TableDistances struct {
	records []Record
}

// Records returns the records, grouped by Kind.
func (td *TableDistances) Records() []Record { return td.records }

// BuildTableDistances scans c's titer table and, for every cell with a
// non-DontCare merged titer whose endpoints are not in p's disconnected
// set, appends a Record{I=a, J=N_ag+s, Kind, Target}. Target is
// column_basis(s) - titer.Logged(), shifted by any avidity adjusts on a
// and s; clampNegativeToZero clamps a negative Target to 0
// ("mult_antigen_titer_until_column_adjust"). A
// Dodgy cell is included, tagged Dodgy, only when
// p.DodgyTiterIsRegular() is set.
func BuildTableDistances(c *chart.Chart, p *chart.Projection, clampNegativeToZero bool) (*TableDistances, error) {
	nAg, nSr := c.NumberOfAntigens(), c.NumberOfSera()
	if p.NumberOfPoints() != nAg+nSr {
		return nil, fmt.Errorf("stress.BuildTableDistances: projection has %d points, chart has %d: %w", p.NumberOfPoints(), nAg+nSr, ErrDimensionMismatch)
	}

	table := c.Table()
	var records []Record

	for a := 0; a < nAg; a++ {
		if p.IsDisconnected(a) {
			continue
		}
		for s := 0; s < nSr; s++ {
			j := nAg + s
			if p.IsDisconnected(j) {
				continue
			}
			v, err := table.Titer(a, s)
			if err != nil {
				return nil, fmt.Errorf("stress.BuildTableDistances: %w", err)
			}
			if v.IsDontCare() {
				continue
			}

			var kind Kind
			switch {
			case v.IsRegular():
				kind = Regular
			case v.IsLessThan():
				kind = Less
			case v.IsMoreThan():
				kind = More
			case v.IsDodgy():
				if !p.DodgyTiterIsRegular() {
					continue
				}
				kind = Dodgy
			}

			basis, err := c.ColumnBasisForProjection(s, p)
			if err != nil {
				return nil, fmt.Errorf("stress.BuildTableDistances: %w", err)
			}
			logged, err := v.Logged()
			if err != nil {
				return nil, fmt.Errorf("stress.BuildTableDistances: %w", err)
			}
			target := basis - logged - p.AvidityAdjust(a) - p.AvidityAdjust(j)
			if clampNegativeToZero && target < 0 {
				target = 0
			}
			records = append(records, Record{I: a, J: j, Kind: kind, Target: target})
		}
	}

	sortRecordsByKind(records)

	return &TableDistances{records: records}, nil
}

func sortRecordsByKind(records []Record) {
	// A small 4-bucket counting sort keeps contiguous runs per Kind without
	// pulling in sort.Slice's comparator overhead for what is usually a
	// modest record count (hundreds to low thousands of cells).
	var buckets [4][]Record
	for _, r := range records {
		buckets[r.Kind] = append(buckets[r.Kind], r)
	}
	i := 0
	for _, b := range buckets {
		copy(records[i:], b)
		i += len(b)
	}
}
