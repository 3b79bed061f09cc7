package chart

import (
	"fmt"

	"github.com/acorg/acmacs-chart-n/matrix"
	"github.com/acorg/acmacs-chart-n/titertable"
)

// RemoveAntigens removes the antigens at indices (deduplicated, order
// irrelevant) and re-indexes the titer table, every layer, every
// projection's layout, and every projection's point sets through the same
// compaction map. Removing antigen k never changes the titer a surviving
// (a,s) pair reports, only its index (testable property 12, SPEC_FULL
// section 7).
func (c *Chart) RemoveAntigens(indices []int) error {
	return c.removePoints(indices, nil)
}

// RemoveSera removes the sera at indices, analogous to RemoveAntigens.
func (c *Chart) RemoveSera(indices []int) error {
	return c.removePoints(nil, indices)
}

func toRemoveSet(indices []int, n int) (map[int]struct{}, error) {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("chart: index %d out of %d: %w", i, n, ErrIndexOutOfBounds)
		}
		set[i] = struct{}{}
	}

	return set, nil
}

// compactionMap returns, for n original indices minus removed, a slice
// oldToNew of length n where oldToNew[old] is the new index, or -1 if old
// was removed.
func compactionMap(n int, removed map[int]struct{}) []int {
	oldToNew := make([]int, n)
	next := 0
	for old := 0; old < n; old++ {
		if _, gone := removed[old]; gone {
			oldToNew[old] = -1
			continue
		}
		oldToNew[old] = next
		next++
	}

	return oldToNew
}

func (c *Chart) removePoints(agIndices, srIndices []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	agRemoved, err := toRemoveSet(agIndices, len(c.antigens))
	if err != nil {
		return fmt.Errorf("chart.removePoints: %w", err)
	}
	srRemoved, err := toRemoveSet(srIndices, len(c.sera))
	if err != nil {
		return fmt.Errorf("chart.removePoints: %w", err)
	}
	if len(agRemoved) == 0 && len(srRemoved) == 0 {
		return nil
	}

	nAg, nSr := len(c.antigens), len(c.sera)
	agMap := compactionMap(nAg, agRemoved)
	srMap := compactionMap(nSr, srRemoved)
	newNAg, newNSr := nAg-len(agRemoved), nSr-len(srRemoved)

	newTable, err := rebuildTable(c.table, agMap, srMap, newNAg, newNSr)
	if err != nil {
		return fmt.Errorf("chart.removePoints: %w", err)
	}

	newAntigens := make([]Antigen, 0, newNAg)
	for old, ag := range c.antigens {
		if agMap[old] >= 0 {
			newAntigens = append(newAntigens, ag)
		}
	}
	newSera := make([]Serum, 0, newNSr)
	for old, s := range c.sera {
		if srMap[old] >= 0 {
			newSera = append(newSera, s)
		}
	}

	// combined point-index remap: antigens first, then sera.
	pointMap := make([]int, nAg+nSr)
	for old := 0; old < nAg; old++ {
		pointMap[old] = agMap[old]
	}
	for old := 0; old < nSr; old++ {
		if srMap[old] < 0 {
			pointMap[nAg+old] = -1
		} else {
			pointMap[nAg+old] = newNAg + srMap[old]
		}
	}

	for _, p := range c.projections {
		if err := remapProjection(p, pointMap, newNAg+newNSr); err != nil {
			return fmt.Errorf("chart.removePoints: %w", err)
		}
	}

	if c.forcedColumnBases != nil {
		newForced := make([]float64, newNSr)
		for old, v := range c.forcedColumnBases {
			if srMap[old] >= 0 {
				newForced[srMap[old]] = v
			}
		}
		c.forcedColumnBases = newForced
	}

	c.table = newTable
	c.antigens = newAntigens
	c.sera = newSera
	c.columnBasesCache = make(map[string]*titertable.ColumnBases)

	return nil
}

func rebuildTable(old *titertable.Table, agMap, srMap []int, newNAg, newNSr int) (*titertable.Table, error) {
	newTable, err := titertable.NewDense(newNAg, newNSr)
	if err != nil {
		return nil, err
	}
	if err := copyBaseCells(old, newTable, agMap, srMap); err != nil {
		return nil, err
	}

	for l := 0; l < old.NumberOfLayers(); l++ {
		oldLayer, err := old.Layer(l)
		if err != nil {
			return nil, err
		}
		newLayer, err := titertable.NewDense(newNAg, newNSr)
		if err != nil {
			return nil, err
		}
		if err := copyBaseCells(oldLayer, newLayer, agMap, srMap); err != nil {
			return nil, err
		}
		if err := newTable.AddLayer(newLayer); err != nil {
			return nil, err
		}
	}

	return newTable, nil
}

func copyBaseCells(src, dst *titertable.Table, agMap, srMap []int) error {
	for a := 0; a < src.NumberOfAntigens(); a++ {
		na := agMap[a]
		if na < 0 {
			continue
		}
		for s := 0; s < src.NumberOfSera(); s++ {
			ns := srMap[s]
			if ns < 0 {
				continue
			}
			v, err := src.BaseTiter(a, s)
			if err != nil {
				return err
			}
			if v.IsDontCare() {
				continue
			}
			if err := dst.SetTiter(na, ns, v); err != nil {
				return err
			}
		}
	}

	return nil
}

func remapProjection(p *Projection, pointMap []int, newNPoints int) error {
	newLayout, err := newLayoutFromMap(p.layout, pointMap, newNPoints)
	if err != nil {
		return err
	}
	p.layout = newLayout
	p.unmovable = remapSet(p.unmovable, pointMap)
	p.disconnected = remapSet(p.disconnected, pointMap)
	p.unmovableInLastDimension = remapSet(p.unmovableInLastDimension, pointMap)

	newAvidity := make(map[int]float64, len(p.avidityAdjusts))
	for old, v := range p.avidityAdjusts {
		if nw := pointMap[old]; nw >= 0 {
			newAvidity[nw] = v
		}
	}
	p.avidityAdjusts = newAvidity

	return nil
}

func newLayoutFromMap(layout *Layout, pointMap []int, newNPoints int) (*Layout, error) {
	dim := layout.Cols()
	out, err := matrix.NewDense(newNPoints, dim)
	if err != nil {
		return nil, err
	}
	for old := 0; old < layout.Rows(); old++ {
		nw := pointMap[old]
		if nw < 0 {
			continue
		}
		row, err := layout.Row(old)
		if err != nil {
			return nil, err
		}
		if err := out.SetRow(nw, row); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func remapSet(set map[int]struct{}, pointMap []int) map[int]struct{} {
	out := make(map[int]struct{}, len(set))
	for old := range set {
		if nw := pointMap[old]; nw >= 0 {
			out[nw] = struct{}{}
		}
	}

	return out
}
