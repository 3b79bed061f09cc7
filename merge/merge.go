package merge

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/relax"
	"github.com/acorg/acmacs-chart-n/titer"
	"github.com/acorg/acmacs-chart-n/titertable"
)

// ProjectionMergeType selects how (or whether) projections are carried
// over into the merged chart.
type ProjectionMergeType int

const (
	// Type1 ("simple") carries over no projections.
	Type1 ProjectionMergeType = iota
	// Type2 ("incremental") keeps primary's projection, places
	// secondary-only points by Procrustes prediction, then relaxes.
	Type2
	// Type3 ("overlay") Procrustes-aligns secondary onto primary and
	// relaxes every point from that combined starting position.
	Type3
	// Type4 is like Type3 but holds primary points unmovable for an
	// initial relax phase, then releases them for a second.
	Type4
	// Type5 discards any existing projections and relaxes from scratch.
	Type5
)

// Options configures a Merge call.
type Options struct {
	MatchLevel          MatchLevel
	ProjectionType      ProjectionMergeType
	PrimaryProjection   int // index into primary.Projections(), used by Type2-4
	SecondaryProjection int // index into secondary.Projections(), used by Type2-4
	ProcrustesScaling   bool
	RoughRelax          relax.Options
	FineRelax           relax.Options
	MultiStart          relax.MultiStartOptions // used by Type5
}

// DefaultOptions returns Ignored match level, Type1 (no projections
// carried over), with rough/fine relax presets matching relax's own
// defaults.
func DefaultOptions() Options {
	fine := relax.DefaultOptions()
	rough := relax.DefaultOptions()
	rough.Precision = relax.Rough

	return Options{
		MatchLevel:     Ignored,
		ProjectionType: Type1,
		RoughRelax:     rough,
		FineRelax:      fine,
		MultiStart:     relax.DefaultMultiStartOptions(),
	}
}

// Result is a completed Merge: the combined Chart plus the index maps
// needed to translate primary/secondary point indices into merged-space
// indices.
type Result struct {
	Chart *chart.Chart

	// PrimaryAntigens[i]/PrimarySera[i] is primary antigen/serum i's index
	// in the merged chart (always i, since primary comes first, but
	// exposed for symmetry with the secondary maps).
	PrimaryAntigens []int
	PrimarySera     []int
	// SecondaryAntigens[i]/SecondarySera[i] is secondary antigen/serum i's
	// index in the merged chart.
	SecondaryAntigens []int
	SecondarySera     []int

	CommonAntigens []Pair
	CommonSera     []Pair
}

// Merge combines primary and secondary into one Chart: antigen order is
// primary ++ (secondary - common), likewise for sera; the titer table
// carries len(primary layers)+len(secondary layers) layers (synthesizing
// one per input if it had none), aggregated most-recent-wins with a
// logged warning on genuine disagreement; and projections are carried
// over per opts.ProjectionType.
func Merge(primary, secondary *chart.Chart, opts Options) (*Result, error) {
	commonAntigens := MatchAntigens(primary.Antigens(), secondary.Antigens(), opts.MatchLevel)
	commonSera := MatchSera(primary.Sera(), secondary.Sera(), opts.MatchLevel)

	agMatch := matchMap(commonAntigens)
	srMatch := matchMap(commonSera)

	mergedAntigens, secondaryAgMap := mergeEntities(primary.Antigens(), secondary.Antigens(), agMatch)
	mergedSera, secondarySrMap := mergeEntitiesSera(primary.Sera(), secondary.Sera(), srMatch)

	newNAg, newNSr := len(mergedAntigens), len(mergedSera)
	primaryAgMap := identityMap(primary.NumberOfAntigens())
	primarySrMap := identityMap(primary.NumberOfSera())

	table, err := buildMergedTable(primary, secondary, newNAg, newNSr, primaryAgMap, primarySrMap, secondaryAgMap, secondarySrMap)
	if err != nil {
		return nil, fmt.Errorf("merge.Merge: %w", err)
	}

	mergedChart, err := chart.New(primary.Info(), mergedAntigens, mergedSera, table)
	if err != nil {
		return nil, fmt.Errorf("merge.Merge: %w", err)
	}

	result := &Result{
		Chart:             mergedChart,
		PrimaryAntigens:   primaryAgMap,
		PrimarySera:       primarySrMap,
		SecondaryAntigens: secondaryAgMap,
		SecondarySera:     secondarySrMap,
		CommonAntigens:    commonAntigens,
		CommonSera:        commonSera,
	}

	if err := placeProjection(mergedChart, primary, secondary, result, opts); err != nil {
		return nil, fmt.Errorf("merge.Merge: %w", err)
	}

	return result, nil
}

func matchMap(pairs []Pair) map[int]int {
	m := make(map[int]int, len(pairs))
	for _, p := range pairs {
		m[p.Secondary] = p.Primary
	}

	return m
}

func identityMap(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

// mergeEntities appends secondary antigens not claimed by a common-match
// pair after primary's, returning the combined list and secondary's
// index-in-merged map.
func mergeEntities(primary, secondary []chart.Antigen, secondaryToPrimary map[int]int) ([]chart.Antigen, []int) {
	merged := append([]chart.Antigen(nil), primary...)
	secondaryMap := make([]int, len(secondary))
	for i, ag := range secondary {
		if p, ok := secondaryToPrimary[i]; ok {
			secondaryMap[i] = p

			continue
		}
		secondaryMap[i] = len(merged)
		merged = append(merged, ag)
	}

	return merged, secondaryMap
}

func mergeEntitiesSera(primary, secondary []chart.Serum, secondaryToPrimary map[int]int) ([]chart.Serum, []int) {
	merged := append([]chart.Serum(nil), primary...)
	secondaryMap := make([]int, len(secondary))
	for i, s := range secondary {
		if p, ok := secondaryToPrimary[i]; ok {
			secondaryMap[i] = p

			continue
		}
		secondaryMap[i] = len(merged)
		merged = append(merged, s)
	}

	return merged, secondaryMap
}

// buildMergedTable gives the merged table one layer per source layer of
// primary and secondary (synthesizing a single layer from a source with
// none), each re-indexed into merged antigen/serum space, then logs a
// warning for every cell where contributing layers disagree (most-recent-
// wins is still applied, per the resolved open question in SPEC_FULL.md).
func buildMergedTable(primary, secondary *chart.Chart, newNAg, newNSr int, pAgMap, pSrMap, sAgMap, sSrMap []int) (*titertable.Table, error) {
	merged, err := titertable.NewDense(newNAg, newNSr)
	if err != nil {
		return nil, err
	}

	if err := addLayersFrom(merged, primary.Table(), pAgMap, pSrMap); err != nil {
		return nil, err
	}
	if err := addLayersFrom(merged, secondary.Table(), sAgMap, sSrMap); err != nil {
		return nil, err
	}

	warnOnConflicts(merged)

	return merged, nil
}

func addLayersFrom(merged *titertable.Table, source *titertable.Table, agMap, srMap []int) error {
	nLayers := source.NumberOfLayers()
	if nLayers == 0 {
		layer, err := reindexedLayer(merged.NumberOfAntigens(), merged.NumberOfSera(), agMap, srMap, source,
			func(a, s int) (titer.Titer, error) { return source.Titer(a, s) })
		if err != nil {
			return err
		}

		return merged.AddLayer(layer)
	}

	for l := 0; l < nLayers; l++ {
		l := l
		layer, err := reindexedLayer(merged.NumberOfAntigens(), merged.NumberOfSera(), agMap, srMap, source,
			func(a, s int) (titer.Titer, error) { return source.TiterOfLayer(l, a, s) })
		if err != nil {
			return err
		}
		if err := merged.AddLayer(layer); err != nil {
			return err
		}
	}

	return nil
}

// reindexedLayer builds a newNAg x newNSr layer by reading every cell of
// source through titerAt and writing it at (agMap[a], srMap[s]).
func reindexedLayer(newNAg, newNSr int, agMap, srMap []int, source *titertable.Table, titerAt func(a, s int) (titer.Titer, error)) (*titertable.Table, error) {
	layer, err := titertable.NewDense(newNAg, newNSr)
	if err != nil {
		return nil, err
	}
	for a := 0; a < source.NumberOfAntigens(); a++ {
		na := agMap[a]
		for s := 0; s < source.NumberOfSera(); s++ {
			ns := srMap[s]
			v, err := titerAt(a, s)
			if err != nil {
				return nil, err
			}
			if v.IsDontCare() {
				continue
			}
			if err := layer.SetTiter(na, ns, v); err != nil {
				return nil, err
			}
		}
	}

	return layer, nil
}

// warnOnConflicts logs every merged cell where more than one layer
// contributes a non-DontCare value and those values disagree: the merge
// still applies most-recent-wins (titertable.Table.Titer's existing
// behavior), this only surfaces the disagreement.
func warnOnConflicts(merged *titertable.Table) {
	nAg, nSr := merged.NumberOfAntigens(), merged.NumberOfSera()
	for a := 0; a < nAg; a++ {
		for s := 0; s < nSr; s++ {
			var seen []titer.Titer
			for l := 0; l < merged.NumberOfLayers(); l++ {
				v, err := merged.TiterOfLayer(l, a, s)
				if err != nil || v.IsDontCare() {
					continue
				}
				seen = append(seen, v)
			}
			if conflicting(seen) {
				log.Warn().Int("antigen", a).Int("serum", s).
					Msg("merge: conflicting titers across layers, most-recent layer wins")
			}
		}
	}
}

func conflicting(values []titer.Titer) bool {
	if len(values) < 2 {
		return false
	}
	first := values[0].String()
	for _, v := range values[1:] {
		if v.String() != first {
			return true
		}
	}

	return false
}
