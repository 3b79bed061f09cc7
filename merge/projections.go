package merge

import (
	"fmt"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/matrix"
	"github.com/acorg/acmacs-chart-n/procrustes"
	"github.com/acorg/acmacs-chart-n/relax"
)

// placeProjection carries over projections into mergedChart per
// opts.ProjectionType, reading primary/secondary's chosen projection and
// writing into result's already-computed index maps.
func placeProjection(mergedChart, primary, secondary *chart.Chart, result *Result, opts Options) error {
	switch opts.ProjectionType {
	case Type1:
		return nil
	case Type2:
		return placeIncremental(mergedChart, primary, secondary, result, opts)
	case Type3:
		return placeOverlay(mergedChart, primary, secondary, result, opts, false)
	case Type4:
		return placeOverlay(mergedChart, primary, secondary, result, opts, true)
	case Type5:
		return placeFromScratch(mergedChart, opts)
	default:
		return fmt.Errorf("merge.placeProjection: %w", ErrInvalidProjectionMergeType)
	}
}

// sourceProjections fetches primary's and secondary's chosen projection
// and validates they share dimensionality.
func sourceProjections(primary, secondary *chart.Chart, opts Options) (*chart.Projection, *chart.Projection, error) {
	if primary.NumberOfProjections() == 0 || secondary.NumberOfProjections() == 0 {
		return nil, nil, ErrNoProjection
	}
	pp, err := primary.Projection(opts.PrimaryProjection)
	if err != nil {
		return nil, nil, err
	}
	sp, err := secondary.Projection(opts.SecondaryProjection)
	if err != nil {
		return nil, nil, err
	}
	if pp.NumberOfDimensions() != sp.NumberOfDimensions() {
		return nil, nil, ErrDimensionMismatch
	}

	return pp, sp, nil
}

// buildMergedLayout places mergedChart's primary-derived points at
// primaryProj's coordinates, and secondary-only points at the positions
// procrustes-predicts from secondaryProj, via result's index maps.
func buildMergedLayout(mergedChart, primary, secondary *chart.Chart, result *Result, primaryProj, secondaryProj *chart.Projection, predictedSecondary *chart.Layout) (*chart.Layout, error) {
	dim := primaryProj.NumberOfDimensions()
	out, err := matrix.NewDense(mergedChart.NumberOfPoints(), dim)
	if err != nil {
		return nil, err
	}

	nPrimaryAg := primary.NumberOfAntigens()
	for a := 0; a < nPrimaryAg; a++ {
		row, err := primaryProj.Layout().Row(a)
		if err != nil {
			return nil, err
		}
		if err := out.SetRow(result.PrimaryAntigens[a], row); err != nil {
			return nil, err
		}
	}
	for s := 0; s < primary.NumberOfSera(); s++ {
		row, err := primaryProj.Layout().Row(nPrimaryAg + s)
		if err != nil {
			return nil, err
		}
		if err := out.SetRow(mergedChart.NumberOfAntigens()+result.PrimarySera[s], row); err != nil {
			return nil, err
		}
	}

	nSecondaryAg := secondary.NumberOfAntigens()
	for a := 0; a < nSecondaryAg; a++ {
		merged := result.SecondaryAntigens[a]
		if merged < nPrimaryAg {
			continue // already placed from primary
		}
		row, err := predictedSecondary.Row(a)
		if err != nil {
			return nil, err
		}
		if err := out.SetRow(merged, row); err != nil {
			return nil, err
		}
	}
	for s := 0; s < secondary.NumberOfSera(); s++ {
		merged := result.SecondarySera[s]
		if merged < primary.NumberOfSera() {
			continue
		}
		row, err := predictedSecondary.Row(nSecondaryAg + s)
		if err != nil {
			return nil, err
		}
		if err := out.SetRow(mergedChart.NumberOfAntigens()+merged, row); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func placeIncremental(mergedChart, primary, secondary *chart.Chart, result *Result, opts Options) error {
	primaryProj, secondaryProj, err := sourceProjections(primary, secondary, opts)
	if err != nil {
		return err
	}

	pairs := procrustesCommonPairsFull(result, primaryProj, secondaryProj, primary, secondary)
	pr, err := procrustes.Align(primaryProj, secondaryProj, pairs, procrustes.Options{Scaling: opts.ProcrustesScaling})
	if err != nil {
		return err
	}
	predicted, err := procrustes.Apply(secondaryProj.Layout(), pr)
	if err != nil {
		return err
	}

	layout, err := buildMergedLayout(mergedChart, primary, secondary, result, primaryProj, secondaryProj, predicted)
	if err != nil {
		return err
	}

	merged := chart.NewProjectionFromLayout(layout)
	for _, a := range primaryProj.UnmovablePoints() {
		if a < primary.NumberOfAntigens() {
			merged.SetUnmovable(result.PrimaryAntigens[a])
		} else {
			merged.SetUnmovable(mergedChart.NumberOfAntigens() + result.PrimarySera[a-primary.NumberOfAntigens()])
		}
	}

	if err := relax.Relax(mergedChart, merged, opts.FineRelax); err != nil {
		return err
	}

	return mergedChart.AddProjection(merged)
}

func placeOverlay(mergedChart, primary, secondary *chart.Chart, result *Result, opts Options, twoPhase bool) error {
	primaryProj, secondaryProj, err := sourceProjections(primary, secondary, opts)
	if err != nil {
		return err
	}

	pairs := procrustesCommonPairsFull(result, primaryProj, secondaryProj, primary, secondary)
	pr, err := procrustes.Align(primaryProj, secondaryProj, pairs, procrustes.Options{Scaling: opts.ProcrustesScaling})
	if err != nil {
		return err
	}
	predicted, err := procrustes.Apply(secondaryProj.Layout(), pr)
	if err != nil {
		return err
	}

	layout, err := buildMergedLayout(mergedChart, primary, secondary, result, primaryProj, secondaryProj, predicted)
	if err != nil {
		return err
	}
	merged := chart.NewProjectionFromLayout(layout)

	if !twoPhase {
		if err := relax.Relax(mergedChart, merged, opts.FineRelax); err != nil {
			return err
		}

		return mergedChart.AddProjection(merged)
	}

	for a := 0; a < primary.NumberOfAntigens(); a++ {
		merged.SetUnmovable(result.PrimaryAntigens[a])
	}
	for s := 0; s < primary.NumberOfSera(); s++ {
		merged.SetUnmovable(mergedChart.NumberOfAntigens() + result.PrimarySera[s])
	}
	if err := relax.Relax(mergedChart, merged, opts.RoughRelax); err != nil {
		return err
	}

	for a := 0; a < primary.NumberOfAntigens(); a++ {
		merged.ClearUnmovable(result.PrimaryAntigens[a])
	}
	for s := 0; s < primary.NumberOfSera(); s++ {
		merged.ClearUnmovable(mergedChart.NumberOfAntigens() + result.PrimarySera[s])
	}
	if err := relax.Relax(mergedChart, merged, opts.FineRelax); err != nil {
		return err
	}

	return mergedChart.AddProjection(merged)
}

func placeFromScratch(mergedChart *chart.Chart, opts Options) error {
	return relax.MultiStart(mergedChart, opts.MultiStart)
}

// procrustesCommonPairsFull builds projection-local index pairs for every
// common-match record, translating serum indices into each projection's
// own antigens-then-sera space.
func procrustesCommonPairsFull(result *Result, primaryProj, secondaryProj *chart.Projection, primary, secondary *chart.Chart) []procrustes.Pair {
	var pairs []procrustes.Pair
	for _, m := range result.CommonAntigens {
		if primaryProj.IsDisconnected(m.Primary) || secondaryProj.IsDisconnected(m.Secondary) {
			continue
		}
		pairs = append(pairs, procrustes.Pair{Primary: m.Primary, Secondary: m.Secondary})
	}
	for _, m := range result.CommonSera {
		pp := primary.NumberOfAntigens() + m.Primary
		sp := secondary.NumberOfAntigens() + m.Secondary
		if primaryProj.IsDisconnected(pp) || secondaryProj.IsDisconnected(sp) {
			continue
		}
		pairs = append(pairs, procrustes.Pair{Primary: pp, Secondary: sp})
	}

	return pairs
}
