package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/merge"
)

func TestMatchAntigens_FullMatch(t *testing.T) {
	primary := []chart.Antigen{{Name: "A/PERTH/16/2009", Passage: "MDCK1"}}
	secondary := []chart.Antigen{{Name: "A/PERTH/16/2009", Passage: "MDCK1"}}

	pairs := merge.MatchAntigens(primary, secondary, merge.Strict)
	assert.Equal(t, []merge.Pair{{Primary: 0, Secondary: 0, Score: merge.FullMatch}}, pairs)
}

func TestMatchAntigens_StrictRejectsEggOnlyMatch(t *testing.T) {
	primary := []chart.Antigen{{Name: "A/PERTH/16/2009", Passage: "E1"}}
	secondary := []chart.Antigen{{Name: "A/PERTH/16/2009", Passage: "E2"}}

	assert.Empty(t, merge.MatchAntigens(primary, secondary, merge.Strict))
	assert.Len(t, merge.MatchAntigens(primary, secondary, merge.Relaxed), 1)
}

func TestMatchAntigens_DistinctNeverMatches(t *testing.T) {
	primary := []chart.Antigen{{Name: "A/PERTH/16/2009", Passage: "MDCK1", Annotations: []string{"DISTINCT"}}}
	secondary := []chart.Antigen{{Name: "A/PERTH/16/2009", Passage: "MDCK1", Annotations: []string{"DISTINCT"}}}

	assert.Empty(t, merge.MatchAntigens(primary, secondary, merge.Ignored))
}

func TestMatchAntigens_NoSharedKeyNeverMatches(t *testing.T) {
	primary := []chart.Antigen{{Name: "A/PERTH/16/2009", Passage: "MDCK1"}}
	secondary := []chart.Antigen{{Name: "A/VICTORIA/1/2011", Passage: "MDCK1"}}

	assert.Empty(t, merge.MatchAntigens(primary, secondary, merge.Ignored))
}

func TestMatchSera_SameSerumIDWithDifferentPassageIsIgnoredTier(t *testing.T) {
	// Passages differ and disagree on egg-ness, so only the shared
	// serum_id correlates them.
	primary := []chart.Serum{{Name: "A/PERTH/16/2009", Passage: "EGG1", SerumID: "S1"}}
	secondary := []chart.Serum{{Name: "A/PERTH/16/2009", Passage: "MDCK1", SerumID: "S1"}}

	pairs := merge.MatchSera(primary, secondary, merge.Ignored)
	if assert.Len(t, pairs, 1) {
		assert.Equal(t, merge.PassageSerumIDIgnored, pairs[0].Score)
	}
}

func TestMatchAntigens_AutomaticMeetsMinimumQuota(t *testing.T) {
	// 10 candidate pairs sharing the same name/reassortant/annotations
	// bucket: only (0,0) scores FullMatch. Primary 0 against the other
	// (egg) secondaries scores Egg, but the greedy pass has already used
	// primary 0; every pair among primaries 1-9 (non-egg) and the egg
	// secondaries scores NoMatch. Automatic
	// must still accept at least 3 pairs even though only one genuinely
	// matches.
	primary := make([]chart.Antigen, 10)
	secondary := make([]chart.Antigen, 10)
	for i := range primary {
		primary[i] = chart.Antigen{Name: "A/X"} // non-egg passage
		secondary[i] = chart.Antigen{Name: "A/X", Passage: "OTHEREGG"} // egg passage
	}
	primary[0].Passage = "EGG1"
	secondary[0].Passage = "EGG1" // the single FullMatch

	pairs := merge.MatchAntigens(primary, secondary, merge.Automatic)
	assert.GreaterOrEqual(t, len(pairs), 3)
	assert.Equal(t, merge.FullMatch, pairs[0].Score)
}

func TestMatchAntigens_GreedyAssignsEachOnce(t *testing.T) {
	primary := []chart.Antigen{
		{Name: "A/PERTH/16/2009", Passage: "MDCK1"},
		{Name: "A/PERTH/16/2009", Passage: "E1"},
	}
	secondary := []chart.Antigen{
		{Name: "A/PERTH/16/2009", Passage: "MDCK1"},
	}

	pairs := merge.MatchAntigens(primary, secondary, merge.Relaxed)
	assert.Len(t, pairs, 1)
	assert.Equal(t, 0, pairs[0].Primary)
	assert.Equal(t, 0, pairs[0].Secondary)
}
