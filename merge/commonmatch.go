package merge

import (
	"regexp"
	"strings"

	"github.com/acorg/acmacs-chart-n/chart"
)

// Score ranks how confidently two entries sharing name/reassortant/
// annotations are believed to be the same antigen or serum, highest first.
type Score int

const (
	// NoMatch means the pair shares only name/reassortant/annotations;
	// nothing about passage/serum_id correlates them.
	NoMatch Score = iota
	// PassageSerumIDIgnored: same serum_id (sera) or the same
	// passage-agnostic key (antigens) — digits stripped from passage.
	PassageSerumIDIgnored
	// Egg: both entries are egg-passaged, or both are not.
	Egg
	// WithoutDate: passages equal once a trailing date suffix is stripped.
	WithoutDate
	// FullMatch: passages are identical and non-empty.
	FullMatch
)

func (s Score) String() string {
	switch s {
	case FullMatch:
		return "full_match"
	case WithoutDate:
		return "without_date"
	case Egg:
		return "egg"
	case PassageSerumIDIgnored:
		return "passage_serum_id_ignored"
	default:
		return "no_match"
	}
}

// MatchLevel gates which candidate pairs CommonMatch accepts.
type MatchLevel int

const (
	// Strict requires FullMatch.
	Strict MatchLevel = iota
	// Relaxed requires at least Egg.
	Relaxed
	// Ignored requires at least PassageSerumIDIgnored.
	Ignored
	// Automatic accepts the leading run of equal top score, extended (to
	// progressively lower scores) only as needed to reach
	// max(3, min(|primary|,|secondary|)/10) pairs.
	Automatic
)

// Pair is one matched (primary index, secondary index, score) record —
// a "common-match record".
type Pair struct {
	Primary, Secondary int
	Score              Score
}

// entry is the matching-relevant projection of an Antigen or Serum: both
// share this shape via antigenEntries/seraEntries below.
type entry struct {
	index       int
	key         string // name + reassortant + annotations, for grouping
	distinct    bool
	passage     string
	idTail      string // serum_id for sera, "" for antigens
}

var trailingDateRE = regexp.MustCompile(`\s*\(?\d{4}-\d{2}-\d{2}\)?$`)
var digitsRE = regexp.MustCompile(`[0-9]+`)

func isEgg(passage, idTail string) bool {
	s := passage
	if s == "" {
		s = idTail
	}

	return strings.Contains(strings.ToUpper(s), "EGG")
}

func stripTrailingDate(passage string) string {
	return strings.TrimSpace(trailingDateRE.ReplaceAllString(passage, ""))
}

func passageAgnosticKey(passage string) string {
	return strings.TrimSpace(digitsRE.ReplaceAllString(passage, ""))
}

func hasAnnotation(annotations []string, tag string) bool {
	for _, a := range annotations {
		if a == tag {
			return true
		}
	}

	return false
}

func groupKey(name, reassortant string, annotations []string) string {
	return strings.Join(append([]string{name, reassortant}, annotations...), "\x1f")
}

func antigenEntries(ags []chart.Antigen) []entry {
	out := make([]entry, len(ags))
	for i, a := range ags {
		out[i] = entry{
			index:    i,
			key:      groupKey(a.Name, a.Reassortant, a.Annotations),
			distinct: hasAnnotation(a.Annotations, "DISTINCT"),
			passage:  a.Passage,
		}
	}

	return out
}

func seraEntries(sera []chart.Serum) []entry {
	out := make([]entry, len(sera))
	for i, s := range sera {
		out[i] = entry{
			index:    i,
			key:      groupKey(s.Name, s.Reassortant, s.Annotations),
			distinct: hasAnnotation(s.Annotations, "DISTINCT"),
			passage:  s.Passage,
			idTail:   s.SerumID,
		}
	}

	return out
}

// score computes the match tier between two entries already known to
// share a group key.
func score(a, b entry) Score {
	switch {
	case a.passage != "" && a.passage == b.passage:
		return FullMatch
	case stripTrailingDate(a.passage) != "" && stripTrailingDate(a.passage) == stripTrailingDate(b.passage):
		return WithoutDate
	case isEgg(a.passage, a.idTail) == isEgg(b.passage, b.idTail):
		return Egg
	case a.idTail != "" && a.idTail == b.idTail:
		return PassageSerumIDIgnored
	case passageAgnosticKey(a.passage) != "" && passageAgnosticKey(a.passage) == passageAgnosticKey(b.passage):
		return PassageSerumIDIgnored
	default:
		return NoMatch
	}
}

// candidates builds every (primary, secondary) pair sharing a group key,
// neither carrying DISTINCT, with its score.
func candidates(primary, secondary []entry) []Pair {
	buckets := make(map[string][]entry)
	for _, s := range secondary {
		if s.distinct {
			continue
		}
		buckets[s.key] = append(buckets[s.key], s)
	}

	var out []Pair
	for _, p := range primary {
		if p.distinct {
			continue
		}
		for _, s := range buckets[p.key] {
			out = append(out, Pair{Primary: p.index, Secondary: s.index, Score: score(p, s)})
		}
	}

	return out
}

// greedyAssign sorts candidates by (score desc, primary asc, secondary
// asc) and assigns each primary/secondary index at most once, returning
// the accepted pairs in that same order.
func greedyAssign(cands []Pair) []Pair {
	sortPairs(cands)

	usedPrimary := make(map[int]struct{})
	usedSecondary := make(map[int]struct{})
	var out []Pair
	for _, c := range cands {
		if _, ok := usedPrimary[c.Primary]; ok {
			continue
		}
		if _, ok := usedSecondary[c.Secondary]; ok {
			continue
		}
		usedPrimary[c.Primary] = struct{}{}
		usedSecondary[c.Secondary] = struct{}{}
		out = append(out, c)
	}

	return out
}

func sortPairs(p []Pair) {
	// insertion sort is fine here: candidate counts are O(|P|*|S|) within
	// a handful of shared-name buckets, never the full cross product.
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && lessPair(p[j], p[j-1]); j-- {
			p[j], p[j-1] = p[j-1], p[j]
		}
	}
}

func lessPair(a, b Pair) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Primary != b.Primary {
		return a.Primary < b.Primary
	}

	return a.Secondary < b.Secondary
}

func minimumAutomaticPairs(nPrimary, nSecondary int) int {
	n := nPrimary
	if nSecondary < n {
		n = nSecondary
	}
	minimum := n / 10
	if minimum < 3 {
		minimum = 3
	}

	return minimum
}

// applyLevel trims an already score-sorted, greedily-assigned pair list
// down to what level accepts.
func applyLevel(assigned []Pair, level MatchLevel, nPrimary, nSecondary int) []Pair {
	if len(assigned) == 0 {
		return nil
	}
	switch level {
	case Strict:
		return leadingRun(assigned, func(s Score) bool { return s == FullMatch })
	case Relaxed:
		return leadingRun(assigned, func(s Score) bool { return s >= Egg })
	case Ignored:
		return leadingRun(assigned, func(s Score) bool { return s >= PassageSerumIDIgnored })
	case Automatic:
		top := assigned[0].Score
		minimum := minimumAutomaticPairs(nPrimary, nSecondary)
		var out []Pair
		for _, p := range assigned {
			if p.Score == top || len(out) < minimum {
				out = append(out, p)

				continue
			}

			break
		}

		return out
	default:
		return nil
	}
}

func leadingRun(assigned []Pair, keep func(Score) bool) []Pair {
	var out []Pair
	for _, p := range assigned {
		if !keep(p.Score) {
			break
		}
		out = append(out, p)
	}

	return out
}

// MatchAntigens runs CommonMatch over two antigen lists.
func MatchAntigens(primary, secondary []chart.Antigen, level MatchLevel) []Pair {
	assigned := greedyAssign(candidates(antigenEntries(primary), antigenEntries(secondary)))

	return applyLevel(assigned, level, len(primary), len(secondary))
}

// MatchSera runs CommonMatch over two serum lists.
func MatchSera(primary, secondary []chart.Serum, level MatchLevel) []Pair {
	assigned := greedyAssign(candidates(seraEntries(primary), seraEntries(secondary)))

	return applyLevel(assigned, level, len(primary), len(secondary))
}
