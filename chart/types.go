package chart

import "strings"

// Lineage is the influenza B lineage an Antigen or Serum belongs to.
type Lineage uint8

const (
	LineageUnknown Lineage = iota
	LineageVictoria
	LineageYamagata
)

func (l Lineage) String() string {
	switch l {
	case LineageVictoria:
		return "Victoria"
	case LineageYamagata:
		return "Yamagata"
	default:
		return "Unknown"
	}
}

// serumOnlyAnnotations are tags that set_homologous ignores when matching
// an antigen's annotation set against a serum's, since they describe how
// the serum (not the antigen) was produced.
var serumOnlyAnnotations = map[string]struct{}{
	"CONC":  {},
	"RDE@":  {},
	"BOOST": {},
	"BLEED": {},
	"LAIV":  {},
	"CDC":   {},
}

// Antigen is one antigen row in a Chart.
type Antigen struct {
	Name         string
	Passage      string
	Reassortant  string
	Annotations  []string
	Lineage      Lineage
	Date         string
	LabIDs       []string
	Clades       []string
	Reference    bool
}

// FullName is the canonical join name+reassortant+annotations+passage used
// for equality. Homologous-antigen discovery does not use it: it matches
// name, reassortant and annotations separately.
func (a Antigen) FullName() string {
	return joinFullName(a.Name, a.Reassortant, a.Annotations, a.Passage)
}

// Equal reports whether a and other are the same antigen: antigen/serum
// equality is full-name equality.
func (a Antigen) Equal(other Antigen) bool { return a.FullName() == other.FullName() }

// Serum is one serum row in a Chart.
type Serum struct {
	Name               string
	Passage            string
	Reassortant        string
	Annotations        []string
	Lineage            Lineage
	SerumID            string
	SerumSpecies       string
	HomologousAntigens []int
}

// FullName is the canonical join name+reassortant+annotations+serum_id.
func (s Serum) FullName() string {
	return joinFullName(s.Name, s.Reassortant, s.Annotations, s.SerumID)
}

// Equal reports whether s and other are the same serum (full-name equal).
func (s Serum) Equal(other Serum) bool { return s.FullName() == other.FullName() }

func joinFullName(name, reassortant string, annotations []string, tail string) string {
	parts := []string{name}
	if reassortant != "" {
		parts = append(parts, reassortant)
	}
	parts = append(parts, annotations...)
	if tail != "" {
		parts = append(parts, tail)
	}

	return strings.Join(parts, " ")
}

// nonSerumAnnotations filters out tags set_homologous treats as
// serum-production metadata rather than antigen/serum identity.
func nonSerumAnnotations(annotations []string) []string {
	out := make([]string, 0, len(annotations))
	for _, a := range annotations {
		if _, skip := serumOnlyAnnotations[a]; skip {
			continue
		}
		out = append(out, a)
	}

	return out
}

func sameAnnotationSet(a, b []string) bool {
	a, b = nonSerumAnnotations(a), nonSerumAnnotations(b)
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, x := range a {
		seen[x]++
	}
	for _, x := range b {
		seen[x]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}

	return true
}

// PlotSpec carries presentation hints (point styles, ordering) a Chart may
// be imported with; the CORE treats it as opaque pass-through data.
type PlotSpec struct {
	DrawingOrder []int
	Styles       map[string]string
}

// Info is the Chart's metadata block.
type Info struct {
	Virus       string
	Subtype     string
	Lab         string
	Assay       string
	DateMin     string
	DateMax     string
	SourceTable []string
}
