// Package titer implements the value type for a single measured
// hemagglutination-inhibition titer: its kind (Regular, LessThan, MoreThan,
// Dodgy, or DontCare), parsing from the conventional textual forms ("40",
// "<20", ">1280", "~80", "*"), and the numeric projections the rest of the
// CORE needs — the logged value used to build stress targets, the
// column-basis contribution, and a sort surrogate.
//
// Grounded on lvlath/tsp/types.go for the sentinel-error-heavy value-type
// idiom, and on original_source/cc/titers.cc for the kind-dispatch rules.
package titer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTiter is returned when a titer string does not parse, or when an
// operation invalid for the titer's Kind is requested (Logged on DontCare).
var ErrInvalidTiter = errors.New("titer: invalid titer")

// Kind discriminates the five titer variants.
type Kind uint8

const (
	// DontCare marks an absent measurement ("*"). Never contributes to
	// distance, column basis, or stress.
	DontCare Kind = iota
	// Regular is a plain positive-integer titer ("40").
	Regular
	// LessThan is left-censored ("<20").
	LessThan
	// MoreThan is right-censored (">1280").
	MoreThan
	// Dodgy is a suspicious measurement ("~80"), treated as Regular only
	// when the current projection's dodgy_titer_is_regular flag is set.
	Dodgy
)

// String renders the Kind's name, used in error messages and logs.
func (k Kind) String() string {
	switch k {
	case DontCare:
		return "dont-care"
	case Regular:
		return "regular"
	case LessThan:
		return "less-than"
	case MoreThan:
		return "more-than"
	case Dodgy:
		return "dodgy"
	default:
		return "unknown"
	}
}

// Titer is a tagged value with exactly one Kind. The zero value is DontCare.
type Titer struct {
	kind Kind
	v    int // the raw titer number, e.g. 40 in "1:40"; unused for DontCare
}

// FromInt constructs a Regular titer from a positive integer. v must be >= 1.
func FromInt(v int) (Titer, error) {
	if v < 1 {
		return Titer{}, fmt.Errorf("titer.FromInt(%d): %w", v, ErrInvalidTiter)
	}

	return Titer{kind: Regular, v: v}, nil
}

// DontCareTiter returns the canonical "*" titer.
func DontCareTiter() Titer { return Titer{kind: DontCare} }

// FromString parses one of the five conventional textual forms:
// "40" (Regular), "<20" (LessThan), ">1280" (MoreThan), "~80" (Dodgy), "*"
// (DontCare). Any other shape, a non-positive numeral, or trailing garbage
// returns ErrInvalidTiter.
func FromString(s string) (Titer, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "*":
		return Titer{kind: DontCare}, nil
	case strings.HasPrefix(s, "<"):
		v, err := parseNumeral(s[1:])
		if err != nil {
			return Titer{}, fmt.Errorf("titer.FromString(%q): %w", s, err)
		}

		return Titer{kind: LessThan, v: v}, nil
	case strings.HasPrefix(s, ">"):
		v, err := parseNumeral(s[1:])
		if err != nil {
			return Titer{}, fmt.Errorf("titer.FromString(%q): %w", s, err)
		}

		return Titer{kind: MoreThan, v: v}, nil
	case strings.HasPrefix(s, "~"):
		v, err := parseNumeral(s[1:])
		if err != nil {
			return Titer{}, fmt.Errorf("titer.FromString(%q): %w", s, err)
		}

		return Titer{kind: Dodgy, v: v}, nil
	default:
		v, err := parseNumeral(s)
		if err != nil {
			return Titer{}, fmt.Errorf("titer.FromString(%q): %w", s, err)
		}

		return Titer{kind: Regular, v: v}, nil
	}
}

func parseNumeral(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidTiter
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, ErrInvalidTiter
	}

	return v, nil
}

// String renders the Titer back in its conventional textual form. Round-trips
// with FromString for every Kind.
func (t Titer) String() string {
	switch t.kind {
	case DontCare:
		return "*"
	case LessThan:
		return "<" + strconv.Itoa(t.v)
	case MoreThan:
		return ">" + strconv.Itoa(t.v)
	case Dodgy:
		return "~" + strconv.Itoa(t.v)
	default:
		return strconv.Itoa(t.v)
	}
}

// Kind returns the Titer's variant tag.
func (t Titer) Kind() Kind { return t.kind }

// Value returns the raw titer number (e.g. 40 for "1:40" or "<40"); the
// second return is false for DontCare, which carries no number.
func (t Titer) Value() (int, bool) {
	if t.kind == DontCare {
		return 0, false
	}

	return t.v, true
}

// IsDontCare reports whether t is the absent-measurement sentinel.
func (t Titer) IsDontCare() bool { return t.kind == DontCare }

// IsRegular reports whether t is a plain positive-integer titer.
func (t Titer) IsRegular() bool { return t.kind == Regular }

// IsLessThan reports whether t is left-censored.
func (t Titer) IsLessThan() bool { return t.kind == LessThan }

// IsMoreThan reports whether t is right-censored.
func (t Titer) IsMoreThan() bool { return t.kind == MoreThan }

// IsDodgy reports whether t is a suspicious measurement.
func (t Titer) IsDodgy() bool { return t.kind == Dodgy }

// Logged returns the base-2 logged titer used to build stress targets:
// log2(v/10) for Regular, LessThan and Dodgy; log2(v/10)+1 for MoreThan
// (the right-censoring shift). Invalid (ErrInvalidTiter)
// on DontCare.
func (t Titer) Logged() (float64, error) {
	if t.kind == DontCare {
		return 0, fmt.Errorf("Titer.Logged(%s): %w", t, ErrInvalidTiter)
	}
	base := math.Log2(float64(t.v) / 10.0)
	if t.kind == MoreThan {
		return base + 1, nil
	}

	return base, nil
}

// LoggedWithThresholded returns the logged value pushed one step across its
// censoring boundary: log2(v/10)-1 for LessThan, log2(v/10)+1 (same as
// Logged) for MoreThan, log2(v/10) for Regular and Dodgy. Invalid on
// DontCare.
func (t Titer) LoggedWithThresholded() (float64, error) {
	base, err := t.Logged()
	if err != nil {
		return 0, err
	}
	if t.kind == LessThan {
		return base - 1, nil
	}

	return base, nil
}

// LoggedForColumnBases returns the contribution used when computing a
// serum's column basis: Logged() for Regular/LessThan,
// Logged() for MoreThan (already includes the +1 shift), and the sentinel
// -1 ("ignore this titer") for Dodgy and DontCare. Never errors.
func (t Titer) LoggedForColumnBases() float64 {
	if t.kind == Dodgy || t.kind == DontCare {
		return -1
	}
	v, _ := t.Logged()

	return v
}

// ValueForSorting returns the integer surrogate used
// for ordering titers without taking a logarithm: Regular -> v,
// LessThan -> v-1, MoreThan -> v+1, Dodgy -> v, DontCare -> 0.
func (t Titer) ValueForSorting() int {
	switch t.kind {
	case LessThan:
		return t.v - 1
	case MoreThan:
		return t.v + 1
	case DontCare:
		return 0
	default:
		return t.v
	}
}
