// Package quality picks entries from the quality ladders the watch response
// lists. Ladders arrive best-first; every pick that scans the ladder keeps
// listing order, so equal candidates resolve to the first listed one.
package quality

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type termKind int

const (
	termBest termKind = iota
	termWorst
	termMedium
	termCeiling // numeric height limit, e.g. 720 from "720p"
	termLabel   // exact ladder label
)

// Term is one step of a preference chain.
type Term struct {
	kind  termKind
	label string
	limit int
}

// Preference is a parsed quality preference: a slash-separated fallback
// chain tried left to right.
type Preference struct {
	Terms []Term
}

// Parse parses a quality preference string.
//
//	""            -> best
//	"best","high" -> best available
//	"worst","low" -> worst available
//	"medium"      -> middle of the available ladder
//	"720p", "720" -> highest available not exceeding 720 lines
//	"1080p/720p/best" -> fallback chain
//
// Tokens that are neither tier names nor numeric resolve as exact ladder
// labels at pick time.
func Parse(s string) (*Preference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return &Preference{Terms: []Term{{kind: termBest}}}, nil
	}
	parts := strings.Split(s, "/")
	pref := &Preference{Terms: make([]Term, 0, len(parts))}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty term in quality preference %q", s)
		}
		pref.Terms = append(pref.Terms, parseTerm(part))
	}
	return pref, nil
}

func parseTerm(s string) Term {
	switch strings.ToLower(s) {
	case "best", "high", "highest":
		return Term{kind: termBest}
	case "worst", "low", "lowest":
		return Term{kind: termWorst}
	case "medium", "mid":
		return Term{kind: termMedium}
	}
	if limit, ok := parseHeight(s); ok {
		return Term{kind: termCeiling, limit: limit, label: s}
	}
	return Term{kind: termLabel, label: s}
}

// parseHeight accepts "720", "720p" and "720p60".
func parseHeight(s string) (int, bool) {
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	rest := strings.ToLower(s[end:])
	if rest != "" {
		if rest[0] != 'p' {
			return 0, false
		}
		for _, r := range rest[1:] {
			if !unicode.IsDigit(r) {
				return 0, false
			}
		}
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// Candidate is one ladder entry as selection sees it.
type Candidate struct {
	Label        string
	QualityLevel int
	Bitrate      int
	Width        int
	Height       int
	Available    bool
}

// PickVideo selects a video ladder entry for the preference. Terms are tried
// in order; the first term with a match wins. Within a term the ladder's
// best-first listing order breaks ties.
func PickVideo(ladder []Candidate, pref *Preference) (Candidate, bool) {
	available := availableOnly(ladder)
	if len(available) == 0 {
		return Candidate{}, false
	}
	if pref == nil || len(pref.Terms) == 0 {
		return available[0], true
	}
	for _, term := range pref.Terms {
		if c, ok := pickTerm(available, term); ok {
			return c, true
		}
	}
	return Candidate{}, false
}

// PickAudio selects the audio ladder entry pairing the chosen video.
// preferLevel is the recommended highest audio quality level from the watch
// response; zero means no recommendation. Entries above the recommendation
// are skipped, mirroring what the web player pairs.
func PickAudio(ladder []Candidate, preferLevel int) (Candidate, bool) {
	available := availableOnly(ladder)
	if len(available) == 0 {
		return Candidate{}, false
	}
	if preferLevel > 0 {
		for _, c := range available {
			if c.QualityLevel <= preferLevel {
				return c, true
			}
		}
	}
	return available[0], true
}

func pickTerm(available []Candidate, term Term) (Candidate, bool) {
	switch term.kind {
	case termBest:
		return available[0], true
	case termWorst:
		return available[len(available)-1], true
	case termMedium:
		return available[len(available)/2], true
	case termCeiling:
		// An exact label match wins over the height ceiling.
		for _, c := range available {
			if strings.EqualFold(c.Label, term.label) {
				return c, true
			}
		}
		for _, c := range available {
			if c.Height <= term.limit {
				return c, true
			}
		}
	case termLabel:
		for _, c := range available {
			if strings.EqualFold(c.Label, term.label) {
				return c, true
			}
		}
	}
	return Candidate{}, false
}

func availableOnly(ladder []Candidate) []Candidate {
	out := make([]Candidate, 0, len(ladder))
	for _, c := range ladder {
		if c.Available {
			out = append(out, c)
		}
	}
	return out
}
