package geo

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// District is a known centroid used as a fallback when a store has no
// stored coordinates but does carry a free-text address.
type District struct {
	Name   string
	Center Point
}

// Gazetteer is a small in-memory lookup of district name to centroid,
// used by ResolveApprox. Callers seed it from configuration; an empty
// Gazetteer makes ResolveApprox always fail.
type Gazetteer struct {
	districts []District
}

// NewGazetteer builds a Gazetteer from a list of known districts.
func NewGazetteer(districts []District) *Gazetteer {
	return &Gazetteer{districts: districts}
}

// ResolveApprox fuzzy-matches the tokens of a free-text address against
// the gazetteer's district names and returns the centroid of the closest
// match. It reports false when the gazetteer is empty or the address has
// no usable tokens.
func (g *Gazetteer) ResolveApprox(address string) (Point, string, bool) {
	tokens := strings.Fields(address)
	if len(g.districts) == 0 || len(tokens) == 0 {
		return Point{}, "", false
	}

	best := -1
	bestDist := int(^uint(0) >> 1) // max int
	opts := levenshtein.Options{
		InsCost: 1,
		DelCost: 1,
		SubCost: 1,
		Matches: levenshtein.IdenticalRunes,
	}
	for i, d := range g.districts {
		nameRunes := []rune(strings.ToLower(d.Name))
		for _, tok := range tokens {
			dist := levenshtein.DistanceForStrings(nameRunes, []rune(strings.ToLower(tok)), opts)
			if dist < bestDist {
				bestDist = dist
				best = i
			}
		}
	}
	if best < 0 {
		return Point{}, "", false
	}
	// Reject matches too far off to be meaningful: allow at most half the
	// district name's length (rounded down) plus one in edit operations.
	threshold := len([]rune(g.districts[best].Name))/2 + 1
	if bestDist > threshold {
		return Point{}, "", false
	}
	return g.districts[best].Center, g.districts[best].Name, true
}
