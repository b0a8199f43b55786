package services

import (
	"sort"

	"propscan/models"
)

// Criteria are consumer-side post-filters over a scored list. Zero values
// disable the corresponding bound.
type Criteria struct {
	MinUnits   int
	MaxUnits   int
	MinScore   float64
	MinGrade   models.Grade
	MinPrice   float64
	MaxPrice   float64
	MaxResults int
}

// DefaultCriteria returns the bounds used when a caller sets none.
func DefaultCriteria() Criteria {
	return Criteria{MaxResults: 100}
}

// Rank orders properties by score descending, then by ResolvedID so equal
// scores have a stable order. Unscored properties sink to the bottom.
func Rank(props []*models.CanonicalProperty) []*models.CanonicalProperty {
	ranked := append([]*models.CanonicalProperty(nil), props...)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scoreOf(ranked[i]), scoreOf(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].ResolvedID < ranked[j].ResolvedID
	})
	return ranked
}

// Filter keeps the properties of an already ranked list that satisfy c,
// preserving order and truncating to MaxResults. When a price bound is set,
// properties with an unknown price are dropped since they cannot satisfy it.
func Filter(ranked []*models.CanonicalProperty, c Criteria) []*models.CanonicalProperty {
	out := make([]*models.CanonicalProperty, 0, len(ranked))
	for _, p := range ranked {
		if !c.Matches(p) {
			continue
		}
		out = append(out, p)
		if c.MaxResults > 0 && len(out) >= c.MaxResults {
			break
		}
	}
	return out
}

// Matches reports whether a single scored property satisfies c.
func (c Criteria) Matches(p *models.CanonicalProperty) bool {
	if p.Score == nil {
		return false
	}
	if c.MinScore > 0 && p.Score.Value < c.MinScore {
		return false
	}
	if c.MinGrade != "" && p.Score.Grade.Rank() < c.MinGrade.Rank() {
		return false
	}
	if c.MinUnits > 0 && p.Score.EstimatedUnits < c.MinUnits {
		return false
	}
	if c.MaxUnits > 0 && p.Score.EstimatedUnits > c.MaxUnits {
		return false
	}
	if c.MinPrice > 0 || c.MaxPrice > 0 {
		if p.Price <= 0 {
			return false
		}
		if c.MinPrice > 0 && p.Price < c.MinPrice {
			return false
		}
		if c.MaxPrice > 0 && p.Price > c.MaxPrice {
			return false
		}
	}
	return true
}

func scoreOf(p *models.CanonicalProperty) float64 {
	if p.Score == nil {
		return -1
	}
	return p.Score.Value
}
