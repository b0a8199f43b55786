package services

import (
	"math"
	"strings"

	"propscan/models"
)

// Factor keys stored in models.Score.Factors.
const (
	FactorBase         = "base"
	FactorUnits        = "units"
	FactorSize         = "size"
	FactorBedrooms     = "bedrooms"
	FactorBathrooms    = "bathrooms"
	FactorPriceBand    = "price_band"
	FactorKeywords     = "keywords"
	FactorCashFlow     = "cash_flow"
	FactorRentToPrice  = "rent_to_price"
	FactorPropertyType = "property_type"
	FactorGeography    = "geography"
)

// FactorOrder is the fixed order factors are summed and reported in.
var FactorOrder = []string{
	FactorBase, FactorUnits, FactorSize, FactorBedrooms, FactorBathrooms,
	FactorPriceBand, FactorKeywords, FactorCashFlow, FactorRentToPrice,
	FactorPropertyType, FactorGeography,
}

const (
	baseScore      = 10
	keywordBonus   = 15
	geographyBonus = 5
)

// Grade thresholds. Anything below GradeCMin is a D.
const (
	GradeAMin = 70
	GradeBMin = 50
	GradeCMin = 35
)

// tier awards points when the measured value is at least min. Tiers are
// ordered from the highest min down.
type tier struct {
	min    float64
	points float64
}

func award(tiers []tier, v, fallback float64) float64 {
	for _, t := range tiers {
		if v >= t.min {
			return t.points
		}
	}
	return fallback
}

var (
	unitTiers = []tier{{20, 45}, {10, 40}, {6, 35}, {4, 28}, {3, 22}, {2, 15}}
	sizeTiers = []tier{{8000, 25}, {5000, 20}, {3000, 15}, {2000, 10}, {1200, 6}, {800, 3}}
	bedTiers  = []tier{{12, 20}, {8, 16}, {6, 12}, {4, 8}, {3, 5}, {2, 3}}
	bathTiers = []tier{{10, 13}, {6, 10}, {4, 7}, {3, 5}, {2, 3}}

	cashFlowTiers    = []tier{{2000, 25}, {1000, 20}, {500, 15}, {0, 10}, {-500, 6}, {-1500, 4}}
	rentToPriceTiers = []tier{{0.12, 15}, {0.10, 10}, {0.08, 6}, {0.06, 3}}
)

const (
	lowestUnitPoints = 5
	lowestBedPoints  = 1
	lowestBathPoints = 1
	lowestCashFlow   = 2
)

var investmentTerms = []string{
	"multi-family", "multifamily", "multi family", "duplex", "triplex",
	"fourplex", "quadplex", "apartment", "portfolio", "investment",
	"investor", "rental", "income producing", "income-producing",
	"cash flow", "cap rate", "tenant", "units",
}

var singleFamilyOnlyTerms = []string{
	"single family home", "single-family home", "single family residence",
	"single-family residence", "owner occupied only", "owner-occupant only",
}

var defaultStrongMarkets = []string{
	"TX", "FL", "GA", "NC", "OH", "TN", "IN", "AZ", "MO", "AL",
}

// Scorer evaluates weighted investment rules over an estimated property.
type Scorer struct {
	strongMarkets map[string]struct{}
}

// NewScorer returns a Scorer using the default strong rental markets.
func NewScorer() *Scorer {
	return NewScorerWithMarkets(defaultStrongMarkets)
}

// NewScorerWithMarkets returns a Scorer whose geography bonus applies to the
// given state codes.
func NewScorerWithMarkets(states []string) *Scorer {
	m := make(map[string]struct{}, len(states))
	for _, s := range states {
		m[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return &Scorer{strongMarkets: m}
}

// Score computes the score, grade and factor breakdown and attaches it to p.
// Financials should already be populated; nil fields count as zero.
func (s *Scorer) Score(p *models.CanonicalProperty) *models.CanonicalProperty {
	units := EstimateUnits(p.Specs, p.Price)
	factors := map[string]float64{
		FactorBase:         baseScore,
		FactorUnits:        award(unitTiers, float64(units), lowestUnitPoints),
		FactorSize:         award(sizeTiers, float64(p.Specs.Sqft), 0),
		FactorBedrooms:     award(bedTiers, float64(p.Specs.Beds), lowestBedPoints),
		FactorBathrooms:    award(bathTiers, p.Specs.Baths, lowestBathPoints),
		FactorPriceBand:    priceBandPoints(p.Price),
		FactorKeywords:     keywordPoints(p.Specs.Description + " " + p.Specs.PropertyType),
		FactorCashFlow:     0,
		FactorRentToPrice:  0,
		FactorPropertyType: propertyTypePoints(p.Specs.PropertyType),
		FactorGeography:    s.geographyPoints(p.State),
	}

	// An unknown price makes cash flow and yield meaningless.
	if p.Price > 0 {
		factors[FactorCashFlow] = award(cashFlowTiers, models.Value(p.Financials.CashFlow), lowestCashFlow)
		factors[FactorRentToPrice] = award(rentToPriceTiers, models.Value(p.Financials.RentToPriceRatio), 0)
	}

	var total float64
	for _, k := range FactorOrder {
		total += factors[k]
	}
	value := round2(clamp(total, 0, 100))

	p.Score = &models.Score{
		Value:          value,
		Grade:          GradeFor(value),
		Factors:        factors,
		EstimatedUnits: units,
	}
	return p
}

// GradeFor maps a score to its letter grade.
func GradeFor(score float64) models.Grade {
	switch {
	case score >= GradeAMin:
		return models.GradeA
	case score >= GradeBMin:
		return models.GradeB
	case score >= GradeCMin:
		return models.GradeC
	default:
		return models.GradeD
	}
}

// EstimateUnits returns the provider's unit count or infers one from the
// property type and bed/bath/size/price heuristics. The result is at least 1.
func EstimateUnits(specs models.Specs, price float64) int {
	if specs.Units > 0 {
		return specs.Units
	}

	beds, baths, sqft := specs.Beds, specs.Baths, specs.Sqft
	units := 1
	switch {
	case beds >= 12:
		units = 8
	case beds >= 8 && baths >= 6:
		units = 6
	case beds >= 8:
		units = 4
	case beds >= 6 && baths >= 4:
		units = 4
	case beds >= 6:
		units = 3
	case beds >= 4 && baths >= 3:
		units = 2
	case sqft >= 8000:
		units = 6
	case sqft >= 5000:
		units = 4
	case sqft >= 3000 && price >= 1_000_000:
		units = 3
	}

	if t := typeUnits(specs.PropertyType); t > units {
		units = t
	}
	return units
}

func typeUnits(propertyType string) int {
	t := strings.ToLower(propertyType)
	switch {
	case containsAny(t, "fourplex", "quadplex", "4-plex"):
		return 4
	case containsAny(t, "triplex", "3-plex"):
		return 3
	case containsAny(t, "duplex", "2-plex"):
		return 2
	}
	return 0
}

func priceBandPoints(price float64) float64 {
	switch {
	case price <= 0:
		return 0
	case price < 150_000:
		return 4
	case price < 250_000:
		return 8
	case price < 500_000:
		return 12
	case price <= 2_000_000:
		return 18
	case price <= 5_000_000:
		return 15
	default:
		return 6
	}
}

func keywordPoints(text string) float64 {
	t := strings.ToLower(text)
	if containsAny(t, singleFamilyOnlyTerms...) {
		return 0
	}
	if containsAny(t, investmentTerms...) {
		return keywordBonus
	}
	return 0
}

func propertyTypePoints(propertyType string) float64 {
	t := strings.ToLower(propertyType)
	switch {
	case containsAny(t, "apartment", "fourplex", "quadplex", "4-plex", "multi-family", "multifamily", "multi family"):
		return 12
	case containsAny(t, "triplex", "3-plex"):
		return 10
	case containsAny(t, "duplex", "2-plex"):
		return 8
	case containsAny(t, "townhouse", "townhome", "condo"):
		return 2
	}
	return 0
}

func (s *Scorer) geographyPoints(state string) float64 {
	if _, ok := s.strongMarkets[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return geographyBonus
	}
	return 0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
