package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propscan/models"
)

func score(p *models.CanonicalProperty) *models.CanonicalProperty {
	return NewScorer().Score(NewEstimator().Estimate(NewIdentityResolver().Resolve(p)))
}

func TestPortfolioScoresGradeA(t *testing.T) {
	p := score(portfolio())

	require.NotNil(t, p.Score)
	assert.Equal(t, models.GradeA, p.Score.Grade)
	assert.GreaterOrEqual(t, p.Score.Value, 70.0)
	assert.LessOrEqual(t, p.Score.Value, 100.0)
	assert.Equal(t, 8, p.Score.EstimatedUnits)

	require.NotNil(t, p.Financials.CashFlow)
	assert.True(t, p.Provenance.Estimated.CashFlow)
	// 3500 x1.2 for size, capped at 1.3x by the one-percent rule.
	assert.InDelta(t, 5460.0, *p.Financials.MonthlyRent, 0.001)
	assert.InDelta(t, 5460.0-15135.71, *p.Financials.CashFlow, 0.001)
}

func TestAddressAndPriceOnlyScoresAboveZero(t *testing.T) {
	p := score(bare())

	require.NotNil(t, p.Score)
	assert.Greater(t, p.Score.Value, 0.0)
	assert.Equal(t, 1, p.Score.EstimatedUnits)

	f := p.Score.Factors
	assert.Equal(t, 10.0, f[FactorBase])
	assert.Equal(t, 5.0, f[FactorUnits], "missing specs take the lowest unit tier")
	assert.Equal(t, 1.0, f[FactorBedrooms])
	assert.Equal(t, 1.0, f[FactorBathrooms])
	assert.Equal(t, 12.0, f[FactorPriceBand])
	assert.Equal(t, 6.0, f[FactorCashFlow])
	assert.Equal(t, 3.0, f[FactorRentToPrice])
	assert.Equal(t, 38.0, p.Score.Value)
	assert.Equal(t, models.GradeC, p.Score.Grade)
}

func TestZeroPriceIsNotPenalized(t *testing.T) {
	p := score(&models.CanonicalProperty{Address: "5 Unknown Way", Provenance: models.Provenance{Source: "s"}})

	f := p.Score.Factors
	assert.Zero(t, f[FactorPriceBand])
	assert.Zero(t, f[FactorRentToPrice])
	assert.Zero(t, f[FactorCashFlow])
	for k, v := range f {
		assert.GreaterOrEqual(t, v, 0.0, "factor %s", k)
	}
	assert.Equal(t, 17.0, p.Score.Value)
	assert.Equal(t, models.GradeD, p.Score.Grade)
}

func TestGradeThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  models.Grade
	}{
		{100, models.GradeA},
		{70, models.GradeA},
		{69.99, models.GradeB},
		{50, models.GradeB},
		{49.99, models.GradeC},
		{35, models.GradeC},
		{34.99, models.GradeD},
		{0, models.GradeD},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFor(tt.score), "GradeFor(%.2f)", tt.score)
	}
}

func TestScoreRangeAndGradeConsistency(t *testing.T) {
	types := []string{"", "Single Family", "Duplex", "Triplex", "Fourplex", "Apartment", "Condo"}
	descs := []string{"", "great rental portfolio", "single family home, owner occupied only"}

	for beds := 0; beds <= 14; beds += 2 {
		for _, sqft := range []int{0, 700, 1500, 2500, 5500, 9000} {
			for _, price := range []float64{0, 90_000, 200_000, 400_000, 1_500_000, 4_000_000, 9_000_000} {
				for i, typ := range types {
					p := score(&models.CanonicalProperty{
						Address: "1 Grid St",
						State:   "TX",
						Price:   price,
						Specs: models.Specs{
							Beds: beds, Baths: float64(beds) / 2, Sqft: sqft,
							PropertyType: typ, Description: descs[i%len(descs)],
						},
						Provenance: models.Provenance{Source: "grid"},
					})
					require.GreaterOrEqual(t, p.Score.Value, 0.0)
					require.LessOrEqual(t, p.Score.Value, 100.0)
					require.Equal(t, GradeFor(p.Score.Value), p.Score.Grade)
				}
			}
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	a := score(portfolio())
	b := score(portfolio())
	assert.Equal(t, a.Score, b.Score)

	p := bare()
	NewEstimator().Estimate(p)
	first := NewScorer().Score(p).Score
	second := NewScorer().Score(p).Score
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Factors, second.Factors)
}

func TestKeywordBonus(t *testing.T) {
	assert.Equal(t, 15.0, keywordPoints("Turnkey rental portfolio, fully leased"))
	assert.Zero(t, keywordPoints("Charming single family home with tenant-ready yard"))
	assert.Zero(t, keywordPoints("Charming bungalow"))
}

func TestPropertyTypeAndGeography(t *testing.T) {
	assert.Equal(t, 12.0, propertyTypePoints("Apartment Building"))
	assert.Equal(t, 10.0, propertyTypePoints("Triplex"))
	assert.Equal(t, 8.0, propertyTypePoints("duplex"))
	assert.Zero(t, propertyTypePoints("Single Family"))

	s := NewScorerWithMarkets([]string{"oh"})
	assert.Equal(t, 5.0, s.geographyPoints("OH"))
	assert.Zero(t, s.geographyPoints("TX"))
}

func TestEstimateUnits(t *testing.T) {
	tests := []struct {
		name  string
		specs models.Specs
		price float64
		want  int
	}{
		{"provider units win", models.Specs{Units: 16, Beds: 2}, 0, 16},
		{"twelve beds", models.Specs{Beds: 12}, 0, 8},
		{"eight beds six baths", models.Specs{Beds: 8, Baths: 6}, 0, 6},
		{"big building, no beds", models.Specs{Sqft: 9000}, 0, 6},
		{"fourplex by type", models.Specs{Beds: 2, PropertyType: "Fourplex"}, 0, 4},
		{"nothing known", models.Specs{}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateUnits(tt.specs, tt.price))
		})
	}
}
