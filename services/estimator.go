package services

import (
	"math"

	"propscan/models"
)

// Estimation constants. These replicate the tuned baseline and are not
// derived from market data.
const (
	MortgageAnnualRate   = 0.065
	MortgageTermYears    = 30
	LoanToValue          = 0.80
	TaxInsuranceRate     = 0.015
	OnePercentRule       = 0.01
	OnePercentRentCapMul = 1.3
)

// bedroomRentBands is checked top-down; the first band whose minimum bedroom
// count is met wins.
var bedroomRentBands = []struct {
	minBeds int
	rent    float64
}{
	{6, 3500},
	{4, 2800},
	{3, 2200},
	{2, 1700},
	{0, 1200},
}

// Estimator fills missing financial fields with deterministic heuristics.
type Estimator struct{}

// NewEstimator returns an Estimator. It holds no state.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate populates every nil financial field and flags it as estimated.
// Provider-supplied values are kept, except a non-positive rent on a priced
// property, which is replaced by an estimate.
func (e *Estimator) Estimate(p *models.CanonicalProperty) *models.CanonicalProperty {
	f := &p.Financials
	flags := &p.Provenance.Estimated

	if f.MonthlyRent == nil || (p.Price > 0 && *f.MonthlyRent <= 0) {
		f.MonthlyRent = models.Float(round2(EstimateRent(p.Specs.Beds, p.Specs.Sqft, p.Price)))
		flags.MonthlyRent = true
	}
	if f.EstimatedMortgage == nil {
		f.EstimatedMortgage = models.Float(round2(EstimateMortgage(p.Price)))
		flags.EstimatedMortgage = true
	}
	if f.CashFlow == nil {
		f.CashFlow = models.Float(round2(*f.MonthlyRent - *f.EstimatedMortgage))
		flags.CashFlow = true
	}
	if f.RentToPriceRatio == nil {
		f.RentToPriceRatio = models.Float(RentToPrice(*f.MonthlyRent, p.Price))
		flags.RentToPriceRatio = true
	}
	return p
}

// EstimateRent returns a monthly rent from bedroom bands and a size
// multiplier, reconciled against the one-percent rule so that expensive
// small properties cannot run away.
func EstimateRent(beds, sqft int, price float64) float64 {
	rent := bedroomRentBands[len(bedroomRentBands)-1].rent
	for _, b := range bedroomRentBands {
		if beds >= b.minBeds {
			rent = b.rent
			break
		}
	}

	switch {
	case sqft > 3000:
		rent *= 1.2
	case sqft > 2000:
		rent *= 1.1
	case sqft > 0 && sqft < 1200:
		rent *= 0.9
	}

	if onePercent := price * OnePercentRule; onePercent > rent {
		rent = math.Min(onePercent, rent*OnePercentRentCapMul)
	}
	return rent
}

// EstimateMortgage returns the monthly payment on a fixed-rate loan for
// LoanToValue of price, plus prorated tax and insurance.
func EstimateMortgage(price float64) float64 {
	if price <= 0 {
		return 0
	}
	principal := price * LoanToValue
	r := MortgageAnnualRate / 12
	n := float64(MortgageTermYears * 12)
	growth := math.Pow(1+r, n)
	payment := principal * r * growth / (growth - 1)
	return payment + price*TaxInsuranceRate/12
}

// RentToPrice returns annual rent over price, or 0 when price is unknown.
func RentToPrice(monthlyRent, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return monthlyRent * 12 / price
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
