package models

// InsightReport holds the computed analytics over one resolved catalog.
type InsightReport struct {
	TotalProperties int
	AveragePrice    float64
	MinPrice        float64
	MaxPrice        float64
	AverageScore    float64
	TopScored       []*CanonicalProperty

	ByGrade   map[Grade]int
	ByCity    map[string]int
	BySource  map[string]int
	ByOutcome map[ResolutionOutcome]int

	// EstimatedRent counts properties whose rent was not provider-supplied.
	EstimatedRent int
}
