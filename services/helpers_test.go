package services

import (
	"propscan/models"
	"propscan/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

// portfolio is a large multi-unit record with no provider financials.
func portfolio() *models.CanonicalProperty {
	return &models.CanonicalProperty{
		CandidateIDs: []models.CandidateID{{Type: models.IDSource, Value: "L-12"}},
		Address:      "1200 Main St",
		City:         "Fort Worth",
		State:        "TX",
		Price:        2_400_000,
		Specs:        models.Specs{Beds: 12, Baths: 10, Sqft: 12000},
		Provenance:   models.Provenance{Source: "loopfeed"},
	}
}

// bare has only an address and a price.
func bare() *models.CanonicalProperty {
	return &models.CanonicalProperty{
		Address:    "77 Quiet Ln",
		Price:      250_000,
		Provenance: models.Provenance{Source: "loopfeed"},
	}
}
