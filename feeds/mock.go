package feeds

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"propscan/adapters"
	"propscan/models"
)

var (
	mockStreets = []string{"Main St", "Oak Ave", "Elm Rd", "Magnolia Blvd", "Pecan Dr", "Lake Shore Ct"}
	mockMarkets = []struct{ city, state, zip string }{
		{"Fort Worth", "TX", "76104"},
		{"Dayton", "OH", "45402"},
		{"Tampa", "FL", "33602"},
		{"Memphis", "TN", "38103"},
		{"Boise", "ID", "83702"},
	}
	mockTypes = []string{"Single Family", "Duplex", "Triplex", "Fourplex", "Apartment", "Townhouse"}
)

// MockFeed generates commercial-shaped records from an injected random
// source. Given the same seed it yields the same records, which keeps demo
// runs and tests repeatable.
type MockFeed struct {
	desc  adapters.SourceDescriptor
	count int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockFeed returns a feed producing count records per fetch from rng.
func NewMockFeed(name string, count int, rng *rand.Rand) *MockFeed {
	return &MockFeed{
		desc:  adapters.SourceDescriptor{Name: name, Kind: adapters.KindCommercial},
		count: count,
		rng:   rng,
	}
}

func (f *MockFeed) Descriptor() adapters.SourceDescriptor { return f.desc }

func (f *MockFeed) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]models.RawRecord, 0, f.count)
	for i := 0; i < f.count; i++ {
		records = append(records, f.record(i))
	}
	return records, nil
}

func (f *MockFeed) record(i int) models.RawRecord {
	market := mockMarkets[f.rng.Intn(len(mockMarkets))]
	beds := 1 + f.rng.Intn(12)
	baths := 1 + f.rng.Intn(beds)
	sqft := 600 + beds*350 + f.rng.Intn(900)
	price := float64(80_000 + f.rng.Intn(40)*45_000)

	return models.RawRecord{
		"listingId": fmt.Sprintf("MOCK-%05d", i+1),
		"address": map[string]any{
			"streetAddress": fmt.Sprintf("%d %s", 100+f.rng.Intn(9800), mockStreets[f.rng.Intn(len(mockStreets))]),
			"city":          market.city,
			"state":         market.state,
			"zipCode":       market.zip,
		},
		"price":        price,
		"bedrooms":     beds,
		"bathrooms":    baths,
		"buildingSize": sqft,
		"yearBuilt":    1940 + f.rng.Intn(80),
		"propertyType": mockTypes[f.rng.Intn(len(mockTypes))],
	}
}
