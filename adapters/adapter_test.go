package adapters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propscan/models"
)

var (
	commercialSrc = SourceDescriptor{Name: "loopfeed", Kind: KindCommercial}
	auctionSrc    = SourceDescriptor{Name: "county-sales", Kind: KindAuction}
	discoverySrc  = SourceDescriptor{Name: "scout-ai", Kind: KindDiscovery}
)

func decode(t *testing.T, payload string) models.RawRecord {
	t.Helper()
	var rec models.RawRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	return rec
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{"$1,250,000", 1250000, true},
		{"1.2M", 1200000, true},
		{"450k", 450000, true},
		{"USD 99", 99, true},
		{float64(325000), 325000, true},
		{json.Number("180000"), 180000, true},
		{"N/A", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{float64(-5), 0, false},
		{"-250000", 0, false},
		{" -$1,200", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseMoney(tt.in)
		assert.Equal(t, tt.wantOK, ok, "parseMoney(%v) ok", tt.in)
		assert.Equal(t, tt.want, got, "parseMoney(%v)", tt.in)
	}
}

func TestNormalizeCommercialNestedAddress(t *testing.T) {
	rec := decode(t, `{
		"propertyId": "TX-FTW-100234",
		"listingId": 88123,
		"address": {"streetAddress": " 1200  Main St ", "city": "Fort Worth", "state": "tx", "zipCode": "76102"},
		"askingPrice": "$2,400,000",
		"bedrooms": 12, "bathrooms": "10", "buildingSize": "12,000 sqft",
		"yearBuilt": 1978, "propertyType": "Apartment", "numberOfUnits": 8,
		"description": "Twelve bed portfolio of rental units",
		"monthlyRent": 21000
	}`)

	out := NormalizeCommercial(rec, commercialSrc)
	require.True(t, out.Accepted())
	p := out.Property

	assert.Equal(t, "1200 Main St", p.Address)
	assert.Equal(t, "TX", p.State)
	assert.Equal(t, "76102", p.Zip)
	assert.Equal(t, 2400000.0, p.Price)
	assert.Equal(t, 12, p.Specs.Beds)
	assert.Equal(t, 10.0, p.Specs.Baths)
	assert.Equal(t, 12000, p.Specs.Sqft)
	assert.Equal(t, 8, p.Specs.Units)
	require.NotNil(t, p.Financials.MonthlyRent)
	assert.Equal(t, 21000.0, *p.Financials.MonthlyRent)
	assert.Nil(t, p.Financials.EstimatedMortgage)

	assert.Equal(t, []models.CandidateID{
		{Type: models.IDAuthoritative, Value: "TX-FTW-100234"},
		{Type: models.IDSource, Value: "88123"},
	}, p.CandidateIDs)
	assert.Equal(t, "loopfeed", p.Provenance.Source)
	assert.Empty(t, p.ResolvedID, "adapters never resolve identity")
	assert.Nil(t, p.Score, "adapters never score")
}

func TestNormalizeAuctionBidFallback(t *testing.T) {
	rec := decode(t, `{
		"caseNumber": "2024-CV-0091",
		"propertyAddress": "45 Elm Rd",
		"city": "Dayton", "state": "OH", "zip": "45402",
		"minimumBid": "$61,500",
		"assessedValue": 90000,
		"beds": 3, "baths": 1.5, "livingArea": 1400,
		"propertyClass": "Duplex"
	}`)

	out := NormalizeAuction(rec, auctionSrc)
	require.True(t, out.Accepted())
	assert.Equal(t, 61500.0, out.Property.Price, "minimumBid wins over assessedValue")
	assert.Equal(t, 1.5, out.Property.Specs.Baths)
	assert.Equal(t, "Duplex", out.Property.Specs.PropertyType)

	id, ok := out.Property.CandidateID(models.IDSource)
	require.True(t, ok)
	assert.Equal(t, "2024-CV-0091", id)
	_, ok = out.Property.CandidateID(models.IDAuthoritative)
	assert.False(t, ok)
}

func TestNormalizeDiscoveryKeepsProviderFinancials(t *testing.T) {
	rec := decode(t, `{
		"uuid": "c0ffee-42",
		"location": {"address": "9 Bay Ct", "city": "Tampa", "state": "fl", "postalCode": "33602"},
		"financials": {"listPrice": 410000, "estimatedRent": 3100, "cashFlow": "-250"},
		"features": {"beds": 4, "baths": 2, "sqft": 2100, "type": "Single Family"},
		"summary": "Updated single family home near downtown"
	}`)

	out := NormalizeDiscovery(rec, discoverySrc)
	require.True(t, out.Accepted())
	p := out.Property

	assert.Equal(t, 410000.0, p.Price)
	require.NotNil(t, p.Financials.MonthlyRent)
	assert.Equal(t, 3100.0, *p.Financials.MonthlyRent)
	require.NotNil(t, p.Financials.CashFlow)
	assert.Equal(t, -250.0, *p.Financials.CashFlow)
	assert.Nil(t, p.Financials.EstimatedMortgage)
	assert.Equal(t, "FL", p.State)
	assert.Equal(t, "Updated single family home near downtown", p.Specs.Description)
}

func TestNonPositiveProviderRentIsDropped(t *testing.T) {
	for _, rent := range []string{`0`, `"$0"`, `"-1200"`, `-1200`} {
		rec := decode(t, `{
			"uuid": "rent-check",
			"location": {"address": "3 Oak Ave", "city": "Tampa", "state": "FL"},
			"financials": {"listPrice": 250000, "estimatedRent": `+rent+`, "cashFlow": "-300"}
		}`)
		out := NormalizeDiscovery(rec, discoverySrc)
		require.True(t, out.Accepted())
		assert.Nil(t, out.Property.Financials.MonthlyRent, "estimatedRent %s", rent)
		require.NotNil(t, out.Property.Financials.CashFlow, "negative cash flow is still a value")
		assert.Equal(t, -300.0, *out.Property.Financials.CashFlow)
	}

	rec := decode(t, `{"listingId": "L-9", "address": "9 Elm St", "price": 180000, "monthlyRent": "$0"}`)
	out := NormalizeCommercial(rec, commercialSrc)
	require.True(t, out.Accepted())
	assert.Nil(t, out.Property.Financials.MonthlyRent)
}

func TestRejectsRecordWithoutAddressOrPrice(t *testing.T) {
	tests := []struct {
		name    string
		adapter AdapterFunc
		src     SourceDescriptor
		payload string
	}{
		{"commercial", NormalizeCommercial, commercialSrc, `{"listingId": "L-1", "bedrooms": 3, "price": "call for price"}`},
		{"auction", NormalizeAuction, auctionSrc, `{"auctionId": "A-1", "beds": 2}`},
		{"discovery", NormalizeDiscovery, discoverySrc, `{"uuid": "x", "features": {"beds": 5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.adapter.Normalize(decode(t, tt.payload), tt.src)
			assert.False(t, out.Accepted())
			assert.ErrorIs(t, out.Err, models.ErrMalformedRecord)
		})
	}
}

func TestAcceptsAddressOnlyAndPriceOnly(t *testing.T) {
	addrOnly := NormalizeCommercial(decode(t, `{"address": "1 Oak St"}`), commercialSrc)
	assert.True(t, addrOnly.Accepted())

	priceOnly := NormalizeCommercial(decode(t, `{"price": 250000}`), commercialSrc)
	assert.True(t, priceOnly.Accepted())
}

func TestNormalizeCountsRejections(t *testing.T) {
	records := []models.RawRecord{
		decode(t, `{"address": "1 Oak St", "price": 250000}`),
		decode(t, `{"listingId": "nothing-useful"}`),
		decode(t, `{"address": "2 Oak St"}`),
	}

	props, rejected, err := Normalize(records, commercialSrc)
	require.NoError(t, err)
	assert.Len(t, props, 2)
	assert.Equal(t, 1, rejected)
}

func TestForKindUnknown(t *testing.T) {
	_, err := ForKind("zillow")
	assert.ErrorIs(t, err, models.ErrUnknownSourceKind)
}
