package adapters

import "propscan/models"

// NormalizeDiscovery maps a record from an AI discovery engine. These
// payloads nest everything and often include their own financial estimates,
// which are kept as provider-supplied values.
//
// Expected shape:
//
//	canonicalId                 cross-provider ID (authoritative)
//	uuid | id                   engine ID
//	location   {address, city, state, postalCode}
//	financials {listPrice, estimatedRent, mortgage, cashFlow}
//	features   {beds, baths, sqft, yearBuilt, type, units}
//	summary
func NormalizeDiscovery(raw models.RawRecord, src SourceDescriptor) Outcome {
	p := newProperty(src)

	addCandidate(p, models.IDAuthoritative, raw["canonicalId"])
	addCandidate(p, models.IDSource, first(raw, "uuid", "id"))

	if loc := object(raw, "location"); loc != nil {
		p.Address = str(loc["address"])
		p.City = str(loc["city"])
		p.State = normaliseState(str(loc["state"]))
		p.Zip = str(loc["postalCode"])
	}

	var hasPrice bool
	if fin := object(raw, "financials"); fin != nil {
		p.Price, hasPrice = parseMoney(fin["listPrice"])
		p.Financials.MonthlyRent = optionalRent(fin["estimatedRent"])
		p.Financials.EstimatedMortgage = optionalMoney(fin["mortgage"])
		p.Financials.CashFlow = optionalMoney(fin["cashFlow"])
	}

	if feat := object(raw, "features"); feat != nil {
		p.Specs = models.Specs{
			Beds:         parseInt(feat["beds"]),
			Baths:        parseFloat(feat["baths"]),
			Sqft:         parseInt(feat["sqft"]),
			YearBuilt:    parseInt(feat["yearBuilt"]),
			PropertyType: str(feat["type"]),
			Units:        parseInt(feat["units"]),
		}
	}
	p.Specs.Description = str(raw["summary"])

	return usable(p, hasPrice)
}
