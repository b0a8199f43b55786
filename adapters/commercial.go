package adapters

import "propscan/models"

// NormalizeCommercial maps a brokerage/commercial marketplace record.
//
// Expected shape:
//
//	propertyId            cross-provider ID (authoritative)
//	listingId | id        marketplace ID
//	address               string, or {streetAddress, city, state, zipCode}
//	city, state, zipCode  used when address is a plain string
//	price | askingPrice   number or money string ("$1,250,000", "1.2M")
//	bedrooms, bathrooms, buildingSize | squareFeet, yearBuilt
//	propertyType, numberOfUnits, description, monthlyRent
func NormalizeCommercial(raw models.RawRecord, src SourceDescriptor) Outcome {
	p := newProperty(src)

	addCandidate(p, models.IDAuthoritative, raw["propertyId"])
	addCandidate(p, models.IDSource, first(raw, "listingId", "id"))

	if addr := object(raw, "address"); addr != nil {
		p.Address = str(addr["streetAddress"])
		p.City = str(addr["city"])
		p.State = normaliseState(str(addr["state"]))
		p.Zip = str(first(addr, "zipCode", "zip"))
	} else {
		p.Address = str(raw["address"])
		p.City = str(raw["city"])
		p.State = normaliseState(str(raw["state"]))
		p.Zip = str(first(raw, "zipCode", "zip"))
	}

	price, hasPrice := firstMoney(raw, "price", "askingPrice")
	p.Price = price

	p.Specs = models.Specs{
		Beds:         parseInt(raw["bedrooms"]),
		Baths:        parseFloat(raw["bathrooms"]),
		Sqft:         parseInt(first(raw, "buildingSize", "squareFeet")),
		YearBuilt:    parseInt(raw["yearBuilt"]),
		PropertyType: str(raw["propertyType"]),
		Units:        parseInt(raw["numberOfUnits"]),
		Description:  str(raw["description"]),
	}
	p.Financials.MonthlyRent = optionalRent(raw["monthlyRent"])

	return usable(p, hasPrice)
}
