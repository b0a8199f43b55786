package adapters

import "propscan/models"

// NormalizeAuction maps an auction or government-sale record. These feeds
// rarely carry an asking price, so the opening bid stands in for it, then the
// minimum bid, then the assessed value.
//
// Expected shape:
//
//	parcelId | apn              parcel number (authoritative)
//	auctionId | caseNumber      sale identifier
//	propertyAddress, city, state, zip
//	openingBid, minimumBid, assessedValue
//	beds, baths, livingArea, yearBuilt, propertyClass, legalDescription
func NormalizeAuction(raw models.RawRecord, src SourceDescriptor) Outcome {
	p := newProperty(src)

	addCandidate(p, models.IDAuthoritative, first(raw, "parcelId", "apn"))
	addCandidate(p, models.IDSource, first(raw, "auctionId", "caseNumber"))

	p.Address = str(raw["propertyAddress"])
	p.City = str(raw["city"])
	p.State = normaliseState(str(raw["state"]))
	p.Zip = str(raw["zip"])

	price, hasPrice := firstMoney(raw, "openingBid", "minimumBid", "assessedValue")
	p.Price = price

	p.Specs = models.Specs{
		Beds:         parseInt(raw["beds"]),
		Baths:        parseFloat(raw["baths"]),
		Sqft:         parseInt(raw["livingArea"]),
		YearBuilt:    parseInt(raw["yearBuilt"]),
		PropertyType: str(raw["propertyClass"]),
		Description:  str(raw["legalDescription"]),
	}

	return usable(p, hasPrice)
}
