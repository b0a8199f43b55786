package models

// RawRecord is a provider-shaped payload as decoded from JSON. It is only
// interpreted by the adapter registered for its source kind.
type RawRecord map[string]any

// IDType ranks a candidate identifier by how much it can be trusted.
type IDType string

const (
	IDAuthoritative IDType = "authoritative"
	IDSource        IDType = "source"
	IDGenerated     IDType = "generated"
)

// CandidateID is one identifier a provider offered for a property.
type CandidateID struct {
	Type  IDType `json:"type"`
	Value string `json:"value"`
}

// ResolutionOutcome records which identifier tier produced ResolvedID.
type ResolutionOutcome string

const (
	OutcomeUnresolved        ResolutionOutcome = ""
	OutcomeAuthoritative     ResolutionOutcome = "authoritative"
	OutcomeSourceFallback    ResolutionOutcome = "source-fallback"
	OutcomeGeneratedFallback ResolutionOutcome = "generated-fallback"
)

// Specs holds the physical description of a property. Zero means unknown.
type Specs struct {
	Beds         int     `json:"beds,omitempty"`
	Baths        float64 `json:"baths,omitempty"`
	Sqft         int     `json:"sqft,omitempty"`
	YearBuilt    int     `json:"yearBuilt,omitempty"`
	PropertyType string  `json:"propertyType,omitempty"`
	Units        int     `json:"units,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// Financials are nil until supplied by the provider or estimated.
type Financials struct {
	MonthlyRent       *float64 `json:"monthlyRent"`
	EstimatedMortgage *float64 `json:"estimatedMortgage"`
	CashFlow          *float64 `json:"cashFlow"`
	RentToPriceRatio  *float64 `json:"rentToPriceRatio"`
}

// Complete reports whether every financial field has a value.
func (f Financials) Complete() bool {
	return f.MonthlyRent != nil && f.EstimatedMortgage != nil &&
		f.CashFlow != nil && f.RentToPriceRatio != nil
}

// EstimationFlags marks which financial fields were estimated rather than
// supplied by the provider.
type EstimationFlags struct {
	MonthlyRent       bool `json:"monthlyRent"`
	EstimatedMortgage bool `json:"estimatedMortgage"`
	CashFlow          bool `json:"cashFlow"`
	RentToPriceRatio  bool `json:"rentToPriceRatio"`
}

// Provenance describes where a property came from and how complete it was.
type Provenance struct {
	Source            string            `json:"source"`
	SourceKind        string            `json:"sourceKind"`
	Estimated         EstimationFlags   `json:"estimated"`
	ResolutionOutcome ResolutionOutcome `json:"resolutionOutcome"`
}

// Grade is the investment classification derived from a score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Rank orders grades so that A > B > C > D.
func (g Grade) Rank() int {
	switch g {
	case GradeA:
		return 4
	case GradeB:
		return 3
	case GradeC:
		return 2
	case GradeD:
		return 1
	}
	return 0
}

// Score is the explainable result of the scoring engine.
type Score struct {
	Value          float64            `json:"value"`
	Grade          Grade              `json:"grade"`
	Factors        map[string]float64 `json:"factors"`
	EstimatedUnits int                `json:"estimatedUnits"`
}

// CanonicalProperty is the source-agnostic unit of work of the pipeline.
type CanonicalProperty struct {
	CandidateIDs []CandidateID `json:"candidateIds"`
	ResolvedID   string        `json:"resolvedId"`

	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`

	Price      float64    `json:"price"`
	Specs      Specs      `json:"specs"`
	Financials Financials `json:"financials"`
	Provenance Provenance `json:"provenance"`

	Score *Score `json:"score,omitempty"`
}

// CandidateID returns the first candidate of the given type, if any.
func (p *CanonicalProperty) CandidateID(t IDType) (string, bool) {
	for _, c := range p.CandidateIDs {
		if c.Type == t && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Clone returns a deep copy so cached snapshots cannot be mutated by readers.
func (p *CanonicalProperty) Clone() *CanonicalProperty {
	if p == nil {
		return nil
	}
	c := *p
	c.CandidateIDs = append([]CandidateID(nil), p.CandidateIDs...)
	c.Financials = Financials{
		MonthlyRent:       clonePtr(p.Financials.MonthlyRent),
		EstimatedMortgage: clonePtr(p.Financials.EstimatedMortgage),
		CashFlow:          clonePtr(p.Financials.CashFlow),
		RentToPriceRatio:  clonePtr(p.Financials.RentToPriceRatio),
	}
	if p.Score != nil {
		s := *p.Score
		s.Factors = make(map[string]float64, len(p.Score.Factors))
		for k, v := range p.Score.Factors {
			s.Factors[k] = v
		}
		c.Score = &s
	}
	return &c
}

// Float returns a pointer to v, for populating Financials.
func Float(v float64) *float64 { return &v }

// Value dereferences a financial field, treating nil as zero.
func Value(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func clonePtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
