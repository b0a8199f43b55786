package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"

	"propscan/models"
)

// authoritativeIDRegexp is the shape a cross-provider ID must have to be trusted.
var authoritativeIDRegexp = regexp.MustCompile(`^[A-Z0-9\-_]{6,}$`)

const generatedIDLength = 12

// IdentityResolver assigns every property exactly one ResolvedID.
type IdentityResolver struct{}

// NewIdentityResolver returns a resolver. It holds no state.
func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{}
}

// Resolve picks the ResolvedID in priority order: a well-formed authoritative
// ID, then the source-native ID, then a generated ID derived from address,
// price and sqft. A property that already has a ResolvedID is left alone.
func (r *IdentityResolver) Resolve(p *models.CanonicalProperty) *models.CanonicalProperty {
	if p.ResolvedID != "" {
		return p
	}

	for _, c := range p.CandidateIDs {
		if c.Type == models.IDAuthoritative && IsAuthoritativeID(c.Value) {
			p.ResolvedID = strings.TrimSpace(c.Value)
			p.Provenance.ResolutionOutcome = models.OutcomeAuthoritative
			return p
		}
	}

	if id, ok := p.CandidateID(models.IDSource); ok {
		p.ResolvedID = strings.TrimSpace(id)
		p.Provenance.ResolutionOutcome = models.OutcomeSourceFallback
		return p
	}

	id := GenerateID(p.Provenance.Source, p.Address, p.Price, p.Specs.Sqft)
	p.CandidateIDs = append(p.CandidateIDs, models.CandidateID{Type: models.IDGenerated, Value: id})
	p.ResolvedID = id
	p.Provenance.ResolutionOutcome = models.OutcomeGeneratedFallback
	return p
}

// IsAuthoritativeID reports whether id is well-formed enough to be used as
// the cross-provider identity.
func IsAuthoritativeID(id string) bool {
	return authoritativeIDRegexp.MatchString(strings.TrimSpace(id))
}

// GenerateID derives a reproducible ID from the fields that best identify a
// listing when the provider gave none. The address is case and whitespace
// normalized so trivial formatting drift yields the same ID.
func GenerateID(source, address string, price float64, sqft int) string {
	key := fmt.Sprintf("%s|%.2f|%d", strings.ToUpper(strings.Join(strings.Fields(address), " ")), price, sqft)
	sum := fmt.Sprintf("%016x", xxhash.Sum64String(key))

	return sourceSlug(source) + "-" + sum[:generatedIDLength]
}

// ScopedID qualifies a source-native ID with its source so that two
// providers reusing the same native ID stay distinct.
func ScopedID(source, id string) string {
	return sourceSlug(source) + "-" + strings.TrimSpace(id)
}

func sourceSlug(source string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(source), "-"))
	if slug == "" {
		return "unknown"
	}
	return slug
}
