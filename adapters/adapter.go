// Package adapters normalizes provider-shaped payloads into canonical
// properties. Each provider family has its own adapter; none of them estimate
// or score.
package adapters

import (
	"fmt"

	"propscan/models"
)

// Source kinds understood by the registry.
const (
	KindCommercial = "commercial"
	KindAuction    = "auction"
	KindDiscovery  = "discovery"
)

// SourceDescriptor identifies the source a raw record came from.
type SourceDescriptor struct {
	Name string
	Kind string
}

// Outcome is the result of normalizing one raw record: either a property or
// a rejection reason.
type Outcome struct {
	Property *models.CanonicalProperty
	Err      error
}

// Ok wraps an accepted property.
func Ok(p *models.CanonicalProperty) Outcome { return Outcome{Property: p} }

// Rejected wraps a rejection; reason is matched with errors.Is against
// models.ErrMalformedRecord.
func Rejected(reason string) Outcome {
	return Outcome{Err: fmt.Errorf("%w: %s", models.ErrMalformedRecord, reason)}
}

// Accepted reports whether the record produced a property.
func (o Outcome) Accepted() bool { return o.Err == nil && o.Property != nil }

// Adapter maps one provider family's payload into the canonical shape.
type Adapter interface {
	Normalize(raw models.RawRecord, src SourceDescriptor) Outcome
}

// AdapterFunc lets a plain function satisfy Adapter.
type AdapterFunc func(raw models.RawRecord, src SourceDescriptor) Outcome

func (f AdapterFunc) Normalize(raw models.RawRecord, src SourceDescriptor) Outcome {
	return f(raw, src)
}

var registry = map[string]Adapter{
	KindCommercial: AdapterFunc(NormalizeCommercial),
	KindAuction:    AdapterFunc(NormalizeAuction),
	KindDiscovery:  AdapterFunc(NormalizeDiscovery),
}

// ForKind returns the adapter registered for kind.
func ForKind(kind string) (Adapter, error) {
	a, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("adapters: %w: %q", models.ErrUnknownSourceKind, kind)
	}
	return a, nil
}

// Kinds lists the registered source kinds.
func Kinds() []string {
	return []string{KindCommercial, KindAuction, KindDiscovery}
}

// Normalize runs the adapter for src.Kind over every record and splits the
// results into accepted properties and a rejection count.
func Normalize(records []models.RawRecord, src SourceDescriptor) ([]*models.CanonicalProperty, int, error) {
	a, err := ForKind(src.Kind)
	if err != nil {
		return nil, 0, err
	}
	props := make([]*models.CanonicalProperty, 0, len(records))
	rejected := 0
	for _, r := range records {
		out := a.Normalize(r, src)
		if !out.Accepted() {
			rejected++
			continue
		}
		props = append(props, out.Property)
	}
	return props, rejected, nil
}

func newProperty(src SourceDescriptor) *models.CanonicalProperty {
	return &models.CanonicalProperty{
		Provenance: models.Provenance{Source: src.Name, SourceKind: src.Kind},
	}
}

// usable applies the shared rejection rule: a record needs an address or a price.
func usable(p *models.CanonicalProperty, hasPrice bool) Outcome {
	if p.Address == "" && !hasPrice {
		return Rejected("no address and no price")
	}
	return Ok(p)
}
