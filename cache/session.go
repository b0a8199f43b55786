// Package cache holds the process-local snapshot of the last resolution pass.
package cache

import (
	"strings"
	"sync/atomic"
	"unicode"

	"propscan/models"
)

// Store is the contract the orchestrator writes through and consumers read
// from. ReplaceAll must be atomic: readers see the old or the new snapshot,
// never a mix.
type Store interface {
	Lookup(id string) (*models.CanonicalProperty, error)
	ReplaceAll(props []*models.CanonicalProperty)
}

type snapshot struct {
	byID     map[string]*models.CanonicalProperty
	byDigits map[string]string
	ordered  []*models.CanonicalProperty
}

// Session is an in-memory Store. Each ReplaceAll builds a fresh snapshot and
// publishes it with a single pointer swap, so reads take no locks.
type Session struct {
	current atomic.Pointer[snapshot]
}

// NewSession returns an empty Session.
func NewSession() *Session {
	s := &Session{}
	s.current.Store(build(nil))
	return s
}

// ReplaceAll swaps in a new snapshot built from props. Properties are copied,
// so later mutation by the caller does not leak into the cache. Properties
// without a ResolvedID are skipped; on duplicate IDs the first one wins.
func (s *Session) ReplaceAll(props []*models.CanonicalProperty) {
	s.current.Store(build(props))
}

// Lookup returns a copy of the property with the given ID. An exact match is
// tried first, then a match on the digits of the ID, which tolerates prefix
// and separator drift between sources ("MLS-00123" finds "mls_00123").
func (s *Session) Lookup(id string) (*models.CanonicalProperty, error) {
	snap := s.current.Load()
	id = strings.TrimSpace(id)

	if p, ok := snap.byID[id]; ok {
		return p.Clone(), nil
	}
	if digits := NumericKey(id); digits != "" {
		if key, ok := snap.byDigits[digits]; ok {
			return snap.byID[key].Clone(), nil
		}
	}
	return nil, models.ErrNotFound
}

// All returns copies of every cached property in the order they were stored.
func (s *Session) All() []*models.CanonicalProperty {
	snap := s.current.Load()
	out := make([]*models.CanonicalProperty, len(snap.ordered))
	for i, p := range snap.ordered {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of cached properties.
func (s *Session) Len() int {
	return len(s.current.Load().ordered)
}

// NumericKey keeps only the digits of id, with leading zeros trimmed.
func NumericKey(id string) string {
	var b strings.Builder
	for _, r := range id {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "0")
}

func build(props []*models.CanonicalProperty) *snapshot {
	snap := &snapshot{
		byID:     make(map[string]*models.CanonicalProperty, len(props)),
		byDigits: make(map[string]string, len(props)),
		ordered:  make([]*models.CanonicalProperty, 0, len(props)),
	}
	for _, p := range props {
		if p == nil || p.ResolvedID == "" {
			continue
		}
		if _, dup := snap.byID[p.ResolvedID]; dup {
			continue
		}
		c := p.Clone()
		snap.byID[c.ResolvedID] = c
		snap.ordered = append(snap.ordered, c)
		if digits := NumericKey(c.ResolvedID); digits != "" {
			if _, taken := snap.byDigits[digits]; !taken {
				snap.byDigits[digits] = c.ResolvedID
			}
		}
	}
	return snap
}
