// Package feeds provides Source implementations that hand the orchestrator
// already-fetched payloads.
package feeds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"propscan/adapters"
	"propscan/models"
)

// envelopeKeys are the top-level keys a wrapped payload may list records under.
var envelopeKeys = []string{"results", "properties", "listings", "data"}

// StaticFeed serves a fixed set of records.
type StaticFeed struct {
	desc    adapters.SourceDescriptor
	records []models.RawRecord
}

// NewStaticFeed returns a feed that always yields records.
func NewStaticFeed(desc adapters.SourceDescriptor, records []models.RawRecord) *StaticFeed {
	return &StaticFeed{desc: desc, records: records}
}

func (f *StaticFeed) Descriptor() adapters.SourceDescriptor { return f.desc }

func (f *StaticFeed) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.records, nil
}

// FileFeed reads a JSON payload from disk on every fetch.
type FileFeed struct {
	desc adapters.SourceDescriptor
	path string
}

// NewFileFeed returns a feed backed by the JSON file at path.
func NewFileFeed(desc adapters.SourceDescriptor, path string) *FileFeed {
	return &FileFeed{desc: desc, path: path}
}

func (f *FileFeed) Descriptor() adapters.SourceDescriptor { return f.desc }

func (f *FileFeed) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("feeds: read %q: %w", f.path, err)
	}
	records, err := DecodePayload(data)
	if err != nil {
		return nil, fmt.Errorf("feeds: %q: %w", f.path, err)
	}
	return records, nil
}

// DecodePayload accepts either a top-level array of records or an object
// wrapping the array under one of the envelope keys. Numbers are kept as
// json.Number so large IDs survive intact.
func DecodePayload(data []byte) ([]models.RawRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode payload: empty")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if data[0] == '[' {
		var records []models.RawRecord
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return records, nil
	}

	var envelope map[string]json.RawMessage
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	for _, key := range envelopeKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		inner := json.NewDecoder(bytes.NewReader(raw))
		inner.UseNumber()
		var records []models.RawRecord
		if err := inner.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode payload %q: %w", key, err)
		}
		return records, nil
	}
	return nil, fmt.Errorf("decode payload: no record array under %v", envelopeKeys)
}
