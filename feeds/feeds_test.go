package feeds

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propscan/adapters"
)

var testDesc = adapters.SourceDescriptor{Name: "file", Kind: adapters.KindCommercial}

func TestDecodePayloadShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"array", `[{"address": "1 Oak St"}, {"address": "2 Oak St"}]`, 2},
		{"results envelope", `{"total": 1, "results": [{"address": "1 Oak St"}]}`, 1},
		{"properties envelope", `{"properties": []}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodePayload([]byte(tt.payload))
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"", "not json", `{"unexpected": [1]}`, `[1, 2]`} {
		_, err := DecodePayload([]byte(payload))
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestFileFeedFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listings": [{"listingId": 90071992547409931, "price": 250000}]}`), 0o644))

	records, err := NewFileFeed(testDesc, path).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	props, rejected, err := adapters.Normalize(records, testDesc)
	require.NoError(t, err)
	assert.Zero(t, rejected)
	id, _ := props[0].CandidateID("source")
	assert.Equal(t, "90071992547409931", id, "large numeric IDs are not rounded")
}

func TestFileFeedMissingFile(t *testing.T) {
	_, err := NewFileFeed(testDesc, filepath.Join(t.TempDir(), "nope.json")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestMockFeedIsDeterministicPerSeed(t *testing.T) {
	a, err := NewMockFeed("mock", 5, rand.New(rand.NewSource(42))).Fetch(context.Background())
	require.NoError(t, err)
	b, err := NewMockFeed("mock", 5, rand.New(rand.NewSource(42))).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 5)

	props, rejected, err := adapters.Normalize(a, adapters.SourceDescriptor{Name: "mock", Kind: adapters.KindCommercial})
	require.NoError(t, err)
	assert.Zero(t, rejected)
	assert.Len(t, props, 5)
}

func TestStaticFeedHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStaticFeed(testDesc, nil).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
