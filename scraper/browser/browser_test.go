package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propscan/adapters"
	"propscan/models"
)

var desc = adapters.SourceDescriptor{Name: "brokerage", Kind: adapters.KindCommercial}

func TestNewAppliesDefaults(t *testing.T) {
	t.Setenv("CHROME_BIN", "/opt/test/chrome")
	f := New(desc, Options{URLs: []string{"https://example.com/a"}}, nil)

	assert.Equal(t, desc, f.Descriptor())
	assert.Equal(t, DefaultScript, f.opts.Script)
	assert.Equal(t, 1, f.opts.Concurrency)
	assert.Equal(t, 1, f.opts.MaxRetries)
	assert.Equal(t, defaultPageTimeout, f.opts.PageTimeout)
	assert.Equal(t, defaultSettle, f.opts.Settle)
	assert.Equal(t, "/opt/test/chrome", f.opts.ChromeBin)
}

func TestNewKeepsExplicitOptions(t *testing.T) {
	f := New(desc, Options{
		Script:      "(function(){return []})()",
		ChromeBin:   "/usr/local/bin/chromium",
		Concurrency: 3,
		PageTimeout: time.Second,
		Settle:      -1,
	}, nil)

	assert.Equal(t, "(function(){return []})()", f.opts.Script)
	assert.Equal(t, "/usr/local/bin/chromium", f.opts.ChromeBin)
	assert.Equal(t, 3, f.opts.Concurrency)
	assert.Equal(t, time.Second, f.opts.PageTimeout)
	assert.Zero(t, f.opts.Settle)
}

func TestFetchWithoutURLs(t *testing.T) {
	_, err := New(desc, Options{}, nil).Fetch(context.Background())
	require.Error(t, err)
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(desc, Options{URLs: []string{"https://example.com"}}, nil).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordKey(t *testing.T) {
	tests := []struct {
		name string
		rec  models.RawRecord
		want string
	}{
		{"property id wins", models.RawRecord{"propertyId": "TX-1", "listingId": "L-1"}, "propertyId:TX-1"},
		{"listing id", models.RawRecord{"listingId": "L-1", "url": "https://x"}, "listingId:L-1"},
		{"numeric id", models.RawRecord{"id": float64(42)}, "id:42"},
		{"blank ids skipped", models.RawRecord{"listingId": "  ", "url": "https://x/1"}, "url:https://x/1"},
		{"nothing", models.RawRecord{"address": "1 Elm St"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recordKey(tt.rec))
		})
	}
}
