package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propscan/adapters"
	"propscan/config"
	"propscan/feeds"
	"propscan/models"
	"propscan/scraper/browser"
	"propscan/utils"
)

func TestBuildChainPreservesOrderAndLimits(t *testing.T) {
	cfg := &config.Config{MaxConcurrency: 2, MaxRetries: 1}
	sources := []config.SourceConfig{
		{Name: "loopfeed", Kind: adapters.KindCommercial, Type: config.FeedFile, Path: "loop.json", Timeout: "3s", MinResults: 5},
		{Name: "county", Kind: adapters.KindAuction, Type: config.FeedBrowser, URLs: []string{"https://example.com"}},
		{Name: "mock", Kind: adapters.KindCommercial, Type: config.FeedMock, Seed: 1},
	}

	chain, err := buildChain(cfg, sources, utils.Discard())
	require.NoError(t, err)
	require.Len(t, chain, 3)

	assert.IsType(t, &feeds.FileFeed{}, chain[0].Source)
	assert.IsType(t, &browser.Feed{}, chain[1].Source)
	assert.IsType(t, &feeds.MockFeed{}, chain[2].Source)

	assert.Equal(t, 3*time.Second, chain[0].Timeout)
	assert.Equal(t, 5, chain[0].MinResults)
	assert.Zero(t, chain[1].Timeout)
	for i, sc := range sources {
		assert.Equal(t, sc.Name, chain[i].Source.Descriptor().Name)
	}
}

func TestBuildChainRejectsUnknownType(t *testing.T) {
	_, err := buildChain(&config.Config{}, []config.SourceConfig{{Name: "x", Kind: adapters.KindAuction, Type: "ftp"}}, utils.Discard())
	assert.Error(t, err)
}

func TestCriteriaFlagsOverrideEnvironment(t *testing.T) {
	cfg := &config.Config{MinScore: 40, MaxPrice: 500_000, MaxResults: 20}
	cmd := resolveCmd()
	require.NoError(t, cmd.Flags().Set("min-score", "55"))
	require.NoError(t, cmd.Flags().Set("limit", "5"))

	opts := &resolveOptions{minScore: 55, maxResults: 5, minGrade: "b"}
	c, err := criteriaFor(cmd, cfg, opts)
	require.NoError(t, err)

	assert.Equal(t, 55.0, c.MinScore)
	assert.Equal(t, 500_000.0, c.MaxPrice, "unset flags keep the environment value")
	assert.Equal(t, 5, c.MaxResults)
	assert.Equal(t, models.GradeB, c.MinGrade)

	_, err = criteriaFor(resolveCmd(), cfg, &resolveOptions{minGrade: "E"})
	assert.Error(t, err)
}

func TestResolveCommandWithFileSource(t *testing.T) {
	dir := t.TempDir()
	payload := `{"results": [
		{"listingId": "LF-1", "address": "1200 Main St", "city": "Fort Worth", "state": "TX",
		 "price": "$2,400,000", "bedrooms": 12, "bathrooms": 10, "buildingSize": 12000},
		{"listingId": "LF-2", "address": "77 Quiet Ln", "price": 250000},
		{"listingId": "LF-3"}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loop.json"), []byte(payload), 0o644))
	sourcesYAML := "sources:\n  - name: loopfeed\n    kind: commercial\n    path: " + filepath.Join(dir, "loop.json") + "\n"
	sourcesFile := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(sourcesFile, []byte(sourcesYAML), 0o644))

	t.Setenv("CSV_OUTPUT_PATH", filepath.Join(dir, "out", "scored.csv"))

	cmd := resolveCmd()
	cmd.Flags().String("sources", sourcesFile, "")
	cmd.Flags().Bool("debug", false, "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--csv", "--lookup", "LF-1,NOPE-9", "--metrics-out", filepath.Join(dir, "pass.prom")})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	text := out.String()
	assert.Contains(t, text, "INVESTMENT CATALOG INSIGHTS")
	assert.Contains(t, text, "2 of 2 scored properties match")
	assert.Contains(t, text, "lookup LF-1: 1200 Main St")
	assert.Contains(t, text, "lookup NOPE-9: not found")

	assert.FileExists(t, filepath.Join(dir, "out", "scored.csv"))
	prom, err := os.ReadFile(filepath.Join(dir, "pass.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `propscan_rejected_records_total{source="loopfeed"} 1`)
}

func TestResolveCommandAllSourcesFailed(t *testing.T) {
	dir := t.TempDir()
	sourcesFile := filepath.Join(dir, "sources.yaml")
	sourcesYAML := "sources:\n  - name: gone\n    kind: auction\n    path: " + filepath.Join(dir, "missing.json") + "\n"
	require.NoError(t, os.WriteFile(sourcesFile, []byte(sourcesYAML), 0o644))

	cmd := resolveCmd()
	cmd.Flags().String("sources", sourcesFile, "")
	cmd.Flags().Bool("debug", false, "")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, models.ErrAllSourcesFailed)
}
