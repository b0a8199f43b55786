package main

import (
	"fmt"
	"math/rand"
	"strings"

	"propscan/adapters"
	"propscan/config"
	"propscan/feeds"
	"propscan/scraper/browser"
	"propscan/services"
	"propscan/utils"
)

const defaultMockCount = 25

// buildChain turns the configured source list into the orchestrator's
// ordered chain, preserving order.
func buildChain(cfg *config.Config, sources []config.SourceConfig, logger *utils.Logger) ([]services.SourceSpec, error) {
	specs := make([]services.SourceSpec, 0, len(sources))
	for _, sc := range sources {
		timeout, err := sc.TimeoutDuration()
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", sc.Name, err)
		}
		desc := adapters.SourceDescriptor{Name: sc.Name, Kind: sc.Kind}

		var src services.Source
		switch sc.Type {
		case config.FeedFile, "":
			src = feeds.NewFileFeed(desc, sc.Path)
		case config.FeedBrowser:
			src = browser.New(desc, browser.Options{
				URLs:        sc.URLs,
				Script:      sc.Script,
				ChromeBin:   cfg.ChromeBin,
				Concurrency: cfg.MaxConcurrency,
				RateLimitMs: cfg.RateLimitMs,
				MaxRetries:  cfg.MaxRetries,
			}, logger)
		case config.FeedMock:
			if sc.Kind != adapters.KindCommercial {
				logger.Warn("[chain] Mock source %q always produces %s records, ignoring kind %q",
					sc.Name, adapters.KindCommercial, sc.Kind)
			}
			count := sc.Count
			if count <= 0 {
				count = defaultMockCount
			}
			src = feeds.NewMockFeed(sc.Name, count, rand.New(rand.NewSource(sc.Seed)))
		default:
			return nil, fmt.Errorf("source %q: unknown type %q", sc.Name, sc.Type)
		}

		specs = append(specs, services.SourceSpec{Source: src, Timeout: timeout, MinResults: sc.MinResults})
	}
	return specs, nil
}

// describeSource is the one-line target summary printed by `propscan sources`.
func describeSource(sc config.SourceConfig) string {
	switch sc.Type {
	case config.FeedBrowser:
		return strings.Join(sc.URLs, ", ")
	case config.FeedMock:
		count := sc.Count
		if count <= 0 {
			count = defaultMockCount
		}
		return fmt.Sprintf("seed=%d count=%d", sc.Seed, count)
	default:
		return sc.Path
	}
}
