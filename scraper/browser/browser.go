// Package browser renders JavaScript-heavy listing pages in headless Chrome
// and hands the orchestrator the records embedded in them.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"propscan/adapters"
	"propscan/models"
	"propscan/utils"
)

const (
	defaultPageTimeout = 60 * time.Second
	defaultSettle      = 4 * time.Second
	userAgent          = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// DefaultScript collects listing records from a rendered page. It prefers an
// embedded data array, then schema.org JSON-LD, then listing cards marked
// with data attributes. Records come back in the commercial shape.
const DefaultScript = `
(function() {
	var embedded = window.__PROPERTY_DATA__ || window.__LISTINGS__;
	if (Array.isArray(embedded) && embedded.length) return embedded;

	var results = [];
	var blocks = document.querySelectorAll('script[type="application/ld+json"]');
	for (var i = 0; i < blocks.length; i++) {
		var doc;
		try { doc = JSON.parse(blocks[i].textContent); } catch (e) { continue; }
		var items = Array.isArray(doc) ? doc : (doc['@graph'] || [doc]);
		for (var j = 0; j < items.length; j++) {
			var it = items[j] || {};
			var addr = it.address || (it.itemOffered && it.itemOffered.address);
			if (!addr) continue;
			var offer = it.offers || {};
			results.push({
				listingId:    it.identifier || it['@id'] || it.url || '',
				address:      {
					streetAddress: addr.streetAddress || '',
					city:          addr.addressLocality || '',
					state:         addr.addressRegion || '',
					zipCode:       addr.postalCode || ''
				},
				price:        offer.price || it.price || '',
				bedrooms:     it.numberOfBedrooms || it.numberOfRooms || '',
				bathrooms:    it.numberOfBathroomsTotal || '',
				squareFeet:   (it.floorSize && it.floorSize.value) || '',
				propertyType: it['@type'] || '',
				description:  (it.description || '').substring(0, 500)
			});
		}
	}
	if (results.length) return results;

	var cards = document.querySelectorAll('[data-listing-id]');
	for (var k = 0; k < cards.length; k++) {
		var c = cards[k];
		var text = function(sel) {
			var el = c.querySelector(sel);
			return el ? el.innerText.trim() : '';
		};
		results.push({
			listingId:    c.getAttribute('data-listing-id'),
			address:      text('[data-field="address"]') || (c.innerText.split('\n')[0] || '').trim(),
			city:         text('[data-field="city"]'),
			state:        text('[data-field="state"]'),
			price:        text('[data-field="price"]'),
			bedrooms:     text('[data-field="beds"]'),
			bathrooms:    text('[data-field="baths"]'),
			squareFeet:   text('[data-field="sqft"]'),
			propertyType: text('[data-field="type"]'),
			description:  text('[data-field="description"]').substring(0, 500)
		});
	}
	return results;
})()
`

// Options configures a Feed. Zero values take sensible defaults.
type Options struct {
	URLs        []string
	Script      string
	ChromeBin   string
	Concurrency int
	RateLimitMs int
	MaxRetries  int
	PageTimeout time.Duration
	Settle      time.Duration
}

// Feed renders each configured page and evaluates Script against it. It
// satisfies the orchestrator's source contract.
type Feed struct {
	desc   adapters.SourceDescriptor
	opts   Options
	logger *utils.Logger
}

// New creates a Feed for desc.
func New(desc adapters.SourceDescriptor, opts Options, logger *utils.Logger) *Feed {
	if opts.Script == "" {
		opts.Script = DefaultScript
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = defaultPageTimeout
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	} else if opts.Settle == 0 {
		opts.Settle = defaultSettle
	}
	if opts.ChromeBin == "" {
		opts.ChromeBin = findChromeBinary()
	}
	if logger == nil {
		logger = utils.Discard()
	}
	return &Feed{desc: desc, opts: opts, logger: logger}
}

func (f *Feed) Descriptor() adapters.SourceDescriptor { return f.desc }

// Fetch renders every page and merges their records, dropping repeats of the
// same listing seen on more than one page. A page that fails after retries is
// skipped; Fetch only fails when no page could be rendered.
func (f *Feed) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	if len(f.opts.URLs) == 0 {
		return nil, errors.New("browser: no urls configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.logger.Info("[browser] %s: rendering %d pages with %s", f.desc.Name, len(f.opts.URLs), binaryName(f.opts.ChromeBin))

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if f.opts.ChromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(f.opts.ChromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	defer cancelBrowser()

	retry := &utils.RetryConfig{MaxAttempts: f.opts.MaxRetries, BaseDelay: 2 * time.Second, Logger: f.logger}
	pool := utils.NewWorkerPool(f.opts.Concurrency, f.opts.RateLimitMs)
	seen := utils.NewKeySet()

	var (
		mu       sync.Mutex
		records  []models.RawRecord
		failures []error
	)
	for _, url := range f.opts.URLs {
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			var page []models.RawRecord
			err := retry.Do(ctx, "render "+url, func(ctx context.Context) error {
				var err error
				page, err = f.renderPage(browserCtx, url)
				return err
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.Warn("[browser] %s: page %s failed: %v", f.desc.Name, url, err)
				failures = append(failures, err)
				return
			}
			kept := 0
			for _, r := range page {
				if key := recordKey(r); key != "" && !seen.Add(key) {
					continue
				}
				records = append(records, r)
				kept++
			}
			f.logger.Debug("[browser] %s: %s yielded %d records (%d new)", f.desc.Name, url, len(page), kept)
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(failures) == len(f.opts.URLs) {
		return nil, fmt.Errorf("browser: all %d pages failed: %w", len(failures), errors.Join(failures...))
	}
	f.logger.Info("[browser] %s: collected %d records (%d distinct keys)", f.desc.Name, len(records), seen.Size())
	return records, nil
}

// renderPage loads url in a fresh tab, waits for it to settle and runs the
// extraction script.
func (f *Feed) renderPage(browserCtx context.Context, url string) ([]models.RawRecord, error) {
	ctx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, f.opts.PageTimeout)
	defer cancelTimeout()

	var page []models.RawRecord
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.opts.Settle),

		// Scroll so lazily rendered cards are in the DOM
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(f.opts.Settle/2),

		chromedp.Evaluate(f.opts.Script, &page),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp: %w", err)
	}
	return page, nil
}

// recordKey identifies a listing across pages so it is only returned once.
func recordKey(r models.RawRecord) string {
	for _, k := range []string{"propertyId", "listingId", "id", "url"} {
		if v, ok := r[k]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return k + ":" + s
			}
		}
	}
	return ""
}

func binaryName(bin string) string {
	if bin == "" {
		return "chromedp default browser"
	}
	return bin
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
