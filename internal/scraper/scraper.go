// Package scraper fetches bursary candidates from listing sites: it follows
// the links on each listing page and reads the text of every linked page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/logger"
)

const (
	maxAttempts  = 3
	maxBodyBytes = 2 << 20
)

// ErrAllSitesFailed is returned when no listing page could be read
var ErrAllSitesFailed = errors.New("every listing site failed")

// Stats counts what happened to the links of one fetch
type Stats struct {
	Sites       int `json:"sites"`
	SitesFailed int `json:"sites_failed"`
	Links       int `json:"links"`
	Known       int `json:"known"`    // already stored, not fetched
	Empty       int `json:"empty"`    // page unreadable or without text
	Rejected    int `json:"rejected"` // excluded by the filter
	Candidates  int `json:"candidates"`
}

func (s *Stats) add(o Stats) {
	s.Links += o.Links
	s.Known += o.Known
	s.Empty += o.Empty
	s.Rejected += o.Rejected
	s.Candidates += o.Candidates
}

// Fetcher reads listing sites and returns filtered candidates
type Fetcher struct {
	client  *http.Client
	cfg     config.ScraperConfig
	filter  *filter.Filter
	log     *zap.Logger
	backoff time.Duration
}

// New creates a Fetcher with a shared HTTP client
func New(cfg config.ScraperConfig, f *filter.Filter, log *zap.Logger) *Fetcher {
	if f == nil {
		f = filter.New()
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout()},
		cfg:     cfg,
		filter:  f,
		log:     logger.Component(log, "scraper"),
		backoff: time.Second,
	}
}

// FetchCandidates visits the sites for the given industries and returns the
// candidates that pass the filter, skipping URLs in known. Sites are read
// concurrently; results keep site order and are de-duplicated by URL.
func (f *Fetcher) FetchCandidates(ctx context.Context, industries []string, known map[string]bool) ([]filter.Candidate, Stats, error) {
	return f.FetchSites(ctx, Sites(industries, f.cfg), known)
}

// FetchSites is FetchCandidates over an explicit site list
func (f *Fetcher) FetchSites(ctx context.Context, sites []string, known map[string]bool) ([]filter.Candidate, Stats, error) {
	stats := Stats{Sites: len(sites)}
	if len(sites) == 0 {
		return nil, stats, nil
	}

	type siteResult struct {
		candidates []filter.Candidate
		stats      Stats
		err        error
	}

	results := make([]siteResult, len(sites))
	sem := make(chan struct{}, max(f.cfg.Concurrency, 1))
	var wg sync.WaitGroup

	for i, site := range sites {
		wg.Add(1)
		go func(idx int, site string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx].err = ctx.Err()
				return
			}

			c, s, err := f.FetchSite(ctx, site, known)
			results[idx] = siteResult{candidates: c, stats: s, err: err}
		}(i, site)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	var candidates []filter.Candidate
	seen := make(map[string]bool)
	for i, r := range results {
		if r.err != nil {
			stats.SitesFailed++
			f.log.Warn("listing site failed", zap.String("site", sites[i]), zap.Error(r.err))
			continue
		}
		stats.add(r.stats)
		for _, c := range r.candidates {
			if seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			candidates = append(candidates, c)
		}
	}
	stats.Candidates = len(candidates)

	f.log.Info("scrape complete",
		zap.Int("sites", stats.Sites),
		zap.Int("sites_failed", stats.SitesFailed),
		zap.Int("links", stats.Links),
		zap.Int("candidates", stats.Candidates),
	)

	if stats.SitesFailed == stats.Sites {
		return nil, stats, ErrAllSitesFailed
	}
	return candidates, stats, nil
}

// FetchSite reads one listing page and the pages it links to. Only a failure
// to read the listing page itself is an error.
func (f *Fetcher) FetchSite(ctx context.Context, site string, known map[string]bool) ([]filter.Candidate, Stats, error) {
	var stats Stats

	base, err := url.Parse(site)
	if err != nil {
		return nil, stats, fmt.Errorf("invalid site url %q: %w", site, err)
	}

	doc, err := f.fetchDocument(ctx, site)
	if err != nil {
		return nil, stats, err
	}

	links := ExtractLinks(doc, base)
	if limit := f.cfg.MaxLinksPerSite; limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	stats.Links = len(links)
	f.log.Debug("extracted links", zap.String("site", site), zap.Int("links", len(links)))

	var candidates []filter.Candidate
	for _, link := range links {
		if ctx.Err() != nil {
			return candidates, stats, ctx.Err()
		}
		if known[link.URL] {
			stats.Known++
			continue
		}

		page, err := f.fetchDocument(ctx, link.URL)
		if err != nil {
			f.log.Debug("page fetch failed", zap.String("url", link.URL), zap.Error(err))
			stats.Empty++
			continue
		}

		text := PageText(page, f.cfg.PageTextLimit)
		if text == "" {
			stats.Empty++
			continue
		}

		if res := f.filter.Apply(link.Text, text); !res.Include {
			f.log.Debug("page rejected",
				zap.String("title", logger.TruncateForLog(link.Text, 60)),
				zap.String("layer", string(res.Layer)),
			)
			stats.Rejected++
			continue
		}

		candidates = append(candidates, filter.Candidate{URL: link.URL, Title: link.Text, Text: text})
	}
	stats.Candidates = len(candidates)

	return candidates, stats, nil
}

// fetchDocument GETs and parses an HTML page, retrying throttled and
// server-side failures with a doubling backoff.
func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string) (*html.Node, error) {
	var lastErr error
	wait := f.backoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		doc, retry, err := f.get(ctx, pageURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retry || attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		wait *= 2
	}

	return nil, lastErr
}

func (f *Fetcher) get(ctx context.Context, pageURL string) (doc *html.Node, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, err
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("http GET %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		retry = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("%s returned %d", pageURL, resp.StatusCode)
	}

	doc, err = html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, false, nil
}
