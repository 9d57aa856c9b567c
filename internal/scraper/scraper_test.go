package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/net/html"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
)

func mustParse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtractLinks(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<a href="/bursaries/it">IT Bursary 2025</a>
		<a href="/bursaries/it">IT Bursary again</a>
		<a href="https://other.example/eng"><span>Engineering</span> <b>Bursary</b></a>
		<a href="/go">Go</a>
		<a href="/login">Member login</a>
		<a href="/guide.pdf">Download guide</a>
		<a href="/page#top">Back to top</a>
		<a href="mailto:info@example.com">Email us</a>
		<a>No href here</a>
	</body></html>`)
	base, _ := url.Parse("https://site.example/list/")

	links := ExtractLinks(doc, base)

	want := []Link{
		{URL: "https://site.example/bursaries/it", Text: "IT Bursary 2025"},
		{URL: "https://other.example/eng", Text: "Engineering Bursary"},
	}
	if len(links) != len(want) {
		t.Fatalf("got %d links %+v, want %d", len(links), links, len(want))
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %+v, want %+v", i, links[i], want[i])
		}
	}
}

func TestPageText(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		limit int
		want  string
	}{
		{
			name:  "content class wins over body",
			html:  `<body><nav>Menu</nav><div class="post content">Funding for   students</div></body>`,
			limit: 800,
			want:  "Funding for students",
		},
		{
			name:  "selector order beats document order",
			html:  `<body><main>Main text</main><article>Article text</article></body>`,
			limit: 800,
			want:  "Article text",
		},
		{
			name:  "falls back to whole document",
			html:  `<html><head><title>Bursary</title><style>p{}</style></head><body><p>Apply now</p><script>var x=1;</script></body></html>`,
			limit: 800,
			want:  "Bursary Apply now",
		},
		{
			name:  "empty container falls back",
			html:  `<body><div class="content"></div><p>Outside</p></body>`,
			limit: 800,
			want:  "Outside",
		},
		{
			name:  "truncated to limit",
			html:  `<body><main>abcdefghij</main></body>`,
			limit: 4,
			want:  "abcd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageText(mustParse(t, tt.html), tt.limit)
			if got != tt.want {
				t.Errorf("PageText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSites(t *testing.T) {
	cfg := config.Default().Scraper
	cfg.ExtraSites = []string{"https://extra.example/", BaseSites[0]}

	sites := Sites([]string{"Health & Medical Sciences", "Unknown"}, cfg)

	if sites[0] != IndustrySites["Health & Medical Sciences"][0] {
		t.Errorf("first site = %q, want industry site", sites[0])
	}
	if sites[3] != "https://extra.example/" || sites[4] != BaseSites[0] {
		t.Errorf("extra sites out of order: %v", sites[3:5])
	}

	want := 3 + 1 + len(BaseSites) + len(UniversitySites) + len(CompanySites) + len(GovernmentSites)
	if len(sites) != want {
		t.Errorf("len(sites) = %d, want %d", len(sites), want)
	}

	cfg.SkipUniversity = true
	cfg.SkipCompany = true
	cfg.SkipGovernment = true
	cfg.SkipBase = true
	cfg.ExtraSites = nil
	if got := Sites(nil, cfg); len(got) != 0 {
		t.Errorf("expected no sites, got %v", got)
	}
}

func newTestSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var knownHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/it">Sasol IT Bursary</a>
			<a href="/jobs">Graduate job vacancies</a>
			<a href="/known">Known Bursary</a>
			<a href="/missing">Missing page</a>
			<a href="/blank">Blank page</a>
		</body></html>`)
	})
	mux.HandleFunc("/it", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			http.Error(w, "bad agent", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `<article>Bursary for computer science students. Funding covers tuition.</article>`)
	})
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<main>Job vacancies and recruitment for graduates.</main>`)
	})
	mux.HandleFunc("/known", func(w http.ResponseWriter, r *http.Request) {
		knownHits.Add(1)
		fmt.Fprint(w, `<main>Known bursary funding</main>`)
	})
	mux.HandleFunc("/blank", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><script>x()</script></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &knownHits
}

func testFetcher() *Fetcher {
	cfg := config.Default().Scraper
	cfg.UserAgent = "test-agent"
	f := New(cfg, nil, nil)
	f.backoff = 0
	return f
}

func TestFetchSite(t *testing.T) {
	srv, knownHits := newTestSite(t)
	f := testFetcher()

	known := map[string]bool{srv.URL + "/known": true}
	candidates, stats, err := f.FetchSite(context.Background(), srv.URL+"/list", known)
	if err != nil {
		t.Fatalf("FetchSite() error: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates %+v, want 1", len(candidates), candidates)
	}
	c := candidates[0]
	if c.URL != srv.URL+"/it" || c.Title != "Sasol IT Bursary" {
		t.Errorf("candidate = %+v", c)
	}
	if !strings.HasPrefix(c.Text, "Bursary for computer science") {
		t.Errorf("Text = %q", c.Text)
	}

	want := Stats{Links: 5, Known: 1, Empty: 2, Rejected: 1, Candidates: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if knownHits.Load() != 0 {
		t.Error("known url should not be fetched")
	}
}

func TestFetchSite_MaxLinks(t *testing.T) {
	srv, _ := newTestSite(t)
	f := testFetcher()
	f.cfg.MaxLinksPerSite = 1

	_, stats, err := f.FetchSite(context.Background(), srv.URL+"/list", nil)
	if err != nil {
		t.Fatalf("FetchSite() error: %v", err)
	}
	if stats.Links != 1 {
		t.Errorf("Links = %d, want 1", stats.Links)
	}
}

func TestFetchSites(t *testing.T) {
	srv, _ := newTestSite(t)
	f := testFetcher()

	sites := []string{srv.URL + "/list", srv.URL + "/nowhere", srv.URL + "/list"}
	candidates, stats, err := f.FetchSites(context.Background(), sites, nil)
	if err != nil {
		t.Fatalf("FetchSites() error: %v", err)
	}

	if len(candidates) != 2 {
		t.Errorf("got %d candidates, want 2 (it + known, duplicates across sites dropped)", len(candidates))
	}
	if stats.SitesFailed != 1 {
		t.Errorf("SitesFailed = %d, want 1", stats.SitesFailed)
	}
}

func TestFetchSites_AllFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, _, err := testFetcher().FetchSites(context.Background(), []string{srv.URL}, nil)
	if !errors.Is(err, ErrAllSitesFailed) {
		t.Errorf("error = %v, want ErrAllSitesFailed", err)
	}
}

func TestFetchDocument_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `<main>ok</main>`)
	}))
	defer srv.Close()

	doc, err := testFetcher().fetchDocument(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetchDocument() error: %v", err)
	}
	if got := PageText(doc, 800); got != "ok" {
		t.Errorf("PageText() = %q, want ok", got)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetchDocument_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := testFetcher().fetchDocument(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
