package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
	"github.com/vijay-prabhu/bursary-matcher/internal/database"
)

func TestReadCandidates(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string // URLs
		wantErr bool
	}{
		{
			name:  "json array",
			input: `[{"url":"https://a","title":"A","text":"x"},{"url":"https://b","title":"B"}]`,
			want:  []string{"https://a", "https://b"},
		},
		{
			name:  "json lines with leading whitespace",
			input: "\n  {\"url\":\"https://a\",\"title\":\"A\"}\n{\"url\":\"https://b\",\"title\":\"B\"}\n",
			want:  []string{"https://a", "https://b"},
		},
		{
			name:  "empty input",
			input: "   \n",
			want:  nil,
		},
		{
			name:  "byte order mark",
			input: "\ufeff[{\"url\":\"https://a\"}]",
			want:  []string{"https://a"},
		},
		{
			name:    "broken line",
			input:   "{\"url\":\"https://a\"}\n{\"url\":",
			wantErr: true,
		},
		{
			name:    "broken array",
			input:   `[{"url":"https://a"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readCandidates(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("readCandidates() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.want))
			}
			for i, c := range got {
				if c.URL != tt.want[i] {
					t.Errorf("candidate %d URL = %q, want %q", i, c.URL, tt.want[i])
				}
			}
		})
	}
}

func TestParseQualifications(t *testing.T) {
	got, err := parseQualifications([]string{
		"Engineering: Mechanical Engineering, ,Mathematics",
		"Health & Medical Sciences:",
		":Accounting",
		"Law",
	})
	if err != nil {
		t.Fatalf("parseQualifications() error: %v", err)
	}

	want := []database.Qualification{
		{Industry: "Engineering", Courses: []string{"Mechanical Engineering", "Mathematics"}},
		{Industry: "Health & Medical Sciences", Courses: []string{}},
		{Industry: "", Courses: []string{"Accounting"}},
		{Industry: "Law", Courses: []string{}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d qualifications, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Industry != want[i].Industry {
			t.Errorf("qualification %d industry = %q, want %q", i, got[i].Industry, want[i].Industry)
		}
		if strings.Join(got[i].Courses, "|") != strings.Join(want[i].Courses, "|") {
			t.Errorf("qualification %d courses = %v, want %v", i, got[i].Courses, want[i].Courses)
		}
	}

	for _, bad := range []string{"", ":", " : , "} {
		if _, err := parseQualifications([]string{bad}); err == nil {
			t.Errorf("parseQualifications(%q) expected error", bad)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"1m", 30 * 24 * time.Hour, false},
		{"d", 0, true},
		{"xd", 0, true},
		{"-1d", 0, true},
		{"3y", 0, true},
	}

	for _, tt := range tests {
		got, err := parseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDefaultConfigParses(t *testing.T) {
	data, err := defaultConfig()
	if err != nil {
		t.Fatalf("defaultConfig() error: %v", err)
	}

	cfg, err := config.Parse(data)
	if err != nil {
		t.Fatalf("rendered default config does not parse: %v", err)
	}

	def := config.Default()
	if cfg.Matching.DefaultLimit != def.Matching.DefaultLimit || cfg.Embedding.Model != def.Embedding.Model {
		t.Errorf("rendered config lost defaults: %+v", cfg.Matching)
	}
	if strings.Contains(string(data), "api_key") {
		t.Error("rendered config must not carry the API key field")
	}
}

type fakeLister struct {
	opps []database.Opportunity
	opts database.OpportunityListOptions
}

func (f *fakeLister) ListOpportunities(ctx context.Context, opts database.OpportunityListOptions) ([]database.Opportunity, error) {
	f.opts = opts
	return f.opps, nil
}

func TestGetDetailedStats(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.Local)
	avg := 65
	za := "ZA"
	lister := &fakeLister{opps: []database.Opportunity{
		{Source: database.SourceScraper, DiscoveredAt: now, MinAverage: &avg},
		{Source: database.SourceScraper, DiscoveredAt: now.AddDate(0, 0, -1), Citizenship: &za},
		{Source: database.SourceImport, DiscoveredAt: now.AddDate(0, 0, -1)},
		{Source: database.SourceImport, DiscoveredAt: now.AddDate(0, 0, -30)},
	}}
	since := now.AddDate(0, 0, -60)

	d, err := getDetailedStats(context.Background(), lister, &database.Stats{Opportunities: 4}, &since, now)
	if err != nil {
		t.Fatalf("getDetailedStats() error: %v", err)
	}

	if lister.opts.Since == nil || !lister.opts.Since.Equal(since) {
		t.Errorf("since not passed to store: %+v", lister.opts)
	}
	if d.Discovered != 4 {
		t.Errorf("Discovered = %d, want 4", d.Discovered)
	}
	if d.BySource["scraper"] != 2 || d.BySource["import"] != 2 {
		t.Errorf("BySource = %v", d.BySource)
	}
	if d.Requirements.MinAverage != 1 || d.Requirements.Citizenship != 1 {
		t.Errorf("Requirements = %+v", d.Requirements)
	}
	if len(d.RecentActivity) != 14 {
		t.Fatalf("RecentActivity has %d days, want 14", len(d.RecentActivity))
	}
	last := d.RecentActivity[13]
	if last.Date != "2026-03-20" || last.Count != 1 {
		t.Errorf("today = %+v, want 2026-03-20 with 1", last)
	}
	if d.RecentActivity[12].Count != 2 {
		t.Errorf("yesterday count = %d, want 2", d.RecentActivity[12].Count)
	}
}
