package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
	"github.com/vijay-prabhu/bursary-matcher/internal/ranking"
	"github.com/vijay-prabhu/bursary-matcher/internal/scoring"
)

func TestResultTable(t *testing.T) {
	r := &matching.Result{
		Strategy: matching.StrategyBoth,
		Summary:  ranking.Summarize(5, 3),
		Matches: []ranking.Match{
			{Title: "IT Bursary", URL: "https://example.org/it", Score: 88, Quality: scoring.QualityExcellent, Method: ranking.MethodKeyword},
		},
		Warnings:   []string{"semantic scoring skipped"},
		PersistErr: errors.New("disk full"),
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, r); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"(60.0% kept)", "IT Bursary", "Excellent Match", "88", "warning: semantic scoring skipped", "warning: disk full"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResultTable_NoSignal(t *testing.T) {
	var buf bytes.Buffer
	if err := TableTo(&buf, &matching.Result{NoSignal: true}); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}
	if !strings.Contains(buf.String(), "no qualifications") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestEmptyTables(t *testing.T) {
	tests := []struct {
		data any
		want string
	}{
		{[]matching.StoredMatch{}, "No stored matches found."},
		{[]database.Opportunity{}, "No opportunities found."},
		{&database.UserProfile{UserID: "u1"}, "No qualifications recorded."},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := TableTo(&buf, tt.data); err != nil {
			t.Fatalf("TableTo(%T) error: %v", tt.data, err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("TableTo(%T) = %q, want %q", tt.data, buf.String(), tt.want)
		}
	}
}

func TestOpportunitiesTable(t *testing.T) {
	avg := 65
	za := "ZA"
	opps := []database.Opportunity{
		{Title: "Law Bursary", URL: "https://example.org/law", Source: database.SourceScraper, MinAverage: &avg, Citizenship: &za, DiscoveredAt: time.Now()},
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, opps); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}
	for _, want := range []string{"Law Bursary", "scraper", "65%", "ZA", "today"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestExplanationDetail(t *testing.T) {
	avg := 70
	e := &matching.Explanation{
		Keyword: scoring.Breakdown{
			Score:       75,
			Field:       "Engineering",
			FieldScore:  45,
			PrimaryHits: []scoring.KeywordHit{{Keyword: "engineering", InTitle: true, Points: 20, Context: "Civil Engineering Bursary..."}},
			Bonus:       15,
			CourseBoost: 30,
			CourseHits:  []scoring.CourseHit{{Course: "Civil Engineering", Verbatim: true, Points: 30}},
		},
		KeywordQuality: scoring.QualityVeryGood,
		KeywordMatch:   true,
		Semantic:       &scoring.SemanticResult{Similarity: 0.31, Score: 31, Quality: scoring.QualityVeryGood, Match: true},
		Requirements:   scoring.Requirements{MinAverage: &avg},
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, e); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}
	for _, want := range []string{"Field:        Engineering (45)", "engineering [title +20]", `engineering: "Civil Engineering Bursary..."`, "Course boost: +30", "Similarity:   0.310", "Minimum average: 70%"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestOutputTo(t *testing.T) {
	stats := &database.Stats{Opportunities: 4, Embedded: 1}

	var buf bytes.Buffer
	if err := OutputTo(&buf, "json", stats); err != nil {
		t.Fatalf("OutputTo(json) error: %v", err)
	}
	var decoded database.Stats
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || decoded != *stats {
		t.Errorf("json round trip = %+v (%v)", decoded, err)
	}

	buf.Reset()
	if err := OutputTo(&buf, "table", stats); err != nil {
		t.Fatalf("OutputTo(table) error: %v", err)
	}
	if !strings.Contains(buf.String(), "Embedding coverage:     25.0%") {
		t.Errorf("table = %q", buf.String())
	}

	if err := OutputTo(&buf, "xml", stats); err == nil {
		t.Error("expected error for an unknown format")
	}
	if err := TableTo(&buf, 42); err == nil {
		t.Error("expected error for an unsupported type")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"bursária ñoño", 8, "bursá..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "-"},
		{now, "today"},
		{now.Add(-30 * time.Hour), "yesterday"},
		{now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{now.Add(-15 * 24 * time.Hour), "2 weeks ago"},
	}

	for _, tt := range tests {
		if got := formatAge(tt.t); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	if got != "one two\nthree\nfour" {
		t.Errorf("wordWrap() = %q", got)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"", "table", "json"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateFormat("yaml"); err == nil {
		t.Error("ValidateFormat(yaml) expected error")
	}
}
