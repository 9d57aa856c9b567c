package scoring

import (
	"strings"
	"testing"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
)

const itIndustry = "Information Technology (IT) & Computer Science"

func TestKeywordScorer_Scenarios(t *testing.T) {
	s := NewKeywordScorer(nil)
	tiers := config.Default().Matching.KeywordTiers

	tests := []struct {
		name        string
		title       string
		description string
		industries  []string
		courses     []string
		check       func(t *testing.T, score int)
	}{
		{
			name:        "computer science bursary for IT student",
			title:       "Computer Science Excellence Bursary 2025",
			description: "Open to undergraduate IT and software engineering students",
			industries:  []string{itIndustry},
			check: func(t *testing.T, score int) {
				if score <= 60 {
					t.Errorf("score = %d, want > 60", score)
				}
				q := KeywordQuality(score, tiers)
				if q != QualityVeryGood && q != QualityExcellent {
					t.Errorf("quality = %v, want Very Good or Excellent", q)
				}
			},
		},
		{
			name:        "career fair is excluded",
			title:       "Annual Career Fair and Recruitment Drive",
			description: "Meet employers hiring now",
			industries:  []string{itIndustry},
			courses:     []string{"Computer Science"},
			check: func(t *testing.T, score int) {
				if score != 0 {
					t.Errorf("score = %d, want 0", score)
				}
			},
		},
		{
			name:  "fallback for long unmatched description",
			title: "Community Development Bursary",
			description: strings.Repeat("This bursary is open to applicants from rural areas who need help with fees. ", 3)[:200],
			check: func(t *testing.T, score int) {
				if score != 10 {
					t.Errorf("score = %d, want 10", score)
				}
			},
		},
		{
			name:        "no fallback for short description",
			title:       "Community Bursary",
			description: "Open to all applicants.",
			check: func(t *testing.T, score int) {
				if score != 0 {
					t.Errorf("score = %d, want 0", score)
				}
			},
		},
		{
			name:        "no fallback when a profile exists",
			title:       "Community Development Bursary",
			description: strings.Repeat("This bursary is open to applicants from rural areas who need help with fees. ", 3),
			industries:  []string{"Law & Legal Studies"},
			check: func(t *testing.T, score int) {
				if score != 0 {
					t.Errorf("score = %d, want 0", score)
				}
			},
		},
		{
			name:        "empty title",
			title:       "",
			description: "Computer science bursary",
			industries:  []string{itIndustry},
			check: func(t *testing.T, score int) {
				if score != 0 {
					t.Errorf("score = %d, want 0", score)
				}
			},
		},
		{
			name:        "unknown industry scores nothing",
			title:       "Fine Arts Bursary",
			description: "Funding for painting and sculpture students",
			industries:  []string{"Creative Arts"},
			check: func(t *testing.T, score int) {
				if score != 0 {
					t.Errorf("score = %d, want 0", score)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, s.Score(tt.title, tt.description, tt.industries, tt.courses))
		})
	}
}

func TestKeywordScorer_FieldWeights(t *testing.T) {
	s := NewKeywordScorer(nil)

	b := s.Explain("Law Bursary", "Funding for students of jurisprudence", []string{"Law & Legal Studies"}, nil)

	// law in title (20) + jurisprudence in description (10) + two-primary bonus (15)
	if b.FieldScore != 45 {
		t.Errorf("FieldScore = %d, want 45 (%+v)", b.FieldScore, b)
	}
	if b.Bonus != 15 {
		t.Errorf("Bonus = %d, want 15", b.Bonus)
	}
	if len(b.PrimaryHits) != 2 || !b.PrimaryHits[0].InTitle || b.PrimaryHits[1].InTitle {
		t.Errorf("unexpected primary hits: %+v", b.PrimaryHits)
	}
}

func TestKeywordScorer_ExplainHitContext(t *testing.T) {
	s := NewKeywordScorer(nil)

	b := s.Explain("Law Bursary", "Funding for full time undergraduate students of   Jurisprudence at accredited universities", []string{"Law & Legal Studies"}, nil)
	if len(b.PrimaryHits) != 2 {
		t.Fatalf("unexpected primary hits: %+v", b.PrimaryHits)
	}

	title := b.PrimaryHits[0].Context
	if !strings.HasPrefix(title, "Law Bursary") || !strings.HasSuffix(title, "...") {
		t.Errorf("title hit context = %q", title)
	}
	desc := b.PrimaryHits[1].Context
	if !strings.HasPrefix(desc, "...") || !strings.Contains(desc, "students of Jurisprudence at") {
		t.Errorf("description hit context = %q", desc)
	}

	if got := s.Score("Law Bursary", "Funding for students of Jurisprudence", []string{"Law & Legal Studies"}, nil); got != b.Score {
		t.Errorf("Score() = %d, Explain().Score = %d", got, b.Score)
	}
}

func TestKeywordScorer_MaxFieldNotSum(t *testing.T) {
	s := NewKeywordScorer(nil)
	title := "Engineering Bursary"
	desc := "Funding for mechanical engineering students"

	eng := s.Score(title, desc, []string{"Engineering"}, nil)
	both := s.Score(title, desc, []string{"Engineering", "Law & Legal Studies"}, nil)

	if eng == 0 {
		t.Fatal("expected engineering to score")
	}
	if both != eng {
		t.Errorf("score with extra unrelated industry = %d, want %d", both, eng)
	}

	b := s.Explain(title, desc, []string{"Law & Legal Studies", "Engineering"}, nil)
	if b.Field != "Engineering" {
		t.Errorf("Field = %q, want Engineering", b.Field)
	}
}

func TestKeywordScorer_ShortKeywordsNeedWordBoundary(t *testing.T) {
	s := NewKeywordScorer(nil)

	b := s.Explain("Bursary with benefits", "Support for students who qualify", []string{itIndustry}, nil)
	for _, hit := range append(b.PrimaryHits, b.SecondaryHits...) {
		if hit.Keyword == "it" || hit.Keyword == "ai" {
			t.Errorf("unexpected short keyword hit %q", hit.Keyword)
		}
	}
}

func TestCourseBoost(t *testing.T) {
	tests := []struct {
		name     string
		combined string
		courses  []string
		want     int
	}{
		{
			name:     "verbatim",
			combined: "bursary for computer science students",
			courses:  []string{"Computer Science"},
			want:     30,
		},
		{
			name:     "partial half",
			combined: "bursary for applied students",
			courses:  []string{"Applied Mathematics"},
			want:     10,
		},
		{
			name:     "short words ignored",
			combined: "bursary for law students",
			courses:  []string{"BA Law and Ethics"},
			want:     0,
		},
		{
			name:     "below half",
			combined: "bursary for applied students",
			courses:  []string{"Applied Quantum Field Theory"},
			want:     0,
		},
		{
			name:     "capped",
			combined: "accounting economics statistics marketing bursary",
			courses:  []string{"Accounting", "Economics", "Statistics", "Marketing"},
			want:     40,
		},
		{
			name:     "none",
			combined: "bursary",
			courses:  nil,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := courseBoost(tt.combined, cleanList(tt.courses))
			if got != tt.want {
				t.Errorf("courseBoost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKeywordScorer_Bounds(t *testing.T) {
	s := NewKeywordScorer(nil)
	everything := strings.Join(FieldMappings[itIndustry].Primary, " ") + " " +
		strings.Join(FieldMappings[itIndustry].Secondary, " ") + " bursary"

	score := s.Score(everything, everything, Industries(), []string{"Computer Science", "Data Science", "Programming"})
	if score < 0 || score > 100 {
		t.Errorf("score = %d, want within [0, 100]", score)
	}
	if score != 100 {
		t.Errorf("score = %d, want saturated at 100", score)
	}
}

func TestKeywordScorer_ExclusionWinsRegardlessOfContent(t *testing.T) {
	s := NewKeywordScorer(nil)
	excluded := []string{
		"IT graduate recruitment programme",
		"Computer science interview preparation",
		"Software engineering conference bursary",
		"Data science workshop with funding",
	}

	for _, title := range excluded {
		if got := s.Score(title, "bursary funding for computer science", []string{itIndustry}, []string{"Computer Science"}); got != 0 {
			t.Errorf("Score(%q) = %d, want 0", title, got)
		}
	}
}

func TestKeywordQuality(t *testing.T) {
	tiers := config.Default().Matching.KeywordTiers

	tests := []struct {
		score int
		want  Quality
	}{
		{100, QualityExcellent},
		{80, QualityExcellent},
		{79, QualityVeryGood},
		{60, QualityVeryGood},
		{40, QualityGood},
		{39, QualityFair},
		{0, QualityFair},
	}

	for _, tt := range tests {
		if got := KeywordQuality(tt.score, tiers); got != tt.want {
			t.Errorf("KeywordQuality(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestQualityText(t *testing.T) {
	b, err := QualityVeryGood.MarshalText()
	if err != nil || string(b) != "Very Good Match" {
		t.Fatalf("MarshalText() = %q, %v", b, err)
	}

	var q Quality
	if err := q.UnmarshalText([]byte("Excellent Match")); err != nil || q != QualityExcellent {
		t.Errorf("UnmarshalText() = %v, %v", q, err)
	}
	if err := q.UnmarshalText([]byte("Superb")); err == nil {
		t.Error("expected error for unknown label")
	}
}

func TestExtractRequirements(t *testing.T) {
	r := ExtractRequirements("Applicants must be a South African citizen with a 65% average in Grade 12.")
	if r.MinAverage == nil || *r.MinAverage != 65 {
		t.Errorf("MinAverage = %v, want 65", r.MinAverage)
	}
	if r.Citizenship != "ZA" {
		t.Errorf("Citizenship = %q, want ZA", r.Citizenship)
	}

	if r := ExtractRequirements("Open to everyone"); !r.IsZero() {
		t.Errorf("expected no requirements, got %+v", r)
	}
}
