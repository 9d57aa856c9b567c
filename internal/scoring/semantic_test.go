package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
)

type stubProvider struct {
	vectors map[string][]float32
	err     error
}

func (p *stubProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.vectors[text], nil
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-model" }

func TestSemanticScorer_Compare(t *testing.T) {
	s := NewSemanticScorer(&stubProvider{}, config.Default().Matching.Semantic)

	tests := []struct {
		name        string
		a, b        []float32
		wantQuality Quality
		wantScore   int
		wantMatch   bool
		wantNoSig   bool
	}{
		{
			name:        "identical",
			a:           []float32{1, 0},
			b:           []float32{1, 0},
			wantQuality: QualityExcellent,
			wantScore:   100,
			wantMatch:   true,
		},
		{
			name:        "orthogonal",
			a:           []float32{1, 0},
			b:           []float32{0, 1},
			wantQuality: QualityNone,
			wantScore:   0,
		},
		{
			name:        "opposite clamps to zero",
			a:           []float32{1, 0},
			b:           []float32{-1, 0},
			wantQuality: QualityNone,
			wantScore:   0,
		},
		{
			name:        "good tier",
			a:           []float32{1, 0},
			b:           []float32{0.2, 0.9797959}, // cos = 0.2
			wantQuality: QualityGood,
			wantScore:   19,
			wantMatch:   true,
		},
		{
			name:        "very good tier",
			a:           []float32{1, 0},
			b:           []float32{0.3, 0.9539392}, // cos = 0.3
			wantQuality: QualityVeryGood,
			wantScore:   29,
			wantMatch:   true,
		},
		{
			name:      "zero vector",
			a:         []float32{0, 0},
			b:         []float32{1, 0},
			wantNoSig: true,
		},
		{
			name:      "missing vector",
			a:         nil,
			b:         []float32{1, 0},
			wantNoSig: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := s.Compare(tt.a, tt.b)

			if r.NoSignal != tt.wantNoSig {
				t.Fatalf("NoSignal = %v, want %v", r.NoSignal, tt.wantNoSig)
			}
			if tt.wantNoSig {
				if r.Match {
					t.Error("no-signal result must not match")
				}
				return
			}
			if r.Quality != tt.wantQuality {
				t.Errorf("Quality = %v, want %v", r.Quality, tt.wantQuality)
			}
			// float32 inputs make the exact floor sensitive to rounding
			if diff := r.Score - tt.wantScore; diff < -1 || diff > 1 {
				t.Errorf("Score = %d, want about %d", r.Score, tt.wantScore)
			}
			if r.Match != tt.wantMatch {
				t.Errorf("Match = %v, want %v", r.Match, tt.wantMatch)
			}
		})
	}
}

func TestSemanticScorer_Score(t *testing.T) {
	profile := ProfileText([]Qualification{{Industry: "Engineering"}})
	opp := OpportunityText("Engineering Bursary", "Funding for engineers")

	p := &stubProvider{vectors: map[string][]float32{
		profile: {1, 1},
		opp:     {1, 1},
	}}
	s := NewSemanticScorer(p, config.Default().Matching.Semantic)

	r, err := s.Score(context.Background(), profile, opp)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if !r.Match || r.Quality != QualityExcellent {
		t.Errorf("unexpected result: %+v", r)
	}

	p.err = errors.New("backend down")
	if _, err := s.Score(context.Background(), profile, opp); err == nil {
		t.Error("expected provider error")
	}
}

func TestProfileText(t *testing.T) {
	got := ProfileText([]Qualification{
		{Industry: "Engineering", Courses: []string{"Mechanical Engineering", " "}},
		{Industry: "", Courses: []string{"Physics"}},
	})
	want := "Student seeking educational funding | Studying Engineering | Taking Mechanical Engineering | " +
		"Taking Physics | Need bursary support | Looking for scholarship funding | Tertiary education financial assistance"

	if got != want {
		t.Errorf("ProfileText() =\n%q\nwant\n%q", got, want)
	}
}

func TestOpportunityText(t *testing.T) {
	long := strings.Repeat("é", 600)
	got := OpportunityText("Title", long)

	parts := strings.Split(got, " | ")
	if len(parts) != 5 {
		t.Fatalf("expected 5 parts, got %d", len(parts))
	}
	if n := len([]rune(parts[1])); n != 500 {
		t.Errorf("description part has %d runes, want 500", n)
	}
	if parts[2] != "Educational opportunity" {
		t.Errorf("unexpected tail %q", parts[2])
	}

	if got := OpportunityText("", ""); got != "Educational opportunity | Student funding | Academic support" {
		t.Errorf("OpportunityText(empty) = %q", got)
	}
}
