package postgres

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
)

// setupTestStore connects to BURSARY_TEST_POSTGRES_URL and clears the tables
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("BURSARY_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("BURSARY_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.pool.Exec(ctx, `TRUNCATE matches, opportunity_embeddings, qualifications, opportunities`); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	return s
}

func TestStripComments(t *testing.T) {
	in := "-- heading\nCREATE TABLE x (id INT)\n  -- trailing\n"
	if got := strings.TrimSpace(stripComments(in)); got != "CREATE TABLE x (id INT)" {
		t.Errorf("stripComments() = %q", got)
	}
}

func TestUpsertOpportunityAndMatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	o := &database.Opportunity{URL: "https://example.org/pg", Title: "First"}
	created, err := s.UpsertOpportunity(ctx, o)
	if err != nil || !created {
		t.Fatalf("UpsertOpportunity = %v, %v; want created", created, err)
	}
	id := o.ID

	o2 := &database.Opportunity{URL: "https://example.org/pg", Title: "Second"}
	created, err = s.UpsertOpportunity(ctx, o2)
	if err != nil || created || o2.ID != id {
		t.Fatalf("second upsert = %v, %v, id %s; want update of %s", created, err, o2.ID, id)
	}

	for _, score := range []int{30, 64} {
		if err := s.UpsertMatch(ctx, &database.Match{UserID: "u1", OpportunityID: id, Score: score, Quality: "Very Good Match", Method: "keyword"}); err != nil {
			t.Fatalf("UpsertMatch failed: %v", err)
		}
	}

	matches, err := s.ListMatches(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 64 || matches[0].Title != "Second" {
		t.Errorf("unexpected matches: %+v", matches)
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	o := &database.Opportunity{URL: "https://example.org/vec", Title: "Vec"}
	if _, err := s.UpsertOpportunity(ctx, o); err != nil {
		t.Fatalf("UpsertOpportunity failed: %v", err)
	}

	created, err := s.SaveEmbedding(ctx, &database.Embedding{OpportunityID: o.ID, Vector: []float32{0.5, -1, 2}, Provider: "ollama", Model: "all-minilm"})
	if err != nil || !created {
		t.Fatalf("SaveEmbedding = %v, %v", created, err)
	}

	e, err := s.GetEmbedding(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if len(e.Vector) != 3 || e.Vector[1] != -1 {
		t.Errorf("Vector = %v", e.Vector)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.SaveProfile(ctx, &database.UserProfile{
		UserID:         "u1",
		Qualifications: []database.Qualification{{Industry: "Engineering", Courses: []string{"Civil Engineering"}}},
	})
	if err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	p, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if len(p.Courses()) != 1 || p.Courses()[0] != "Civil Engineering" {
		t.Errorf("Courses() = %v", p.Courses())
	}
}
