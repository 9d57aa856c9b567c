package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "bursary-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

func mustUpsert(t *testing.T, db *DB, o *Opportunity) {
	t.Helper()
	if _, err := db.UpsertOpportunity(context.Background(), o); err != nil {
		t.Fatalf("UpsertOpportunity failed: %v", err)
	}
}

func TestOpen(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, table := range []string{"opportunities", "opportunity_embeddings", "qualifications", "matches"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query tables: %v", err)
		}
		if count != 1 {
			t.Errorf("expected %s table to exist", table)
		}
	}
}

func TestOpenTwice(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "bursary.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	mustUpsert(t, db, &Opportunity{URL: "https://example.org/a", Title: "A"})
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer db.Close()

	o, err := db.GetOpportunityByURL(context.Background(), "https://example.org/a")
	if err != nil || o == nil {
		t.Fatalf("expected opportunity to survive reopen: %v", err)
	}

	var applied int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = '001_initial'`).Scan(&applied); err != nil {
		t.Fatalf("failed to read schema_migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("001_initial recorded %d times, want 1", applied)
	}
}

func TestUpsertOpportunity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	avg := 65
	first := &Opportunity{URL: " https://example.org/bursary ", Title: "Old title", MinAverage: &avg}
	created, err := db.UpsertOpportunity(ctx, first)
	if err != nil {
		t.Fatalf("UpsertOpportunity failed: %v", err)
	}
	if !created || first.ID == "" {
		t.Fatalf("expected new row with ID, got created=%v id=%q", created, first.ID)
	}

	second := &Opportunity{URL: "https://example.org/bursary", Title: "New title", Description: "Updated"}
	created, err = db.UpsertOpportunity(ctx, second)
	if err != nil {
		t.Fatalf("UpsertOpportunity failed: %v", err)
	}
	if created {
		t.Error("expected existing row to be updated")
	}
	if second.ID != first.ID {
		t.Errorf("ID = %s, want %s", second.ID, first.ID)
	}
	if second.DiscoveredAt.IsZero() {
		t.Error("expected DiscoveredAt to be loaded")
	}

	all, err := db.ListOpportunities(ctx, OpportunityListOptions{})
	if err != nil {
		t.Fatalf("ListOpportunities failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(all))
	}
	if all[0].Title != "New title" || all[0].MinAverage != nil {
		t.Errorf("unexpected stored row: %+v", all[0])
	}

	if _, err := db.UpsertOpportunity(ctx, &Opportunity{URL: "  "}); err == nil {
		t.Error("expected error for blank URL")
	}
}

func TestListOpportunitiesSearch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	mustUpsert(t, db, &Opportunity{URL: "https://a", Title: "Engineering Bursary"})
	mustUpsert(t, db, &Opportunity{URL: "https://b", Title: "Law Scholarship", Description: "for LLB students"})
	mustUpsert(t, db, &Opportunity{URL: "https://c", Title: "Nursing Grant"})

	search := "llb"
	results, err := db.ListOpportunities(ctx, OpportunityListOptions{Search: &search})
	if err != nil {
		t.Fatalf("ListOpportunities failed: %v", err)
	}
	if len(results) != 1 || results[0].URL != "https://b" {
		t.Errorf("unexpected search results: %+v", results)
	}

	results, _ = db.ListOpportunities(ctx, OpportunityListOptions{Limit: 2})
	if len(results) != 2 {
		t.Errorf("expected 2 opportunities with limit, got %d", len(results))
	}

	known, err := db.KnownURLs(ctx)
	if err != nil {
		t.Fatalf("KnownURLs failed: %v", err)
	}
	if len(known) != 3 || !known["https://c"] {
		t.Errorf("unexpected known urls: %v", known)
	}
}

func TestEmbeddings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	o := &Opportunity{URL: "https://example.org/e", Title: "E"}
	mustUpsert(t, db, o)

	got, err := db.GetEmbedding(ctx, o.ID)
	if err != nil || got != nil {
		t.Fatalf("expected no embedding yet, got %+v, %v", got, err)
	}

	created, err := db.SaveEmbedding(ctx, &Embedding{OpportunityID: o.ID, Vector: []float32{0.1, 0.2}, Provider: "ollama", Model: "all-minilm"})
	if err != nil || !created {
		t.Fatalf("SaveEmbedding = %v, %v; want created", created, err)
	}

	created, err = db.SaveEmbedding(ctx, &Embedding{OpportunityID: o.ID, Vector: []float32{0.3, 0.4, 0.5}, Provider: "ollama", Model: "all-minilm"})
	if err != nil || created {
		t.Fatalf("SaveEmbedding = %v, %v; want replaced", created, err)
	}

	got, err = db.GetEmbedding(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if len(got.Vector) != 3 || got.Vector[2] != 0.5 {
		t.Errorf("Vector = %v, want [0.3 0.4 0.5]", got.Vector)
	}

	if _, err := db.SaveEmbedding(ctx, &Embedding{OpportunityID: o.ID}); err == nil {
		t.Error("expected error for empty vector")
	}
}

func TestProfiles(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	p, err := db.GetProfile(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if !p.IsEmpty() {
		t.Error("expected empty profile for unknown user")
	}

	err = db.SaveProfile(ctx, &UserProfile{
		UserID: "u1",
		Qualifications: []Qualification{
			{Industry: "Engineering", Courses: []string{"Mechanical Engineering"}},
			{Industry: "Law & Legal Studies"},
		},
	})
	if err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	p, _ = db.GetProfile(ctx, "u1")
	if got := strings.Join(p.Industries(), ","); got != "Engineering,Law & Legal Studies" {
		t.Errorf("Industries() = %q", got)
	}
	if got := p.Courses(); len(got) != 1 || got[0] != "Mechanical Engineering" {
		t.Errorf("Courses() = %v", got)
	}

	// Saving again replaces rather than appends
	db.SaveProfile(ctx, &UserProfile{UserID: "u1", Qualifications: []Qualification{{Industry: "Engineering"}}})
	p, _ = db.GetProfile(ctx, "u1")
	if len(p.Qualifications) != 1 {
		t.Errorf("expected 1 qualification after replace, got %d", len(p.Qualifications))
	}

	ids, _ := db.ListUserIDs(ctx)
	if len(ids) != 1 || ids[0] != "u1" {
		t.Errorf("ListUserIDs() = %v", ids)
	}
}

func TestUpsertMatchIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	o := &Opportunity{URL: "https://example.org/m", Title: "Match me", Description: strings.Repeat("d", 250)}
	mustUpsert(t, db, o)

	for _, score := range []int{40, 75} {
		if err := db.UpsertMatch(ctx, &Match{UserID: "u1", OpportunityID: o.ID, Score: score, Quality: "Good Match", Method: "keyword"}); err != nil {
			t.Fatalf("UpsertMatch failed: %v", err)
		}
	}

	var rows int
	db.QueryRow("SELECT COUNT(*) FROM matches WHERE user_id = ? AND opportunity_id = ?", "u1", o.ID).Scan(&rows)
	if rows != 1 {
		t.Fatalf("expected 1 match row, got %d", rows)
	}

	matches, err := db.ListMatches(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 75 {
		t.Errorf("unexpected matches: %+v", matches)
	}
	if matches[0].Title != "Match me" {
		t.Errorf("Title = %q", matches[0].Title)
	}

	if err := db.UpsertMatch(ctx, &Match{UserID: "u1", OpportunityID: o.ID, Score: 101, Quality: "x", Method: "keyword"}); err == nil {
		t.Error("expected score constraint violation")
	}
}

func TestUpsertMatchConcurrent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	o := &Opportunity{URL: "https://example.org/c", Title: "Concurrent"}
	mustUpsert(t, db, o)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			db.UpsertMatch(ctx, &Match{UserID: "u1", OpportunityID: o.ID, Score: score, Quality: "Fair Match", Method: "keyword"})
		}(i * 10)
	}
	wg.Wait()

	var rows int
	db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&rows)
	if rows != 1 {
		t.Errorf("expected 1 match row after concurrent upserts, got %d", rows)
	}
}

func TestListMatchesOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	scores := map[string]int{"https://1": 50, "https://2": 90, "https://3": 70}
	for url, score := range scores {
		o := &Opportunity{URL: url, Title: url}
		mustUpsert(t, db, o)
		db.UpsertMatch(ctx, &Match{UserID: "u1", OpportunityID: o.ID, Score: score, Quality: "Good Match", Method: "keyword"})
	}

	matches, _ := db.ListMatches(ctx, "u1", 2)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Score != 90 || matches[1].Score != 70 {
		t.Errorf("unexpected order: %d, %d", matches[0].Score, matches[1].Score)
	}
}

func TestCascadeDeletes(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	o := &Opportunity{URL: "https://example.org/del", Title: "Delete me"}
	mustUpsert(t, db, o)
	db.SaveEmbedding(ctx, &Embedding{OpportunityID: o.ID, Vector: []float32{1}, Provider: "p", Model: "m"})
	db.SaveProfile(ctx, &UserProfile{UserID: "u1", Qualifications: []Qualification{{Industry: "Engineering"}}})
	db.UpsertMatch(ctx, &Match{UserID: "u1", OpportunityID: o.ID, Score: 50, Quality: "Good Match", Method: "keyword"})
	db.UpsertMatch(ctx, &Match{UserID: "u2", OpportunityID: o.ID, Score: 50, Quality: "Good Match", Method: "keyword"})

	if err := db.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	stats, _ := db.GetStats(ctx)
	if stats.Matches != 1 || stats.Users != 0 {
		t.Errorf("after DeleteUser: %+v", stats)
	}

	if err := db.DeleteOpportunity(ctx, o.ID); err != nil {
		t.Fatalf("DeleteOpportunity failed: %v", err)
	}
	stats, _ = db.GetStats(ctx)
	if stats.Matches != 0 || stats.Embedded != 0 || stats.Opportunities != 0 {
		t.Errorf("after DeleteOpportunity: %+v", stats)
	}

	if err := db.DeleteOpportunity(ctx, o.ID); err == nil {
		t.Error("expected error deleting missing opportunity")
	}
}
