// Package postgres implements the match store on PostgreSQL with pgvector
// columns for opportunity embeddings.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
)

//go:embed schema.sql
var schema string

var _ database.Store = (*Store)(nil)

// Store is a database.Store backed by a pgx connection pool
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL, verifies the connection and applies the schema
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stripComments(stmt)) == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

func stripComments(stmt string) string {
	var b strings.Builder
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Close releases the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Health checks database connectivity
func (s *Store) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Driver names the backend
func (s *Store) Driver() string {
	return "postgres"
}

// UpsertOpportunity inserts an opportunity or refreshes the one with the same URL
func (s *Store) UpsertOpportunity(ctx context.Context, o *database.Opportunity) (bool, error) {
	o.URL = strings.TrimSpace(o.URL)
	if o.URL == "" {
		return false, errors.New("opportunity url is required")
	}
	if o.Source == "" {
		o.Source = database.SourceImport
	}

	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO opportunities (id, url, title, description, min_average, citizenship, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			min_average = EXCLUDED.min_average,
			citizenship = EXCLUDED.citizenship,
			updated_at = now()
		RETURNING id, discovered_at, updated_at, (xmax = 0)
	`, uuid.New().String(), o.URL, o.Title, o.Description, o.MinAverage, o.Citizenship, string(o.Source),
	).Scan(&o.ID, &o.DiscoveredAt, &o.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsertOpportunity: %w", err)
	}

	return inserted, nil
}

const opportunityColumns = `id, url, title, description, min_average, citizenship, source, discovered_at, updated_at`

func scanOpportunity(row pgx.Row) (*database.Opportunity, error) {
	o := &database.Opportunity{}
	var source string
	if err := row.Scan(
		&o.ID, &o.URL, &o.Title, &o.Description, &o.MinAverage, &o.Citizenship,
		&source, &o.DiscoveredAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Source = database.Source(source)
	return o, nil
}

func (s *Store) getOpportunity(ctx context.Context, where string, arg any) (*database.Opportunity, error) {
	o, err := scanOpportunity(s.pool.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE `+where+` = $1`, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// GetOpportunity retrieves an opportunity by ID
func (s *Store) GetOpportunity(ctx context.Context, id string) (*database.Opportunity, error) {
	return s.getOpportunity(ctx, "id", id)
}

// GetOpportunityByURL retrieves an opportunity by its URL
func (s *Store) GetOpportunityByURL(ctx context.Context, url string) (*database.Opportunity, error) {
	return s.getOpportunity(ctx, "url", strings.TrimSpace(url))
}

// ListOpportunities retrieves opportunities, newest first
func (s *Store) ListOpportunities(ctx context.Context, opts database.OpportunityListOptions) ([]database.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE 1=1`
	args := []any{}

	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(" AND discovered_at >= $%d", len(args))
	}
	if opts.Search != nil {
		args = append(args, "%"+*opts.Search+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY discovered_at DESC, url"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listOpportunities query: %w", err)
	}
	defer rows.Close()

	var out []database.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("listOpportunities scan: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// KnownURLs returns the set of stored opportunity URLs
func (s *Store) KnownURLs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT url FROM opportunities`)
	if err != nil {
		return nil, err
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(urls))
	for _, u := range urls {
		known[u] = true
	}
	return known, nil
}

// DeleteOpportunity removes an opportunity; its embedding and matches cascade
func (s *Store) DeleteOpportunity(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("opportunity not found: %s", id)
	}
	return nil
}

// GetEmbedding retrieves the stored vector for an opportunity, nil if absent
func (s *Store) GetEmbedding(ctx context.Context, opportunityID string) (*database.Embedding, error) {
	e := &database.Embedding{}
	var raw string

	err := s.pool.QueryRow(ctx, `
		SELECT opportunity_id, embedding::text, provider, model, updated_at
		FROM opportunity_embeddings WHERE opportunity_id = $1
	`, opportunityID).Scan(&e.OpportunityID, &raw, &e.Provider, &e.Model, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var vec pgvector.Vector
	if err := vec.Scan([]byte(raw)); err != nil {
		return nil, fmt.Errorf("corrupt embedding for %s: %w", opportunityID, err)
	}
	e.Vector = vec.Slice()
	return e, nil
}

// SaveEmbedding stores or replaces the vector for an opportunity
func (s *Store) SaveEmbedding(ctx context.Context, e *database.Embedding) (bool, error) {
	if len(e.Vector) == 0 {
		return false, fmt.Errorf("empty embedding for %s", e.OpportunityID)
	}

	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO opportunity_embeddings (opportunity_id, embedding, provider, model)
		VALUES ($1, CAST($2::text AS vector), $3, $4)
		ON CONFLICT (opportunity_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			provider = EXCLUDED.provider,
			model = EXCLUDED.model,
			updated_at = now()
		RETURNING updated_at, (xmax = 0)
	`, e.OpportunityID, pgvector.NewVector(e.Vector), e.Provider, e.Model).Scan(&e.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("saveEmbedding: %w", err)
	}

	return inserted, nil
}

// GetProfile returns a user's qualifications in declaration order
func (s *Store) GetProfile(ctx context.Context, userID string) (*database.UserProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, industry, courses FROM qualifications
		WHERE user_id = $1 ORDER BY position, created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("getProfile query: %w", err)
	}
	defer rows.Close()

	p := &database.UserProfile{UserID: userID}
	for rows.Next() {
		var q database.Qualification
		if err := rows.Scan(&q.ID, &q.Industry, &q.Courses); err != nil {
			return nil, fmt.Errorf("getProfile scan: %w", err)
		}
		p.Qualifications = append(p.Qualifications, q)
	}
	return p, rows.Err()
}

// SaveProfile replaces all of a user's qualifications
func (s *Store) SaveProfile(ctx context.Context, p *database.UserProfile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("user id is required")
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM qualifications WHERE user_id = $1`, p.UserID); err != nil {
			return err
		}
		for i := range p.Qualifications {
			q := &p.Qualifications[i]
			if q.ID == "" {
				q.ID = uuid.New().String()
			}
			if q.Courses == nil {
				q.Courses = []string{}
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO qualifications (id, user_id, industry, courses, position)
				VALUES ($1, $2, $3, $4, $5)
			`, q.ID, p.UserID, q.Industry, q.Courses, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUserIDs returns every user with a stored profile
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM qualifications ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// DeleteUser removes a user's qualifications and matches
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM matches WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM qualifications WHERE user_id = $1`, userID)
		return err
	})
}

// UpsertMatch stores the score for (user, opportunity), overwriting any earlier score
func (s *Store) UpsertMatch(ctx context.Context, m *database.Match) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO matches (id, user_id, opportunity_id, score, quality, method)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, opportunity_id) DO UPDATE SET
			score = EXCLUDED.score,
			quality = EXCLUDED.quality,
			method = EXCLUDED.method,
			matched_on = now()
		RETURNING id, matched_on
	`, m.ID, m.UserID, m.OpportunityID, m.Score, m.Quality, m.Method).Scan(&m.ID, &m.MatchedOn)
	if err != nil {
		return fmt.Errorf("upsertMatch: %w", err)
	}
	return nil
}

// ListMatches returns a user's stored matches, best first
func (s *Store) ListMatches(ctx context.Context, userID string, limit int) ([]database.MatchDetail, error) {
	query := `
		SELECT m.id, m.user_id, m.opportunity_id, m.score, m.quality, m.method, m.matched_on,
		       o.title, o.url, o.description
		FROM matches m
		JOIN opportunities o ON o.id = m.opportunity_id
		WHERE m.user_id = $1
		ORDER BY m.score DESC, m.matched_on DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listMatches query: %w", err)
	}
	defer rows.Close()

	var out []database.MatchDetail
	for rows.Next() {
		var d database.MatchDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.OpportunityID, &d.Score, &d.Quality, &d.Method, &d.MatchedOn,
			&d.Title, &d.URL, &d.Description,
		); err != nil {
			return nil, fmt.Errorf("listMatches scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetStats returns aggregate counts
func (s *Store) GetStats(ctx context.Context) (*database.Stats, error) {
	st := &database.Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM opportunities),
			(SELECT COUNT(*) FROM opportunity_embeddings),
			(SELECT COUNT(DISTINCT user_id) FROM qualifications),
			(SELECT COUNT(*) FROM matches)
	`).Scan(&st.Opportunities, &st.Embedded, &st.Users, &st.Matches)
	if err != nil {
		return nil, err
	}
	return st, nil
}
