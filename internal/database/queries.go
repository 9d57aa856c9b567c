package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Opportunities

// UpsertOpportunity inserts an opportunity or refreshes the one with the same URL.
// o.ID is set to the stored row's ID; created reports whether the row is new.
func (db *DB) UpsertOpportunity(ctx context.Context, o *Opportunity) (bool, error) {
	o.URL = strings.TrimSpace(o.URL)
	if o.URL == "" {
		return false, fmt.Errorf("opportunity url is required")
	}
	if o.Source == "" {
		o.Source = SourceImport
	}

	newID := uuid.New().String()
	now := time.Now().UTC()

	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO opportunities (
			id, url, title, description, min_average, citizenship, source, discovered_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			min_average = excluded.min_average,
			citizenship = excluded.citizenship,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		newID, o.URL, o.Title, o.Description, NullInt(o.MinAverage), NullString(o.Citizenship),
		o.Source, now, now,
	).Scan(&id)
	if err != nil {
		return false, fmt.Errorf("failed to upsert opportunity: %w", err)
	}

	o.ID = id
	o.UpdatedAt = now
	created := id == newID
	if created {
		o.DiscoveredAt = now
		return true, nil
	}

	if err := db.QueryRowContext(ctx, `SELECT discovered_at FROM opportunities WHERE id = ?`, id).Scan(&o.DiscoveredAt); err != nil {
		return false, err
	}
	return false, nil
}

const opportunityColumns = `id, url, title, description, min_average, citizenship, source, discovered_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(row rowScanner) (*Opportunity, error) {
	o := &Opportunity{}
	var minAverage sql.NullInt64
	var citizenship sql.NullString

	if err := row.Scan(
		&o.ID, &o.URL, &o.Title, &o.Description, &minAverage, &citizenship,
		&o.Source, &o.DiscoveredAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	o.MinAverage = IntPtr(minAverage)
	o.Citizenship = StringPtr(citizenship)
	return o, nil
}

// GetOpportunity retrieves an opportunity by ID
func (db *DB) GetOpportunity(ctx context.Context, id string) (*Opportunity, error) {
	o, err := scanOpportunity(db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

// GetOpportunityByURL retrieves an opportunity by its URL
func (db *DB) GetOpportunityByURL(ctx context.Context, url string) (*Opportunity, error) {
	o, err := scanOpportunity(db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE url = ?`, strings.TrimSpace(url)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

// ListOpportunities retrieves opportunities, newest first
func (db *DB) ListOpportunities(ctx context.Context, opts OpportunityListOptions) ([]Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE 1=1`
	args := []any{}

	if opts.Since != nil {
		query += " AND discovered_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	if opts.Search != nil {
		query += " AND (LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))"
		pattern := "%" + *opts.Search + "%"
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY discovered_at DESC, url"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opportunities []Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opportunities = append(opportunities, *o)
	}

	return opportunities, rows.Err()
}

// KnownURLs returns the set of stored opportunity URLs
func (db *DB) KnownURLs(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT url FROM opportunities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls[url] = true
	}
	return urls, rows.Err()
}

// DeleteOpportunity removes an opportunity; its embedding and matches cascade
func (db *DB) DeleteOpportunity(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM opportunities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("opportunity not found: %s", id)
	}
	return nil
}

// Embeddings

// GetEmbedding retrieves the stored vector for an opportunity, nil if absent
func (db *DB) GetEmbedding(ctx context.Context, opportunityID string) (*Embedding, error) {
	e := &Embedding{}
	var raw string

	err := db.QueryRowContext(ctx, `
		SELECT opportunity_id, vector, provider, model, updated_at
		FROM opportunity_embeddings WHERE opportunity_id = ?
	`, opportunityID).Scan(&e.OpportunityID, &raw, &e.Provider, &e.Model, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(raw), &e.Vector); err != nil {
		return nil, fmt.Errorf("corrupt embedding for %s: %w", opportunityID, err)
	}
	return e, nil
}

// SaveEmbedding stores or replaces the vector for an opportunity
func (db *DB) SaveEmbedding(ctx context.Context, e *Embedding) (bool, error) {
	if len(e.Vector) == 0 {
		return false, fmt.Errorf("empty embedding for %s", e.OpportunityID)
	}

	raw, err := json.Marshal(e.Vector)
	if err != nil {
		return false, err
	}
	e.UpdatedAt = time.Now().UTC()

	var created bool
	err = db.Transaction(ctx, func(tx *sql.Tx) error {
		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM opportunity_embeddings WHERE opportunity_id = ?`, e.OpportunityID,
		).Scan(&existing); err != nil {
			return err
		}
		created = existing == 0

		_, err := tx.ExecContext(ctx, `
			INSERT INTO opportunity_embeddings (opportunity_id, vector, dimensions, provider, model, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(opportunity_id) DO UPDATE SET
				vector = excluded.vector,
				dimensions = excluded.dimensions,
				provider = excluded.provider,
				model = excluded.model,
				updated_at = excluded.updated_at
		`, e.OpportunityID, string(raw), len(e.Vector), e.Provider, e.Model, e.UpdatedAt)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to save embedding: %w", err)
	}

	return created, nil
}

// Profiles

// GetProfile returns a user's qualifications in declaration order. A user
// with no stored qualifications gets an empty profile, not an error.
func (db *DB) GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, industry, courses FROM qualifications
		WHERE user_id = ? ORDER BY position, created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p := &UserProfile{UserID: userID}
	for rows.Next() {
		var q Qualification
		var courses string
		if err := rows.Scan(&q.ID, &q.Industry, &courses); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(courses), &q.Courses); err != nil {
			return nil, fmt.Errorf("corrupt courses for qualification %s: %w", q.ID, err)
		}
		p.Qualifications = append(p.Qualifications, q)
	}

	return p, rows.Err()
}

// SaveProfile replaces all of a user's qualifications
func (db *DB) SaveProfile(ctx context.Context, p *UserProfile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("user id is required")
	}

	now := time.Now().UTC()
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM qualifications WHERE user_id = ?`, p.UserID); err != nil {
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
			courses, err := json.Marshal(q.Courses)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO qualifications (id, user_id, industry, courses, position, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, q.ID, p.UserID, q.Industry, string(courses), i, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUserIDs returns every user with a stored profile
func (db *DB) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT user_id FROM qualifications ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteUser removes a user's qualifications and matches
func (db *DB) DeleteUser(ctx context.Context, userID string) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE user_id = ?`, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM qualifications WHERE user_id = ?`, userID)
		return err
	})
}

// Matches

// UpsertMatch stores the score for (user, opportunity), overwriting any
// earlier score for the same pair
func (db *DB) UpsertMatch(ctx context.Context, m *Match) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.MatchedOn = time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		INSERT INTO matches (id, user_id, opportunity_id, score, quality, method, matched_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, opportunity_id) DO UPDATE SET
			score = excluded.score,
			quality = excluded.quality,
			method = excluded.method,
			matched_on = excluded.matched_on
	`, m.ID, m.UserID, m.OpportunityID, m.Score, m.Quality, m.Method, m.MatchedOn)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}
	return nil
}

// ListMatches returns a user's stored matches, best first
func (db *DB) ListMatches(ctx context.Context, userID string, limit int) ([]MatchDetail, error) {
	query := `
		SELECT m.id, m.user_id, m.opportunity_id, m.score, m.quality, m.method, m.matched_on,
		       o.title, o.url, o.description
		FROM matches m
		JOIN opportunities o ON o.id = m.opportunity_id
		WHERE m.user_id = ?
		ORDER BY m.score DESC, m.matched_on DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []MatchDetail
	for rows.Next() {
		var d MatchDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.OpportunityID, &d.Score, &d.Quality, &d.Method, &d.MatchedOn,
			&d.Title, &d.URL, &d.Description,
		); err != nil {
			return nil, err
		}
		matches = append(matches, d)
	}

	return matches, rows.Err()
}

// GetStats returns aggregate counts
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM opportunities),
			(SELECT COUNT(*) FROM opportunity_embeddings),
			(SELECT COUNT(DISTINCT user_id) FROM qualifications),
			(SELECT COUNT(*) FROM matches)
	`).Scan(&s.Opportunities, &s.Embedded, &s.Users, &s.Matches)
	if err != nil {
		return nil, err
	}
	return s, nil
}
