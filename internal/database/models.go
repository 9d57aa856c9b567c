package database

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Source records how an opportunity entered the corpus
type Source string

const (
	SourceImport  Source = "import"
	SourceScraper Source = "scraper"
)

// Opportunity is a bursary offering, unique by URL
type Opportunity struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	MinAverage   *int      `json:"min_average,omitempty"`
	Citizenship  *string   `json:"citizenship,omitempty"`
	Source       Source    `json:"source"`
	DiscoveredAt time.Time `json:"discovered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Embedding is the stored vector for one opportunity
type Embedding struct {
	OpportunityID string    `json:"opportunity_id"`
	Vector        []float32 `json:"vector"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Qualification is one declared field of study with its courses
type Qualification struct {
	ID       string   `json:"id,omitempty"`
	Industry string   `json:"industry"`
	Courses  []string `json:"courses"`
}

// UserProfile is the read-only view of a user's qualifications
type UserProfile struct {
	UserID         string          `json:"user_id"`
	Qualifications []Qualification `json:"qualifications"`
}

// Industries returns the declared, non-blank industries in order
func (p *UserProfile) Industries() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, q := range p.Qualifications {
		if strings.TrimSpace(q.Industry) != "" {
			out = append(out, q.Industry)
		}
	}
	return out
}

// Courses returns every declared, non-blank course in order
func (p *UserProfile) Courses() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, q := range p.Qualifications {
		for _, c := range q.Courses {
			if strings.TrimSpace(c) != "" {
				out = append(out, c)
			}
		}
	}
	return out
}

// IsEmpty reports whether the profile carries no industries or courses
func (p *UserProfile) IsEmpty() bool {
	return len(p.Industries()) == 0 && len(p.Courses()) == 0
}

// Match is the persisted score of one opportunity for one user
type Match struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	OpportunityID string    `json:"opportunity_id"`
	Score         int       `json:"score"`
	Quality       string    `json:"quality"`
	Method        string    `json:"method"`
	MatchedOn     time.Time `json:"matched_on"`
}

// MatchDetail is a stored match joined with its opportunity
type MatchDetail struct {
	Match
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Stats represents aggregate counts
type Stats struct {
	Opportunities int `json:"opportunities"`
	Embedded      int `json:"embedded"`
	Users         int `json:"users"`
	Matches       int `json:"matches"`
}

// OpportunityListOptions contains options for listing opportunities
type OpportunityListOptions struct {
	Since  *time.Time
	Search *string
	Limit  int
	Offset int
}

// Store is the persistence contract shared by the SQLite and PostgreSQL backends
type Store interface {
	UpsertOpportunity(ctx context.Context, o *Opportunity) (created bool, err error)
	GetOpportunity(ctx context.Context, id string) (*Opportunity, error)
	GetOpportunityByURL(ctx context.Context, url string) (*Opportunity, error)
	ListOpportunities(ctx context.Context, opts OpportunityListOptions) ([]Opportunity, error)
	KnownURLs(ctx context.Context) (map[string]bool, error)
	DeleteOpportunity(ctx context.Context, id string) error

	GetEmbedding(ctx context.Context, opportunityID string) (*Embedding, error)
	SaveEmbedding(ctx context.Context, e *Embedding) (created bool, err error)

	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	SaveProfile(ctx context.Context, p *UserProfile) error
	ListUserIDs(ctx context.Context) ([]string, error)
	DeleteUser(ctx context.Context, userID string) error

	UpsertMatch(ctx context.Context, m *Match) error
	ListMatches(ctx context.Context, userID string, limit int) ([]MatchDetail, error)

	GetStats(ctx context.Context) (*Stats, error)
	Health(ctx context.Context) error
	Driver() string
	Close() error
}

// NullInt is a helper to convert *int to sql.NullInt64
func NullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

// NullString is a helper to convert *string to sql.NullString
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converts sql.NullString to *string
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// IntPtr converts sql.NullInt64 to *int
func IntPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}
