package matching

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
)

// memStore is an in-memory Store
type memStore struct {
	mu            sync.Mutex
	opps          map[string]*database.Opportunity // by URL
	embeddings    map[string]*database.Embedding
	profiles      map[string]*database.UserProfile
	matches       map[string]database.Match // user|opportunity
	nextID        int
	saveEmbedding int

	failMatches bool
	failOpps    bool
}

func newMemStore() *memStore {
	return &memStore{
		opps:       make(map[string]*database.Opportunity),
		embeddings: make(map[string]*database.Embedding),
		profiles:   make(map[string]*database.UserProfile),
		matches:    make(map[string]database.Match),
	}
}

var errStoreDown = errors.New("store unreachable")

func (m *memStore) UpsertOpportunity(_ context.Context, o *database.Opportunity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOpps {
		return false, errStoreDown
	}
	if existing, ok := m.opps[o.URL]; ok {
		o.ID = existing.ID
		*existing = *o
		return false, nil
	}
	m.nextID++
	o.ID = "opp-" + string(rune('a'+m.nextID-1))
	cp := *o
	m.opps[o.URL] = &cp
	return true, nil
}

func (m *memStore) ListOpportunities(_ context.Context, _ database.OpportunityListOptions) ([]database.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Opportunity
	for _, o := range m.opps {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetEmbedding(_ context.Context, id string) (*database.Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embeddings[id], nil
}

func (m *memStore) SaveEmbedding(_ context.Context, e *database.Embedding) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveEmbedding++
	_, existed := m.embeddings[e.OpportunityID]
	cp := *e
	m.embeddings[e.OpportunityID] = &cp
	return !existed, nil
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*database.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return &database.UserProfile{UserID: userID}, nil
}

func (m *memStore) UpsertMatch(_ context.Context, match *database.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMatches {
		return errStoreDown
	}
	m.matches[match.UserID+"|"+match.OpportunityID] = *match
	return nil
}

func (m *memStore) ListMatches(_ context.Context, userID string, limit int) ([]database.MatchDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.MatchDetail
	for key, match := range m.matches {
		if !strings.HasPrefix(key, userID+"|") {
			continue
		}
		d := database.MatchDetail{Match: match}
		for _, o := range m.opps {
			if o.ID == match.OpportunityID {
				d.Title, d.URL, d.Description = o.Title, o.URL, o.Description
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// funcProvider embeds with a function
type funcProvider struct {
	fn    func(text string) ([]float32, error)
	calls int
	mu    sync.Mutex
}

func (p *funcProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.fn(text)
}

func (p *funcProvider) Name() string  { return "func" }
func (p *funcProvider) Model() string { return "func-model" }

// topicProvider maps text mentioning engineering to one axis and anything else to another
func topicProvider() *funcProvider {
	return &funcProvider{fn: func(text string) ([]float32, error) {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		if strings.Contains(strings.ToLower(text), "engineering") {
			return []float32{1, 0}, nil
		}
		return []float32{0, 1}, nil
	}}
}
