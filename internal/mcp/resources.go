package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/ranking"
)

// Resource defines an MCP resource
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceDefinitions lists all available resources
var ResourceDefinitions = []Resource{
	{
		URI:         "bursary://summary",
		Name:        "Catalogue Summary",
		Description: "Counts of stored opportunities, embeddings, users and matches",
		MimeType:    "text/plain",
	},
	{
		URI:         "bursary://recent",
		Name:        "Recent Opportunities",
		Description: "The 10 most recently discovered opportunities",
		MimeType:    "text/plain",
	},
}

type resourcesListResult struct {
	Resources []Resource `json:"resources"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

type readResourceResult struct {
	Contents []resourceContent `json:"contents"`
}

type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

func (s *Server) readResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "bursary://summary":
		return s.resourceSummary(ctx)
	case "bursary://recent":
		return s.resourceRecent(ctx)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

func (s *Server) resourceSummary(ctx context.Context) (string, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Bursary Catalogue Summary
=========================
Opportunities: %d
  - Embedded:  %d
Users:         %d
Matches:       %d
`, stats.Opportunities, stats.Embedded, stats.Users, stats.Matches), nil
}

func (s *Server) resourceRecent(ctx context.Context) (string, error) {
	opps, err := s.store.ListOpportunities(ctx, database.OpportunityListOptions{Limit: 10})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Recent Opportunities\n====================\n\n")

	if len(opps) == 0 {
		b.WriteString("No opportunities yet. Run 'bursary import' or 'bursary scrape' to add some.\n")
		return b.String(), nil
	}

	for _, o := range opps {
		fmt.Fprintf(&b, "- %s | %s | %s\n", ranking.Truncate(o.Title, 60, "..."), o.URL, o.DiscoveredAt.Format("2006-01-02"))
	}
	return b.String(), nil
}
