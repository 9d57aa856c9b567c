package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

var userIDProperty = map[string]any{
	"type":        "string",
	"description": "User whose stored qualifications drive the match",
}

// ToolDefinitions contains all available MCP tools
var ToolDefinitions = []Tool{
	{
		Name:        "compute_matches",
		Description: "Score bursary opportunities against a user's qualifications, store the matches and return the best ones. Without candidates the stored catalogue is matched.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": userIDProperty,
				"candidates": map[string]any{
					"type":        "array",
					"description": "Opportunities to match; each needs a url, a title and page text",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"url":   map[string]any{"type": "string"},
							"title": map[string]any{"type": "string"},
							"text":  map[string]any{"type": "string"},
						},
						"required": []string{"url", "title"},
					},
				},
				"strategy": map[string]any{
					"type":        "string",
					"enum":        []string{"keyword", "semantic", "both"},
					"description": "Scorers to use (default from config)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of matches to return (default 30, max 50)",
				},
			},
			"required": []string{"user_id"},
		},
	},
	{
		Name:        "list_matches",
		Description: "List a user's stored matches, best first.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": userIDProperty,
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of matches to return (default: all)",
				},
			},
			"required": []string{"user_id"},
		},
	},
	{
		Name:        "score_opportunity",
		Description: "Explain how one opportunity scores: field, keyword hits, bonuses, course boost, semantic similarity and extracted requirements. Nothing is stored.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": userIDProperty,
				"title": map[string]any{
					"type":        "string",
					"description": "Opportunity title",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Opportunity page text",
				},
			},
			"required": []string{"title"},
		},
	},
	{
		Name:        "list_opportunities",
		Description: "List stored bursary opportunities, newest first.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search": map[string]any{
					"type":        "string",
					"description": "Case-insensitive text to find in the title or description",
				},
				"since_days": map[string]any{
					"type":        "integer",
					"description": "Only opportunities discovered in the last N days",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return (default: 20)",
				},
			},
		},
	},
	{
		Name:        "get_stats",
		Description: "Get counts of stored opportunities, embeddings, users and matches.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}
