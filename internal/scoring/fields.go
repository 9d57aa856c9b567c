package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// FieldMapping is the keyword vocabulary for one study industry
type FieldMapping struct {
	Primary   []string // strong signals, e.g. the discipline name
	Secondary []string // weaker related terms
	Patterns  []string // regexes for course-name variants
}

// FieldMappings associates the industries users pick with their vocabularies
var FieldMappings = map[string]FieldMapping{
	"Information Technology (IT) & Computer Science": {
		Primary: []string{
			"computer science", "information technology", "IT", "software engineering",
			"software development", "programming", "coding", "web development",
			"cybersecurity", "information systems", "data science", "artificial intelligence",
			"machine learning", "computer engineering", "network engineering",
		},
		Secondary: []string{
			"tech", "digital", "computing", "software", "programming", "coding",
			"database", "networking", "security", "AI", "ML", "data", "analytics",
			"cloud", "mobile", "app development", "system administration",
		},
		Patterns: []string{
			`computer.{0,10}science`, `information.{0,10}technology`,
			`software.{0,10}engineering`, `data.{0,10}science`,
			`cyber.{0,5}security`, `web.{0,10}development`,
		},
	},
	"Business, Finance & Accounting": {
		Primary: []string{
			"business", "finance", "accounting", "commerce", "economics",
			"management", "marketing", "human resources", "business administration",
			"financial management", "chartered accountant", "bookkeeping",
		},
		Secondary: []string{
			"MBA", "BCom", "financial", "economic", "commercial", "admin",
			"HR", "CTA", "SAICA", "SAIPA", "audit", "tax", "banking",
		},
		Patterns: []string{
			`business.{0,15}administration`, `financial.{0,10}management`,
			`chartered.{0,10}accountant`, `human.{0,10}resources`,
		},
	},
	"Engineering": {
		Primary: []string{
			"engineering", "mechanical engineering", "electrical engineering",
			"civil engineering", "chemical engineering", "industrial engineering",
			"mining engineering", "aerospace engineering", "biomedical engineering",
			"environmental engineering", "structural engineering",
		},
		Secondary: []string{
			"engineer", "mechanical", "electrical", "civil", "chemical",
			"industrial", "mining", "aerospace", "biomedical", "environmental",
			"structural", "technical", "technology",
		},
		Patterns: []string{
			`mechanical.{0,10}engineering`, `electrical.{0,10}engineering`,
			`civil.{0,10}engineering`, `chemical.{0,10}engineering`,
		},
	},
	"Health & Medical Sciences": {
		Primary: []string{
			"medicine", "medical", "nursing", "pharmacy", "physiotherapy",
			"dentistry", "veterinary", "health sciences", "biomedical sciences",
			"clinical", "healthcare", "medical technology",
		},
		Secondary: []string{
			"health", "medical", "clinical", "patient", "hospital",
			"doctor", "nurse", "pharmacist", "therapist", "healthcare",
		},
		Patterns: []string{
			`medical.{0,10}sciences`, `health.{0,10}sciences`,
			`biomedical.{0,10}sciences`,
		},
	},
	"Law & Legal Studies": {
		Primary: []string{
			"law", "legal studies", "jurisprudence", "legal", "attorney",
			"advocate", "paralegal", "legal practice", "constitutional law",
		},
		Secondary: []string{
			"legal", "lawyer", "attorney", "advocate", "court",
			"justice", "litigation", "contract", "constitutional",
		},
		Patterns: []string{
			`legal.{0,10}studies`, `constitutional.{0,10}law`,
		},
	},
	"Education & Teaching": {
		Primary: []string{
			"education", "teaching", "teacher training", "pedagogy",
			"early childhood development", "educational psychology",
			"curriculum studies", "education management",
		},
		Secondary: []string{
			"teaching", "teacher", "educator", "education", "academic",
			"school", "classroom", "curriculum", "pedagogy", "ECD",
		},
		Patterns: []string{
			`teacher.{0,10}training`, `early.{0,10}childhood.{0,10}development`,
			`educational.{0,10}psychology`,
		},
	},
}

// Industries returns the names of all mapped industries, sorted
func Industries() []string {
	names := make([]string, 0, len(FieldMappings))
	for name := range FieldMappings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// field is a FieldMapping with lowercased keywords and compiled patterns
type field struct {
	name      string
	primary   []string
	secondary []string
	patterns  []*regexp.Regexp
}

func compileFields(mappings map[string]FieldMapping) (map[string]*field, error) {
	fields := make(map[string]*field, len(mappings))

	for name, m := range mappings {
		f := &field{
			name:      name,
			primary:   lowerAll(m.Primary),
			secondary: lowerAll(m.Secondary),
		}
		for _, p := range m.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("field %q: invalid pattern %q: %w", name, p, err)
			}
			f.patterns = append(f.patterns, re)
		}
		fields[name] = f
	}

	return fields, nil
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
