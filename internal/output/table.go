package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
	"github.com/vijay-prabhu/bursary-matcher/internal/scoring"
)

// Table writes data as a formatted table to stdout
func Table(data any) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case *matching.Result:
		return resultTable(w, v)
	case []matching.StoredMatch:
		return storedMatchesTable(w, v)
	case []database.Opportunity:
		return opportunitiesTable(w, v)
	case *database.UserProfile:
		return profileTable(w, v)
	case *matching.Explanation:
		return explanationDetail(w, v)
	case *database.Stats:
		return statsTable(w, v)
	case *matching.IngestResult:
		return ingestDetail(w, v)
	case *matching.ReembedResult:
		return reembedDetail(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func resultTable(w io.Writer, r *matching.Result) error {
	s := r.Summary
	fmt.Fprintf(w, "Candidates: %d  kept: %d  filtered out: %d  (%.1f%% kept)\n",
		s.OriginalCount, s.FilteredCount, s.FilteredOut, s.FilterEfficiency)
	fmt.Fprintf(w, "Strategy: %s  scored: %d  stored: %d\n", r.Strategy, r.Scored, r.Persisted)

	for _, warning := range r.Warnings {
		fmt.Fprintln(w, wordWrap("warning: "+warning, 78))
	}
	if r.PersistErr != nil {
		fmt.Fprintln(w, wordWrap("warning: "+r.PersistErr.Error(), 78))
	}
	fmt.Fprintln(w)

	if len(r.Matches) == 0 {
		if r.NoSignal {
			fmt.Fprintln(w, "No matches: the profile has no qualifications to match on.")
		} else {
			fmt.Fprintln(w, "No matches found.")
		}
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Score", "Quality", "Method", "Title", "URL")
	for i, m := range r.Matches {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(m.Score),
			m.Quality.String(),
			string(m.Method),
			truncate(m.Title, 50),
			truncate(m.URL, 60),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func storedMatchesTable(w io.Writer, matches []matching.StoredMatch) error {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No stored matches found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Score", "Quality", "Method", "Title", "Matched")
	for _, m := range matches {
		if err := table.Append([]string{
			strconv.Itoa(m.Score),
			m.Quality,
			m.Method,
			truncate(m.Title, 50),
			formatAge(m.MatchedOn),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func opportunitiesTable(w io.Writer, opps []database.Opportunity) error {
	if len(opps) == 0 {
		fmt.Fprintln(w, "No opportunities found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Title", "Source", "Min Avg", "Citizenship", "Discovered", "URL")
	for _, o := range opps {
		minAvg := "-"
		if o.MinAverage != nil {
			minAvg = strconv.Itoa(*o.MinAverage) + "%"
		}
		citizenship := "-"
		if o.Citizenship != nil {
			citizenship = *o.Citizenship
		}
		if err := table.Append([]string{
			truncate(o.Title, 45),
			string(o.Source),
			minAvg,
			citizenship,
			formatAge(o.DiscoveredAt),
			truncate(o.URL, 60),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func profileTable(w io.Writer, p *database.UserProfile) error {
	fmt.Fprintf(w, "User: %s\n", p.UserID)
	if len(p.Qualifications) == 0 {
		fmt.Fprintln(w, "No qualifications recorded.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Industry", "Courses")
	for i, q := range p.Qualifications {
		if err := table.Append([]string{strconv.Itoa(i + 1), q.Industry, strings.Join(q.Courses, ", ")}); err != nil {
			return err
		}
	}
	return table.Render()
}

func explanationDetail(w io.Writer, e *matching.Explanation) error {
	k := e.Keyword

	fmt.Fprintln(w, "Keyword Score")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	if k.Rejected {
		fmt.Fprintf(w, "Rejected:     %s\n", k.Reason)
	}
	fmt.Fprintf(w, "Score:        %d (%s)\n", k.Score, e.KeywordQuality.String())
	fmt.Fprintf(w, "Match:        %t\n", e.KeywordMatch)
	if k.Field != "" {
		fmt.Fprintf(w, "Field:        %s (%d)\n", k.Field, k.FieldScore)
	}
	if len(k.PrimaryHits) > 0 {
		fmt.Fprintf(w, "Primary:      %s\n", formatHits(k.PrimaryHits))
	}
	if len(k.SecondaryHits) > 0 {
		fmt.Fprintf(w, "Secondary:    %s\n", formatHits(k.SecondaryHits))
	}
	for _, h := range append(append([]scoring.KeywordHit(nil), k.PrimaryHits...), k.SecondaryHits...) {
		if h.Context != "" {
			fmt.Fprintf(w, "  %s: %q\n", h.Keyword, h.Context)
		}
	}
	if len(k.PatternHits) > 0 {
		fmt.Fprintf(w, "Patterns:     %s\n", strings.Join(k.PatternHits, ", "))
	}
	if k.Bonus > 0 {
		fmt.Fprintf(w, "Bonus:        +%d\n", k.Bonus)
	}
	if k.CourseBoost > 0 {
		fmt.Fprintf(w, "Course boost: +%d\n", k.CourseBoost)
		for _, c := range k.CourseHits {
			fmt.Fprintf(w, "  - %s (+%d)\n", c.Course, c.Points)
		}
	}
	if k.Fallback {
		fmt.Fprintln(w, "Fallback:     generic bursary wording")
	}

	if s := e.Semantic; s != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Semantic Score")
		fmt.Fprintln(w, strings.Repeat("-", 30))
		if s.NoSignal {
			fmt.Fprintln(w, "No similarity signal (missing or zero vector)")
		} else {
			fmt.Fprintf(w, "Similarity:   %.3f\n", s.Similarity)
			fmt.Fprintf(w, "Score:        %d (%s)\n", s.Score, s.Quality.String())
			fmt.Fprintf(w, "Match:        %t\n", s.Match)
		}
	}

	if !e.Requirements.IsZero() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Requirements")
		fmt.Fprintln(w, strings.Repeat("-", 30))
		if e.Requirements.MinAverage != nil {
			fmt.Fprintf(w, "Minimum average: %d%%\n", *e.Requirements.MinAverage)
		}
		if e.Requirements.Citizenship != "" {
			fmt.Fprintf(w, "Citizenship:     %s\n", e.Requirements.Citizenship)
		}
	}

	for _, warning := range e.Warnings {
		fmt.Fprintln(w, wordWrap("warning: "+warning, 78))
	}
	return nil
}

func formatHits(hits []scoring.KeywordHit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		where := "text"
		if h.InTitle {
			where = "title"
		}
		parts = append(parts, fmt.Sprintf("%s [%s +%d]", h.Keyword, where, h.Points))
	}
	return strings.Join(parts, ", ")
}

func statsTable(w io.Writer, s *database.Stats) error {
	fmt.Fprintln(w, "Bursary Catalogue Statistics")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintf(w, "Opportunities:          %d\n", s.Opportunities)
	fmt.Fprintf(w, "With embeddings:        %d\n", s.Embedded)
	fmt.Fprintf(w, "Users:                  %d\n", s.Users)
	fmt.Fprintf(w, "Stored matches:         %d\n", s.Matches)

	if s.Opportunities > 0 {
		fmt.Fprintf(w, "Embedding coverage:     %.1f%%\n", float64(s.Embedded)/float64(s.Opportunities)*100)
	}
	return nil
}

func ingestDetail(w io.Writer, r *matching.IngestResult) error {
	s := r.Summary
	fmt.Fprintf(w, "Candidates:   %d\n", s.OriginalCount)
	fmt.Fprintf(w, "Filtered out: %d\n", s.FilteredOut)
	fmt.Fprintf(w, "New:          %d\n", r.Created)
	fmt.Fprintf(w, "Updated:      %d\n", r.Updated)
	if r.PersistErr != nil {
		fmt.Fprintln(w, wordWrap("warning: "+r.PersistErr.Error(), 78))
	}
	return nil
}

func reembedDetail(w io.Writer, r *matching.ReembedResult) error {
	fmt.Fprintf(w, "Embedded:     %d\n", r.Total)
	fmt.Fprintf(w, "New vectors:  %d\n", r.Created)
	fmt.Fprintf(w, "Refreshed:    %d\n", r.Updated)
	fmt.Fprintf(w, "Skipped:      %d\n", r.Skipped)
	if r.Failed > 0 {
		fmt.Fprintf(w, "Failed:       %d\n", r.Failed)
	}
	if r.PersistErr != nil {
		fmt.Fprintln(w, wordWrap("warning: "+r.PersistErr.Error(), 78))
	}
	return nil
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	days := int(time.Since(t).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	default:
		return t.Format("2006-01-02")
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// wordWrap wraps text at the specified width
func wordWrap(text string, width int) string {
	var result strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if len(line) <= width {
			result.WriteString(line)
			result.WriteString("\n")
			continue
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if len(currentLine)+1+len(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}
		result.WriteString(currentLine)
		result.WriteString("\n")
	}

	return strings.TrimSuffix(result.String(), "\n")
}
