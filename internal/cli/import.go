package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/output"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import bursary opportunities from a JSON file",
	Long: `Import opportunities into the stored catalogue without scoring them.

FILE holds either a JSON array or one JSON object per line, each with
"url", "title" and "text" fields. Use "-" to read from stdin. Candidates
are deduplicated by URL and pass the same exclusion filter as scraped
pages.

Examples:
  bursary import bursaries.json
  cat bursaries.jsonl | bursary import -`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	candidates, err := readCandidatesFile(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.svc.Ingest(ctx, candidates, database.SourceImport, nil)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	warnPersist(result.PersistErr)

	return output.Output(outputFmt, result)
}

func readCandidatesFile(path string) ([]filter.Candidate, error) {
	if path == "-" {
		return readCandidates(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return readCandidates(f)
}

// readCandidates decodes a JSON array of candidates or a stream of
// candidate objects such as JSON lines
func readCandidates(r io.Reader) ([]filter.Candidate, error) {
	br := bufio.NewReader(r)

	first, err := firstNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var out []filter.Candidate
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("invalid candidate array: %w", err)
		}
		return out, nil
	}

	var out []filter.Candidate
	for i := 1; ; i++ {
		var c filter.Candidate
		err := dec.Decode(&c)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid candidate %d: %w", i, err)
		}
		out = append(out, c)
	}
}

// firstNonSpace returns the first non-whitespace rune without consuming it
func firstNonSpace(br *bufio.Reader) (rune, error) {
	for {
		r, _, err := br.ReadRune()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(r) && r != '\uFEFF' {
			return r, br.UnreadRune()
		}
	}
}
