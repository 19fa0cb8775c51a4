package runlog

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// Summary is the human-readable end-of-run report, kept separate from the
// machine-readable step log.
type Summary struct {
	RunID         string
	Question      string
	Formula       string
	FinalAnswer   string
	CalcAnswer    string
	Reconciled    bool
	StepsExecuted int
}

// Markdown renders the summary as a markdown document.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("# Run Summary\n\n")
	fmt.Fprintf(&b, "- **Run**: %s\n", s.RunID)
	fmt.Fprintf(&b, "- **Question**: %s\n", s.Question)
	fmt.Fprintf(&b, "- **Formula**: %s\n", s.Formula)
	fmt.Fprintf(&b, "- **Steps executed**: %d\n\n", s.StepsExecuted)
	fmt.Fprintf(&b, "## Final answer\n\n%s\n", s.FinalAnswer)
	if s.CalcAnswer != "" {
		fmt.Fprintf(&b, "\n## Calculator cross-check\n\n%s", s.CalcAnswer)
		if s.Reconciled {
			b.WriteString(" (agrees with the model)\n")
		} else {
			b.WriteString(" (DISAGREES with the model)\n")
		}
	}
	return b.String()
}

// WriteFile validates the rendered markdown with Goldmark and writes it.
// Goldmark is very permissive, so this is a sanity check against garbage in
// the answer text rather than real validation. A write failure is returned
// for diagnostics but callers treat it as best-effort.
func (s Summary) WriteFile(path string) error {
	md := s.Markdown()
	if doc := goldmark.DefaultParser().Parse(text.NewReader([]byte(md))); doc == nil {
		return fmt.Errorf("summary did not parse as markdown")
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}
