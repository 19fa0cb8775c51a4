package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp dataset: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTemp(t, `{"question":"What was gross profit?","context":"Total revenue was $254,453.","answer":"$32,095 million","company":"Costco","question_type":"basic","file_name":"cost-10k.pdf"}

{"question":"Second question","context":"","answer":"n/a"}
`)

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (blank line skipped), got %d", len(rows))
	}
	if rows[0].Question != "What was gross profit?" {
		t.Errorf("unexpected question: %q", rows[0].Question)
	}
	if rows[0].Company != "Costco" || rows[0].QuestionType != "basic" {
		t.Errorf("metadata not parsed: %+v", rows[0])
	}
	if rows[1].Context != "" {
		t.Errorf("expected empty context on row 2, got %q", rows[1].Context)
	}
}

func TestLoadMalformedLineIsAnError(t *testing.T) {
	// A bad line must fail the load: silently dropping it would shift every
	// row index the operator types.
	path := writeTemp(t, `{"question":"ok"}
{not json}
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for a malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the offending line: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadLongContextLine(t *testing.T) {
	// Context blocks exceed bufio's default 64KB token limit; the loader must
	// handle them.
	long := strings.Repeat("Revenue was strong. ", 10000) // ~200KB
	path := writeTemp(t, `{"question":"q","context":"`+long+`"}`+"\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error on long line: %v", err)
	}
	if len(rows) != 1 || len(rows[0].Context) < 100000 {
		t.Errorf("long context not loaded intact")
	}
}
