package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Question is one FinanceQA benchmark row. The pipeline consumes Question and
// Context; the rest is displayed for the operator.
type Question struct {
	Question       string `json:"question"`
	Context        string `json:"context"`
	Answer         string `json:"answer"`
	ChainOfThought string `json:"chain_of_thought"`
	Company        string `json:"company"`
	QuestionType   string `json:"question_type"`
	FileName       string `json:"file_name"`
}

// Load reads a JSONL dataset file. Blank lines are skipped; a malformed line
// is an error because a silently short dataset would shift every row index
// the operator types.
func Load(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	var rows []Question
	scanner := bufio.NewScanner(f)
	// Context blocks can be long; the default 64KB token limit is not enough.
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var q Question
		if err := json.Unmarshal([]byte(line), &q); err != nil {
			return nil, fmt.Errorf("failed to parse dataset line %d: %w", lineNo, err)
		}
		rows = append(rows, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	return rows, nil
}
