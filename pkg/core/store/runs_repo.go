package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// RunRecord is what gets archived per answered question. A single JSONB blob
// keeps the schema flexible while the answer format is still settling.
type RunRecord struct {
	RunID        string  `json:"run_id"`
	Question     string  `json:"question"`
	Company      string  `json:"company,omitempty"`
	QuestionType string  `json:"question_type,omitempty"`
	Formula      string  `json:"formula"`
	Answer       string  `json:"answer"`
	CalcValue    float64 `json:"calc_value"`
	CalcOK       bool    `json:"calc_ok"`
	Reconciled   bool    `json:"reconciled"`
	Steps        int     `json:"steps"`
}

// RunsRepo archives completed QA runs.
type RunsRepo struct{}

func NewRunsRepo() *RunsRepo {
	return &RunsRepo{}
}

// Schema assumption:
// CREATE TABLE IF NOT EXISTS qa_runs (
//   run_id TEXT PRIMARY KEY,
//   question TEXT,
//   run_json JSONB,
//   created_at TIMESTAMPTZ
// );

// Save upserts one run keyed by run ID.
func (r *RunsRepo) Save(ctx context.Context, rec *RunRecord) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	query := `
		INSERT INTO qa_runs (run_id, question, run_json, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id)
		DO UPDATE SET
			question = EXCLUDED.question,
			run_json = EXCLUDED.run_json,
			created_at = EXCLUDED.created_at;
	`

	_, err = pool.Exec(ctx, query, rec.RunID, rec.Question, jsonData, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Load retrieves one archived run by ID.
func (r *RunsRepo) Load(ctx context.Context, runID string) (*RunRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var jsonData []byte
	err := pool.QueryRow(ctx, `SELECT run_json FROM qa_runs WHERE run_id = $1`, runID).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no run found for id %s", runID)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal(jsonData, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &rec, nil
}
