package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Entry is one step's observational record. Logging is append-only and must
// never influence control flow: a sink that fails is reported once and then
// ignored.
type Entry struct {
	RunID      string    `json:"run_id"`
	StepNumber int       `json:"step_number"`
	Step       string    `json:"step"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Level      string    `json:"level"` // "INFO" or "ERROR"
	Timestamp  time.Time `json:"timestamp"`
}

// StepLogger receives pipeline step records.
type StepLogger interface {
	Log(entry Entry)
}

// Discard is a StepLogger that drops everything. The orchestrator uses it
// when the caller supplies no sink.
type Discard struct{}

func (Discard) Log(Entry) {}

// FileLog appends entries as JSON lines. The caller owns the lifecycle: open
// at run start, Close at run end. There is deliberately no global instance.
type FileLog struct {
	runID string
	f     *os.File
	// broken flips after the first write failure so we complain once, not per
	// step.
	broken bool
}

// NewFileLog opens (appending) the step log at path and assigns a fresh run ID.
func NewFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open step log %s: %w", path, err)
	}
	return &FileLog{runID: uuid.NewString(), f: f}, nil
}

func (l *FileLog) RunID() string {
	return l.runID
}

// Log appends one entry. Failures are swallowed: a full disk must not fail
// the question being answered.
func (l *FileLog) Log(entry Entry) {
	if l.broken {
		return
	}
	entry.RunID = l.runID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	line, err := json.Marshal(entry)
	if err == nil {
		_, err = l.f.Write(append(line, '\n'))
	}
	if err != nil {
		l.broken = true
		fmt.Printf("[runlog] step log write failed, further entries dropped: %v\n", err)
	}
}

func (l *FileLog) Close() error {
	return l.f.Close()
}
