package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"financeqa_agent/pkg/core/agent"
	"financeqa_agent/pkg/core/dataset"
	"financeqa_agent/pkg/core/pipeline"
	"financeqa_agent/pkg/core/runlog"
	"financeqa_agent/pkg/core/store"
	"financeqa_agent/pkg/core/tools"
)

const divider = "============================================================"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	cfgPath := os.Getenv("FINANCEQA_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/agent.yaml"
	}
	cfg, err := agent.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	mgr := agent.NewManager(cfg)

	dataPath := os.Getenv("FINANCEQA_DATASET")
	if dataPath == "" {
		dataPath = "data/financeqa_test.jsonl"
	}
	rows, err := dataset.Load(dataPath)
	if err != nil {
		log.Fatalf("Error: Dataset not found or unreadable (%v). Please fetch the FinanceQA dataset first.", err)
	}
	fmt.Printf("Dataset loaded: %d questions available\n", len(rows))

	row, ok := pickQuestion(rows)
	if !ok {
		return
	}

	printQuestion(row)

	ctx := context.Background()

	stepLog, err := runlog.NewFileLog("financeqa_steps.jsonl")
	if err != nil {
		log.Printf("Warning: step log unavailable, continuing without it: %v", err)
	}
	var logger runlog.StepLogger = runlog.Discard{}
	runID := ""
	if stepLog != nil {
		logger = stepLog
		runID = stepLog.RunID()
		defer stepLog.Close()
	}

	fmt.Println("\nRunning AI Agent on this question...")

	var answer string
	var result *pipeline.Result
	if strings.TrimSpace(row.Context) != "" {
		orch := pipeline.NewOrchestrator(mgr.GetProvider(), nil, logger)
		r := orch.Run(ctx, row.Question, row.Context)
		answer = r.Answer
		result = &r
	} else {
		runner := agent.NewRunner(mgr.GetProvider(), registerTools(), mgr.MaxIterations())
		answer = runner.Run(ctx, row.Question, row.Context)
	}

	fmt.Println("\nFinal Answer:", answer)

	if err := buildSummary(runID, row, answer, result).WriteFile("financeqa_summary.md"); err != nil {
		log.Printf("Warning: summary write failed: %v", err)
	}

	archiveRun(ctx, runID, row, answer, result)
}

// buildSummary assembles the end-of-run report. The formula and calculator
// fields only exist on the context-pipeline path; a tool-loop run reports just
// the question and answer.
func buildSummary(runID string, row dataset.Question, answer string, result *pipeline.Result) runlog.Summary {
	s := runlog.Summary{
		RunID:       runID,
		Question:    row.Question,
		FinalAnswer: answer,
	}
	if result != nil {
		s.Formula = result.Formula
		s.Reconciled = result.Reconciled
		s.StepsExecuted = result.Steps
		if result.CalcOK {
			s.CalcAnswer = fmt.Sprintf("%.2f", result.CalcValue)
		}
	}
	return s
}

// pickQuestion prompts for a 1-based row index, mirroring the benchmark
// harness's interactive selection.
func pickQuestion(rows []dataset.Question) (dataset.Question, bool) {
	fmt.Printf("\nSelect a question by number from the list (1-%d): ", len(rows))

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println("Error: Please enter a valid number")
		return dataset.Question{}, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		fmt.Println("Error: Please enter a valid number")
		return dataset.Question{}, false
	}
	if n < 1 || n > len(rows) {
		fmt.Printf("Error: Please enter a number between 1 and %d\n", len(rows))
		return dataset.Question{}, false
	}

	fmt.Printf("\n%s\nSELECTED QUESTION #%d\n%s\n", divider, n, divider)
	return rows[n-1], true
}

func printQuestion(row dataset.Question) {
	fmt.Printf("Question Type: %s\n", orNA(row.QuestionType))
	fmt.Printf("Company: %s\n", orNA(row.Company))
	fmt.Printf("File: %s\n", orNA(row.FileName))
	fmt.Printf("\nQUESTION:\n%s\n", orNA(row.Question))
	fmt.Printf("\nCONTEXT:\n%s\n", orDefault(row.Context, "No context available"))
	fmt.Printf("\nEXPECTED ANSWER:\n%s\n", orDefault(row.Answer, "No answer provided"))
	fmt.Printf("\n%s\n", divider)
}

// registerTools builds the external tool set for the conceptual-question
// loop. Names must match what the prompt advertises: dispatch is by exact
// string match.
func registerTools() []agent.Tool {
	fin := tools.NewFinSearch()
	web := tools.NewWebSearch()
	return []agent.Tool{
		{Name: "SEC_SEARCH", Func: fin.Search},
		{Name: "WEB_SEARCH", Func: web.Search},
		{Name: "CALCULATOR", Func: func(ctx context.Context, input string) (string, error) {
			return "Calculator result: " + input, nil
		}},
	}
}

// archiveRun persists the result to Postgres when DATABASE_URL is
// configured. Entirely best-effort; the answer is already printed. result is
// nil on the tool-loop path, which has no calculator side.
func archiveRun(ctx context.Context, runID string, row dataset.Question, answer string, result *pipeline.Result) {
	if os.Getenv("DATABASE_URL") == "" {
		return
	}
	if err := store.InitDB(ctx); err != nil {
		log.Printf("Warning: run archive unavailable: %v", err)
		return
	}
	defer store.Close()

	rec := &store.RunRecord{
		RunID:        runID,
		Question:     row.Question,
		Company:      row.Company,
		QuestionType: row.QuestionType,
		Answer:       answer,
	}
	if result != nil {
		rec.Formula = result.Formula
		rec.CalcValue = result.CalcValue
		rec.CalcOK = result.CalcOK
		rec.Reconciled = result.Reconciled
		rec.Steps = result.Steps
	}
	if err := store.NewRunsRepo().Save(ctx, rec); err != nil {
		log.Printf("Warning: run archive failed: %v", err)
		return
	}
	fmt.Printf("[store] run %s archived\n", runID)
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
