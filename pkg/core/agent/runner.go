package agent

import (
	"context"
	"fmt"

	"financeqa_agent/pkg/core/llm"
	"financeqa_agent/pkg/core/prompt"
	"financeqa_agent/pkg/core/protocol"
)

// Tool is an external collaborator invoked by exact name from a USE_TOOL
// decision.
type Tool struct {
	Name string
	Func func(ctx context.Context, input string) (string, error)
}

// FailureAnswer is the terminal result when the loop exhausts its budget
// without a SYNTHESIZE decision. A fixed string, never an error: budget
// exhaustion is an expected outcome, not a fault.
const FailureAnswer = "Agent failed to synthesize a final answer in time."

// Runner drives the conceptual-question flow: a bounded loop that asks the
// model what to do next, dispatches tools, and accumulates their output into
// the working context. Used when a question arrives without source text.
type Runner struct {
	Provider      llm.Provider
	Tools         []Tool
	MaxIterations int
	// Printf receives progress lines; defaults to fmt.Printf. Injected so
	// tests can run silent.
	Printf func(format string, args ...interface{})
}

func NewRunner(provider llm.Provider, tools []Tool, maxIterations int) *Runner {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return &Runner{
		Provider:      provider,
		Tools:         tools,
		MaxIterations: maxIterations,
		Printf:        func(format string, args ...interface{}) { fmt.Printf(format, args...) },
	}
}

// Run executes the loop. Every failure mode is local: a failed model call,
// an unknown tool name, a tool error, or an unparseable reply is appended to
// the working context as a recorded note and the loop continues.
func (r *Runner) Run(ctx context.Context, question string, initialContext string) string {
	toolResults := ""
	system := r.Provider.AdaptInstructions(prompt.SystemFinancialAnalyst)

	for i := 1; i <= r.MaxIterations; i++ {
		working := toolResults
		if working == "" {
			working = initialContext
		}
		p := prompt.ToolLoop(question, working, i, r.MaxIterations, r.toolNames())

		response, err := r.Provider.GenerateResponse(ctx, p, system, map[string]interface{}{})
		if err != nil {
			r.Printf("[agent] iteration %d: model call failed: %v\n", i, err)
			toolResults += fmt.Sprintf("\n[ERROR] Model call failed: %v", err)
			continue
		}
		r.Printf("[agent] iteration %d decision:\n%s\n", i, response)

		decision := protocol.ParseToolDecision(response)
		switch decision.Kind {
		case protocol.DecisionUseTool:
			toolResults += r.dispatch(ctx, decision.ToolName, decision.ToolInput)
		case protocol.DecisionSynthesize:
			return decision.Answer
		case protocol.DecisionNeedMore:
			toolResults += "\n[Agent] Requested more info. Skipping."
		default:
			toolResults += "\n[ERROR] Could not parse decision."
		}
	}

	return FailureAnswer
}

// dispatch runs the named tool and formats its output for the working context.
// Unknown names and tool failures are recorded, not raised.
func (r *Runner) dispatch(ctx context.Context, name, input string) string {
	for _, t := range r.Tools {
		if t.Name != name {
			continue
		}
		result, err := t.Func(ctx, input)
		if err != nil {
			return fmt.Sprintf("\n[ERROR] Failed to use tool %s: %v", name, err)
		}
		return fmt.Sprintf("\n[%s used] %s", name, result)
	}
	return fmt.Sprintf("\n[ERROR] Failed to use tool: unknown tool %q", name)
}

func (r *Runner) toolNames() []string {
	names := make([]string, 0, len(r.Tools))
	for _, t := range r.Tools {
		names = append(names, t.Name)
	}
	return names
}
