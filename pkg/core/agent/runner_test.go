package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// sequenceProvider replays canned replies in order, then repeats the last one.
type sequenceProvider struct {
	replies []string
	errs    []error
	calls   int
}

func (p *sequenceProvider) GenerateResponse(context.Context, string, string, map[string]interface{}) (string, error) {
	i := p.calls
	p.calls++
	if i >= len(p.replies) {
		i = len(p.replies) - 1
	}
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	return p.replies[i], err
}

func (p *sequenceProvider) AdaptInstructions(raw string) string { return raw }

func silentRunner(provider *sequenceProvider, tools []Tool, max int) *Runner {
	r := NewRunner(provider, tools, max)
	r.Printf = func(string, ...interface{}) {}
	return r
}

func TestRunDispatchesToolThenSynthesizes(t *testing.T) {
	var seenInput string
	tools := []Tool{{
		Name: "SEC_SEARCH",
		Func: func(_ context.Context, input string) (string, error) {
			seenInput = input
			return "AAPL ebitda in 2022: 130541", nil
		},
	}}
	provider := &sequenceProvider{replies: []string{
		"USE_TOOL: SEC_SEARCH with AAPL EBITDA 2022",
		"SYNTHESIZE: Apple's 2022 EBITDA was about $130.5 billion.",
	}}

	got := silentRunner(provider, tools, 5).Run(context.Background(), "What was Apple's 2022 EBITDA?", "")
	if got != "Apple's 2022 EBITDA was about $130.5 billion." {
		t.Fatalf("unexpected answer: %q", got)
	}
	if seenInput != "AAPL EBITDA 2022" {
		t.Errorf("tool received wrong input: %q", seenInput)
	}
	if provider.calls != 2 {
		t.Errorf("expected 2 model calls, got %d", provider.calls)
	}
}

func TestRunBudgetExhaustionReturnsFailureAnswer(t *testing.T) {
	provider := &sequenceProvider{replies: []string{"NEED_MORE context please"}}

	got := silentRunner(provider, nil, 3).Run(context.Background(), "q", "")
	if got != FailureAnswer {
		t.Fatalf("expected the fixed failure answer, got %q", got)
	}
	if provider.calls != 3 {
		t.Errorf("expected exactly MaxIterations calls, got %d", provider.calls)
	}
}

func TestRunUnknownToolIsRecordedNotFatal(t *testing.T) {
	provider := &sequenceProvider{replies: []string{
		"USE_TOOL: BLOOMBERG with anything",
		"SYNTHESIZE: done",
	}}

	got := silentRunner(provider, nil, 5).Run(context.Background(), "q", "")
	if got != "done" {
		t.Fatalf("loop must continue after an unknown tool, got %q", got)
	}
}

func TestRunToolErrorIsRecordedNotFatal(t *testing.T) {
	tools := []Tool{{
		Name: "WEB_SEARCH",
		Func: func(context.Context, string) (string, error) {
			return "", errors.New("WEB_SEARCH_API_ERROR: quota exceeded")
		},
	}}
	provider := &sequenceProvider{replies: []string{
		"USE_TOOL: WEB_SEARCH with costco revenue",
		"SYNTHESIZE: done despite the failed search",
	}}

	got := silentRunner(provider, tools, 5).Run(context.Background(), "q", "")
	if got != "done despite the failed search" {
		t.Fatalf("loop must continue after a tool error, got %q", got)
	}
}

func TestRunModelErrorIsRecordedNotFatal(t *testing.T) {
	provider := &sequenceProvider{
		replies: []string{"", "SYNTHESIZE: recovered"},
		errs:    []error{errors.New("GEMINI_API_CALL_ERROR: timeout")},
	}

	got := silentRunner(provider, nil, 5).Run(context.Background(), "q", "")
	if got != "recovered" {
		t.Fatalf("loop must continue after a model error, got %q", got)
	}
}

// adaptingProvider rewrites its instructions, the way a local-model provider
// reshapes the system prompt for its instruction format.
type adaptingProvider struct {
	systems []string
}

func (p *adaptingProvider) GenerateResponse(_ context.Context, _ string, systemPrompt string, _ map[string]interface{}) (string, error) {
	p.systems = append(p.systems, systemPrompt)
	return "SYNTHESIZE: done", nil
}

func (p *adaptingProvider) AdaptInstructions(raw string) string {
	return "[instruct] " + raw
}

func TestRunRoutesInstructionsThroughAdapter(t *testing.T) {
	p := &adaptingProvider{}
	r := NewRunner(p, nil, 3)
	r.Printf = func(string, ...interface{}) {}

	if got := r.Run(context.Background(), "q", ""); got != "done" {
		t.Fatalf("unexpected answer: %q", got)
	}
	if len(p.systems) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(p.systems))
	}
	if !strings.HasPrefix(p.systems[0], "[instruct] ") {
		t.Errorf("system prompt not adapted: %q", p.systems[0])
	}
}

func TestDispatchFormatsToolResult(t *testing.T) {
	r := silentRunner(&sequenceProvider{replies: []string{""}}, []Tool{{
		Name: "CALCULATOR",
		Func: func(_ context.Context, input string) (string, error) {
			return "Calculator result: " + input, nil
		},
	}}, 1)

	got := r.dispatch(context.Background(), "CALCULATOR", "2+2")
	if !strings.Contains(got, "[CALCULATOR used]") || !strings.Contains(got, "Calculator result: 2+2") {
		t.Errorf("unexpected dispatch record: %q", got)
	}
}
