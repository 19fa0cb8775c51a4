package pipeline

import (
	"context"
	"fmt"

	"financeqa_agent/pkg/core/llm"
	"financeqa_agent/pkg/core/prompt"
	"financeqa_agent/pkg/core/protocol"
)

// CompletenessPolicy decides whether the draft attempt used complete
// information. Injectable so the decision is a strategy, not a hardwired
// constant: production asks the model, tests and debugging inject a fixed
// verdict.
type CompletenessPolicy interface {
	Decide(ctx context.Context, question, formula, draft, extracted string) protocol.CompletenessVerdict
}

// AskProviderPolicy asks the model. A failed call degrades to INCOMPLETE with
// no named terms, which sends the pipeline down the expansion branch instead
// of terminating on a guess.
type AskProviderPolicy struct {
	Provider llm.Provider
}

func (p AskProviderPolicy) Decide(ctx context.Context, question, formula, draft, extracted string) protocol.CompletenessVerdict {
	response, err := p.Provider.GenerateResponse(ctx,
		prompt.Completeness(question, formula, draft, extracted),
		p.Provider.AdaptInstructions(prompt.SystemFinancialAnalyst),
		map[string]interface{}{})
	if err != nil {
		return protocol.CompletenessVerdict{
			Complete: false,
			Raw:      fmt.Sprintf("completeness call failed: %v", err),
		}
	}
	return protocol.ParseCompleteness(response)
}

// StaticPolicy returns a fixed verdict. Reproduces the legacy debugging
// override that forced every run down the expanded-search branch.
type StaticPolicy struct {
	Verdict protocol.CompletenessVerdict
}

func (p StaticPolicy) Decide(context.Context, string, string, string, string) protocol.CompletenessVerdict {
	return p.Verdict
}
