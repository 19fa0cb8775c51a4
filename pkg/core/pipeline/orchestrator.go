package pipeline

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"financeqa_agent/pkg/core/calc"
	"financeqa_agent/pkg/core/extract"
	"financeqa_agent/pkg/core/llm"
	"financeqa_agent/pkg/core/prompt"
	"financeqa_agent/pkg/core/protocol"
	"financeqa_agent/pkg/core/retrieve"
	"financeqa_agent/pkg/core/runlog"
)

// Step names as they appear in the execution log.
const (
	StepFormulaDiscovery  = "FORMULA_DISCOVERY"
	StepInitialSearch     = "INITIAL_SEARCH"
	StepDraftAttempt      = "DRAFT_ATTEMPT"
	StepCompletenessCheck = "COMPLETENESS_CHECK"
	StepExpandedSearch    = "EXPANDED_SEARCH"
	StepFinalAttempt      = "FINAL_ATTEMPT"
	StepReconciliation    = "RECONCILIATION"
)

// UnableAnswer is the terminal result when neither the model nor the
// calculator could produce a number. Explicit and labeled, never a partial or
// garbled string, and never "$0" for an uncomputable formula.
const UnableAnswer = "Unable to determine an answer from the provided context."

// Result is what one question's run produces.
type Result struct {
	Answer       string
	Formula      string
	ModelFormula string // the model's substituted formula line, if any
	CalcValue    float64
	CalcShape    calc.Formula
	CalcOK       bool
	Reconciled   bool // calculator and model agree (only meaningful when both produced a number)
	Steps        int
	Extracted    string // final accumulated blob, for audit
}

// Orchestrator drives the context-grounded flow for a single question. One
// instance owns one question's state; nothing is shared across questions.
type Orchestrator struct {
	Provider  llm.Provider
	Policy    CompletenessPolicy
	Logger    runlog.StepLogger
	Extractor *extract.Extractor
	// Printf receives progress lines; defaults to fmt.Printf.
	Printf func(format string, args ...interface{})

	stepNumber int
}

func NewOrchestrator(provider llm.Provider, policy CompletenessPolicy, logger runlog.StepLogger) *Orchestrator {
	if policy == nil {
		policy = AskProviderPolicy{Provider: provider}
	}
	if logger == nil {
		logger = runlog.Discard{}
	}
	return &Orchestrator{
		Provider:  provider,
		Policy:    policy,
		Logger:    logger,
		Extractor: extract.NewExtractor(),
		Printf:    func(format string, args ...interface{}) { fmt.Printf(format, args...) },
	}
}

// Run answers a question against its source context. Every collaborator or
// parse failure degrades locally; the worst case is an explicit UnableAnswer.
func (o *Orchestrator) Run(ctx context.Context, question, docContext string) Result {
	o.stepNumber = 0

	// 1. FORMULA_DISCOVERY
	formula, terms := o.discoverFormula(ctx, question)

	// 2. INITIAL_SEARCH
	blob := o.search(StepInitialSearch, retrieve.NewMatcher(retrieve.WideSearch()), docContext, terms, "")

	// 3. DRAFT_ATTEMPT
	draft := o.attempt(ctx, StepDraftAttempt, question, formula, blob)

	// 4. COMPLETENESS_CHECK
	verdict := o.Policy.Decide(ctx, question, formula, draft.Raw, blob)
	o.log(StepCompletenessCheck, draft.Raw, verdict.Raw, nil)

	final := draft
	if !verdict.Complete {
		missing := verdict.MissingTerms
		if len(missing) == 0 && draft.Kind == protocol.AttemptMissingInfo {
			missing = draft.MissingTerms
		}

		// 5. EXPANDED_SEARCH
		blob = o.expandedSearch(ctx, docContext, missing, blob)

		// 6. FINAL_ATTEMPT
		final = o.attempt(ctx, StepFinalAttempt, question, formula, blob)
	}

	// 7. Reconcile the model's arithmetic against the calculator.
	return o.reconcile(formula, final, blob)
}

// generate sends one prompt with the shared analyst instructions, run through
// the provider's instruction adapter.
func (o *Orchestrator) generate(ctx context.Context, p string) (string, error) {
	system := o.Provider.AdaptInstructions(prompt.SystemFinancialAnalyst)
	return o.Provider.GenerateResponse(ctx, p, system, map[string]interface{}{})
}

func (o *Orchestrator) log(step, input, output string, err error) {
	o.stepNumber++
	level := "INFO"
	if err != nil {
		level = "ERROR"
		output = fmt.Sprintf("%s | error: %v", output, err)
	}
	o.Logger.Log(runlog.Entry{
		StepNumber: o.stepNumber,
		Step:       step,
		Input:      truncate(input, 2000),
		Output:     truncate(output, 2000),
		Level:      level,
	})
}

// discoverFormula asks the model for the formula, key terms and synonym
// table. Synonyms that fail to decode fall back to the built-in table; a
// failed call falls back to empty terms and the run limps on.
func (o *Orchestrator) discoverFormula(ctx context.Context, question string) (string, []retrieve.Term) {
	p := prompt.FormulaDiscovery(question)
	response, err := o.generate(ctx, p)
	if err != nil {
		o.log(StepFormulaDiscovery, p, "", err)
		o.Printf("[pipeline] formula discovery failed: %v\n", err)
		return "", nil
	}
	o.log(StepFormulaDiscovery, p, response, nil)

	formula, labels := protocol.FormulaAndTerms(response)
	synonyms, synErr := protocol.ExtractBracketedJSON(response, "SYNONYMS:")
	if synErr != nil {
		o.Printf("[pipeline] synonym table decode failed, using fallback: %v\n", synErr)
	}

	terms := make([]retrieve.Term, 0, len(labels))
	for _, label := range labels {
		syns := synonyms[label]
		if len(syns) == 0 {
			syns = protocol.FallbackSynonyms(label)
		}
		terms = append(terms, retrieve.Term{Label: label, Synonyms: syns})
	}
	return formula, terms
}

// search runs the matcher over the context and appends label-prefixed
// snippets to the accumulated blob. The blob only ever grows; earlier
// extractions are never pruned.
func (o *Orchestrator) search(step string, m *retrieve.Matcher, docContext string, terms []retrieve.Term, blob string) string {
	found := m.Find(docContext, terms)
	var added []string
	for _, label := range retrieve.SortedLabels(found) {
		s := found[label]
		added = append(added, fmt.Sprintf("%s: %s", strings.ToUpper(label), s.Text))
	}
	joined := strings.Join(added, "\n")
	o.log(step, fmt.Sprintf("%d terms", len(terms)), joined, nil)
	if joined == "" {
		return blob
	}
	if blob == "" {
		return joined
	}
	return blob + "\n" + joined
}

// attempt asks the model to substitute values into the formula using only the
// accumulated blob.
func (o *Orchestrator) attempt(ctx context.Context, step, question, formula, blob string) protocol.AttemptDecision {
	p := prompt.Attempt(question, formula, blob)
	response, err := o.generate(ctx, p)
	if err != nil {
		o.log(step, p, "", err)
		o.Printf("[pipeline] %s model call failed: %v\n", step, err)
		return protocol.AttemptDecision{Kind: protocol.AttemptUnmatched}
	}
	o.log(step, p, response, nil)
	return protocol.ParseAttempt(response)
}

// expandedSearch asks for expanded synonym tables for the missing terms,
// decomposes every synonym into n-gram candidates, and appends whatever the
// focused matcher finds.
func (o *Orchestrator) expandedSearch(ctx context.Context, docContext string, missing []string, blob string) string {
	if len(missing) == 0 {
		return blob
	}
	p := prompt.ExpandTerms(missing)
	response, err := o.generate(ctx, p)
	expanded := map[string][]string{}
	if err != nil {
		o.log(StepExpandedSearch, p, "", err)
		o.Printf("[pipeline] term expansion call failed, using fallback synonyms: %v\n", err)
	} else {
		var decodeErr error
		expanded, decodeErr = protocol.ExtractBracketedJSON(response, "EXPANDED_TERMS:")
		if decodeErr != nil {
			o.Printf("[pipeline] expanded terms decode failed, using fallback: %v\n", decodeErr)
			expanded = map[string][]string{}
		}
	}

	terms := make([]retrieve.Term, 0, len(missing))
	for _, label := range missing {
		syns := expanded[label]
		if len(syns) == 0 {
			syns = protocol.FallbackSynonyms(label)
		}
		terms = append(terms, retrieve.Term{
			Label:    label,
			Synonyms: retrieve.ExpandCandidates(syns),
		})
	}
	return o.search(StepExpandedSearch, retrieve.NewMatcher(retrieve.FocusedSearch()), docContext, terms, blob)
}

// reconcile computes the calculator-side answer from the accumulated blob and
// merges it with the model's attempt into the final result.
func (o *Orchestrator) reconcile(formula string, final protocol.AttemptDecision, blob string) Result {
	res := Result{
		Formula:   formula,
		Steps:     o.stepNumber,
		Extracted: blob,
	}

	facts := o.Extractor.Extract(blob)
	value, shape, err := calc.Evaluate(formula, facts)
	if err == nil {
		res.CalcOK = true
		res.CalcValue = value
		res.CalcShape = shape
	}

	if final.Kind == protocol.AttemptCalculationReady {
		res.ModelFormula = final.SubstitutedFormula
	}

	switch {
	case res.CalcOK:
		unit := "millions"
		if shape.IsPercent() {
			unit = "percent"
		}
		res.Answer = calc.FormatResult(value, unit)
		if modelValue, ok := lastNumber(res.ModelFormula); ok {
			res.Reconciled = math.Abs(modelValue-value) < 0.5
			if !res.Reconciled {
				res.Answer += fmt.Sprintf(" (calculator; model computed %s)", calc.FormatResult(modelValue, unit))
			}
		}
	case res.ModelFormula != "":
		// Calculator could not resolve the formula shape but the model
		// produced a substituted calculation. Trust it, labeled as unverified.
		res.Answer = strings.TrimSpace(res.ModelFormula) + " (unverified by calculator)"
	default:
		res.Answer = UnableAnswer
	}

	o.stepNumber++
	res.Steps = o.stepNumber
	o.Logger.Log(runlog.Entry{
		StepNumber: o.stepNumber,
		Step:       StepReconciliation,
		Input:      res.ModelFormula,
		Output:     res.Answer,
		Level:      "INFO",
	})
	return res
}

var numberPattern = regexp.MustCompile(`-?[0-9][0-9,]*\.?[0-9]*`)

// lastNumber pulls the final numeric token out of a substituted formula line,
// which by convention is the model's computed result
// ("Gross Profit = 254453 - 222358 = 32095" -> 32095).
func lastNumber(s string) (float64, bool) {
	matches := numberPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return 0, false
	}
	raw := strings.ReplaceAll(matches[len(matches)-1], ",", "")
	raw = strings.TrimSuffix(raw, ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
