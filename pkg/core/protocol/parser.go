package protocol

import (
	"strings"
)

// Marker strings the model is instructed to emit. The parsers treat them as
// best-effort hints over free text, not a grammar: the first marker found in
// the fixed priority order wins, even when several appear.
const (
	markerUseTool      = "USE_TOOL"
	markerSynthesize   = "SYNTHESIZE"
	markerNeedMore     = "NEED_MORE"
	markerCalcReady    = "CALCULATION_READY:"
	markerExplanation  = "RESULT_EXPLANATION:"
	markerMissing      = "MISSING_INFO:"
	markerInsufficient = "INSUFFICIENT_INFO:"
	markerComplete     = "COMPLETE"
	markerIncomplete   = "INCOMPLETE"
)

// ParseToolDecision recovers a tool-loop decision from a free-text reply.
// Priority: USE_TOOL > SYNTHESIZE > NEED_MORE > UNKNOWN.
func ParseToolDecision(response string) ToolDecision {
	if strings.Contains(response, markerUseTool) {
		detail := afterMarker(response, markerUseTool+":")
		name, input := splitToolDetail(detail)
		return ToolDecision{Kind: DecisionUseTool, ToolName: name, ToolInput: input, Raw: response}
	}
	if strings.Contains(response, markerSynthesize) {
		return ToolDecision{
			Kind:   DecisionSynthesize,
			Answer: strings.TrimSpace(afterMarker(response, markerSynthesize+":")),
			Raw:    response,
		}
	}
	if strings.Contains(response, markerNeedMore) {
		return ToolDecision{Kind: DecisionNeedMore, Raw: response}
	}
	return ToolDecision{Kind: DecisionUnknown, Raw: response}
}

// splitToolDetail splits "SEC_SEARCH with AAPL EBITDA 2022" into name and
// input at the first literal "with".
func splitToolDetail(detail string) (string, string) {
	parts := strings.SplitN(detail, "with", 2)
	name := strings.TrimSpace(parts[0])
	name = strings.Trim(name, "[]")
	input := ""
	if len(parts) == 2 {
		input = strings.TrimSpace(parts[1])
		input = strings.Trim(input, "[]")
	}
	return name, input
}

// ParseAttempt recovers a formula-attempt decision. CALCULATION_READY takes
// precedence; the legacy flow only ever produced that marker here, but the
// completeness step needs the missing-term list, so MISSING_INFO and
// INSUFFICIENT_INFO are also surfaced when tagged. Anything else comes back
// as AttemptUnmatched carrying the raw reply.
func ParseAttempt(response string) AttemptDecision {
	if strings.Contains(response, markerCalcReady) {
		d := AttemptDecision{
			Kind:               AttemptCalculationReady,
			SubstitutedFormula: firstLineAfter(response, markerCalcReady),
			Raw:                response,
		}
		if strings.Contains(response, markerExplanation) {
			d.Explanation = firstLineAfter(response, markerExplanation)
		}
		return d
	}
	if strings.Contains(response, markerMissing) {
		return AttemptDecision{
			Kind:         AttemptMissingInfo,
			MissingTerms: parseTermList(firstLineAfter(response, markerMissing)),
			Raw:          response,
		}
	}
	if strings.Contains(response, markerInsufficient) {
		return AttemptDecision{
			Kind:        AttemptInsufficientInfo,
			Explanation: firstLineAfter(response, markerInsufficient),
			Raw:         response,
		}
	}
	return AttemptDecision{Kind: AttemptUnmatched, Raw: response}
}

// ParseCompleteness reads a COMPLETE/INCOMPLETE verdict. INCOMPLETE is checked
// first because "INCOMPLETE" contains "COMPLETE" as a substring. An
// unrecognizable reply counts as incomplete with no named terms, which sends
// the pipeline down the expansion branch rather than terminating early on
// garbage.
func ParseCompleteness(response string) CompletenessVerdict {
	if idx := strings.Index(response, markerIncomplete); idx >= 0 {
		rest := response[idx+len(markerIncomplete):]
		return CompletenessVerdict{
			Complete:     false,
			MissingTerms: parseTermList(firstLine(strings.TrimPrefix(rest, ":"))),
			Raw:          response,
		}
	}
	if strings.Contains(response, markerComplete) {
		return CompletenessVerdict{Complete: true, Raw: response}
	}
	return CompletenessVerdict{Complete: false, Raw: response}
}

// FormulaAndTerms pulls "FORMULA:" and "KEY_TERMS:" lines out of the formula
// discovery reply. Terms are comma-separated on the KEY_TERMS line.
func FormulaAndTerms(response string) (string, []string) {
	formula := firstLineAfter(response, "FORMULA:")
	terms := parseTermList(firstLineAfter(response, "KEY_TERMS:"))
	return formula, terms
}

func parseTermList(line string) []string {
	var terms []string
	for _, t := range strings.Split(line, ",") {
		t = strings.TrimSpace(t)
		t = strings.Trim(t, ".[]")
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func afterMarker(s, marker string) string {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return ""
	}
	return s[idx+len(marker):]
}

func firstLineAfter(s, marker string) string {
	return firstLine(afterMarker(s, marker))
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, " \t")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
