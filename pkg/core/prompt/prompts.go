package prompt

import (
	"bytes"
	"strings"
	"text/template"
)

// SystemFinancialAnalyst is the shared system prompt for every model call.
const SystemFinancialAnalyst = "You are a financial analysis AI. Be precise with numbers and follow the requested response format exactly."

// Each step's user prompt is a text/template rendered with a flat variable
// map. Templates are parsed once at init; a bad template is a programmer
// error, hence Must.
var (
	toolLoopTmpl = template.Must(template.New("tool_loop").Parse(`QUESTION: {{.Question}}
ITERATION: {{.Iteration}}/{{.MaxIterations}}
CONTEXT SO FAR: {{.Context}}

Available tools:
{{- range .Tools}}
- {{.}}
{{- end}}

What should you do next? Choose ONE:
A) USE_TOOL: [tool_name] with [parameters]
B) SYNTHESIZE: Create final answer
C) NEED_MORE: Explain what additional info is needed

Respond with your decision and reasoning.`))

	formulaDiscoveryTmpl = template.Must(template.New("formula_discovery").Parse(`QUESTION: {{.Question}}

Identify the financial formula needed to answer this question and the terms whose numeric values must be found.

Respond in exactly this format:
FORMULA: <the formula, e.g. Gross Profit = Revenue - COGS>
KEY_TERMS: <comma-separated list of terms, e.g. revenue, cost of goods sold>
SYNONYMS: <a JSON object mapping each key term to a list of alternate phrasings to search for>`))

	attemptTmpl = template.Must(template.New("attempt").Parse(`QUESTION: {{.Question}}
FORMULA: {{.Formula}}

EXTRACTED INFORMATION (use ONLY this, all values are in millions unless stated otherwise):
{{.Extracted}}

Substitute numeric values into the formula and compute the result.

If every term has a value, respond in exactly this format:
CALCULATION_READY: <the formula with numbers substituted and the result>
RESULT_EXPLANATION: <one line explaining the result>

If a term's value is missing from the extracted information, respond:
MISSING_INFO: <comma-separated list of the missing terms>

If the question cannot be answered from this information at all, respond:
INSUFFICIENT_INFO: <one line explaining why>`))

	completenessTmpl = template.Must(template.New("completeness").Parse(`QUESTION: {{.Question}}
FORMULA: {{.Formula}}
DRAFT ANSWER: {{.Draft}}

EXTRACTED INFORMATION THE DRAFT WAS BASED ON:
{{.Extracted}}

Did the draft use complete information for every term in the formula?

Respond with exactly one of:
COMPLETE
INCOMPLETE: <comma-separated list of terms whose values were missing or doubtful>`))

	expandTermsTmpl = template.Must(template.New("expand_terms").Parse(`The following terms could not be found in a financial document: {{.Terms}}

For each term, list alternate phrasings, labels and abbreviations a company filing might use instead.

Respond in exactly this format:
EXPANDED_TERMS: <a JSON object mapping each term to a list of alternate phrasings>`))
)

func render(t *template.Template, vars map[string]interface{}) string {
	var buf bytes.Buffer
	// Execute over a plain map cannot fail with these templates; swallow the
	// error to keep call sites clean.
	_ = t.Execute(&buf, vars)
	return buf.String()
}

// ToolLoop builds the conceptual-question loop prompt.
func ToolLoop(question, context string, iteration, maxIterations int, tools []string) string {
	return render(toolLoopTmpl, map[string]interface{}{
		"Question":      question,
		"Context":       context,
		"Iteration":     iteration,
		"MaxIterations": maxIterations,
		"Tools":         tools,
	})
}

// FormulaDiscovery asks for the formula, key terms and synonym table.
func FormulaDiscovery(question string) string {
	return render(formulaDiscoveryTmpl, map[string]interface{}{
		"Question": question,
	})
}

// Attempt asks the model to substitute values into the formula using only the
// accumulated extracted text.
func Attempt(question, formula, extracted string) string {
	return render(attemptTmpl, map[string]interface{}{
		"Question":  question,
		"Formula":   formula,
		"Extracted": extracted,
	})
}

// Completeness asks whether the draft attempt used complete information.
func Completeness(question, formula, draft, extracted string) string {
	return render(completenessTmpl, map[string]interface{}{
		"Question":  question,
		"Formula":   formula,
		"Draft":     draft,
		"Extracted": extracted,
	})
}

// ExpandTerms asks for an expanded synonym table for the missing terms.
func ExpandTerms(terms []string) string {
	return render(expandTermsTmpl, map[string]interface{}{
		"Terms": strings.Join(terms, ", "),
	})
}
