package calc

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Formula is the closed set of calculations the evaluator knows how to run.
// Classification is by keyword presence in the formula text; the enum makes
// the precedence explicit instead of encoding it in a chain of string checks.
type Formula int

const (
	FormulaUnknown Formula = iota
	FormulaGrossProfit
	FormulaEbit
	FormulaEbitda
	FormulaOperatingMargin
	FormulaGrossMargin
)

func (f Formula) String() string {
	switch f {
	case FormulaGrossProfit:
		return "gross_profit"
	case FormulaEbit:
		return "ebit"
	case FormulaEbitda:
		return "ebitda"
	case FormulaOperatingMargin:
		return "operating_margin"
	case FormulaGrossMargin:
		return "gross_margin"
	default:
		return "unknown"
	}
}

// ErrUncomputable signals that a formula cannot be resolved to a number.
// Distinct from a computed zero: a caller must never render this as $0.
var ErrUncomputable = errors.New("formula not computable")

// Classify maps free-text formula wording to a Formula. Precedence, first
// match wins:
//  1. "revenue" AND ("cogs" OR "cost")  -> GrossProfit
//  2. "operating income" OR "ebit"      -> Ebit. "ebitda" wording lands here
//     too, since it contains "ebit"; the dedicated Ebitda branch below is
//     shadowed, matching the legacy keyword chain.
//  3. "ebitda"                          -> Ebitda
//  4. "operating margin"/"gross margin" -> margin shapes
func Classify(formulaText string) Formula {
	f := strings.ToLower(formulaText)

	if strings.Contains(f, "revenue") && (strings.Contains(f, "cogs") || strings.Contains(f, "cost")) {
		return FormulaGrossProfit
	}
	if strings.Contains(f, "operating income") || strings.Contains(f, "ebit") {
		return FormulaEbit
	}
	if strings.Contains(f, "ebitda") {
		return FormulaEbitda
	}
	if strings.Contains(f, "margin") {
		if strings.Contains(f, "operating margin") {
			return FormulaOperatingMargin
		}
		if strings.Contains(f, "gross margin") {
			return FormulaGrossMargin
		}
	}
	return FormulaUnknown
}

// requiredFacts lists the labels each formula reads from the fact map.
var requiredFacts = map[Formula][]string{
	FormulaGrossProfit:     {"revenue", "cost of goods sold", "cogs"},
	FormulaEbit:            {"operating income"},
	FormulaEbitda:          {"operating income", "depreciation"},
	FormulaOperatingMargin: {"operating income", "revenue"},
	FormulaGrossMargin:     {"gross profit", "revenue"},
}

// Evaluate computes the classified formula from the fact map. Facts are
// label -> value in millions (unit conversion happened at extraction).
//
// Missing facts default to zero, except margin denominators which default to 1
// to avoid division by zero; both defaults are legacy policy and can produce
// silently wrong answers, which is why the chosen Formula is returned for the
// caller to log. Two cases are uncomputable rather than zero: an Unknown
// formula shape, and a known shape for which no required fact is present at
// all.
func Evaluate(formulaText string, facts map[string]float64) (float64, Formula, error) {
	formula := Classify(formulaText)
	if formula == FormulaUnknown {
		return 0, FormulaUnknown, ErrUncomputable
	}
	if !anyFactPresent(facts, requiredFacts[formula]) {
		return 0, formula, ErrUncomputable
	}

	switch formula {
	case FormulaGrossProfit:
		revenue := facts["revenue"]
		cogs, ok := facts["cost of goods sold"]
		if !ok {
			cogs = facts["cogs"]
		}
		return revenue - cogs, formula, nil

	case FormulaEbit:
		return facts["operating income"], formula, nil

	case FormulaEbitda:
		return facts["operating income"] + facts["depreciation"], formula, nil

	case FormulaOperatingMargin:
		revenue := facts["revenue"]
		if revenue == 0 {
			revenue = 1
		}
		return (facts["operating income"] / revenue) * 100, formula, nil

	default: // FormulaGrossMargin
		revenue := facts["revenue"]
		if revenue == 0 {
			revenue = 1
		}
		return (facts["gross profit"] / revenue) * 100, formula, nil
	}
}

func anyFactPresent(facts map[string]float64, labels []string) bool {
	for _, l := range labels {
		if _, ok := facts[l]; ok {
			return true
		}
	}
	return false
}

// IsPercent reports whether the formula's natural unit is a percentage.
func (f Formula) IsPercent() bool {
	return f == FormulaOperatingMargin || f == FormulaGrossMargin
}

// FormatResult renders a value for the final answer. unit is "millions",
// "billions" or "percent"; anything else falls back to a plain dollar figure.
func FormatResult(result float64, unit string) string {
	switch unit {
	case "millions":
		return fmt.Sprintf("$%s million", groupThousands(result))
	case "billions":
		return fmt.Sprintf("$%.1f billion", result)
	case "percent":
		return fmt.Sprintf("%.2f%%", result)
	default:
		return fmt.Sprintf("$%.2f", result)
	}
}

// groupThousands renders a rounded value with comma separators ($32,095).
func groupThousands(v float64) string {
	s := fmt.Sprintf("%.0f", math.Abs(v))
	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
