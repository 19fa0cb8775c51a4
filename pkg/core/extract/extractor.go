package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// ScaleMode selects how billion/thousand units rescale a matched number.
type ScaleMode int

const (
	// ScaleModeWholeText rescales using unit words found anywhere in the input
	// blob, not next to the matched number. This mirrors the legacy extractor
	// and is a known precision hazard: a stray "billion" elsewhere in the blob
	// rescales every value. Kept as the default for behavioral compatibility.
	ScaleModeWholeText ScaleMode = iota
	// ScaleModePerMatch keys the unit off the token immediately following the
	// matched number ("$2.5 billion" scales, "$180 million ... billion-dollar
	// industry" does not). The sound alternative.
	ScaleModePerMatch
)

// GeneralLabel is the bucket for numbers found by the generic fallback when no
// labeled pattern matches.
const GeneralLabel = "general"

// labelPatterns maps a term label to its ordered regex alternatives, most
// specific phrasing first. The first alternative that matches wins for that
// label. All values are interpreted as millions unless a unit word rescales.
var labelPatterns = []struct {
	label    string
	patterns []*regexp.Regexp
}{
	{"revenue", compileAll(
		`total revenue[s]?\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
		`net sales\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
		`revenue[s]?\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
	)},
	{"cost of goods sold", compileAll(
		`merchandise costs\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
		`cost of goods sold\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
		`cogs\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
	)},
	{"operating income", compileAll(
		`operating income\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
		`ebit\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
	)},
	{"gross profit", compileAll(
		`gross profit\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
		`gross margin\s*(?:was|were|of|:)?\s*\$?\s*([0-9][0-9,]*\.?[0-9]*)`,
	)},
}

// genericPattern is the last-resort number matcher for unlabeled facts.
var genericPattern = regexp.MustCompile(`\$?\s*([0-9][0-9,]*\.?[0-9]*)`)

// unitAfter matches a unit word directly after a number match, for per-match
// scaling.
var unitAfter = regexp.MustCompile(`^\s*(billion|million|thousand|b|m|k)\b`)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Extractor pulls labeled numeric facts out of snippet text. Values are
// normalized to millions here and nowhere else: downstream consumers must not
// rescale.
type Extractor struct {
	Mode ScaleMode
}

func NewExtractor() *Extractor {
	return &Extractor{Mode: ScaleModeWholeText}
}

// Extract returns a label -> value (in millions) map for every recognized term
// label found in text. When no labeled pattern matches, a single entry under
// GeneralLabel is produced from the first number-like token, if any. Empty
// input yields an empty map. Numbers that fail to parse are skipped, never
// propagated as errors.
func (e *Extractor) Extract(text string) map[string]float64 {
	values := make(map[string]float64)
	if strings.TrimSpace(text) == "" {
		return values
	}
	lower := strings.ToLower(text)

	for _, entry := range labelPatterns {
		for _, re := range entry.patterns {
			loc := re.FindStringSubmatchIndex(lower)
			if loc == nil {
				continue
			}
			raw := lower[loc[2]:loc[3]]
			v, ok := parseAmount(raw)
			if !ok {
				continue
			}
			values[entry.label] = e.scale(v, lower, lower[loc[3]:])
			break
		}
	}

	if len(values) == 0 {
		loc := genericPattern.FindStringSubmatchIndex(lower)
		if loc != nil {
			if v, ok := parseAmount(lower[loc[2]:loc[3]]); ok {
				values[GeneralLabel] = e.scale(v, lower, lower[loc[3]:])
			}
		}
	}
	return values
}

// scale applies the unit-conversion rule once. wholeText is the full lowercased
// input; tail is the text immediately following the matched number.
func (e *Extractor) scale(v float64, wholeText, tail string) float64 {
	switch e.Mode {
	case ScaleModePerMatch:
		m := unitAfter.FindStringSubmatch(tail)
		if m == nil {
			return v
		}
		switch m[1] {
		case "billion", "b":
			return v * 1000
		case "thousand", "k":
			return v / 1000
		}
		return v
	default:
		if strings.Contains(wholeText, "billion") {
			return v * 1000
		}
		if strings.Contains(wholeText, "thousand") {
			return v / 1000
		}
		return v
	}
}

func parseAmount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
