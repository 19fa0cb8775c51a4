package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ExtractBracketedJSON locates marker in the reply, then slices the first
// balanced {...} span after it by counting brace depth, ignoring any trailing
// prose. The span is decoded as label -> ordered synonym list. Used for both
// "SYNONYMS:" and "EXPANDED_TERMS:" sections.
func ExtractBracketedJSON(response, marker string) (map[string][]string, error) {
	idx := strings.Index(response, marker)
	if idx < 0 {
		return nil, fmt.Errorf("marker %q not found in response", marker)
	}
	span, err := balancedBraceSpan(response[idx+len(marker):])
	if err != nil {
		return nil, err
	}
	return decodeSynonymMap(span)
}

// balancedBraceSpan returns the substring from the first '{' to the matching
// closing brace. String literals are respected so braces inside quoted values
// do not skew the depth count.
func balancedBraceSpan(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no opening brace after marker")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("no matching closing brace")
}

// decodeSynonymMap parses the brace span through a ladder of decreasing
// strictness: standard JSON, then json-repair, then Hjson. Model output is
// routinely almost-JSON (single quotes, trailing commas, comments); the
// ladder recovers most of it without giving malformed input a silent pass.
func decodeSynonymMap(span string) (map[string][]string, error) {
	var out map[string][]string
	if err := json.Unmarshal([]byte(span), &out); err == nil {
		return out, nil
	}

	if repaired, err := jsonrepair.RepairJSON(span); err == nil {
		if err := json.Unmarshal([]byte(repaired), &out); err == nil {
			return out, nil
		}
	}

	var loose map[string]interface{}
	if err := hjson.Unmarshal([]byte(span), &loose); err == nil {
		out = make(map[string][]string, len(loose))
		for k, v := range loose {
			items, ok := v.([]interface{})
			if !ok {
				continue
			}
			for _, item := range items {
				if s, ok := item.(string); ok {
					out[k] = append(out[k], s)
				}
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	return nil, fmt.Errorf("JSON_DECODE_FAILED: all parsing strategies failed for synonym map")
}

// FallbackSynonyms is the built-in synonym table used when the model's
// SYNONYMS blob cannot be decoded. Keyed by substring heuristics over the term
// label, mirroring the hand-maintained table in the legacy extractor.
func FallbackSynonyms(term string) []string {
	t := strings.ToLower(term)
	switch {
	case strings.Contains(t, "revenue"):
		return []string{"total revenue", "net sales", "revenue", "sales"}
	case strings.Contains(t, "cost") && strings.Contains(t, "goods"):
		return []string{"cost of goods sold", "merchandise costs", "cogs"}
	case strings.Contains(t, "gross") && strings.Contains(t, "profit"):
		return []string{"gross profit", "gross margin"}
	case strings.Contains(t, "operating") && strings.Contains(t, "income"):
		return []string{"operating income", "ebit", "income from operations"}
	case strings.Contains(t, "net") && strings.Contains(t, "income"):
		return []string{"net income", "net earnings", "profit"}
	case strings.Contains(t, "ebitda"):
		return []string{"ebitda"}
	case strings.Contains(t, "depreciation"):
		return []string{"depreciation and amortization", "depreciation"}
	default:
		return []string{term}
	}
}
