package retrieve

import (
	"sort"
	"strings"
)

// Snippet is a bounded, sentence-aligned slice of the source context around the
// first occurrence of a matched term.
type Snippet struct {
	Term    string // the label the snippet was found for
	Matched string // the synonym that actually hit
	Text    string
	Start   int // byte offset of the snippet in the original context
	End     int
}

// Term is a search label plus the ordered synonyms tried for it.
// The order matters: the first synonym that occurs in the context wins.
type Term struct {
	Label    string
	Synonyms []string
}

// SearchConfig controls the window size around a hit and how far the window
// bounds may be pulled toward a sentence delimiter.
type SearchConfig struct {
	WindowRadius int // chars kept on each side of the hit
	SnapRadius   int // max distance to walk looking for '.', '!' or '?'
}

// WideSearch is the config for the initial full-context pass.
func WideSearch() SearchConfig {
	return SearchConfig{WindowRadius: 300, SnapRadius: 100}
}

// FocusedSearch is the tighter config used for expanded-term passes.
func FocusedSearch() SearchConfig {
	return SearchConfig{WindowRadius: 200, SnapRadius: 100}
}

// Matcher locates terms in a context string. It holds no state between calls;
// Find is a pure function of its inputs and safe to call repeatedly.
type Matcher struct {
	Config SearchConfig
}

func NewMatcher(cfg SearchConfig) *Matcher {
	return &Matcher{Config: cfg}
}

// Find scans the context case-insensitively for each term's synonyms in order
// and returns one snippet per term that matched. Terms with no matching
// synonym simply have no entry in the result. Only the first occurrence of the
// first matching synonym is used; later occurrences are not ranked.
func (m *Matcher) Find(context string, terms []Term) map[string]Snippet {
	found := make(map[string]Snippet)
	if context == "" {
		return found
	}
	lower := strings.ToLower(context)

	for _, term := range terms {
		for _, syn := range term.Synonyms {
			if syn == "" {
				continue
			}
			pos := strings.Index(lower, strings.ToLower(syn))
			if pos < 0 {
				continue
			}
			start, end := m.window(context, pos, len(syn))
			found[term.Label] = Snippet{
				Term:    term.Label,
				Matched: syn,
				Text:    strings.TrimSpace(context[start:end]),
				Start:   start,
				End:     end,
			}
			break
		}
	}
	return found
}

// window computes the raw [pos-radius, pos+len+radius] span clamped to the
// context, then widens each bound to a sentence boundary within SnapRadius:
// the start pulls back to just after the preceding delimiter, the end runs
// forward to include the delimiter that closes the current sentence. A figure
// straddling the raw end is completed, never cut mid-number. This is a
// heuristic: it does not understand abbreviations or decimal points.
func (m *Matcher) window(context string, pos, matchLen int) (int, int) {
	start := pos - m.Config.WindowRadius
	if start < 0 {
		start = 0
	}
	end := pos + matchLen + m.Config.WindowRadius
	if end > len(context) {
		end = len(context)
	}
	return snapToSentenceStart(context, start, m.Config.SnapRadius),
		snapToSentenceEnd(context, end, m.Config.SnapRadius)
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// snapToSentenceStart walks backward from pos looking for the delimiter that
// closes the preceding sentence and returns the position just after it. Falls
// back to pos when none is found within radius.
func snapToSentenceStart(text string, pos, radius int) int {
	floor := pos - radius
	if floor < 0 {
		floor = 0
	}
	for i := pos - 1; i >= floor; i-- {
		if isSentenceEnd(text[i]) {
			return i + 1
		}
	}
	return pos
}

// snapToSentenceEnd walks forward from pos to the delimiter that closes the
// current sentence and includes it. Falls back to pos.
func snapToSentenceEnd(text string, pos, radius int) int {
	ceil := pos + radius
	if ceil > len(text) {
		ceil = len(text)
	}
	for i := pos; i < ceil; i++ {
		if isSentenceEnd(text[i]) {
			return i + 1
		}
	}
	return pos
}

// ExpandCandidates decomposes every synonym into unigrams, bigrams and
// trigrams and returns the full candidate list deduplicated case-insensitively
// with first-seen order preserved. Longer phrases come out first per synonym so
// a whole-phrase hit beats its own fragments downstream.
func ExpandCandidates(synonyms []string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if !seen[key] {
			seen[key] = true
			out = append(out, s)
		}
	}

	for _, syn := range synonyms {
		add(syn)
		words := strings.Fields(syn)
		for n := 3; n >= 1; n-- {
			for i := 0; i+n <= len(words); i++ {
				add(strings.Join(words[i:i+n], " "))
			}
		}
	}
	return out
}

// SortedLabels returns the labels of a find result in deterministic order,
// for stable log and blob output.
func SortedLabels(found map[string]Snippet) []string {
	labels := make([]string, 0, len(found))
	for l := range found {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
