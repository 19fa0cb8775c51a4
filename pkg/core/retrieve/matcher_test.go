package retrieve

import (
	"strings"
	"testing"
)

func TestFindFirstOccurrence(t *testing.T) {
	// "revenue" occurs at offset 24 (case-insensitive); the snippet must
	// contain the match and be bounded by the surrounding sentences.
	context := "Fiscal 2023 was strong. Revenue was $254,453 million for the year. Costs also rose."
	m := NewMatcher(WideSearch())

	found := m.Find(context, []Term{{Label: "revenue", Synonyms: []string{"revenue"}}})

	s, ok := found["revenue"]
	if !ok {
		t.Fatal("expected a snippet for 'revenue'")
	}
	if !strings.Contains(strings.ToLower(s.Text), "revenue was $254,453") {
		t.Errorf("snippet missing the match: %q", s.Text)
	}
	if s.Matched != "revenue" {
		t.Errorf("expected matched synonym 'revenue', got %q", s.Matched)
	}
}

func TestFindAbsentTermHasNoEntry(t *testing.T) {
	m := NewMatcher(WideSearch())
	found := m.Find("Revenue was $100 million.", []Term{
		{Label: "pre-tax income", Synonyms: []string{"pre-tax income", "income before taxes"}},
	})
	if _, ok := found["pre-tax income"]; ok {
		t.Error("expected no entry for a term that does not occur")
	}
}

func TestFindFirstSynonymWins(t *testing.T) {
	// Both synonyms occur; "net sales" is listed first so it must win even
	// though "revenue" appears earlier in the text.
	context := "Total revenue grew. Net sales were $10 million."
	m := NewMatcher(WideSearch())

	found := m.Find(context, []Term{
		{Label: "revenue", Synonyms: []string{"net sales", "revenue"}},
	})
	if found["revenue"].Matched != "net sales" {
		t.Errorf("expected first-listed synonym to win, got %q", found["revenue"].Matched)
	}
}

func TestWindowEndCompletesStraddledFigure(t *testing.T) {
	// A tiny window whose raw end lands inside "$254,453": the end must run
	// forward to the sentence's close so the figure is never cut mid-number.
	// The raw start has no sentence delimiter behind it within the snap
	// radius, so it stays where it is.
	context := "Revenue summary follows. Revenue was $254,453 million in fiscal 2023 for the company."
	m := NewMatcher(SearchConfig{WindowRadius: 5, SnapRadius: 100})

	found := m.Find(context, []Term{{Label: "revenue", Synonyms: []string{"revenue was"}}})
	text := found["revenue"].Text
	if !strings.Contains(text, "$254,453 million") {
		t.Errorf("figure truncated instead of completed: %q", text)
	}
	if !strings.HasSuffix(text, "for the company.") {
		t.Errorf("expected snippet to run to the sentence close, got %q", text)
	}
	if !strings.HasPrefix(text, "ows.") {
		t.Errorf("expected raw start kept with no preceding delimiter in range, got %q", text)
	}
}

func TestWindowStartSnapsBackToPrecedingSentence(t *testing.T) {
	// The raw start lands mid-word inside the second sentence; it must pull
	// back to just after the preceding delimiter, widening the window.
	context := "Intro. Revenue summary follows. Revenue was $10 million."
	m := NewMatcher(SearchConfig{WindowRadius: 15, SnapRadius: 100})

	found := m.Find(context, []Term{{Label: "revenue", Synonyms: []string{"revenue was"}}})
	text := found["revenue"].Text
	if !strings.HasPrefix(text, "Revenue summary follows.") {
		t.Errorf("expected start snapped back to sentence boundary, got %q", text)
	}
	if !strings.HasSuffix(text, "million.") {
		t.Errorf("expected full closing sentence, got %q", text)
	}
}

func TestFindIsPure(t *testing.T) {
	context := "Revenue was $5 million."
	terms := []Term{{Label: "revenue", Synonyms: []string{"revenue"}}}
	m := NewMatcher(WideSearch())

	first := m.Find(context, terms)
	second := m.Find(context, terms)
	if first["revenue"] != second["revenue"] {
		t.Error("Find must return identical results for identical inputs")
	}
}

func TestExpandCandidates(t *testing.T) {
	got := ExpandCandidates([]string{"income before taxes"})

	// Whole phrase first (it is also the only trigram), then bigrams, then
	// unigrams, deduplicated.
	want := []string{
		"income before taxes",
		"income before", "before taxes",
		"income", "before", "taxes",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestExpandCandidatesDedupeIsCaseInsensitive(t *testing.T) {
	got := ExpandCandidates([]string{"Net Sales", "net sales"})
	for i, a := range got {
		for j, b := range got {
			if i != j && strings.EqualFold(a, b) {
				t.Fatalf("duplicate candidates %q and %q", a, b)
			}
		}
	}
	// First-seen casing is preserved.
	if got[0] != "Net Sales" {
		t.Errorf("expected first-seen casing preserved, got %q", got[0])
	}
}
