package calc

import (
	"errors"
	"testing"
)

func TestEvaluateGrossProfit(t *testing.T) {
	// 254453 - 222358 = 32095, and the same inputs must give the same answer
	// every time.
	facts := map[string]float64{
		"revenue":            254453,
		"cost of goods sold": 222358,
	}
	for i := 0; i < 3; i++ {
		got, formula, err := Evaluate("Gross Profit = Revenue - COGS", facts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if formula != FormulaGrossProfit {
			t.Fatalf("expected gross_profit, got %s", formula)
		}
		if got != 32095 {
			t.Errorf("run %d: expected 32095, got %v", i, got)
		}
	}
}

func TestEvaluateGrossProfitCogsAlias(t *testing.T) {
	facts := map[string]float64{"revenue": 100, "cogs": 60}
	got, _, err := Evaluate("Gross Profit = Revenue - COGS", facts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 40 {
		t.Errorf("expected 40, got %v", got)
	}
}

func TestEvaluateUnknownFormulaIsUncomputable(t *testing.T) {
	_, formula, err := Evaluate("Pre-tax Income = Net Income + Taxes", map[string]float64{"net income": 10})
	if !errors.Is(err, ErrUncomputable) {
		t.Fatalf("expected ErrUncomputable, got %v", err)
	}
	if formula != FormulaUnknown {
		t.Errorf("expected unknown formula, got %s", formula)
	}
}

func TestEvaluateNoFactsIsUncomputableNotZero(t *testing.T) {
	// A known shape with none of its inputs present must refuse to answer
	// rather than report a confident $0.
	_, _, err := Evaluate("Gross Profit = Revenue - COGS", map[string]float64{})
	if !errors.Is(err, ErrUncomputable) {
		t.Fatalf("expected ErrUncomputable, got %v", err)
	}
}

func TestEvaluatePartialFactsDefaultZero(t *testing.T) {
	// Revenue present, COGS missing: COGS defaults to 0 and the result is
	// revenue itself. Legacy policy, surfaced by the returned Formula.
	got, _, err := Evaluate("Gross Profit = Revenue - COGS", map[string]float64{"revenue": 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 500 {
		t.Errorf("expected 500, got %v", got)
	}
}

func TestEvaluateEbitdaWordingClassifiesAsEbit(t *testing.T) {
	// The "ebit" keyword shadows "ebitda" in the legacy chain, so EBITDA
	// wording resolves to the operating-income fact alone; depreciation is
	// not added.
	facts := map[string]float64{"operating income": 120, "depreciation": 30}
	got, formula, err := Evaluate("EBITDA = EBIT + D&A", facts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if formula != FormulaEbit {
		t.Fatalf("expected ebit, got %s", formula)
	}
	if got != 120 {
		t.Errorf("expected 120, got %v", got)
	}
}

func TestEvaluateOperatingMargin(t *testing.T) {
	// 20 / 200 * 100 = 10%.
	got, formula, err := Evaluate("Operating Margin (%)", map[string]float64{
		"operating income": 20,
		"revenue":          200,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if formula != FormulaOperatingMargin {
		t.Fatalf("expected operating_margin, got %s", formula)
	}
	if got != 10 {
		t.Errorf("expected 10, got %v", got)
	}
	if !formula.IsPercent() {
		t.Error("operating margin should report a percent shape")
	}
}

func TestClassifyPrecedence(t *testing.T) {
	cases := []struct {
		text string
		want Formula
	}{
		// revenue + cost wins over everything.
		{"Gross Profit = Revenue - Cost of Goods Sold", FormulaGrossProfit},
		// "ebitda" contains "ebit", so the ebit rule shadows the ebitda one.
		{"EBITDA for fiscal 2023", FormulaEbit},
		{"EBIT for fiscal 2023", FormulaEbit},
		{"Operating Income", FormulaEbit},
		{"Operating Margin (%)", FormulaOperatingMargin},
		{"Gross Margin (%)", FormulaGrossMargin},
		{"Price to Earnings Ratio", FormulaUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.text); got != c.want {
			t.Errorf("Classify(%q): expected %s, got %s", c.text, c.want, got)
		}
	}
}

func TestFormatResult(t *testing.T) {
	cases := []struct {
		value float64
		unit  string
		want  string
	}{
		{32095, "millions", "$32,095 million"},
		// Values over a thousand million stay in millions; no unit promotion.
		{1234567, "millions", "$1,234,567 million"},
		{-32095, "millions", "$-32,095 million"},
		{2.5, "billions", "$2.5 billion"},
		{12.345, "percent", "12.35%"},
		{99.5, "other", "$99.50"},
	}
	for _, c := range cases {
		if got := FormatResult(c.value, c.unit); got != c.want {
			t.Errorf("FormatResult(%v, %q): expected %q, got %q", c.value, c.unit, c.want, got)
		}
	}
}
