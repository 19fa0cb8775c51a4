package protocol

// DecisionKind tags a tool-loop decision parsed from a model reply.
type DecisionKind int

const (
	DecisionUnknown DecisionKind = iota
	DecisionUseTool
	DecisionSynthesize
	DecisionNeedMore
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionUseTool:
		return "USE_TOOL"
	case DecisionSynthesize:
		return "SYNTHESIZE"
	case DecisionNeedMore:
		return "NEED_MORE"
	default:
		return "UNKNOWN"
	}
}

// ToolDecision is the parsed form of a tool-loop reply. Exactly one of the
// payload fields is meaningful depending on Kind:
//   - DecisionUseTool:    ToolName + ToolInput
//   - DecisionSynthesize: Answer
//   - DecisionNeedMore:   no payload
//   - DecisionUnknown:    Raw carries the unparsed reply
type ToolDecision struct {
	Kind      DecisionKind
	ToolName  string
	ToolInput string
	Answer    string
	Raw       string
}

// AttemptKind tags a formula-attempt decision.
type AttemptKind int

const (
	// AttemptUnmatched means no recognized marker was present; Raw carries the
	// full reply and the caller decides what to do with it.
	AttemptUnmatched AttemptKind = iota
	AttemptCalculationReady
	AttemptMissingInfo
	AttemptInsufficientInfo
)

func (k AttemptKind) String() string {
	switch k {
	case AttemptCalculationReady:
		return "CALCULATION_READY"
	case AttemptMissingInfo:
		return "MISSING_INFO"
	case AttemptInsufficientInfo:
		return "INSUFFICIENT_INFO"
	default:
		return "UNMATCHED"
	}
}

// AttemptDecision is the parsed form of a draft/final attempt reply.
type AttemptDecision struct {
	Kind AttemptKind
	// SubstitutedFormula is the first line after CALCULATION_READY:, e.g.
	// "Gross Profit = 254453 - 222358 = 32095".
	SubstitutedFormula string
	// Explanation is the first line after RESULT_EXPLANATION:, when present.
	Explanation string
	// MissingTerms is populated for AttemptMissingInfo.
	MissingTerms []string
	Raw          string
}

// CompletenessVerdict is the outcome of the completeness check.
type CompletenessVerdict struct {
	Complete     bool
	MissingTerms []string
	Raw          string
}
