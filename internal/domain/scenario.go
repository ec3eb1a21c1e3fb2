package domain

// IdealResponse is optional pre-authored context attached to a
// scenario. Judges receive it as background for their evaluation; it is
// never treated as a ground truth that proposals must match.
type IdealResponse struct {
	ResearchQuestion  string   `json:"researchQuestion" yaml:"research_question"`
	ExpectedVariables []string `json:"expectedVariables" yaml:"expected_variables"`
	ExpectedCrossTabs []string `json:"expectedCrossTabs" yaml:"expected_cross_tabs"`
	SuggestedCharts   []string `json:"suggestedCharts" yaml:"suggested_charts"`
	KeyInsights       []string `json:"keyInsights" yaml:"key_insights"`
	CommonErrors      []string `json:"commonErrors" yaml:"common_errors"`
}

// Scenario is an immutable, pre-authored prompt that one round of the
// game is played against.
type Scenario struct {
	ID       int    `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Category string `json:"category" yaml:"category"`
	Text     string `json:"text" yaml:"text"`

	// Ideal is optional judge context; nil for scenarios without an
	// authored reference response.
	Ideal *IdealResponse `json:"ideal,omitempty" yaml:"ideal,omitempty"`
}
