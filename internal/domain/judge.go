package domain

import (
	"fmt"
	"math"
)

// WeightTolerance is the permitted deviation when checking that panel
// weights sum to 1.0. Weights come from configuration files, so exact
// float equality would be too strict.
const WeightTolerance = 1e-9

// JudgeID is an explicit tag identifying a judge persona. Prompt
// templates are resolved by this tag at configuration time; there is no
// lookup by display name and no silent fallback for unknown tags.
type JudgeID string

// The built-in judge roster. Each judge scores one dimension of an
// analytical proposal.
const (
	// JudgeMethodologist scores question formulation and methodological
	// rigor.
	JudgeMethodologist JudgeID = "methodologist"

	// JudgeAnalyst scores analytic coherence and variable selection.
	JudgeAnalyst JudgeID = "analyst"

	// JudgeInnovator scores originality and the potential for findings.
	JudgeInnovator JudgeID = "innovator"

	// JudgeStoryteller scores communication impact and public relevance.
	JudgeStoryteller JudgeID = "storyteller"
)

// Judge describes one member of the evaluator panel.
type Judge struct {
	// ID tags the judge for prompt-template resolution.
	ID JudgeID `json:"id" yaml:"id" validate:"required"`

	// Name is the display name shown alongside feedback.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Glyph is the display glyph (an emoji) shown next to the name.
	Glyph string `json:"glyph" yaml:"glyph"`

	// Specialty is free text describing what the judge evaluates.
	Specialty string `json:"specialty" yaml:"specialty" validate:"required"`

	// Weight is this judge's share of the weighted composite, in [0,1].
	// Weights across a panel sum to 1.0.
	Weight float64 `json:"weight" yaml:"weight" validate:"min=0,max=1"`
}

// JudgeFeedback is the immutable outcome of evaluating one judge
// against one proposal.
type JudgeFeedback struct {
	// Judge is the display name of the judge that produced this entry.
	Judge string `json:"judge"`

	// Glyph mirrors the judge's display glyph.
	Glyph string `json:"glyph"`

	// Score is the judge's score, clamped to [1,10].
	Score float64 `json:"score"`

	// Feedback is the judge's free-text commentary.
	Feedback string `json:"feedback"`

	// SuggestedVariables lists reference-variable codes the judge
	// recommends exploring. Empty when the judge suggested none.
	SuggestedVariables []string `json:"suggestedVariables,omitempty"`
}

// ValidateRoster checks the panel-level invariants: at least one judge
// and weights summing to 1.0 within WeightTolerance. It is called when
// a panel is configured, never per evaluation.
func ValidateRoster(judges []Judge) error {
	if len(judges) == 0 {
		return fmt.Errorf("%w: panel has no judges", ErrInvalidPanel)
	}

	var sum float64
	for i, j := range judges {
		if j.Weight < 0 || j.Weight > 1 {
			return fmt.Errorf("%w: judge %q (index %d) weight %.4f outside [0,1]",
				ErrInvalidPanel, j.ID, i, j.Weight)
		}
		sum += j.Weight
	}

	if math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: weights sum to %.6f, want 1.0", ErrInvalidPanel, sum)
	}
	return nil
}
