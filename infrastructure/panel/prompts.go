// Package panel implements the evaluator panel: a fixed, ordered set
// of LLM-backed judges that score analytical proposals against a
// scenario. Judge order is a strict positional contract: it determines
// the weight alignment used by score aggregation.
package panel

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/verdictlab/crisisquiz/internal/domain"
)

// noVariablesMarker is rendered when a player selected no reference
// variables. The prompt always states the selection explicitly rather
// than omitting it.
const noVariablesMarker = "none selected"

// systemPrompt is the instruction shared by every judge, parameterized
// by the judge's specialty. It fixes the scoring scale and the strict
// JSON response contract.
const systemPrompt = `You are an expert judge in the educational game "Analyst in Crisis Mode". Your specialty is: %s.

Players analyze public-opinion survey data. Each proposal names a research question, the survey variables to use (by code), how to cross-tabulate them, and how to present the findings.

EVALUATION INSTRUCTIONS:
1. Assign a score from 1 to 10 (decimals such as 8.5 are accepted)
2. Give specific, educational feedback (2-4 sentences)
3. If the proposal misuses variables (wrong codes, wrong years), say so
4. Suggest alternative or complementary variable codes when relevant
5. Keep a constructive, pedagogical tone

RESPONSE FORMAT (strict JSON):
{
  "score": <number between 1 and 10>,
  "feedback": "<your evaluation in 2-4 sentences>",
  "suggestedVariables": ["<variable_code_1>", "<variable_code_2>"]
}

IMPORTANT: Respond ONLY with the JSON object, no additional text.`

// promptData is the input to a judge's user-prompt template.
type promptData struct {
	Scenario  domain.Scenario
	Proposal  string
	Variables string
	Ideal     *domain.IdealResponse
}

// Per-judge evaluation prompt templates, keyed by judge identity.
// Resolution happens once at panel construction; an unknown judge id
// is a configuration error, never a silent fallback.
var judgePromptTemplates = map[domain.JudgeID]string{
	domain.JudgeMethodologist: `Evaluate the METHODOLOGICAL RIGOR and QUESTION FORMULATION:

SCENARIO: {{.Scenario.Text}}

ANALYSIS PROPOSAL:
"{{.Proposal}}"

VARIABLES CITED: {{.Variables}}

Evaluate with a critical eye:
- Is the research question precise and answerable with survey data?
- Does the proposal cite specific variable codes that exist?
- Are dependent and independent variables defined rigorously?
- Is the cross-tabulation strategy methodologically sound?
- Are selection biases or confounders considered?
{{if .Ideal}}
REFERENCE CONTEXT (background only, not a required answer):
- Expected variables: {{join .Ideal.ExpectedVariables ", "}}
- Common errors to penalize: {{join .Ideal.CommonErrors "; "}}
{{end}}
REWARD correct use of technical nomenclature. PENALIZE proposals that cite no specific variable codes.`,

	domain.JudgeAnalyst: `Evaluate the ANALYTIC COHERENCE and VARIABLE SELECTION:

SCENARIO: {{.Scenario.Text}}

ANALYSIS PROPOSAL:
"{{.Proposal}}"

VARIABLES CITED: {{.Variables}}

Evaluate as a senior analyst:
- Do the chosen variables actually answer the research question?
- Do the proposed cross-tabulations make analytic sense?
- Is the chain from question to variables to conclusion coherent?
- Are obvious and better-suited variables overlooked?
- Does the analysis match the urgency of the scenario?
{{if .Ideal}}
REFERENCE CONTEXT (background only, not a required answer):
- Expected cross-tabulations: {{join .Ideal.ExpectedCrossTabs "; "}}
{{end}}
REWARD tight question-to-variable alignment. PENALIZE variable lists chosen for breadth rather than relevance.`,

	domain.JudgeInnovator: `Evaluate the ORIGINALITY and POTENTIAL FOR FINDINGS:

SCENARIO: {{.Scenario.Text}}

ANALYSIS PROPOSAL:
"{{.Proposal}}"

VARIABLES CITED: {{.Variables}}

Evaluate the insight potential:
- Does the proposal go beyond the obvious first-order reading?
- Could the proposed analysis surface a non-trivial finding?
- Are interesting contrasts or subpopulations identified?
- Is there a hypothesis that could be genuinely surprising?
{{if .Ideal}}
REFERENCE CONTEXT (background only, not a required answer):
- Key insights an expert would reach: {{join .Ideal.KeyInsights "; "}}
{{end}}
REWARD proposals with a sharp, testable hypothesis. PENALIZE purely descriptive restatements of the scenario.`,

	domain.JudgeStoryteller: `Evaluate the COMMUNICATION IMPACT and PUBLIC RELEVANCE:

SCENARIO: {{.Scenario.Text}}

ANALYSIS PROPOSAL:
"{{.Proposal}}"

VARIABLES CITED: {{.Variables}}

Evaluate as a communicator:
- Does the proposal have a clear angle, a potential headline?
- Is it understandable for non-technical audiences?
- Does it identify tensions or contrasts that tell a story?
- Is a concrete presentation format (chart type, comparison) named?
- Does it avoid unnecessary jargon?
{{if .Ideal}}
REFERENCE CONTEXT (background only, not a required answer):
- Suggested chart types: {{join .Ideal.SuggestedCharts ", "}}
{{end}}
REWARD proposals that would land with the public. PENALIZE technical language with no narrative hook.`,
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// resolveTemplates compiles the evaluation prompt for every judge in
// the roster. Overrides replace the built-in template for a judge id;
// a judge with neither a built-in nor an override template is a
// configuration error.
func resolveTemplates(judges []domain.Judge, overrides map[domain.JudgeID]string) (map[domain.JudgeID]*template.Template, error) {
	templates := make(map[domain.JudgeID]*template.Template, len(judges))
	for _, judge := range judges {
		text, ok := overrides[judge.ID]
		if !ok {
			text, ok = judgePromptTemplates[judge.ID]
		}
		if !ok {
			return nil, fmt.Errorf("%w: no prompt template for judge %q",
				domain.ErrInvalidPanel, judge.ID)
		}

		tmpl, err := template.New(string(judge.ID)).Funcs(templateFuncs).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing prompt template for judge %q: %w", judge.ID, err)
		}
		templates[judge.ID] = tmpl
	}
	return templates, nil
}

// buildSystemPrompt returns the shared system instruction for a judge.
func buildSystemPrompt(judge domain.Judge) string {
	return fmt.Sprintf(systemPrompt, judge.Specialty)
}

// formatVariables renders the selected variable codes for a prompt. An
// empty selection renders as an explicit marker, never as an omission.
func formatVariables(codes []string) string {
	if len(codes) == 0 {
		return noVariablesMarker
	}
	return strings.Join(codes, ", ")
}
