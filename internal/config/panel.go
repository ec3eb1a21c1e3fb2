package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/verdictlab/crisisquiz/internal/domain"
)

// DefaultJudges is the built-in evaluator roster. Order matters: it
// fixes both the evaluation sequence and the positional weight
// alignment used by score aggregation.
func DefaultJudges() []domain.Judge {
	return []domain.Judge{
		{
			ID:        domain.JudgeMethodologist,
			Name:      "The Methodologist",
			Glyph:     "\U0001F4CA",
			Specialty: "methodological rigor and research question formulation",
			Weight:    0.20,
		},
		{
			ID:        domain.JudgeAnalyst,
			Name:      "The Analyst",
			Glyph:     "\U0001F50D",
			Specialty: "analytic coherence and survey variable selection",
			Weight:    0.35,
		},
		{
			ID:        domain.JudgeInnovator,
			Name:      "The Innovator",
			Glyph:     "\U0001F4A1",
			Specialty: "originality and the potential for non-obvious findings",
			Weight:    0.25,
		},
		{
			ID:        domain.JudgeStoryteller,
			Name:      "The Storyteller",
			Glyph:     "\U0001F4E2",
			Specialty: "communication impact and public relevance",
			Weight:    0.20,
		},
	}
}

// panelFile is the YAML shape of a judge roster file.
type panelFile struct {
	Judges []domain.Judge `yaml:"judges" validate:"required,min=1,dive"`
}

// LoadJudges returns the judge roster. An empty path selects the
// built-in roster; otherwise the YAML file at path fully replaces it.
// The roster is validated either way.
func LoadJudges(path string) ([]domain.Judge, error) {
	if path == "" {
		judges := DefaultJudges()
		if err := domain.ValidateRoster(judges); err != nil {
			return nil, err
		}
		return judges, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading panel file %s: %w", path, err)
	}

	var file panelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing panel file %s: %w", path, err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("validating panel file %s: %w", path, err)
	}
	if err := domain.ValidateRoster(file.Judges); err != nil {
		return nil, fmt.Errorf("panel file %s: %w", path, err)
	}
	return file.Judges, nil
}
