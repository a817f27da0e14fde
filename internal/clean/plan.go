package clean

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dataplor/dataplor-cli/internal/model"
)

// Plan is a YAML cleaning plan: an ordered list of steps.
type Plan struct {
	Steps []model.CleaningStep `yaml:"steps"`
}

// LoadPlan reads a cleaning plan from a YAML file. Both a bare step list
// and a document with a top-level "steps" key are accepted.
func LoadPlan(path string) ([]model.CleaningStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "clean: read plan %s", path)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err == nil && len(plan.Steps) > 0 {
		return plan.Steps, nil
	}

	var steps []model.CleaningStep
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, eris.Wrapf(err, "clean: parse plan %s", path)
	}
	if len(steps) == 0 {
		return nil, eris.Errorf("clean: plan %s contains no steps", path)
	}
	return steps, nil
}
