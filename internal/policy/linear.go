package policy

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/flappy-lab/internal/env"
	"github.com/vovakirdan/flappy-lab/internal/logreg"
	"github.com/vovakirdan/flappy-lab/internal/registry"
)

// ModelID selects a trained linear policy in Resolve.
const ModelID = "model"

// Linear acts with a trained logistic-regression model.
type Linear struct {
	model *logreg.Model
	name  string
}

// NewLinear wraps a validated model. name is shown in titles and storage.
func NewLinear(m *logreg.Model, name string) (*Linear, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if name == "" {
		name = ModelID
	}
	return &Linear{model: m, name: name}, nil
}

// ID returns the configured name.
func (p *Linear) ID() string { return p.name }

// Title returns the display name including the polynomial degree.
func (p *Linear) Title() string {
	return fmt.Sprintf("Linear policy (degree %d)", p.model.Degree)
}

// Act thresholds the model probability at 0.5.
func (p *Linear) Act(obs env.Observation) env.Action {
	return p.model.Predict(obs)
}

// Model returns the wrapped model.
func (p *Linear) Model() *logreg.Model {
	return p.model
}

// Resolve builds a policy by ID. The id "model" loads a linear policy from
// weightsPath; any other id must be registered.
func Resolve(id, weightsPath string) (registry.Policy, error) {
	if id != ModelID {
		if !registry.Exists(id) {
			return nil, fmt.Errorf("policy: unknown policy %q (available: %s)", id, strings.Join(IDs(), ", "))
		}
		return registry.Create(id)
	}
	if weightsPath == "" {
		return nil, fmt.Errorf("policy: %q requires a weights file", ModelID)
	}

	m, err := logreg.Load(weightsPath)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	return NewLinear(m, ModelID)
}

// IDs returns every id Resolve accepts.
func IDs() []string {
	infos := registry.List()
	ids := make([]string, 0, len(infos)+1)
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	return append(ids, ModelID)
}
