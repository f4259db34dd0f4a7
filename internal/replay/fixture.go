package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/limbic-engine/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: an initial
// state, an optional interaction-kind table, and an ordered list of
// operations to drive through a fresh store.
type Fixture struct {
	Description string                   `json:"description"`
	StartState  *state.LimbicState       `json:"start_state,omitempty"`
	Resolver    map[string]state.Partial `json:"interactions,omitempty"`
	Steps       []Step                   `json:"steps"`

	// ExpectedFinal, when present, is checked against the replayed result.
	ExpectedFinal *state.LimbicState `json:"expected_final,omitempty"`
}

// Step is one recorded operation.
type Step struct {
	Op      string             `json:"op"` // update | server_delta | server_replace | interaction | set_posture | reset
	Delta   *state.Partial     `json:"delta,omitempty"`
	State   *state.LimbicState `json:"state,omitempty"`
	Kind    string             `json:"kind,omitempty"`
	Posture state.Posture      `json:"posture,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("fixture %s: no steps", path)
	}
	for i, step := range f.Steps {
		switch step.Op {
		case "update", "server_delta":
			if step.Delta == nil {
				return nil, fmt.Errorf("fixture %s: step %d (%s) missing delta", path, i, step.Op)
			}
		case "server_replace":
			if step.State == nil {
				return nil, fmt.Errorf("fixture %s: step %d missing state", path, i)
			}
		case "interaction":
			if step.Kind == "" {
				return nil, fmt.Errorf("fixture %s: step %d missing kind", path, i)
			}
		case "set_posture":
			if !step.Posture.Valid() {
				return nil, fmt.Errorf("fixture %s: step %d invalid posture %q", path, i, step.Posture)
			}
		case "reset":
		default:
			return nil, fmt.Errorf("fixture %s: step %d unknown op %q", path, i, step.Op)
		}
	}
	return &f, nil
}

// #endregion fixture-loader
