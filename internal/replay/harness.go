package replay

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/limbic-engine/internal/persist"
	"github.com/danielpatrickdp/limbic-engine/internal/posture"
	"github.com/danielpatrickdp/limbic-engine/internal/state"
	"github.com/danielpatrickdp/limbic-engine/internal/store"
)

// #region types

// StepResult captures the state after one replayed operation.
type StepResult struct {
	Index   int               `json:"index"`
	Op      string            `json:"op"`
	State   state.LimbicState `json:"state"`
	Posture state.Posture     `json:"posture"` // instantaneous classification of State
}

// Summary aggregates a replay run.
type Summary struct {
	TotalSteps   int               `json:"total_steps"`
	Interactions int               `json:"interactions"`
	ServerPushes int               `json:"server_pushes"`
	Resets       int               `json:"resets"`
	FinalState   state.LimbicState `json:"final_state"`
	FinalMatches *bool             `json:"final_matches,omitempty"` // set when the fixture declares an expectation
}

// #endregion types

// #region replay

// replayEpoch anchors the deterministic clock: each step advances it by one
// second, so replaying the same fixture twice yields identical timestamps.
var replayEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Run drives the fixture through a fresh in-memory store and returns
// per-step results plus a summary. Entirely deterministic: no wall clock,
// no I/O beyond the fixture itself.
func Run(f *Fixture, th posture.Thresholds) ([]StepResult, Summary, error) {
	adapter := persist.NewMemory()
	if f.StartState != nil {
		if err := adapter.Save(*f.StartState); err != nil {
			return nil, Summary{}, fmt.Errorf("seed start state: %w", err)
		}
	}

	step := 0
	clock := func() time.Time {
		return replayEpoch.Add(time.Duration(step) * time.Second)
	}
	resolver := func(kind string) (state.Partial, bool) {
		p, ok := f.Resolver[kind]
		return p, ok
	}

	s := store.New(adapter, store.Options{Resolver: resolver, Now: clock})
	defer s.Close()

	results := make([]StepResult, 0, len(f.Steps))
	summary := Summary{TotalSteps: len(f.Steps)}

	for i, op := range f.Steps {
		step = i
		switch op.Op {
		case "update":
			s.Update(*op.Delta)
			summary.Interactions++
		case "server_delta":
			s.ApplyDelta(*op.Delta)
			summary.ServerPushes++
		case "server_replace":
			s.Replace(*op.State)
			summary.ServerPushes++
		case "interaction":
			s.ApplyInteraction(op.Kind)
			summary.Interactions++
		case "set_posture":
			s.SetPosture(op.Posture)
		case "reset":
			s.Reset()
			summary.Resets++
		default:
			return nil, Summary{}, fmt.Errorf("step %d: unknown op %q", i, op.Op)
		}

		cur := s.State()
		results = append(results, StepResult{
			Index:   i,
			Op:      op.Op,
			State:   cur,
			Posture: posture.Classify(cur, th),
		})
	}

	summary.FinalState = s.State()
	if f.ExpectedFinal != nil {
		match := summary.FinalState == *f.ExpectedFinal
		summary.FinalMatches = &match
	}
	return results, summary, nil
}

// #endregion replay
