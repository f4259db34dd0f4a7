package state

import "time"

// #region posture

// Posture is the discrete interaction style derived from the limbic state.
type Posture string

const (
	PostureCompanion Posture = "COMPANION"
	PostureCopilot   Posture = "COPILOT"
	PosturePeer      Posture = "PEER"
	PostureExpert    Posture = "EXPERT"
)

// Valid reports whether p is one of the four known postures.
func (p Posture) Valid() bool {
	switch p {
	case PostureCompanion, PostureCopilot, PosturePeer, PostureExpert:
		return true
	}
	return false
}

// #endregion posture

// #region limbic-state

// LimbicState is one immutable snapshot of the affective state.
// The four numeric fields are always within [0, 1].
type LimbicState struct {
	Trust             float64 `json:"trust"`
	Warmth            float64 `json:"warmth"`
	Arousal           float64 `json:"arousal"`
	Valence           float64 `json:"valence"`
	Posture           Posture `json:"posture"`
	InteractionCount  int     `json:"interaction_count"`
	LastInteractionTS int64   `json:"last_interaction_ts"` // unix millis
}

// Default returns the documented starting state.
func Default() LimbicState {
	return LimbicState{
		Trust:             0.5,
		Warmth:            0.6,
		Arousal:           0.7,
		Valence:           0.6,
		Posture:           PosturePeer,
		InteractionCount:  0,
		LastInteractionTS: 0,
	}
}

// #endregion limbic-state

// #region history-entry

// HistoryEntry records a superseded snapshot for display and audit.
type HistoryEntry struct {
	ID         string      `json:"id"`
	State      LimbicState `json:"state"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// #endregion history-entry
