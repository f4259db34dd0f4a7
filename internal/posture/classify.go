package posture

import "github.com/danielpatrickdp/limbic-engine/internal/state"

// #region thresholds

// Thresholds are the tuning knobs for posture classification. They are a
// domain-tuning concern, not a structural contract, so they are configured
// rather than hard-coded.
type Thresholds struct {
	TrustHigh   float64
	TrustLow    float64
	WarmthHigh  float64
	ArousalHigh float64
}

// DefaultThresholds classifies the default state as PEER.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TrustHigh:   0.65,
		TrustLow:    0.35,
		WarmthHigh:  0.55,
		ArousalHigh: 0.5,
	}
}

// #endregion thresholds

// #region classify

// Classify maps a state to exactly one posture. Total and deterministic:
// rules are checked in a fixed order and the final rule always matches.
// High trust splits on warmth (companion vs copilot); guarded, activated
// states read as expert; everything else is peer footing.
func Classify(s state.LimbicState, th Thresholds) state.Posture {
	switch {
	case s.Trust >= th.TrustHigh && s.Warmth >= th.WarmthHigh:
		return state.PostureCompanion
	case s.Trust >= th.TrustHigh:
		return state.PostureCopilot
	case s.Trust < th.TrustLow && s.Arousal >= th.ArousalHigh:
		return state.PostureExpert
	default:
		return state.PosturePeer
	}
}

// #endregion classify

// #region classifier

// Classifier performs live classification with hysteresis so that small
// perturbations of the numeric fields do not flip the posture on every
// observation. It keeps an exponential moving average of the four fields and
// requires a candidate posture to persist for HoldCount consecutive
// observations before switching. A bare instantaneous threshold over raw
// values would oscillate near a boundary; this wrapper is the supported way
// to classify a moving state.
type Classifier struct {
	th        Thresholds
	alpha     float64
	holdCount int

	avg       state.LimbicState
	primed    bool
	current   state.Posture
	candidate state.Posture
	streak    int
}

// NewClassifier creates a hysteresis classifier. alpha is the EMA weight of
// each new observation in (0, 1]; holdCount is how many consecutive
// agreeing observations force a switch.
func NewClassifier(th Thresholds, alpha float64, holdCount int) *Classifier {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}
	if holdCount < 1 {
		holdCount = 2
	}
	return &Classifier{th: th, alpha: alpha, holdCount: holdCount}
}

// Observe folds one snapshot into the moving average and returns the held
// posture.
func (c *Classifier) Observe(s state.LimbicState) state.Posture {
	if !c.primed {
		c.avg = s
		c.primed = true
		c.current = Classify(s, c.th)
		c.candidate = c.current
		return c.current
	}

	c.avg.Trust = c.ema(c.avg.Trust, s.Trust)
	c.avg.Warmth = c.ema(c.avg.Warmth, s.Warmth)
	c.avg.Arousal = c.ema(c.avg.Arousal, s.Arousal)
	c.avg.Valence = c.ema(c.avg.Valence, s.Valence)

	next := Classify(c.avg, c.th)
	if next == c.current {
		c.candidate = c.current
		c.streak = 0
		return c.current
	}
	if next == c.candidate {
		c.streak++
	} else {
		c.candidate = next
		c.streak = 1
	}
	if c.streak >= c.holdCount {
		c.current = next
		c.streak = 0
	}
	return c.current
}

// Current returns the held posture without folding in a new observation.
func (c *Classifier) Current() state.Posture {
	if !c.primed {
		return state.Default().Posture
	}
	return c.current
}

func (c *Classifier) ema(avg, v float64) float64 {
	return avg + c.alpha*(v-avg)
}

// #endregion classifier
