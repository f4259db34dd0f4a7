package posture

import (
	"testing"

	"github.com/danielpatrickdp/limbic-engine/internal/state"
)

func snap(trust, warmth, arousal, valence float64) state.LimbicState {
	return state.LimbicState{Trust: trust, Warmth: warmth, Arousal: arousal, Valence: valence, Posture: state.PosturePeer}
}

func TestClassifyDefaultStateIsPeer(t *testing.T) {
	if got := Classify(state.Default(), DefaultThresholds()); got != state.PosturePeer {
		t.Fatalf("expected PEER for default state, got %s", got)
	}
}

func TestClassifyRegions(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		s    state.LimbicState
		want state.Posture
	}{
		{"high trust high warmth", snap(0.8, 0.8, 0.5, 0.5), state.PostureCompanion},
		{"high trust low warmth", snap(0.8, 0.3, 0.5, 0.5), state.PostureCopilot},
		{"low trust high arousal", snap(0.1, 0.5, 0.9, 0.5), state.PostureExpert},
		{"low trust low arousal", snap(0.1, 0.5, 0.2, 0.5), state.PosturePeer},
		{"middling everything", snap(0.5, 0.5, 0.5, 0.5), state.PosturePeer},
	}
	for _, c := range cases {
		if got := Classify(c.s, th); got != c.want {
			t.Fatalf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	th := DefaultThresholds()
	s := snap(0.65, 0.55, 0.42, 0.78)
	first := Classify(s, th)
	for i := 0; i < 10; i++ {
		if got := Classify(s, th); got != first {
			t.Fatalf("classification not deterministic: %s then %s", first, got)
		}
	}
}

func TestClassifyTotalOverGrid(t *testing.T) {
	th := DefaultThresholds()
	for trust := 0.0; trust <= 1.0; trust += 0.1 {
		for warmth := 0.0; warmth <= 1.0; warmth += 0.1 {
			for arousal := 0.0; arousal <= 1.0; arousal += 0.25 {
				got := Classify(snap(trust, warmth, arousal, 0.5), th)
				if !got.Valid() {
					t.Fatalf("Classify(%f,%f,%f) = %q, not a valid posture", trust, warmth, arousal, got)
				}
			}
		}
	}
}

func TestClassifierHoldsUnderSmallPerturbation(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), 0.3, 2)

	// Settle just below the trust-high boundary.
	base := snap(0.64, 0.7, 0.5, 0.5)
	var settled state.Posture
	for i := 0; i < 10; i++ {
		settled = c.Observe(base)
	}
	if settled != state.PosturePeer {
		t.Fatalf("expected PEER baseline, got %s", settled)
	}

	// One small hop over the boundary must not flip the posture.
	if got := c.Observe(snap(0.67, 0.7, 0.5, 0.5)); got != state.PosturePeer {
		t.Fatalf("single perturbation flipped posture to %s", got)
	}
	if got := c.Observe(base); got != state.PosturePeer {
		t.Fatalf("posture oscillated to %s", got)
	}
}

func TestClassifierSwitchesOnSustainedShift(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), 0.5, 2)

	for i := 0; i < 10; i++ {
		c.Observe(snap(0.5, 0.5, 0.5, 0.5))
	}
	if c.Current() != state.PosturePeer {
		t.Fatalf("expected PEER baseline, got %s", c.Current())
	}

	// A sustained move into companion territory must eventually win.
	high := snap(0.95, 0.95, 0.5, 0.5)
	var got state.Posture
	for i := 0; i < 20; i++ {
		got = c.Observe(high)
	}
	if got != state.PostureCompanion {
		t.Fatalf("sustained shift never switched posture, still %s", got)
	}
}

func TestClassifierFirstObservation(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), 0.3, 2)
	if got := c.Observe(snap(0.9, 0.9, 0.5, 0.5)); got != state.PostureCompanion {
		t.Fatalf("first observation should classify directly, got %s", got)
	}
	if c.Current() != state.PostureCompanion {
		t.Fatalf("Current disagrees with Observe: %s", c.Current())
	}
}
