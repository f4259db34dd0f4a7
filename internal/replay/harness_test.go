package replay

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/danielpatrickdp/limbic-engine/internal/posture"
	"github.com/danielpatrickdp/limbic-engine/internal/state"
)

func f(v float64) *float64 { return &v }

func sampleFixture() *Fixture {
	return &Fixture{
		Description: "warmup then authoritative correction",
		Resolver: map[string]state.Partial{
			"praise": {Warmth: f(0.9), Valence: f(0.8)},
		},
		Steps: []Step{
			{Op: "update", Delta: &state.Partial{Trust: f(0.7)}},
			{Op: "interaction", Kind: "praise"},
			{Op: "server_delta", Delta: &state.Partial{Arousal: f(0.4)}},
			{Op: "server_replace", State: &state.LimbicState{Trust: 0.3, Warmth: 0.3, Arousal: 0.3, Valence: 0.3, Posture: state.PosturePeer}},
			{Op: "set_posture", Posture: state.PostureExpert},
			{Op: "reset"},
		},
	}
}

func TestRunCountsAndFinalState(t *testing.T) {
	results, summary, err := Run(sampleFixture(), posture.DefaultThresholds())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 step results, got %d", len(results))
	}
	if summary.Interactions != 2 || summary.ServerPushes != 2 || summary.Resets != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.FinalState != state.Default() {
		t.Fatalf("expected default final state after reset, got %+v", summary.FinalState)
	}

	// Interaction counting along the way: update + interaction + delta = 3,
	// replace does not count.
	if got := results[3].State.InteractionCount; got != 3 {
		t.Fatalf("expected count 3 after replace, got %d", got)
	}
	if results[4].State.Posture != state.PostureExpert {
		t.Fatalf("posture override not applied: %+v", results[4].State)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	r1, s1, err := Run(sampleFixture(), posture.DefaultThresholds())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r2, s2, err := Run(sampleFixture(), posture.DefaultThresholds())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// History entry IDs are random, but StepResult carries only states, so
	// two runs must be byte-for-byte identical.
	if !reflect.DeepEqual(r1, r2) {
		t.Fatal("replay results differ between runs")
	}
	if !reflect.DeepEqual(s1, s2) {
		t.Fatal("replay summaries differ between runs")
	}
}

func TestRunChecksExpectedFinal(t *testing.T) {
	fix := sampleFixture()
	expected := state.Default()
	fix.ExpectedFinal = &expected

	_, summary, err := Run(fix, posture.DefaultThresholds())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FinalMatches == nil || !*summary.FinalMatches {
		t.Fatalf("expected final-state match, got %+v", summary.FinalMatches)
	}

	wrong := state.Default()
	wrong.Trust = 0.123
	fix.ExpectedFinal = &wrong
	_, summary, err = Run(fix, posture.DefaultThresholds())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FinalMatches == nil || *summary.FinalMatches {
		t.Fatal("expected final-state mismatch to be reported")
	}
}

func TestRunSeedsStartState(t *testing.T) {
	start := state.LimbicState{Trust: 0.9, Warmth: 0.9, Arousal: 0.9, Valence: 0.9, Posture: state.PostureCompanion, InteractionCount: 5}
	fix := &Fixture{
		StartState: &start,
		Steps:      []Step{{Op: "update", Delta: &state.Partial{}}},
	}
	results, _, err := Run(fix, posture.DefaultThresholds())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := results[0].State.InteractionCount; got != 6 {
		t.Fatalf("expected seeded count 5+1, got %d", got)
	}
	if results[0].State.Trust != 0.9 {
		t.Fatalf("start state not seeded: %+v", results[0].State)
	}
}

func TestLoadFixtureValidates(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	os.WriteFile(good, []byte(`{
		"description": "ok",
		"steps": [
			{"op": "update", "delta": {"trust": 0.8}},
			{"op": "set_posture", "posture": "EXPERT"},
			{"op": "reset"}
		]
	}`), 0o644)
	f, err := LoadFixture(good)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(f.Steps))
	}

	bad := []string{
		`{"steps": []}`,
		`{"steps": [{"op": "update"}]}`,
		`{"steps": [{"op": "server_replace"}]}`,
		`{"steps": [{"op": "set_posture", "posture": "OVERLORD"}]}`,
		`{"steps": [{"op": "teleport"}]}`,
		`not json`,
	}
	for i, body := range bad {
		path := filepath.Join(dir, "bad.json")
		os.WriteFile(path, []byte(body), 0o644)
		if _, err := LoadFixture(path); err == nil {
			t.Fatalf("case %d: expected validation error for %s", i, body)
		}
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}
