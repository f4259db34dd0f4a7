package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/limbic-engine/internal/posture"
	"github.com/danielpatrickdp/limbic-engine/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to replay fixture JSON")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--json]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	results, summary, err := replay.Run(fixture, posture.DefaultThresholds())
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Results []replay.StepResult `json:"results"`
			Summary replay.Summary      `json:"summary"`
		}{results, summary}); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if fixture.Description != "" {
		fmt.Printf("%s\n\n", fixture.Description)
	}
	fmt.Printf("%-5s %-16s %-10s %s\n", "STEP", "OP", "POSTURE", "STATE")
	for _, r := range results {
		fmt.Printf("%-5d %-16s %-10s trust=%.3f warmth=%.3f arousal=%.3f valence=%.3f count=%d\n",
			r.Index, r.Op, r.Posture,
			r.State.Trust, r.State.Warmth, r.State.Arousal, r.State.Valence, r.State.InteractionCount)
	}

	fmt.Printf("\nsteps=%d interactions=%d server_pushes=%d resets=%d\n",
		summary.TotalSteps, summary.Interactions, summary.ServerPushes, summary.Resets)
	if summary.FinalMatches != nil {
		if *summary.FinalMatches {
			fmt.Println("final state matches expectation")
		} else {
			fmt.Println("FINAL STATE MISMATCH")
			os.Exit(1)
		}
	}
}

// #endregion main
