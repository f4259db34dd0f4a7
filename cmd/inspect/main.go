package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/limbic-engine/internal/logging"
	"github.com/danielpatrickdp/limbic-engine/internal/persist"
	"github.com/danielpatrickdp/limbic-engine/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to limbic_state.db")
	last := flag.Int("last", 20, "show N most recent transitions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/limbic_state.db [--last N] [--json]")
		os.Exit(2)
	}

	adapter, err := persist.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer adapter.Close()

	if err := run(adapter, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

type output struct {
	State       *state.LimbicState `json:"state,omitempty"`
	Transitions []transitionRow    `json:"transitions"`
}

type transitionRow struct {
	Trigger   string          `json:"trigger"`
	State     json.RawMessage `json:"state"`
	Detail    string          `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func run(adapter *persist.SQLite, last int, jsonOut bool) error {
	var out output

	cur, ok, err := adapter.Load()
	if err != nil {
		return err
	}
	if ok {
		out.State = &cur
	}

	tlog, err := logging.NewTransitionLog(adapter.DB())
	if err != nil {
		return err
	}
	entries, err := tlog.Recent(last)
	if err != nil {
		return err
	}
	for _, e := range entries {
		out.Transitions = append(out.Transitions, transitionRow{
			Trigger:   string(e.Trigger),
			State:     json.RawMessage(e.StateJSON),
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.State == nil {
		fmt.Println("no persisted state")
	} else {
		fmt.Printf("current: trust=%.3f warmth=%.3f arousal=%.3f valence=%.3f posture=%s count=%d ts=%d\n",
			cur.Trust, cur.Warmth, cur.Arousal, cur.Valence, cur.Posture, cur.InteractionCount, cur.LastInteractionTS)
	}
	fmt.Printf("\n%-26s %-18s %s\n", "CREATED", "TRIGGER", "STATE")
	for _, row := range out.Transitions {
		fmt.Printf("%-26s %-18s %s\n", row.CreatedAt.Format(time.RFC3339), row.Trigger, string(row.State))
	}
	return nil
}

// #endregion run
