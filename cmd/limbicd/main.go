package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielpatrickdp/limbic-engine/internal/config"
	"github.com/danielpatrickdp/limbic-engine/internal/convergence"
	"github.com/danielpatrickdp/limbic-engine/internal/logging"
	"github.com/danielpatrickdp/limbic-engine/internal/persist"
	"github.com/danielpatrickdp/limbic-engine/internal/posture"
	"github.com/danielpatrickdp/limbic-engine/internal/push"
	"github.com/danielpatrickdp/limbic-engine/internal/store"
)

// #region main

func main() {
	cfg := config.FromEnv()

	adapter, err := persist.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer adapter.Close()

	journal, err := logging.NewTransitionLog(adapter.DB())
	if err != nil {
		log.Fatalf("failed to open transition log: %v", err)
	}

	st := store.New(adapter, store.Options{Journal: journal})
	defer st.Close()

	client := push.NewClient(push.Config{
		URL:        push.PushURL(cfg.BaseURL),
		Backoff:    cfg.Backoff,
		QueueDepth: cfg.QueueDepth,
	}, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)
	defer client.Close()

	converge := convergence.NewClient(cfg.BaseURL)
	classifier := posture.NewClassifier(cfg.Thresholds, 0.3, 2)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nshutting down")
		cancel()
		os.Exit(0)
	}()

	fmt.Println("Limbic State Engine ready.")
	fmt.Printf("  DB: %s | Backend: %s\n", cfg.DBPath, cfg.BaseURL)
	fmt.Println("Commands: state | history | interact <kind> | answer <text> | posture | reset | quit")

	repl(ctx, st, client, converge, classifier)
}

// #endregion main

// #region repl

func repl(ctx context.Context, st *store.Store, client *push.Client, converge *convergence.Client, classifier *posture.Classifier) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "quit", "exit":
			return
		case "state":
			printJSON(st.State())
			fmt.Printf("[conn=%s dropped=%d]\n", client.State(), client.Dropped())
		case "history":
			for _, h := range st.History() {
				fmt.Printf("%s  %s\n", h.RecordedAt.Format(time.RFC3339), compactJSON(h.State))
			}
		case "interact":
			kind := strings.TrimSpace(rest)
			if kind == "" {
				fmt.Println("usage: interact <kind>")
				continue
			}
			client.SendInteraction(kind)
			printJSON(st.State())
		case "answer":
			callCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			payload, err := converge.SubmitAnswer(callCtx, rest)
			cancel()
			if err != nil {
				log.Printf("convergence error: %v", err)
				continue
			}
			fmt.Println(string(payload))
		case "posture":
			fmt.Println(classifier.Observe(st.State()))
		case "reset":
			st.Reset()
			printJSON(st.State())
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

// #endregion repl

// #region helpers

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("marshal: %v", err)
		return
	}
	fmt.Println(string(out))
}

func compactJSON(v interface{}) string {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<marshal error: %v>", err)
	}
	return string(out)
}

// #endregion helpers
