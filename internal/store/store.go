package store

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/danielpatrickdp/limbic-engine/internal/logging"
	"github.com/danielpatrickdp/limbic-engine/internal/persist"
	"github.com/danielpatrickdp/limbic-engine/internal/state"
	"github.com/google/uuid"
)

// #region types

// Journal receives one entry per applied mutation. Satisfied by
// *logging.TransitionLog; nil disables journaling.
type Journal interface {
	Append(entry logging.TransitionEntry) error
}

// InteractionResolver maps an interaction kind to the partial update the
// backend prescribes for it. ok=false means the kind is unknown.
type InteractionResolver func(kind string) (p state.Partial, ok bool)

// Options configures a Store. Zero value is usable: no journal, no resolver,
// default history bound, wall clock.
type Options struct {
	Journal      Journal
	Resolver     InteractionResolver
	HistoryLimit int
	Now          func() time.Time
}

const defaultHistoryLimit = 256

// persistJob is the latest snapshot awaiting a durable write, or a pending
// deletion of the persisted record after a reset.
type persistJob struct {
	st    state.LimbicState
	clear bool
}

// #endregion types

// #region store-struct

// Store owns the live LimbicState and its history. All mutations are
// serialized; persistence and journaling happen on a background writer so no
// caller ever blocks on I/O. Construct explicitly and hand it to whatever
// needs it — there is deliberately no package-level instance.
type Store struct {
	mu      sync.Mutex
	cur     state.LimbicState
	history []state.HistoryEntry

	adapter      persist.Adapter
	journal      Journal
	resolve      InteractionResolver
	historyLimit int
	now          func() time.Time

	pendingMu sync.Mutex
	pending   *persistJob

	kick      chan struct{}
	journalCh chan logging.TransitionEntry
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// #endregion store-struct

// #region constructor

// New loads the persisted snapshot (or the default state when absent) and
// starts the background writer. Load failures are non-fatal: the store
// logs and starts from defaults, trusting the backend's copy on next sync.
func New(adapter persist.Adapter, opts Options) *Store {
	s := &Store{
		adapter:      adapter,
		journal:      opts.Journal,
		resolve:      opts.Resolver,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
		kick:         make(chan struct{}, 1),
		journalCh:    make(chan logging.TransitionEntry, 128),
		done:         make(chan struct{}),
	}
	if s.historyLimit <= 0 {
		s.historyLimit = defaultHistoryLimit
	}
	if s.now == nil {
		s.now = time.Now
	}

	cur, ok, err := adapter.Load()
	if err != nil {
		log.Printf("limbic store: load failed, starting from defaults: %v", err)
		ok = false
	}
	if !ok {
		cur = state.Default()
	}
	s.cur = cur

	s.wg.Add(1)
	go s.writer()
	return s
}

// Close stops the background writer after flushing any pending persistence
// and journal entries. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

// #endregion constructor

// #region read

// State returns the current snapshot. No side effects.
func (s *Store) State() state.LimbicState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// History returns a copy of the superseded snapshots, oldest first.
func (s *Store) History() []state.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]state.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// #endregion read

// #region mutations

// Update merges a locally-originated partial into the current state. The
// previous snapshot moves to history, the timestamp advances, and the
// interaction count increments. An empty partial is a no-op that still
// advances the timestamp; unknown fields were already dropped at the decode
// boundary. Never fails.
func (s *Store) Update(p state.Partial) {
	s.apply(p, logging.TriggerLocalUpdate, true, "")
}

// ApplyDelta merges a server-pushed partial. Same semantics as Update.
func (s *Store) ApplyDelta(p state.Partial) {
	s.apply(p, logging.TriggerServerDelta, true, "")
}

// Replace applies a server-authoritative full-state replacement. The four
// numeric fields and posture are taken from the server; the interaction
// count is not incremented.
func (s *Store) Replace(st state.LimbicState) {
	s.apply(state.PartialFrom(st), logging.TriggerServerReplace, false, "")
}

// SetPosture overrides the derived posture directly, bypassing the
// classifier. Used when the backend asserts a posture. Not an interaction.
func (s *Store) SetPosture(p state.Posture) {
	if !p.Valid() {
		log.Printf("limbic store: ignoring invalid posture override %q", p)
		return
	}
	s.apply(state.Partial{Posture: &p}, logging.TriggerPostureOverride, false, string(p))
}

// ApplyInteraction resolves an interaction kind to a partial update and
// applies it as a local interaction. Unknown kinds and a missing resolver
// degrade to an empty update, which still counts the interaction.
func (s *Store) ApplyInteraction(kind string) {
	var p state.Partial
	if s.resolve != nil {
		resolved, ok := s.resolve(kind)
		if !ok {
			log.Printf("limbic store: unresolved interaction kind %q", kind)
		} else {
			p = resolved
		}
	}
	s.apply(p, logging.TriggerLocalUpdate, true, kind)
}

// Reset replaces the current state with the default, clears history, and
// deletes the persisted record.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cur = state.Default()
	s.history = nil
	s.mu.Unlock()

	s.schedule(persistJob{clear: true})
	s.record(logging.TriggerReset, state.Default(), "")
}

// #endregion mutations

// #region apply

// apply is the single mutation path: merge, clamp, history-append, advance
// timestamp, optionally count the interaction, then hand the new snapshot to
// the background writer. Atomic with respect to readers.
func (s *Store) apply(p state.Partial, trigger logging.Trigger, countInteraction bool, detail string) {
	s.mu.Lock()
	prev := s.cur
	next := state.Apply(prev, p)
	next.InteractionCount = prev.InteractionCount
	if countInteraction {
		next.InteractionCount++
	}
	next.LastInteractionTS = s.nowMillis(prev.LastInteractionTS)
	s.cur = next
	s.history = append(s.history, state.HistoryEntry{
		ID:         uuid.New().String(),
		State:      prev,
		RecordedAt: s.now().UTC(),
	})
	if len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
	s.mu.Unlock()

	s.schedule(persistJob{st: next})
	s.record(trigger, next, detail)
}

// nowMillis returns the current unix-millisecond timestamp, never moving
// backwards relative to the previous one.
func (s *Store) nowMillis(prev int64) int64 {
	ms := s.now().UnixMilli()
	if ms < prev {
		return prev
	}
	return ms
}

// #endregion apply

// #region writer

// schedule replaces the pending persistence job (latest wins) and nudges the
// writer. Never blocks.
func (s *Store) schedule(job persistJob) {
	s.pendingMu.Lock()
	s.pending = &job
	s.pendingMu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// record queues a journal entry. Drops with a log line when the journal
// cannot keep up; the journal is an audit aid, not the source of truth.
func (s *Store) record(trigger logging.Trigger, st state.LimbicState, detail string) {
	if s.journal == nil {
		return
	}
	payload, err := json.Marshal(st)
	if err != nil {
		log.Printf("limbic store: marshal journal entry: %v", err)
		return
	}
	entry := logging.TransitionEntry{
		Trigger:   trigger,
		StateJSON: string(payload),
		Detail:    detail,
		CreatedAt: s.now().UTC(),
	}
	select {
	case s.journalCh <- entry:
	default:
		log.Printf("limbic store: journal backlog full, dropping %s entry", trigger)
	}
}

func (s *Store) writer() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			s.flushPending()
			s.drainJournal()
			return
		case <-s.kick:
			s.flushPending()
		case e := <-s.journalCh:
			s.writeJournal(e)
		}
	}
}

// flushPending performs the latest scheduled durable write. A failed save is
// logged and superseded by the next mutation's snapshot.
func (s *Store) flushPending() {
	s.pendingMu.Lock()
	job := s.pending
	s.pending = nil
	s.pendingMu.Unlock()
	if job == nil {
		return
	}
	var err error
	if job.clear {
		err = s.adapter.Clear()
	} else {
		err = s.adapter.Save(job.st)
	}
	if err != nil {
		log.Printf("limbic store: persist failed (will retry on next mutation): %v", err)
	}
}

func (s *Store) writeJournal(e logging.TransitionEntry) {
	if err := s.journal.Append(e); err != nil {
		log.Printf("limbic store: journal append failed: %v", err)
	}
}

func (s *Store) drainJournal() {
	for {
		select {
		case e := <-s.journalCh:
			s.writeJournal(e)
		default:
			return
		}
	}
}

// #endregion writer
