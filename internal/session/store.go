package session

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Store is the single owner of the reconciler and the only producer of
// AuthState visible to the rest of the process.
//
// All observations flow through one event-loop goroutine, which preserves
// settlement order and keeps the reconciler free of locks (the original
// system runs on a single cooperative thread; the event loop is the Go
// rendition of that model). Reads never touch the loop: every produced
// AuthState is stored as an immutable snapshot in an atomic.Value, so
// Current() is lock-free and O(1) from any goroutine.
//
// Consumers that need change notifications subscribe and receive each new
// state on a channel. Slow subscribers are skipped rather than blocking
// the loop; they can always catch up from Current().
type Store struct {
	reconciler *Reconciler
	snapshot   atomic.Value // holds AuthState
	events     chan func()

	subsMu  sync.Mutex
	subs    map[int]chan AuthState
	nextSub int

	// refetch executes a forced-refetch directive. Wired by the poller
	// before Run; nil means directives are logged and dropped.
	refetch func(identity string)

	debug bool
}

// NewStore creates a store in the fresh-load state (Phase Loading).
func NewStore(debug bool) *Store {
	s := &Store{
		reconciler: NewReconciler(),
		events:     make(chan func(), 16),
		subs:       make(map[int]chan AuthState),
		debug:      debug,
	}
	s.snapshot.Store(AuthState{Phase: PhaseLoading})
	return s
}

// OnRefetch registers the executor for forced-refetch directives. Must be
// called before Run.
func (s *Store) OnRefetch(fn func(identity string)) {
	s.refetch = fn
}

// Run drives the event loop until the context is cancelled. Observations
// enqueued after cancellation are dropped.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			ev()
		}
	}
}

// Current returns the latest reconciled state. Lock-free, never blocks.
func (s *Store) Current() AuthState {
	return s.snapshot.Load().(AuthState)
}

// Subscribe registers for state-change notifications. The returned cancel
// function must be called to release the subscription.
func (s *Store) Subscribe() (<-chan AuthState, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan AuthState, 1)
	s.subs[id] = ch
	cancel := func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// ObservePlatform enqueues a settled platform observation.
func (s *Store) ObservePlatform(o PlatformObservation) {
	s.events <- func() {
		s.apply(s.reconciler.ObservePlatform(o))
	}
}

// ObserveApp enqueues a settled application-permission observation.
func (s *Store) ObserveApp(o AppObservation) {
	s.events <- func() {
		s.apply(s.reconciler.ObserveApp(o))
	}
}

// Reset enqueues a reset of the state machine (explicit login event).
func (s *Store) Reset() {
	s.events <- func() {
		s.reconciler.Reset()
		s.publish(s.reconciler.Current())
	}
}

func (s *Store) apply(out Outcome) {
	s.publish(out.State)
	if out.Refetch != nil {
		if s.debug {
			log.Printf("session: identity mismatch, forcing permission refetch for %s", out.Refetch.Identity)
		}
		if s.refetch != nil {
			// Execute off the loop so a slow fetch cannot stall
			// observation processing.
			go s.refetch(out.Refetch.Identity)
		} else {
			log.Printf("session: refetch requested for %s but no executor is wired", out.Refetch.Identity)
		}
	}
}

func (s *Store) publish(state AuthState) {
	prev := s.Current()
	s.snapshot.Store(state)
	if s.debug && prev.Phase != state.Phase {
		log.Printf("session: phase %s -> %s", prev.Phase, state.Phase)
	}

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		// Latest-wins delivery: evict an unread older state so a slow
		// subscriber always sees the newest one.
		select {
		case ch <- state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}
