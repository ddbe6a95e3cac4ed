package poller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lsmith090/CIPP-sub000/internal/session"
)

// Poller drives the two identity fetch loops and feeds settled
// observations into the session store.
//
// Ownership split: retry and backoff policy live here; classification of
// settled results into phases lives in the reconciler. The reconciler
// never sees an individual retry attempt, only the terminal outcome of a
// poll cycle.
//
// The application source is fetched only after the platform source has
// settled with a principal, and every application fetch is tagged with the
// identity it was issued for. When the store demands a forced refetch, any
// in-flight application fetch for a stale identity is cancelled and its
// settlement discarded.
type Poller struct {
	client     *Client
	store      *session.Store
	interval   time.Duration
	maxRetries int
	debug      bool

	mu         sync.Mutex
	inflight   context.CancelFunc
	currentID  string // identity of the in-flight app fetch, if any
	generation uint64 // bumped per app fetch; guards stale cleanup
}

// New wires a poller to the store and registers itself as the store's
// refetch executor.
func New(client *Client, store *session.Store, interval time.Duration, maxRetries int, debug bool) *Poller {
	p := &Poller{
		client:     client,
		store:      store,
		interval:   interval,
		maxRetries: maxRetries,
		debug:      debug,
	}
	store.OnRefetch(p.Refetch)
	return p
}

// Run polls the platform endpoint on the configured interval until the
// context is cancelled. The first poll fires immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollPlatform(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollPlatform(ctx)
		}
	}
}

// Refetch is the store's forced-refetch executor: supersede whatever
// application fetch is in flight and issue a fresh one for the given
// identity.
func (p *Poller) Refetch(identity string) {
	p.fetchApp(context.Background(), identity, true)
}

func (p *Poller) pollPlatform(ctx context.Context) {
	principal, err := p.fetchPlatformWithRetry(ctx)

	obs := session.PlatformObservation{Settled: true}
	switch {
	case err == nil:
		obs.Principal = principal
	case errors.Is(err, ErrBackendUnavailable), errors.Is(err, ErrTransport):
		log.Printf("poller: platform poll failed terminally: %v", err)
		obs.Unavailable = true
	default:
		log.Printf("poller: platform poll failed: %v", err)
		obs.Unavailable = true
	}
	p.store.ObservePlatform(obs)

	if obs.Principal != nil {
		p.fetchApp(ctx, obs.Principal.UserDetails, false)
	}
}

// fetchPlatformWithRetry retries transport-class failures with doubling
// backoff up to the retry budget. Backend-unavailable and no-principal
// outcomes settle immediately.
func (p *Poller) fetchPlatformWithRetry(ctx context.Context) (*session.PlatformPrincipal, error) {
	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		principal, err := p.client.FetchPlatformPrincipal(ctx)
		if err == nil {
			return principal, nil
		}
		if errors.Is(err, ErrBackendUnavailable) {
			return nil, err
		}
		lastErr = err
		if p.debug {
			log.Printf("poller: platform attempt %d/%d failed: %v", attempt+1, p.maxRetries+1, err)
		}
	}
	return nil, lastErr
}

// fetchApp launches one application-permission fetch for the given
// identity. With supersede=true any in-flight fetch is cancelled first;
// otherwise a fetch already in flight for the same identity is left alone.
func (p *Poller) fetchApp(ctx context.Context, identity string, supersede bool) {
	p.mu.Lock()
	if p.inflight != nil {
		if !supersede && p.currentID == identity {
			p.mu.Unlock()
			return
		}
		p.inflight()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	p.inflight = cancel
	p.currentID = identity
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	correlationID := uuid.NewString()
	if p.debug {
		log.Printf("poller: permission fetch %s for %s (supersede=%t)", correlationID, identity, supersede)
	}

	go func() {
		defer func() {
			p.mu.Lock()
			if p.generation == gen {
				p.inflight = nil
				p.currentID = ""
			}
			p.mu.Unlock()
			cancel()
		}()

		principal, err := p.fetchAppWithRetry(fetchCtx)
		if fetchCtx.Err() != nil {
			// Superseded or shut down; the reconciler must never see
			// this settlement.
			if p.debug {
				log.Printf("poller: permission fetch %s superseded", correlationID)
			}
			return
		}

		obs := session.AppObservation{Settled: true, ForIdentity: identity}
		switch {
		case err == nil:
			obs.Principal = principal
		default:
			log.Printf("poller: permission fetch %s failed: %v", correlationID, err)
			obs.Unavailable = true
		}
		p.store.ObserveApp(obs)
	}()
}

// fetchAppWithRetry mirrors the platform retry policy for the permission
// endpoint: transport failures retry with doubling backoff, everything
// else settles immediately.
func (p *Poller) fetchAppWithRetry(ctx context.Context) (*session.AppPrincipal, error) {
	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		principal, err := p.client.FetchAppPrincipal(ctx)
		if err == nil {
			return principal, nil
		}
		if errors.Is(err, ErrBackendUnavailable) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
