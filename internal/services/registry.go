package services

import (
	"context"
	"sync"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
)

const defaultIdleTimeout = 30 * time.Minute

// storeEntry is one owner's store. ready is closed once the first load
// finishes; err is set when it failed.
type storeEntry struct {
	store    *ProblemStore
	ready    chan struct{}
	err      error
	refs     int
	lastUsed time.Time
}

// StoreRegistry keeps one live ProblemStore per active user. Sockets hold a
// reference for as long as they are connected; a store nobody holds is
// evicted once it has gone unused for the idle timeout.
type StoreRegistry struct {
	repo   ProblemRepo
	source SnapshotSource
	sched  *DueScheduler
	opts   StoreOptions
	idle   time.Duration

	mu     sync.Mutex
	stores map[string]*storeEntry
}

func NewStoreRegistry(repo ProblemRepo, source SnapshotSource, sched *DueScheduler, opts StoreOptions) *StoreRegistry {
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &StoreRegistry{
		repo:   repo,
		source: source,
		sched:  sched,
		opts:   opts,
		idle:   idle,
		stores: make(map[string]*storeEntry),
	}
}

// Get returns the owner's store, opening it on first use. A store whose
// first load fails is closed and not kept, so the next call retries.
func (r *StoreRegistry) Get(ctx context.Context, owner string) (*ProblemStore, error) {
	return r.load(ctx, owner, false)
}

// Acquire is Get for long-lived holders. The store is not evicted until
// the returned release func has been called; calling it again is a no-op.
func (r *StoreRegistry) Acquire(ctx context.Context, owner string) (*ProblemStore, func(), error) {
	s, err := r.load(ctx, owner, true)
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	return s, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if e, ok := r.stores[owner]; ok && e.store == s {
				e.refs--
				e.lastUsed = r.now()
			}
		})
	}, nil
}

func (r *StoreRegistry) load(ctx context.Context, owner string, hold bool) (*ProblemStore, error) {
	r.mu.Lock()
	e, ok := r.stores[owner]
	if !ok {
		e = &storeEntry{ready: make(chan struct{})}
		r.stores[owner] = e
		r.mu.Unlock()
		r.open(ctx, owner, e)
	} else {
		r.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if e.err != nil {
		return nil, e.err
	}

	r.mu.Lock()
	if r.stores[owner] != e {
		// Released while loading.
		r.mu.Unlock()
		return r.load(ctx, owner, hold)
	}
	e.lastUsed = r.now()
	if hold {
		e.refs++
	}
	r.mu.Unlock()
	return e.store, nil
}

// open runs the first load outside the registry lock so owners load in
// parallel; callers for the same owner wait on e.ready.
func (r *StoreRegistry) open(ctx context.Context, owner string, e *storeEntry) {
	s := NewProblemStore(owner, r.repo, r.source, r.sched, r.opts)
	err := s.Open(ctx)

	r.mu.Lock()
	current := r.stores[owner] == e
	if err != nil {
		e.err = err
		if current {
			delete(r.stores, owner)
		}
	} else {
		e.store = s
		e.lastUsed = r.now()
	}
	close(e.ready)
	r.mu.Unlock()

	switch {
	case err != nil:
		s.Close()
	case !current:
		s.Close()
	default:
		logger.Debug().Str("owner", owner).Msg("Problem store opened")
	}
}

// Release closes the owner's store, if open, whoever still holds it.
func (r *StoreRegistry) Release(owner string) {
	r.mu.Lock()
	e, ok := r.stores[owner]
	delete(r.stores, owner)
	r.mu.Unlock()

	if ok && e.store != nil {
		e.store.Close()
		logger.Debug().Str("owner", owner).Msg("Problem store released")
	}
}

// HandleAuthState drops the store on sign-out unless another session of
// the same user still holds it.
func (r *StoreRegistry) HandleAuthState(userID string, user *models.User) {
	if user != nil {
		return
	}
	r.mu.Lock()
	e, ok := r.stores[userID]
	unused := ok && e.store != nil && e.refs == 0
	if unused {
		delete(r.stores, userID)
	}
	r.mu.Unlock()

	if unused {
		e.store.Close()
		logger.Debug().Str("owner", userID).Msg("Problem store released on sign-out")
	}
}

// Sweep evicts stores nobody holds that have been idle for the timeout and
// reports how many it closed.
func (r *StoreRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var idle []*ProblemStore
	for owner, e := range r.stores {
		if e.store == nil || e.refs > 0 || now.Sub(e.lastUsed) < r.idle {
			continue
		}
		idle = append(idle, e.store)
		delete(r.stores, owner)
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		logger.Debug().Int("evicted", len(idle)).Msg("Idle problem stores evicted")
	}
	return len(idle)
}

// Run sweeps periodically until ctx is done.
func (r *StoreRegistry) Run(ctx context.Context) {
	every := r.idle / 2
	if every > time.Minute {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *StoreRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func (r *StoreRegistry) Close() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*storeEntry)
	r.mu.Unlock()

	for _, e := range stores {
		if e.store != nil {
			e.store.Close()
		}
	}
}

func (r *StoreRegistry) now() time.Time {
	if r.opts.Now != nil {
		return r.opts.Now()
	}
	return time.Now()
}
