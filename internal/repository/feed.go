package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ChangeChannel carries the owner id of every committed write.
const ChangeChannel = "problems:changed"

// Lister loads an owner's full problem set.
type Lister interface {
	List(ctx context.Context, owner string) ([]models.Problem, error)
}

// subscription delivers in load order: a snapshot whose load started before
// one already delivered is dropped.
type subscription struct {
	onSnapshot func([]models.Problem)
	onError    func(error)

	mu   sync.Mutex
	last uint64
}

// Feed pushes full snapshots of an owner's problems to subscribers after
// every committed write. With a Redis client, change notices travel over
// pub/sub so that writes on one instance reach subscribers on all of them.
type Feed struct {
	lister Lister
	redis  *redis.Client
	log    zerolog.Logger

	mu     sync.RWMutex
	subs   map[string]map[uint64]*subscription
	nextID uint64
	seq    atomic.Uint64

	ready     chan struct{}
	readyOnce sync.Once
}

func NewFeed(lister Lister, rdb *redis.Client) *Feed {
	return &Feed{
		lister: lister,
		redis:  rdb,
		log:    logger.With("feed"),
		subs:   make(map[string]map[uint64]*subscription),
		ready:  make(chan struct{}),
	}
}

// Subscribe delivers the current snapshot to onSnapshot before returning,
// then again after every change for owner. Load failures go to onError.
// The returned func unsubscribes and is safe to call more than once.
func (f *Feed) Subscribe(owner string, onSnapshot func([]models.Problem), onError func(error)) func() {
	sub := &subscription{onSnapshot: onSnapshot, onError: onError}

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.subs[owner] == nil {
		f.subs[owner] = make(map[uint64]*subscription)
	}
	f.subs[owner][id] = sub
	f.mu.Unlock()

	seq := f.seq.Add(1)
	problems, err := f.lister.List(context.Background(), owner)
	sub.deliver(seq, problems, err)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[owner], id)
			if len(f.subs[owner]) == 0 {
				delete(f.subs, owner)
			}
		})
	}
}

// Subscribers reports how many subscriptions owner has.
func (f *Feed) Subscribers(owner string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[owner])
}

// Publish announces a change for owner. Without Redis, or when publishing
// to Redis fails, subscribers are notified in-process.
func (f *Feed) Publish(ctx context.Context, owner string) {
	if f.redis != nil {
		err := f.redis.Publish(ctx, ChangeChannel, owner).Err()
		if err == nil {
			return
		}
		f.log.Warn().Err(err).Str("owner", owner).Msg("Feed publish failed, dispatching locally")
	}
	f.dispatch(ctx, owner)
}

// Run relays change notices from Redis until ctx is done. It returns
// immediately when no Redis client is configured.
func (f *Feed) Run(ctx context.Context) error {
	if f.redis == nil {
		f.markReady()
		return nil
	}

	pubsub := f.redis.Subscribe(ctx, ChangeChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	f.markReady()
	f.log.Info().Str("channel", ChangeChannel).Msg("Feed relay subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.dispatch(ctx, msg.Payload)
		}
	}
}

// Ready is closed once Run is able to relay notices.
func (f *Feed) Ready() <-chan struct{} {
	return f.ready
}

func (f *Feed) markReady() {
	f.readyOnce.Do(func() { close(f.ready) })
}

func (f *Feed) dispatch(ctx context.Context, owner string) {
	f.mu.RLock()
	subs := make([]*subscription, 0, len(f.subs[owner]))
	for _, s := range f.subs[owner] {
		subs = append(subs, s)
	}
	f.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	seq := f.seq.Add(1)
	problems, err := f.lister.List(ctx, owner)
	if err != nil {
		f.log.Error().Err(err).Str("owner", owner).Msg("Feed snapshot failed")
	}
	for _, s := range subs {
		s.deliver(seq, problems, err)
	}
}

func (s *subscription) deliver(seq uint64, problems []models.Problem, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.last {
		return
	}
	s.last = seq

	if err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	// Each subscriber gets its own copy.
	snapshot := make([]models.Problem, len(problems))
	for i, p := range problems {
		snapshot[i] = p.Clone()
	}
	s.onSnapshot(snapshot)
}
