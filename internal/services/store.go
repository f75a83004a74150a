package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	apperrors "github.com/VeerPalSingh-0000/Revision-Mania/pkg/errors"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProblemRepo is the persistence a store writes through.
type ProblemRepo interface {
	List(ctx context.Context, owner string) ([]models.Problem, error)
	Commit(ctx context.Context, b *repository.Batch) error
}

// SnapshotSource pushes an owner's full problem set on every change.
type SnapshotSource interface {
	Subscribe(owner string, onSnapshot func([]models.Problem), onError func(error)) func()
}

type StoreOptions struct {
	Now                    func() time.Time
	UndoWindow             time.Duration
	RefreshOriginalOnSolve bool
	// IdleTimeout is how long a registry keeps a store nobody holds.
	IdleTimeout time.Duration
}

// ProblemInput decodes from a bare JSON string or from an object.
type ProblemInput struct {
	Problem    string   `json:"problem"`
	Difficulty string   `json:"difficulty,omitempty"`
	Platform   string   `json:"platform,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func (in *ProblemInput) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*in = ProblemInput{Problem: text}
		return nil
	}

	var raw struct {
		Problem     string   `json:"problem"`
		ProblemText string   `json:"problemText"`
		Difficulty  string   `json:"difficulty"`
		Platform    string   `json:"platform"`
		Tags        []string `json:"tags"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Problem == "" {
		raw.Problem = raw.ProblemText
	}
	*in = ProblemInput{
		Problem:    raw.Problem,
		Difficulty: raw.Difficulty,
		Platform:   raw.Platform,
		Tags:       raw.Tags,
	}
	return nil
}

// overlay is an idempotent edit of a problem list. Applying it to a list
// that already reflects the edit changes nothing.
type overlay func([]models.Problem) []models.Problem

// ProblemStore is the single source of truth for one user's problems.
// Mutations run one at a time; each shows immediately as an overlay on the
// last remote snapshot and is kept or dropped once the write returns.
type ProblemStore struct {
	owner           string
	repo            ProblemRepo
	source          SnapshotSource
	sched           *DueScheduler
	policy          RevisionPolicy
	now             func() time.Time
	refreshOriginal bool
	log             zerolog.Logger

	writeMu sync.Mutex

	mu           sync.RWMutex
	remote       []models.Problem
	pending      overlay
	err          error
	listeners    map[uint64]func([]models.Problem)
	nextListener uint64
	unsubscribe  func()
	closed       bool
}

func NewProblemStore(owner string, repo ProblemRepo, source SnapshotSource, sched *DueScheduler, opts StoreOptions) *ProblemStore {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ProblemStore{
		owner:           owner,
		repo:            repo,
		source:          source,
		sched:           sched,
		policy:          NewRevisionPolicy(opts.UndoWindow),
		now:             now,
		refreshOriginal: opts.RefreshOriginalOnSolve,
		log:             logger.With("problem_store").With().Str("owner", owner).Logger(),
		remote:          []models.Problem{},
		listeners:       make(map[uint64]func([]models.Problem)),
	}
}

// Open performs the first load: a live subscription when a source is
// configured, a plain query otherwise. The returned error is the store's
// read error, if any.
func (s *ProblemStore) Open(ctx context.Context) error {
	if s.source == nil {
		return s.Refresh(ctx)
	}
	unsubscribe := s.source.Subscribe(s.owner, s.onSnapshot, s.onError)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return s.Err()
}

func (s *ProblemStore) Owner() string {
	return s.owner
}

func (s *ProblemStore) Scheduler() *DueScheduler {
	return s.sched
}

func (s *ProblemStore) Policy() RevisionPolicy {
	return s.policy
}

func (s *ProblemStore) Now() time.Time {
	return s.now()
}

// Problems returns a copy of the current view, most recently solved first.
func (s *ProblemStore) Problems() []models.Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *ProblemStore) Find(id string) (models.Problem, bool) {
	for _, p := range s.Problems() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Problem{}, false
}

// lookup is Find with one re-query on a miss, so records written by another
// process are seen even when no change notice reached this store.
// Callers hold writeMu.
func (s *ProblemStore) lookup(ctx context.Context, id string) (models.Problem, bool, error) {
	if p, ok := s.Find(id); ok {
		return p, true, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return models.Problem{}, false, err
	}
	p, ok := s.Find(id)
	return p, ok, nil
}

// Err is the last read failure; nil once a load succeeds again.
func (s *ProblemStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Overview builds the read model with calendar days taken in loc.
func (s *ProblemStore) Overview(loc *time.Location) Overview {
	if loc == nil {
		loc = time.UTC
	}
	o := BuildOverview(s.Problems(), s.sched, s.policy, s.now().In(loc))
	if err := s.Err(); err != nil {
		o.SyncError = err.Error()
	}
	return o
}

// Refresh re-queries the repository and replaces the remote state.
func (s *ProblemStore) Refresh(ctx context.Context) error {
	problems, err := s.repo.List(ctx, s.owner)
	if err != nil {
		s.onError(err)
		return s.Err()
	}
	s.onSnapshot(problems)
	return nil
}

// Subscribe calls fn with the current view now and after every change.
func (s *ProblemStore) Subscribe(fn func([]models.Problem)) func() {
	s.mu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners[id] = fn
	view := s.viewLocked()
	s.mu.Unlock()

	fn(view)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close ends the live subscription and drops every listener.
func (s *ProblemStore) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.listeners = make(map[uint64]func([]models.Problem))
	s.closed = true
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *ProblemStore) Add(ctx context.Context, in ProblemInput) (models.Problem, error) {
	text := utils.NormalizeProblemText(in.Problem)
	if text == "" {
		return models.Problem{}, apperrors.Validation("Problem text is required")
	}
	difficulty, ok := models.ParseDifficulty(in.Difficulty)
	if !ok {
		return models.Problem{}, apperrors.Validation("Difficulty must be easy, medium or hard")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now()
	p := models.Problem{
		ID:           uuid.New().String(),
		Owner:        s.owner,
		ProblemText:  text,
		Difficulty:   difficulty,
		Platform:     strings.TrimSpace(in.Platform),
		Tags:         utils.NormalizeTags(in.Tags),
		LastSolvedAt: now,
		CreatedAt:    now,
		SolveCount:   1,
	}

	err := s.optimistic(ctx, ensurePresent(p), repository.NewBatch(s.owner).Create(p))
	if err != nil {
		return models.Problem{}, err
	}
	s.log.Info().Str("problem_id", p.ID).Msg("Problem added")
	return p, nil
}

func (s *ProblemStore) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, ok, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("Problem not found")
	}

	if err := s.optimistic(ctx, ensureAbsent(id), repository.NewBatch(s.owner).Delete(id)); err != nil {
		return err
	}
	s.log.Info().Str("problem_id", id).Msg("Problem deleted")
	return nil
}

// SolveAgain records a revision of id and bumps id's solve count, both in
// one batch. Any existing record may be revised.
func (s *ProblemStore) SolveAgain(ctx context.Context, id string) (models.Problem, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	target, ok, err := s.lookup(ctx, id)
	if err != nil {
		return models.Problem{}, err
	}
	if !ok {
		return models.Problem{}, apperrors.NotFound("Problem not found")
	}

	now := s.now()
	rev := NewRevision(target, now)

	ops := []overlay{ensurePresent(rev), setSolveCount(id, target.SolveCount+1)}
	batch := repository.NewBatch(s.owner).Create(rev).Increment(id, 1)
	if s.refreshOriginal {
		ops = append(ops, setLastSolved(id, now))
		batch.Touch(id, now)
	}

	if err := s.optimistic(ctx, compose(ops...), batch); err != nil {
		return models.Problem{}, err
	}
	s.log.Info().Str("problem_id", id).Str("revision_id", rev.ID).Msg("Revision recorded")
	return rev, nil
}

// UndoRevision deletes a revision still inside the undo window and gives
// its original the solve back, in one batch.
func (s *ProblemStore) UndoRevision(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rev, ok, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if !ok || rev.OriginalProblemID == nil {
		return apperrors.NotFound("Revision not found")
	}
	if !s.policy.CanUndo(rev, s.now()) {
		return apperrors.WindowExpired("Undo window has expired")
	}

	originalID := *rev.OriginalProblemID
	ops := []overlay{ensureAbsent(id)}
	if original, ok := s.Find(originalID); ok {
		count := original.SolveCount - 1
		if count < 0 {
			count = 0
		}
		ops = append(ops, setSolveCount(originalID, count))
	}
	batch := repository.NewBatch(s.owner).Delete(id).Increment(originalID, -1)

	if err := s.optimistic(ctx, compose(ops...), batch); err != nil {
		return err
	}
	s.log.Info().Str("problem_id", originalID).Str("revision_id", id).Msg("Revision undone")
	return nil
}

// optimistic shows edit at once, commits batch, then keeps the edit on
// success or drops it on failure. Callers hold writeMu.
func (s *ProblemStore) optimistic(ctx context.Context, edit overlay, batch *repository.Batch) error {
	s.mu.Lock()
	s.pending = edit
	s.mu.Unlock()
	s.notify()

	err := s.repo.Commit(ctx, batch)

	s.mu.Lock()
	s.pending = nil
	if err == nil {
		s.remote = sortBySolved(edit(s.remote))
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.log.Warn().Err(err).Msg("Write failed, local changes rolled back")
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Problem not found")
		}
		return apperrors.Persistence("Failed to save changes", err)
	}
	return nil
}

func (s *ProblemStore) onSnapshot(problems []models.Problem) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.remote = problems
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

func (s *ProblemStore) onError(err error) {
	s.log.Error().Err(err).Msg("Problem sync failed")
	s.mu.Lock()
	s.err = apperrors.Persistence("Failed to load problems", err)
	s.mu.Unlock()
	s.notify()
}

func (s *ProblemStore) notify() {
	s.mu.RLock()
	view := s.viewLocked()
	fns := make([]func([]models.Problem), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(view)
	}
}

func (s *ProblemStore) viewLocked() []models.Problem {
	view := make([]models.Problem, len(s.remote))
	for i, p := range s.remote {
		view[i] = p.Clone()
	}
	if s.pending != nil {
		view = sortBySolved(s.pending(view))
	}
	return view
}

func ensurePresent(p models.Problem) overlay {
	return func(ps []models.Problem) []models.Problem {
		for i := range ps {
			if ps[i].ID == p.ID {
				ps[i] = p.Clone()
				return ps
			}
		}
		return append([]models.Problem{p.Clone()}, ps...)
	}
}

func ensureAbsent(id string) overlay {
	return func(ps []models.Problem) []models.Problem {
		out := ps[:0]
		for _, p := range ps {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out
	}
}

func setSolveCount(id string, n int) overlay {
	return func(ps []models.Problem) []models.Problem {
		for i := range ps {
			if ps[i].ID == id {
				ps[i].SolveCount = n
			}
		}
		return ps
	}
}

func setLastSolved(id string, at time.Time) overlay {
	return func(ps []models.Problem) []models.Problem {
		for i := range ps {
			if ps[i].ID == id {
				ps[i].LastSolvedAt = at
			}
		}
		return ps
	}
}

func compose(ops ...overlay) overlay {
	return func(ps []models.Problem) []models.Problem {
		for _, op := range ops {
			ps = op(ps)
		}
		return ps
	}
}

func sortBySolved(ps []models.Problem) []models.Problem {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].LastSolvedAt.After(ps[j].LastSolvedAt)
	})
	return ps
}
