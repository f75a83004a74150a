package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errBoom = errors.New("connection reset")

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{t: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "=", "_").Replace(t.Name())
	db, err := database.Open(fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Problem{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// flakyRepo fails writes and/or reads on demand.
type flakyRepo struct {
	ProblemRepo
	mu        sync.Mutex
	failWrite bool
	failRead  bool
}

func (f *flakyRepo) setFailWrite(v bool) {
	f.mu.Lock()
	f.failWrite = v
	f.mu.Unlock()
}

func (f *flakyRepo) setFailRead(v bool) {
	f.mu.Lock()
	f.failRead = v
	f.mu.Unlock()
}

func (f *flakyRepo) List(ctx context.Context, owner string) ([]models.Problem, error) {
	f.mu.Lock()
	fail := f.failRead
	f.mu.Unlock()
	if fail {
		return nil, errBoom
	}
	return f.ProblemRepo.List(ctx, owner)
}

func (f *flakyRepo) Commit(ctx context.Context, b *repository.Batch) error {
	f.mu.Lock()
	fail := f.failWrite
	f.mu.Unlock()
	if fail {
		return errBoom
	}
	return f.ProblemRepo.Commit(ctx, b)
}

func seedOriginal(t *testing.T, repo *repository.ProblemRepository, owner, text string, solvedAt time.Time) models.Problem {
	t.Helper()
	p := models.Problem{
		ID:           "orig-" + strings.ReplaceAll(strings.ToLower(text), " ", "-"),
		Owner:        owner,
		ProblemText:  text,
		Difficulty:   models.DifficultyEasy,
		Platform:     "LeetCode",
		Tags:         []string{"array", "hashing"},
		LastSolvedAt: solvedAt,
		CreatedAt:    solvedAt,
		SolveCount:   1,
	}
	require.NoError(t, repo.Create(context.Background(), &p))
	return p
}

func findByID(ps []models.Problem, id string) (models.Problem, bool) {
	for _, p := range ps {
		if p.ID == id {
			return p, true
		}
	}
	return models.Problem{}, false
}
