package seeds

import (
	"context"
	"fmt"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type sample struct {
	text       string
	difficulty models.Difficulty
	platform   string
	tags       []string
}

var samples = []sample{
	{"https://leetcode.com/problems/two-sum/", models.DifficultyEasy, "LeetCode", []string{"arrays", "hashing"}},
	{"Longest Substring Without Repeating Characters", models.DifficultyMedium, "LeetCode", []string{"strings", "sliding-window"}},
	{"https://codeforces.com/problemset/problem/4/A", models.DifficultyEasy, "Codeforces", []string{"math"}},
	{"Merge k Sorted Lists", models.DifficultyHard, "LeetCode", []string{"heap", "linked-list"}},
	{"Course Schedule", models.DifficultyMedium, "LeetCode", []string{"graphs", "topological-sort"}},
	{"https://www.hackerrank.com/challenges/coin-change/problem", models.DifficultyMedium, "HackerRank", []string{"dp"}},
	{"Trapping Rain Water", models.DifficultyHard, "LeetCode", []string{"two-pointers", "stack"}},
}

// SeedProblems replaces owner's problems with a spread that exercises every
// due tier: one original solved exactly on each interval day, one of them
// already revised today, and a few that are not due at all.
func SeedProblems(ctx context.Context, repo *repository.ProblemRepository, owner string, intervals []int, now time.Time) (int, error) {
	logger.Info().Str("owner", owner).Msg("🧩 Seeding problems...")

	existing, err := repo.List(ctx, owner)
	if err != nil {
		return 0, err
	}
	wipe := repository.NewBatch(owner)
	for _, p := range existing {
		wipe.Delete(p.ID)
	}
	if err := repo.Commit(ctx, wipe); err != nil {
		return 0, fmt.Errorf("clear problems: %w", err)
	}

	batch := repository.NewBatch(owner)
	next := 0
	pick := func() sample {
		s := samples[next%len(samples)]
		next++
		return s
	}

	var due []models.Problem
	for _, days := range intervals {
		p := original(owner, pick(), now.AddDate(0, 0, -days))
		batch.Create(p)
		due = append(due, p)
	}

	// Revised today: its tier must stay empty.
	if len(due) > 0 {
		target := due[len(due)-1]
		rev := services.NewRevision(target, now)
		batch.Create(rev).Increment(target.ID, 1)
	}

	// Not on any interval day.
	for _, offset := range []int{2, 4} {
		batch.Create(original(owner, pick(), now.AddDate(0, 0, -offset)))
	}

	if err := repo.Commit(ctx, batch); err != nil {
		return 0, fmt.Errorf("seed problems: %w", err)
	}

	n := batch.Len()
	logger.Info().Int("operations", n).Msg("   ✅ Problems seeded")
	return n, nil
}

func original(owner string, s sample, solvedAt time.Time) models.Problem {
	p := models.Problem{
		Owner:        owner,
		ProblemText:  s.text,
		Difficulty:   s.difficulty,
		Platform:     s.platform,
		Tags:         datatypes.JSONSlice[string](s.tags),
		LastSolvedAt: solvedAt,
		CreatedAt:    solvedAt,
	}
	p.ID = uuid.New().String()
	return p
}
