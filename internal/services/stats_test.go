package services

import (
	"testing"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	a := original("a", refNow.Add(-3*day))
	a.SolveCount = 3
	problems := []models.Problem{
		revisionOf("r1", "a", refNow.Add(-time.Minute)),
		revisionOf("r2", "a", refNow.Add(-2*day)),
		a,
		original("b", refNow.Add(-3*day)),
	}

	s := Summarize(problems, NewRevisionPolicy(5*time.Minute), refNow)
	assert.Equal(t, Summary{
		Total:       4,
		Originals:   2,
		Revisions:   2,
		TotalSolves: 6,
		Undoable:    1,
		ActiveDays:  3,
	}, s)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil, NewRevisionPolicy(0), refNow))
}

func TestGroupByDay_DescendingWithStoreOrder(t *testing.T) {
	problems := []models.Problem{
		original("late", time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)),
		original("old", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		original("early", time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)),
		original("mid", time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)),
	}

	groups := GroupByDay(problems, time.UTC)
	require.Len(t, groups, 3)
	assert.Equal(t, "2024-03-10", groups[0].Day)
	assert.Equal(t, []string{"late", "early"}, []string{groups[0].Problems[0].ID, groups[0].Problems[1].ID})
	assert.Equal(t, "2024-03-05", groups[1].Day)
	assert.Equal(t, "2024-03-01", groups[2].Day)
}

func TestGroupByDay_UsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	problems := []models.Problem{original("a", time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC))}
	groups := GroupByDay(problems, ny)
	require.Len(t, groups, 1)
	assert.Equal(t, "2024-03-09", groups[0].Day)
}

func TestBuildOverview(t *testing.T) {
	sched := NewDueScheduler([]int{1, 3})
	policy := NewRevisionPolicy(5 * time.Minute)
	link := original("http-link", refNow.Add(-3*day))
	link.ProblemText = "https://leetcode.com/problems/two-sum/"
	problems := []models.Problem{revisionOf("r", "b", refNow), link, original("b", refNow.Add(-1*day))}

	o := BuildOverview(problems, sched, policy, refNow)

	require.Len(t, o.Problems, 3)
	assert.True(t, o.Problems[0].CanUndo)
	assert.Nil(t, o.Problems[0].NextDue, "revisions have no next due date")
	assert.True(t, o.Problems[1].IsLink)
	require.NotNil(t, o.Problems[1].NextDue)
	assert.Equal(t, link.LastSolvedAt.AddDate(0, 0, 3), *o.Problems[1].NextDue)

	require.Len(t, o.Due, 1)
	assert.Equal(t, 3, o.Due[0].Interval.Days)
	assert.Equal(t, 1, o.TotalDue)
	assert.Equal(t, 3, o.Stats.Total)
}
