package services

import (
	"testing"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanUndo_WindowIsInclusive(t *testing.T) {
	policy := NewRevisionPolicy(0)
	require.Equal(t, DefaultUndoWindow, policy.Window)

	rev := revisionOf("r", "a", refNow)

	assert.True(t, policy.CanUndo(rev, refNow))
	assert.True(t, policy.CanUndo(rev, refNow.Add(5*time.Minute)))
	assert.False(t, policy.CanUndo(rev, refNow.Add(5*time.Minute+time.Nanosecond)))
	assert.False(t, policy.CanUndo(rev, refNow.Add(6*time.Minute)))
}

func TestCanUndo_RequiresBackReference(t *testing.T) {
	policy := NewRevisionPolicy(time.Minute)

	flagOnly := models.Problem{ID: "r", IsRevision: true, CreatedAt: refNow}
	assert.False(t, policy.CanUndo(flagOnly, refNow))

	assert.False(t, policy.CanUndo(original("a", refNow), refNow))

	noCreated := revisionOf("r", "a", refNow)
	noCreated.CreatedAt = time.Time{}
	assert.False(t, policy.CanUndo(noCreated, refNow))
}

func TestIsRevision(t *testing.T) {
	id := "a"
	assert.True(t, IsRevision(models.Problem{IsRevision: true}))
	assert.True(t, IsRevision(models.Problem{OriginalProblemID: &id}))
	assert.False(t, IsRevision(models.Problem{}))
}

func TestNewRevision_CopiesLineageFields(t *testing.T) {
	target := original("a", refNow.Add(-3*day))
	target.Owner = "alice"
	target.Difficulty = models.DifficultyHard
	target.Platform = "Codeforces"
	target.Tags = []string{"graph"}
	target.SolveCount = 4

	rev := NewRevision(target, refNow)

	assert.NotEmpty(t, rev.ID)
	assert.NotEqual(t, target.ID, rev.ID)
	assert.Equal(t, "alice", rev.Owner)
	assert.Equal(t, target.ProblemText, rev.ProblemText)
	assert.Equal(t, models.DifficultyHard, rev.Difficulty)
	assert.Equal(t, "Codeforces", rev.Platform)
	assert.Equal(t, []string{"graph"}, []string(rev.Tags))
	assert.Equal(t, refNow, rev.LastSolvedAt)
	assert.Equal(t, refNow, rev.CreatedAt)
	assert.Equal(t, 1, rev.SolveCount)
	assert.True(t, rev.IsRevision)
	require.NotNil(t, rev.OriginalProblemID)
	assert.Equal(t, "a", *rev.OriginalProblemID)

	rev.Tags[0] = "changed"
	assert.Equal(t, "graph", target.Tags[0])
}
