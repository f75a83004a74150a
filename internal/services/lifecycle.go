package services

import (
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/google/uuid"
)

const DefaultUndoWindow = 5 * time.Minute

// RevisionPolicy decides whether a revision may still be reverted. The same
// value backs both the canUndo flag in responses and UndoRevision.
type RevisionPolicy struct {
	Window time.Duration
}

func NewRevisionPolicy(window time.Duration) RevisionPolicy {
	if window <= 0 {
		window = DefaultUndoWindow
	}
	return RevisionPolicy{Window: window}
}

// IsRevision treats a record with a back-reference as a revision even when
// the flag is unset.
func IsRevision(p models.Problem) bool {
	return p.IsRevision || p.OriginalProblemID != nil
}

// CanUndo holds while now is at most Window past the revision's creation.
func (rp RevisionPolicy) CanUndo(p models.Problem, now time.Time) bool {
	if !IsRevision(p) || p.OriginalProblemID == nil || p.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(p.CreatedAt) <= rp.Window
}

// NewRevision records a repeat solve of target at now.
func NewRevision(target models.Problem, now time.Time) models.Problem {
	originalID := target.ID
	rev := models.Problem{
		ID:                uuid.New().String(),
		Owner:             target.Owner,
		ProblemText:       target.ProblemText,
		Difficulty:        target.Difficulty,
		Platform:          target.Platform,
		LastSolvedAt:      now,
		CreatedAt:         now,
		SolveCount:        1,
		IsRevision:        true,
		OriginalProblemID: &originalID,
	}
	if target.Tags != nil {
		rev.Tags = append(rev.Tags, target.Tags...)
	}
	return rev
}
