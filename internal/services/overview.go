package services

import (
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
)

// ProblemView is a problem plus the flags a client renders with it.
type ProblemView struct {
	models.Problem
	IsLink  bool       `json:"isLink"`
	CanUndo bool       `json:"canUndo"`
	NextDue *time.Time `json:"nextDue,omitempty"`
}

// Overview is everything a client needs to render the revision page.
type Overview struct {
	Problems  []ProblemView `json:"problems"`
	Due       []Tier        `json:"due"`
	TotalDue  int           `json:"totalDue"`
	Stats     Summary       `json:"stats"`
	SyncError string        `json:"syncError,omitempty"`
}

func (s *DueScheduler) View(p models.Problem, policy RevisionPolicy, now time.Time) ProblemView {
	v := ProblemView{
		Problem: p,
		IsLink:  p.IsLink(),
		CanUndo: policy.CanUndo(p, now),
	}
	if !IsRevision(p) {
		if next := s.NextDue(p); !next.IsZero() {
			v.NextDue = &next
		}
	}
	return v
}

// BuildOverview derives the read model from a problem list. now's location
// decides calendar days.
func BuildOverview(problems []models.Problem, sched *DueScheduler, policy RevisionPolicy, now time.Time) Overview {
	views := make([]ProblemView, len(problems))
	for i, p := range problems {
		views[i] = sched.View(p, policy, now)
	}
	due := sched.DueToday(problems, now)
	return Overview{
		Problems: views,
		Due:      due,
		TotalDue: TotalDue(due),
		Stats:    Summarize(problems, policy, now),
	}
}
