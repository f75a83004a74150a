package services

import (
	"sort"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
)

type Summary struct {
	Total       int `json:"total"`
	Originals   int `json:"originals"`
	Revisions   int `json:"revisions"`
	TotalSolves int `json:"totalSolves"`
	Undoable    int `json:"undoable"`
	ActiveDays  int `json:"activeDays"`
}

// DayGroup holds the problems last solved on one calendar day.
type DayGroup struct {
	Day      string           `json:"day"` // YYYY-MM-DD
	Date     time.Time        `json:"date"`
	Problems []models.Problem `json:"problems"`
}

func Summarize(problems []models.Problem, policy RevisionPolicy, now time.Time) Summary {
	s := Summary{Total: len(problems)}
	for _, p := range problems {
		if IsRevision(p) {
			s.Revisions++
		} else {
			s.Originals++
		}
		s.TotalSolves += p.SolveCount
		if policy.CanUndo(p, now) {
			s.Undoable++
		}
	}
	s.ActiveDays = len(GroupByDay(problems, now.Location()))
	return s
}

// GroupByDay buckets problems by the calendar day of LastSolvedAt in loc,
// newest day first. Problems keep their input order inside a day.
func GroupByDay(problems []models.Problem, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.UTC
	}

	index := make(map[string]int)
	var groups []DayGroup
	for _, p := range problems {
		if p.LastSolvedAt.IsZero() {
			continue
		}
		local := p.LastSolvedAt.In(loc)
		key := local.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			y, m, d := local.Date()
			groups = append(groups, DayGroup{Day: key, Date: time.Date(y, m, d, 0, 0, 0, 0, loc)})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Problems = append(groups[i].Problems, p)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Day > groups[j].Day
	})
	return groups
}
