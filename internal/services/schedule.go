package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
)

const day = 24 * time.Hour

// Interval is one revision tier: an original is due on exactly the day its
// last solve is Days old.
type Interval struct {
	Days  int    `json:"days"`
	Label string `json:"label"`
}

type Tier struct {
	Interval Interval         `json:"interval"`
	Problems []models.Problem `json:"problems"`
}

type DueScheduler struct {
	intervals []Interval
}

// NewDueScheduler builds tiers from day offsets. Offsets are expected to be
// distinct; config.ParseIntervals rejects duplicates at load time.
func NewDueScheduler(days []int) *DueScheduler {
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)

	intervals := make([]Interval, len(sorted))
	for i, d := range sorted {
		intervals[i] = Interval{Days: d, Label: intervalLabel(d)}
	}
	return &DueScheduler{intervals: intervals}
}

func intervalLabel(days int) string {
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

func (s *DueScheduler) Intervals() []Interval {
	return append([]Interval(nil), s.intervals...)
}

// DaysSince returns floor((now - t) / 24h).
func DaysSince(t, now time.Time) int {
	return int(math.Floor(float64(now.Sub(t)) / float64(day)))
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DueToday returns the non-empty tiers, in interval order, of originals whose
// last solve is exactly a tier's age. Originals with a revision solved on
// now's calendar day (in now's location) are left out.
func (s *DueScheduler) DueToday(problems []models.Problem, now time.Time) []Tier {
	loc := now.Location()

	revisedToday := make(map[string]bool)
	for _, p := range problems {
		if p.OriginalProblemID == nil || p.LastSolvedAt.IsZero() {
			continue
		}
		if SameDay(p.LastSolvedAt, now, loc) {
			revisedToday[*p.OriginalProblemID] = true
		}
	}

	byDays := make(map[int][]models.Problem, len(s.intervals))
	for _, p := range problems {
		if IsRevision(p) || p.LastSolvedAt.IsZero() || revisedToday[p.ID] {
			continue
		}
		d := DaysSince(p.LastSolvedAt, now)
		byDays[d] = append(byDays[d], p)
	}

	tiers := make([]Tier, 0, len(s.intervals))
	for _, iv := range s.intervals {
		if ps := byDays[iv.Days]; len(ps) > 0 {
			tiers = append(tiers, Tier{Interval: iv, Problems: ps})
		}
	}
	return tiers
}

func TotalDue(tiers []Tier) int {
	total := 0
	for _, t := range tiers {
		total += len(t.Problems)
	}
	return total
}

// NextDue is the date of the tier indexed by the problem's solve count,
// clamped to the last tier. Zero when the problem was never solved.
func (s *DueScheduler) NextDue(p models.Problem) time.Time {
	if p.LastSolvedAt.IsZero() || len(s.intervals) == 0 {
		return time.Time{}
	}
	idx := p.SolveCount
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.intervals) {
		idx = len(s.intervals) - 1
	}
	return p.LastSolvedAt.AddDate(0, 0, s.intervals[idx].Days)
}
