package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/xuri/excelize/v2"
)

const (
	ArchiveSheet = "Archive"
	DueSheet     = "Due Today"
)

var archiveHeader = []interface{}{"Day", "Problem", "Difficulty", "Platform", "Tags", "Solves", "Revision", "Original ID", "Last Solved", "Next Due"}

// WriteArchive renders problems grouped by day, plus the tiers due on now's
// calendar day, as an .xlsx workbook. now's location decides calendar days.
func WriteArchive(w io.Writer, problems []models.Problem, sched *services.DueScheduler, now time.Time) error {
	loc := now.Location()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ArchiveSheet); err != nil {
		return err
	}
	if err := writeArchiveSheet(f, problems, sched, loc); err != nil {
		return err
	}
	if _, err := f.NewSheet(DueSheet); err != nil {
		return err
	}
	if err := writeDueSheet(f, sched.DueToday(problems, now)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeArchiveSheet(f *excelize.File, problems []models.Problem, sched *services.DueScheduler, loc *time.Location) error {
	if err := f.SetSheetRow(ArchiveSheet, "A1", &archiveHeader); err != nil {
		return err
	}

	row := 2
	for _, g := range services.GroupByDay(problems, loc) {
		for _, p := range g.Problems {
			original := ""
			if p.OriginalProblemID != nil {
				original = *p.OriginalProblemID
			}
			nextDue := ""
			if !services.IsRevision(p) && !p.LastSolvedAt.IsZero() {
				nextDue = sched.NextDue(p).In(loc).Format("2006-01-02")
			}
			values := []interface{}{
				g.Day,
				p.ProblemText,
				string(p.Difficulty),
				p.Platform,
				strings.Join(p.Tags, ", "),
				p.SolveCount,
				services.IsRevision(p),
				original,
				p.LastSolvedAt.In(loc).Format("2006-01-02 15:04"),
				nextDue,
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(ArchiveSheet, cell, &values); err != nil {
				return err
			}
			if p.IsLink() {
				link, _ := excelize.CoordinatesToCellName(2, row)
				if err := f.SetCellHyperLink(ArchiveSheet, link, p.ProblemText, "External"); err != nil {
					return err
				}
			}
			row++
		}
	}

	return f.SetColWidth(ArchiveSheet, "B", "B", 60)
}

func writeDueSheet(f *excelize.File, tiers []services.Tier) error {
	header := []interface{}{"Interval", "Problem", "Difficulty", "Platform"}
	if err := f.SetSheetRow(DueSheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, tier := range tiers {
		for _, p := range tier.Problems {
			values := []interface{}{tier.Interval.Label, p.ProblemText, string(p.Difficulty), p.Platform}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(DueSheet, cell, &values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}
