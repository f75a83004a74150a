package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/spf13/cobra"
)

var listDays int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List solved problems grouped by day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		groups := services.GroupByDay(store.Problems(), env.loc)
		if len(groups) == 0 {
			fmt.Println("📚 No problems tracked yet. Add one with `revise add`.")
			return nil
		}
		if listDays > 0 && len(groups) > listDays {
			groups = groups[:listDays]
		}

		now := store.Now()
		policy := store.Policy()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, g := range groups {
			fmt.Fprintf(w, "\n📅 %s\n", g.Date.Format("Mon, 02 Jan 2006"))
			for _, p := range g.Problems {
				kind := "original"
				if services.IsRevision(p) {
					kind = "revision"
					if policy.CanUndo(p, now) {
						kind += " (undoable)"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", shortID(p.ID), p.ProblemText, kind, strings.Join(p.Tags, ","), p.SolveCount)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listDays, "days", "d", 0, "only show the most recent N days")
}
