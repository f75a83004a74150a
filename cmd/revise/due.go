package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show problems due for revision today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		o := store.Overview(env.loc)
		if o.TotalDue == 0 {
			fmt.Println("✅ Nothing due today.")
			return nil
		}

		fmt.Printf("🔥 %d problems due today:\n", o.TotalDue)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, tier := range o.Due {
			fmt.Fprintf(w, "\n%s (%d)\n", tier.Interval.Label, len(tier.Problems))
			fmt.Fprintln(w, "ID\tProblem\tDiff\tPlatform\tSolves")
			for _, p := range tier.Problems {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", shortID(p.ID), p.ProblemText, p.Difficulty, p.Platform, p.SolveCount)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dueCmd)
}
