package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals for the selected account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		o := store.Overview(env.loc)
		s := o.Stats

		fmt.Println("📊 Statistics")
		fmt.Println("-------------")
		fmt.Printf("Records:       %d\n", s.Total)
		fmt.Printf("Originals:     %d\n", s.Originals)
		fmt.Printf("Revisions:     %d\n", s.Revisions)
		fmt.Printf("Total solves:  %d\n", s.TotalSolves)
		fmt.Printf("Active days:   %d\n", s.ActiveDays)
		fmt.Printf("Due today:     %d\n", o.TotalDue)
		fmt.Printf("Undoable now:  %d\n", s.Undoable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
