package main

import (
	"fmt"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	addDifficulty string
	addPlatform   string
	addTags       string
)

var addCmd = &cobra.Command{
	Use:   "add [problem name or URL]",
	Short: "Record a problem solved today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Add(cmd.Context(), services.ProblemInput{
			Problem:    args[0],
			Difficulty: addDifficulty,
			Platform:   addPlatform,
			Tags:       utils.SplitTags(addTags),
		})
		if err != nil {
			return err
		}

		fmt.Printf("✅ Added %s '%s' (next revision: %s)\n",
			shortID(p.ID), p.ProblemText, env.sched.NextDue(p).In(env.loc).Format("2006-01-02"))
		return nil
	},
}

var solveCmd = &cobra.Command{
	Use:   "solve [id]",
	Short: "Record another solve of a problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := resolveID(store, args[0])
		if err != nil {
			return err
		}
		rev, err := store.SolveAgain(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("🔄 Revision %s recorded for '%s'. Undo within %s with `revise undo %s`.\n",
			shortID(rev.ID), rev.ProblemText, store.Policy().Window, shortID(rev.ID))
		return nil
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo [revision id]",
	Short: "Undo a revision recorded moments ago",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := resolveID(store, args[0])
		if err != nil {
			return err
		}
		if err := store.UndoRevision(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("↩️  Revision %s undone\n", shortID(id))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one record; its revisions or original are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := resolveID(store, args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("🗑️  Deleted %s\n", shortID(id))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd, solveCmd, undoCmd, deleteCmd)

	addCmd.Flags().StringVarP(&addDifficulty, "difficulty", "d", "", "easy, medium or hard")
	addCmd.Flags().StringVarP(&addPlatform, "platform", "p", "", "where the problem lives (e.g. LeetCode)")
	addCmd.Flags().StringVarP(&addTags, "tags", "t", "", "comma-separated tags (e.g. arrays,dp)")
}
