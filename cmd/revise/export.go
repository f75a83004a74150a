package main

import (
	"fmt"
	"os"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/export"
	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the archive and today's due list to an .xlsx workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		if err := export.WriteArchive(f, store.Problems(), env.sched, store.Now()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Printf("📦 Exported %d records to %s\n", len(store.Problems()), exportOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "revision-archive.xlsx", "output file")
}
