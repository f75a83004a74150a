package main

import (
	"fmt"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/migrations"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Mail every account its due digest now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		job := services.NewDigestJob(env.users, env.repo, env.sched, services.NewMailer(env.cfg), env.loc, env.cfg.FrontendURL)
		sent, err := job.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("📬 %d digests sent\n", sent)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := migrations.Apply(env.db); err != nil {
			return err
		}
		applied, err := migrations.NewMigrator(env.db).Applied()
		if err != nil {
			return err
		}
		fmt.Println("✅ Schema up to date. Applied migrations:")
		for _, id := range applied {
			fmt.Println("  -", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(digestCmd, migrateCmd)
}
