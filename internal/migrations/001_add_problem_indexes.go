package migrations

import (
	"gorm.io/gorm"
)

// Migration001AddProblemIndexes adds the indexes AutoMigrate does not derive
// from struct tags:
// 1. Archive grouping (uid, created_at)
// 2. Lineage lookups when undoing a revision (uid, original_problem_id)
//
// Both are idempotent and run on Postgres and SQLite alike.
func Migration001AddProblemIndexes() Migration {
	return Migration{
		ID:   "001_add_problem_indexes",
		Name: "Add archive and lineage indexes on problems",
		Up: func(db *gorm.DB) error {
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_problems_owner_created ON problems (uid, created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_problems_owner_original ON problems (uid, original_problem_id)`,
			}
			for _, stmt := range stmts {
				if err := db.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			if err := db.Exec(`DROP INDEX IF EXISTS idx_problems_owner_created`).Error; err != nil {
				return err
			}
			return db.Exec(`DROP INDEX IF EXISTS idx_problems_owner_original`).Error
		},
	}
}
