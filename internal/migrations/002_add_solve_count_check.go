package migrations

import (
	"gorm.io/gorm"
)

const solveCountConstraint = "chk_problems_solve_count_non_negative"

// Migration002AddSolveCountCheck rejects negative solve counts at the storage
// layer. SQLite cannot add constraints to an existing table, so the step is a
// no-op there and the clamp in the repository is the only guard.
func Migration002AddSolveCountCheck() Migration {
	return Migration{
		ID:        "002_add_solve_count_check",
		Name:      "Add non-negative solve_count check",
		DependsOn: []string{"001_add_problem_indexes"},
		Up: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}
			// Repair rows written before the clamp existed.
			if err := db.Exec(`UPDATE problems SET solve_count = 0 WHERE solve_count < 0`).Error; err != nil {
				return err
			}
			return db.Exec(`
				DO $$
				BEGIN
					IF NOT EXISTS (
						SELECT 1 FROM pg_constraint WHERE conname = '` + solveCountConstraint + `'
					) THEN
						ALTER TABLE problems
						ADD CONSTRAINT ` + solveCountConstraint + ` CHECK (solve_count >= 0);
					END IF;
				END $$;
			`).Error
		},
		Down: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}
			return db.Exec(`ALTER TABLE problems DROP CONSTRAINT IF EXISTS ` + solveCountConstraint).Error
		},
	}
}
