package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a batch touches a record that does not exist
// for the owner. The whole batch is rolled back.
var ErrNotFound = errors.New("record not found")

// ProblemRepository persists problems scoped by owner.
type ProblemRepository struct {
	db     *gorm.DB
	notify func(ctx context.Context, owner string)
}

func NewProblemRepository(db *gorm.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

// OnCommit registers fn to run after every successful write.
func (r *ProblemRepository) OnCommit(fn func(ctx context.Context, owner string)) {
	r.notify = fn
}

// List returns the owner's problems, most recently solved first.
func (r *ProblemRepository) List(ctx context.Context, owner string) ([]models.Problem, error) {
	var problems []models.Problem
	err := r.db.WithContext(ctx).
		Where("uid = ?", owner).
		Order("last_solved_at DESC").
		Order("created_at DESC").
		Order("id").
		Find(&problems).Error
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return problems, nil
}

// Get returns a single problem of the owner.
func (r *ProblemRepository) Get(ctx context.Context, owner, id string) (*models.Problem, error) {
	var p models.Problem
	err := r.db.WithContext(ctx).Where("uid = ? AND id = ?", owner, id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get problem: %w", err)
	}
	return &p, nil
}

func (r *ProblemRepository) Create(ctx context.Context, p *models.Problem) error {
	return r.Commit(ctx, NewBatch(p.Owner).Create(*p))
}

func (r *ProblemRepository) Delete(ctx context.Context, owner, id string) error {
	return r.Commit(ctx, NewBatch(owner).Delete(id))
}

// Commit applies every operation of b in one transaction.
func (r *ProblemRepository) Commit(ctx context.Context, b *Batch) error {
	if b == nil || len(b.ops) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range b.ops {
			if err := op(tx, b.owner); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if r.notify != nil {
		r.notify(ctx, b.owner)
	}
	return nil
}

type batchOp func(tx *gorm.DB, owner string) error

// Batch collects writes for one owner to be committed atomically.
type Batch struct {
	owner string
	ops   []batchOp
}

func NewBatch(owner string) *Batch {
	return &Batch{owner: owner}
}

func (b *Batch) Owner() string {
	return b.owner
}

// Len reports the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) Create(p models.Problem) *Batch {
	b.ops = append(b.ops, func(tx *gorm.DB, owner string) error {
		p.Owner = owner
		p.LastSolvedAt = p.LastSolvedAt.UTC()
		p.CreatedAt = p.CreatedAt.UTC()
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create problem: %w", err)
		}
		return nil
	})
	return b
}

// Increment adds delta to solve_count, never going below zero.
func (b *Batch) Increment(id string, delta int) *Batch {
	b.ops = append(b.ops, func(tx *gorm.DB, owner string) error {
		res := tx.Model(&models.Problem{}).
			Where("uid = ? AND id = ?", owner, id).
			Update("solve_count", gorm.Expr(
				"CASE WHEN solve_count + ? < 0 THEN 0 ELSE solve_count + ? END", delta, delta))
		return affected(res, "update solve count")
	})
	return b
}

// Touch sets last_solved_at.
func (b *Batch) Touch(id string, at time.Time) *Batch {
	b.ops = append(b.ops, func(tx *gorm.DB, owner string) error {
		res := tx.Model(&models.Problem{}).
			Where("uid = ? AND id = ?", owner, id).
			Update("last_solved_at", at.UTC())
		return affected(res, "touch problem")
	})
	return b
}

func (b *Batch) Delete(id string) *Batch {
	b.ops = append(b.ops, func(tx *gorm.DB, owner string) error {
		res := tx.Where("uid = ? AND id = ?", owner, id).Delete(&models.Problem{})
		return affected(res, "delete problem")
	})
	return b
}

func affected(res *gorm.DB, op string) error {
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
