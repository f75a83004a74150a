package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// ForEach calls fn for every user, in pages of batchSize.
func (r *UserRepository) ForEach(ctx context.Context, batchSize int, fn func(models.User) error) error {
	var users []models.User
	var fnErr error
	res := r.db.WithContext(ctx).FindInBatches(&users, batchSize, func(tx *gorm.DB, _ int) error {
		for _, u := range users {
			if err := fn(u); err != nil {
				fnErr = err
				return err
			}
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if res.Error != nil {
		return fmt.Errorf("iterate users: %w", res.Error)
	}
	return nil
}
