package seeds

import (
	"context"
	"errors"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DemoEmail    = "demo@revision-mania.app"
	DemoPassword = "RevisionMania2024!"
)

// GetOrCreateDemoUser returns the demo account, creating it on first use.
func GetOrCreateDemoUser(ctx context.Context, db *gorm.DB) (models.User, error) {
	logger.Info().Msg("👤 Checking demo user...")

	users := repository.NewUserRepository(db)
	existing, err := users.FindByEmail(ctx, DemoEmail)
	if err == nil {
		logger.Info().Str("email", existing.Email).Msg("   ✅ Demo user found")
		return *existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:       DemoEmail,
		DisplayName: "Demo Reviser",
		Password:    string(hash),
		Image:       "https://api.dicebear.com/7.x/identicon/svg?seed=revision-mania",
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, err
	}

	logger.Info().Str("email", user.Email).Msg("   ✅ Demo user created")
	return user, nil
}
