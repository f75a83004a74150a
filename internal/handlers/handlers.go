package handlers

import (
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	apperrors "github.com/VeerPalSingh-0000/Revision-Mania/pkg/errors"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Shared collaborators, wired once at startup by Setup.
var (
	Stores  *services.StoreRegistry
	AuthHub *services.AuthStateHub = services.NewAuthStateHub(nil)
	Mailer  services.Mailer        = services.LogMailer{}
)

func Setup(stores *services.StoreRegistry, hub *services.AuthStateHub, mailer services.Mailer) {
	Stores = stores
	if hub != nil {
		AuthHub = hub
	}
	if mailer != nil {
		Mailer = mailer
	}
}

// fail renders err as {success, kind, error} with the AppError's status.
func fail(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr.Kind == apperrors.KindInternal || appErr.Kind == apperrors.KindPersistence {
		logger.Error().Err(appErr.Unwrap()).Str("path", c.Request.URL.Path).Msg(appErr.Message)
	}
	c.JSON(appErr.Code, gin.H{
		"success": false,
		"kind":    appErr.Kind,
		"error":   appErr.Message,
	})
}

func badRequest(c *gin.Context, msg string) {
	fail(c, apperrors.Validation(msg))
}

// requestLocation is the ?tz= location, or the configured TIMEZONE.
func requestLocation(c *gin.Context) (*time.Location, error) {
	return parseLocation(c.Query("tz"))
}

// parseLocation resolves a caller supplied IANA zone, falling back to the
// configured one when tz is empty.
func parseLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return config.AppConfig.Location(), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apperrors.Validation("Unknown time zone: " + tz)
	}
	return loc, nil
}

