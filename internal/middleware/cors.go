package middleware

import (
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const devFrontendURL = "http://localhost:5173"

func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     AllowedOrigins(config.AppConfig),
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// AllowedOrigins is the configured front-end plus the Vite dev server,
// without duplicates. The socket server checks origins against it too.
func AllowedOrigins(cfg *config.Config) []string {
	origins := []string{devFrontendURL}
	if cfg != nil && cfg.FrontendURL != "" && cfg.FrontendURL != devFrontendURL {
		origins = append([]string{cfg.FrontendURL}, origins...)
	}
	return origins
}
