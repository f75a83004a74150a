package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/handlers"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/middleware"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
)

// NewRouter builds the HTTP surface. socketServer may be nil.
func NewRouter(socketServer *socketio.Server) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware())

	// Exempt /socket.io from rate limiting
	general := middleware.GeneralRateLimit()
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io/") {
			c.Next()
			return
		}
		general(c)
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		RegisterAuthRoutes(auth)

		RegisterProblemRoutes(api)
	}

	r.GET("/health", healthCheck)

	if socketServer != nil {
		r.GET("/socket.io/*any", handlers.SocketHandler(socketServer))
		r.POST("/socket.io/*any", handlers.SocketHandler(socketServer))
	}

	return r
}

// healthCheck reports database and Redis status.
func healthCheck(c *gin.Context) {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "error"
	}

	redisStatus := "not configured"
	if database.Redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		redisStatus = "ok"
		if err := database.Redis.Ping(ctx).Err(); err != nil {
			redisStatus = "error"
		}
	}

	status := "ok"
	if dbStatus != "ok" || redisStatus == "error" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"checks": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
