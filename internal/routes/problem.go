package routes

import (
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/handlers"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterProblemRoutes(r gin.IRouter) {
	problems := r.Group("/problems")
	problems.Use(middleware.AuthMiddleware())
	{
		problems.GET("", handlers.ListProblems)
		problems.GET("/overview", handlers.GetOverview)
		problems.GET("/due", handlers.GetDueProblems)
		problems.GET("/stats", handlers.GetStats)
		problems.GET("/archive", handlers.GetArchive)
		problems.GET("/:id", handlers.GetProblem)

		mutations := problems.Group("")
		mutations.Use(middleware.MutationRateLimit())
		{
			mutations.POST("", handlers.CreateProblem)
			mutations.POST("/refresh", handlers.RefreshProblems)
			mutations.DELETE("/:id", handlers.DeleteProblem)
			mutations.POST("/:id/solve-again", handlers.SolveAgain)
			mutations.POST("/:id/undo", handlers.UndoRevision)
		}
	}
}
