package routes

import (
	"diwan-api/controllers"
	"diwan-api/middleware"
	"diwan-api/models"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every controller the route table needs.
type Handlers struct {
	Auth          *controllers.AuthController
	Submissions   *controllers.SubmissionController
	Reviews       *controllers.ReviewController
	Categories    *controllers.CategoryController
	Notifications *controllers.NotificationController
	Authenticator middleware.Authenticator
	Health        gin.HandlerFunc
	Logs          gin.HandlerFunc
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	reviewers := middleware.RequireRole(models.RoleContentAuditor, models.RoleTechnicalAuditor, models.RoleAdmin)
	contributors := middleware.RequireRole(models.RoleContributor)
	admins := middleware.RequireRole(models.RoleAdmin)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", h.Auth.Login)
			public.POST("/register", h.Auth.Register)

			// Published content
			public.GET("/content", h.Submissions.ListPublished)
			public.GET("/content/search", h.Submissions.Search)
			public.GET("/content/:slug", h.Submissions.GetBySlug)

			public.GET("/categories", h.Categories.List)
			public.GET("/categories/:slug", h.Categories.GetBySlug)

			// Health check
			public.GET("/health", h.Health)
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(h.Authenticator))
		{
			// User profile
			protected.GET("/profile", h.Auth.GetProfile)
			protected.PUT("/profile", h.Auth.UpdateProfile)
			protected.PUT("/change-password", h.Auth.ChangePassword)

			// Notifications
			protected.GET("/notifications", h.Notifications.List)
			protected.PATCH("/notifications/read-all", h.Notifications.MarkAllRead)
			protected.PATCH("/notifications/:id/read", h.Notifications.MarkRead)

			submissions := protected.Group("/submissions")
			{
				submissions.GET("/mine", contributors, h.Submissions.ListMine)
				submissions.POST("", contributors, h.Submissions.Create)
				submissions.GET("/:id", h.Submissions.Get)
				submissions.GET("/:id/history", h.Reviews.History)
				submissions.PUT("/:id", contributors, h.Submissions.Update)
				submissions.DELETE("/:id", contributors, h.Submissions.Delete)
				submissions.POST("/:id/submit", contributors, h.Submissions.Submit)
				submissions.POST("/:id/resubmit", contributors, h.Submissions.Resubmit)
			}

			reviews := protected.Group("/reviews", reviewers)
			{
				reviews.GET("/pending", h.Reviews.Pending)
				reviews.GET("/pending/count", h.Reviews.PendingCount)
				reviews.POST("/:id/decision", h.Reviews.Decide)
			}

			admin := protected.Group("/admin", admins)
			{
				admin.GET("/statistics", h.Reviews.Statistics)
				admin.GET("/logs", h.Logs)
				admin.POST("/submissions/:id/publish", h.Reviews.Publish)
				admin.POST("/submissions/:id/unpublish", h.Reviews.Unpublish)

				admin.POST("/categories", h.Categories.Create)
				admin.PUT("/categories/:id", h.Categories.Update)
				admin.DELETE("/categories/:id", h.Categories.Delete)

				admin.GET("/users", h.Auth.ListUsers)
				admin.GET("/users/:id", h.Auth.GetUser)
				admin.PUT("/users/:id/role", h.Auth.ChangeRole)
				admin.DELETE("/users/:id", h.Auth.DeleteUser)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Endpoint not found"})
	})
}
