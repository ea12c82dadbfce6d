package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stekatag/project-management-app/internal/handlers"
	"github.com/stekatag/project-management-app/internal/middleware"
	"github.com/stekatag/project-management-app/internal/storage"
)

// SetupRoutes builds the router: CORS, health check, public auth
// routes, the protected API surface and the public storage disk.
func SetupRoutes(disk *storage.Disk) *gin.Engine {
	router := gin.Default()

	// CORS middleware (for frontend integration)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, User-Timezone")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Publicly served uploaded files
	router.Static("/storage", disk.Root)

	api := router.Group("/api")
	{
		api.POST("/auth/register", handlers.Register)
		api.POST("/auth/login", handlers.Login)
		api.POST("/auth/social/callback", handlers.SocialCallback)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/dashboard", handlers.GetDashboard)

		// Projects and membership lifecycle
		protected.GET("/projects", handlers.GetProjects)
		protected.POST("/projects", handlers.CreateProject)
		protected.GET("/projects/:id", handlers.GetProject)
		protected.PUT("/projects/:id", handlers.UpdateProject)
		protected.DELETE("/projects/:id", handlers.DeleteProject)
		protected.POST("/projects/:id/invite", handlers.InviteUser)
		protected.POST("/projects/:id/accept-invitation", handlers.AcceptInvitation)
		protected.POST("/projects/:id/reject-invitation", handlers.RejectInvitation)
		protected.POST("/projects/:id/leave", handlers.LeaveProject)
		protected.GET("/projects/:id/check-role", handlers.CheckRole)
		protected.GET("/projects/:id/check-invitation", handlers.CheckInvitation)
		protected.POST("/projects/:id/kick-members", handlers.KickMembers)
		protected.PATCH("/projects/:id/user-role", handlers.UpdateUserRole)
		protected.GET("/projects/:id/members", handlers.GetProjectMembers)
		protected.DELETE("/projects/:id/image", handlers.DeleteProjectImage)
		protected.GET("/invitations", handlers.GetInvitations)

		// Tasks
		protected.GET("/tasks", handlers.GetTasks)
		protected.POST("/tasks", handlers.CreateTask)
		protected.GET("/tasks/:id", handlers.GetTask)
		protected.PUT("/tasks/:id", handlers.UpdateTask)
		protected.DELETE("/tasks/:id", handlers.DeleteTask)
		protected.DELETE("/tasks/:id/image", handlers.DeleteTaskImage)
		protected.GET("/tasks/:id/history", handlers.GetTaskHistory)
		protected.GET("/my-tasks", handlers.GetMyTasks)
		protected.GET("/task-options", handlers.GetTaskOptions)

		// Comments
		protected.GET("/tasks/:id/comments", handlers.GetComments)
		protected.POST("/tasks/:id/comments", handlers.CreateComment)
		protected.PUT("/comments/:id", handlers.UpdateComment)
		protected.DELETE("/comments/:id", handlers.DeleteComment)

		// Task labels
		protected.GET("/labels", handlers.GetLabels)
		protected.POST("/labels", handlers.CreateLabel)
		protected.GET("/labels/:id", handlers.GetLabel)
		protected.PUT("/labels/:id", handlers.UpdateLabel)
		protected.DELETE("/labels/:id", handlers.DeleteLabel)
		protected.GET("/label-search", handlers.SearchLabels)

		// Users
		protected.GET("/users", handlers.GetUsers)
		protected.GET("/user-search", handlers.SearchUsers)

		// Realtime events
		protected.GET("/ws", handlers.WebSocketHandler)
	}

	return router
}
