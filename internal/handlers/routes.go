package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/identity"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/utils"
	"gorm.io/gorm"
)

// Deps is everything the routes need.
type Deps struct {
	AuthService       *services.AuthService
	UserService       *services.UserService
	TeamService       *services.TeamService
	TaskService       *services.TaskService
	CommentService    *services.CommentService
	AttachmentService *services.AttachmentService

	Tokens *utils.TokenManager
	// Resolver resolves token subjects for every authenticated request.
	Resolver identity.Resolver
	// LocalIdentity answers the internal identity endpoint from this
	// instance's own store.
	LocalIdentity identity.Resolver
	DB            *gorm.DB
	ServiceKey    string

	// AuthRateLimit guards signup and login. Optional.
	AuthRateLimit gin.HandlerFunc
}

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r *gin.Engine, d Deps) {
	authHandler := NewAuthHandler(d.AuthService)
	userHandler := NewUserHandler(d.UserService)
	teamHandler := NewTeamHandler(d.TeamService)
	taskHandler := NewTaskHandler(d.TaskService)
	commentHandler := NewCommentHandler(d.CommentService)
	attachmentHandler := NewAttachmentHandler(d.AttachmentService)
	internalHandler := NewInternalHandler(d.LocalIdentity, d.DB)

	requireAuth := middleware.RequireAuth(d.Tokens, d.Resolver)

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	// Health check endpoint
	r.GET("/health", internalHandler.Health)

	internal := r.Group("/internal")
	internal.Use(middleware.RequireServiceKey(d.ServiceKey))
	{
		internal.GET("/users/:id", internalHandler.GetIdentity)
	}

	api := r.Group("/api")
	{
		// Auth routes (public except /me)
		auth := api.Group("/auth")
		if d.AuthRateLimit != nil {
			auth.Use(d.AuthRateLimit)
		}
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PATCH("/:id/activate", userHandler.ToggleActive)
			users.PATCH("/:id/role", userHandler.ChangeRole)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		teams := api.Group("/teams")
		teams.Use(requireAuth)
		{
			teams.GET("", teamHandler.ListTeams)
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("/available-members", teamHandler.AvailableMembers)
			teams.GET("/mine/leader", teamHandler.MyLedTeam)
			teams.GET("/mine/member", teamHandler.MyTeams)
			teams.GET("/:id", teamHandler.GetTeam)
			teams.PATCH("/:id", teamHandler.UpdateTeam)
			teams.DELETE("/:id", teamHandler.DeleteTeam)
			teams.POST("/:id/members", teamHandler.AddMember)
			teams.DELETE("/:id/members/:user_id", teamHandler.RemoveMember)
			teams.GET("/:id/tasks", taskHandler.ListTasks)
			teams.POST("/:id/tasks", taskHandler.CreateTask)
			teams.POST("/:id/tasks/generate", taskHandler.GenerateTasks)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.GET("/:id/comments", commentHandler.ListComments)
			tasks.POST("/:id/comments", commentHandler.CreateComment)
			tasks.GET("/:id/attachments", attachmentHandler.ListAttachments)
			tasks.POST("/:id/attachments", attachmentHandler.UploadAttachment)
		}

		comments := api.Group("/comments")
		comments.Use(requireAuth)
		{
			comments.PATCH("/:id", commentHandler.UpdateComment)
			comments.DELETE("/:id", commentHandler.DeleteComment)
		}

		attachments := api.Group("/attachments")
		attachments.Use(requireAuth)
		{
			attachments.GET("/:id/download", attachmentHandler.DownloadAttachment)
		}
	}
}
