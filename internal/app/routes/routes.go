package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/moderator/internal/app/controllers"
	"github.com/yigit/moderator/internal/middleware"
	"github.com/yigit/moderator/internal/pkg/websocket"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth     *controllers.AuthController
	Event    *controllers.EventController
	Question *controllers.QuestionController
	User     *controllers.UserController
	Export   *controllers.ExportController
	Live     *websocket.Handler
	Health   *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/dev-login/:username", c.Auth.DevLogin)
	}

	v1.GET("/health", c.Health.Check)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	events := authenticated.Group("/events")
	{
		events.GET("", c.Event.ListOpenEvents)
		events.GET("/archive", c.Event.ListArchivedEvents)
		events.POST("", c.Event.CreateEvent)
		events.GET("/:slug", c.Event.ShowEvent)
		events.PUT("/:slug", c.Event.UpdateEvent)
		events.DELETE("/:slug", c.Event.DeleteEvent)

		events.POST("/:slug/questions", c.Question.SubmitQuestion)
		events.PUT("/:slug/questions/:questionId", c.Question.ReplyQuestion)

		events.GET("/:slug/live", c.Live.HandleConnection)

		events.GET("/:slug/moderation", c.Event.ModerationQueue)
		events.POST("/:slug/moderation/questions/:questionId", c.Question.ModerateQuestion)
	}

	authenticated.POST("/questions/:questionId/vote", c.Question.ToggleVote)

	users := authenticated.Group("/users")
	{
		users.GET("/me", c.User.Me)
		users.GET("/autocomplete", c.User.Autocomplete)
	}

	admin := authenticated.Group("/admin")
	admin.Use(middleware.SuperuserRequired())
	{
		admin.GET("/events/export", c.Export.ExportQuestions)
	}
}
