package server

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/letterloop-backend/internal/http/handlers"
	"github.com/yungbote/letterloop-backend/internal/http/middleware"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware

	Health      *handlers.HealthHandler
	Rounds      *handlers.RoundsHandler
	Setup       *handlers.SetupHandler
	Draw        *handlers.DrawHandler
	Ideas       *handlers.IdeasHandler
	Preferences *handlers.PreferencesHandler
	Profile     *handlers.ProfileHandler
	SavedIdeas  *handlers.SavedIdeasHandler
	Membership  *handlers.MembershipHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS())

	// Public
	router.GET("/healthcheck", cfg.Health.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireSession())

	// Membership
	api.GET("/environments", cfg.Membership.ListEnvironments)

	// Setup and settings
	api.POST("/setup", cfg.Setup.Initialize)
	api.GET("/settings", cfg.Setup.GetSettings)
	api.PUT("/settings/member-order", cfg.Setup.UpdateMemberOrder)
	api.PUT("/settings/mode", cfg.Setup.SetMode)
	api.POST("/settings/reset-rounds", cfg.Setup.ResetRounds)

	// Rounds
	api.GET("/rounds", cfg.Rounds.GetRounds)
	api.GET("/rounds/:letter", cfg.Rounds.GetRound)
	api.PUT("/rounds/:letter/proposal", cfg.Rounds.SetProposal)
	api.PUT("/rounds/:letter/date", cfg.Rounds.SetDate)
	api.PUT("/rounds/:letter/notes", cfg.Rounds.SetNotes)
	api.PUT("/rounds/:letter/retrospective", cfg.Rounds.SetRetrospective)
	api.POST("/rounds/:letter/images", cfg.Rounds.AddImage)
	api.POST("/rounds/:letter/finalize", cfg.Rounds.FinalizePlanning)
	api.POST("/rounds/:letter/complete", cfg.Rounds.MarkComplete)
	api.POST("/rounds/:letter/reset", cfg.Rounds.ResetRound)
	api.POST("/rounds/:letter/rating", cfg.Rounds.SubmitRating)

	// Draw
	api.GET("/draw/can", cfg.Draw.CanDraw)
	api.POST("/draw", cfg.Draw.Draw)

	// Ideas
	api.GET("/rounds/:letter/ideas", cfg.Ideas.GetCached)
	api.GET("/rounds/:letter/ideas/stream", cfg.Ideas.StreamIdeas)
	api.POST("/rounds/:letter/ideas/generate", cfg.Ideas.Generate)
	api.POST("/ideas/prefetch", cfg.Ideas.Prefetch)

	// Preferences and profile
	api.GET("/preferences", cfg.Preferences.GetPreferences)
	api.PUT("/preferences", cfg.Preferences.PutPreferences)
	api.GET("/profile", cfg.Profile.GetProfile)
	api.POST("/profile/feedback", cfg.Profile.SubmitFeedback)

	// Saved ideas
	api.GET("/saved-ideas", cfg.SavedIdeas.ListSavedIdeas)
	api.POST("/saved-ideas", cfg.SavedIdeas.SaveIdea)

	return router
}
