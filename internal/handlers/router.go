package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/caseprep/practice-service/internal/config"
	"github.com/caseprep/practice-service/internal/services"
	"github.com/caseprep/practice-service/internal/utils"
)

type HandlerManager struct {
	moduleHandler  *ModuleHandler
	runHandler     *RunHandler
	sessionHandler *SessionHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		moduleHandler:  NewModuleHandler(serviceManager.Module(), serviceManager.ImportExport(), logger),
		runHandler:     NewRunHandler(serviceManager.Run(), logger),
		sessionHandler: NewSessionHandler(serviceManager.Session(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, cfg *config.Config, logger utils.Logger, users UserProvisioner) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "practice-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(cfg, logger, users))
	{
		// Module catalog and authoring
		modules := v1.Group("/modules")
		{
			modules.POST("", hm.moduleHandler.CreateModule)
			modules.GET("", hm.moduleHandler.ListModules)
			modules.GET("/:id", hm.moduleHandler.GetModule)
			modules.GET("/:id/details", hm.moduleHandler.GetModuleWithParts)
			modules.PUT("/:id", hm.moduleHandler.UpdateModule)
			modules.DELETE("/:id", hm.moduleHandler.DeleteModule)
			modules.POST("/:id/publish", hm.moduleHandler.PublishModule)
			modules.POST("/:id/archive", hm.moduleHandler.ArchiveModule)

			// Part authoring
			modules.POST("/:id/parts", hm.moduleHandler.AddPart)
			modules.PUT("/:id/parts/:part_id", hm.moduleHandler.UpdatePart)
			modules.DELETE("/:id/parts/:part_id", hm.moduleHandler.DeletePart)
			modules.PUT("/:id/parts/reorder", hm.moduleHandler.ReorderParts)

			// Bulk authoring
			modules.POST("/:id/parts/import", hm.moduleHandler.ImportParts)
			modules.GET("/:id/parts/export", hm.moduleHandler.ExportParts)

			// Interactive module run
			run := modules.Group("/:id/run")
			{
				run.POST("/start", hm.runHandler.StartRun)
				run.GET("", hm.runHandler.GetRun)
				run.PUT("/input", hm.runHandler.SetInput)
				run.POST("/submit", hm.runHandler.SubmitAttempt)
				run.POST("/retry", hm.runHandler.RetryPart)
				run.POST("/skip", hm.runHandler.SkipPart)
				run.POST("/advance", hm.runHandler.Advance)
				run.POST("/retreat", hm.runHandler.Retreat)
				run.DELETE("", hm.runHandler.AbandonRun)
			}
		}

		// Case-interview sessions
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start", hm.sessionHandler.StartSession)
			sessions.GET("/current", hm.sessionHandler.GetSessionState)
			sessions.POST("/current/questions", hm.sessionHandler.SubmitQuestion)
			sessions.POST("/current/framework", hm.sessionHandler.SubmitFramework)
			sessions.POST("/current/complete", hm.sessionHandler.CompleteSession)
			sessions.POST("/current/reset", hm.sessionHandler.ResetSession)

			// Review surface
			sessions.GET("", hm.sessionHandler.ListMySessions)
			sessions.GET("/:session_id", hm.sessionHandler.GetSession)
		}
	}
}
