package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/grievance_desk/backend/internal/config"
	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/http/handlers"
	"github.com/grievance_desk/backend/internal/http/middleware"
	"github.com/grievance_desk/backend/internal/service"

	_ "github.com/grievance_desk/backend/docs"
)

func Router(cfg config.Config, repo db.Repository, intake *service.IntakeService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Actor())
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id",
			middleware.ActorIDHeader, middleware.ActorRoleHeader, middleware.ActorUnitHeader,
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Repo:      repo,
		Intake:    intake,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/grievances", h.CreateGrievance)
		api.GET("/grievances", h.ListGrievances)
		api.GET("/grievances/:id", h.GrievanceDetails)
		api.POST("/grievances/:id/status", h.UpdateStatus)
		api.POST("/grievances/:id/feedback", h.SubmitFeedback)
		api.GET("/grievances/:id/routing", h.RoutingPreview)
		api.POST("/classify", h.Classify)
		api.GET("/runs/latest", h.RunsLatest)
		api.GET("/units", h.UnitsList)
		api.GET("/officers", h.OfficersList)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/grievances/:id/assign", h.AutoAssign)
		admin.POST("/grievances/:id/reassign", h.Reassign)
		admin.POST("/grievances/:id/triage", h.Retriage)
		admin.POST("/process", h.Process)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
