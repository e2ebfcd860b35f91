package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/egradu-api/internal/handler"
	internalmiddleware "github.com/noah-isme/egradu-api/internal/middleware"
	"github.com/noah-isme/egradu-api/internal/models"
	"github.com/noah-isme/egradu-api/pkg/config"
)

type routeHandlers struct {
	auth      *handler.AuthHandler
	projects  *handler.ProjectHandler
	documents *handler.DocumentHandler
	workflow  *handler.WorkflowHandler
	metrics   *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers, tokens internalmiddleware.TokenValidator) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)
	// the signed token is the credential
	api.GET("/files/:token", h.documents.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(tokens))
	secured.GET("/auth/me", h.auth.Me)
	secured.GET("/supervisors", h.projects.Supervisors)

	student := internalmiddleware.RequireRoles(models.RoleStudent)
	teacher := internalmiddleware.RequireRoles(models.RoleTeacher)

	projects := secured.Group("/projects")
	projects.POST("", student, h.projects.Create)
	projects.GET("/mine", student, h.projects.Mine)
	projects.GET("/:id", h.projects.Get)
	projects.GET("/:id/statement.pdf", teacher, h.projects.Statement)
	projects.POST("/:id/documents", student, h.documents.Upload)
	projects.POST("/:id/language-check", teacher, h.workflow.LanguageCheck)
	projects.POST("/:id/start-review", teacher, h.workflow.StartReview)
	projects.POST("/:id/reviewers", teacher, h.workflow.AssignReviewers)
	projects.POST("/:id/send-to-plagiarism", teacher, h.workflow.SendToPlagiarism)
	projects.POST("/:id/plagiarism", teacher, h.workflow.ImportPlagiarism)
	projects.POST("/:id/evaluations", teacher, h.workflow.Evaluate)
	projects.POST("/:id/decision", teacher, h.workflow.Decide)

	documents := secured.Group("/documents")
	documents.GET("/:id", h.documents.Detail)
	documents.POST("/:id/comments", h.documents.Comment)
	documents.POST("/:id/submit", student, h.workflow.SubmitDocument)

	secured.GET("/teacher/queue", teacher, h.projects.Queue)
}
