package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/crs-api/api/swagger"
	"github.com/noah-isme/crs-api/internal/handler"
	"github.com/noah-isme/crs-api/internal/middleware"
	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/pkg/config"
	"github.com/noah-isme/crs-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/crs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/crs-api/pkg/middleware/requestid"
)

// NewRouter assembles the REST adapter over the container's services.
func NewRouter(cfg *config.Config, c *Container, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(c.Metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(c.Metrics, c.DB)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Docs.Enabled || cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	catalogueHandler := handler.NewCatalogueHandler(c.Catalogue)
	semesterHandler := handler.NewSemesterHandler(c.SemesterAdmin)
	registrationHandler := handler.NewRegistrationHandler(c.Registration)
	gradeCardHandler := handler.NewGradeCardHandler(c.GradeCards)
	notificationHandler := handler.NewNotificationHandler(c.Notifications)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(c.Auth))

	api.GET("/courses", catalogueHandler.List)
	api.GET("/courses/:id", catalogueHandler.Get)
	api.GET("/semesters", semesterHandler.List)
	api.GET("/semesters/active", semesterHandler.Active)

	student := api.Group("/student", middleware.StudentIdentity())
	student.POST("/selections", registrationHandler.AddSelection)
	student.GET("/selections", registrationHandler.ListSelections)
	student.DELETE("/selections/:courseId", registrationHandler.DropSelection)
	student.GET("/registration", registrationHandler.Registration)
	student.POST("/registration/submit", registrationHandler.Submit)
	student.GET("/fee", registrationHandler.PendingFee)
	student.POST("/fee/payments", registrationHandler.PayFee)
	student.GET("/gradecard", gradeCardHandler.GradeCard)
	student.GET("/notifications", notificationHandler.List)

	admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/semesters/:id/activate", semesterHandler.Activate)
	admin.GET("/metrics", metricsHandler.Snapshot)

	return r
}
