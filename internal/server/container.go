package server

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/repository"
	"github.com/noah-isme/crs-api/internal/service"
	"github.com/noah-isme/crs-api/pkg/config"
)

// Container holds the repositories and services shared by the REST and console adapters.
type Container struct {
	DB *sqlx.DB

	Courses       *repository.CourseRepository
	Semesters     *repository.SemesterRepository
	Students      *repository.StudentRepository
	Grades        *repository.GradeRepository
	Registrations *repository.RegistrationRepository

	Metrics       *service.MetricsService
	Cache         *service.CacheService
	Auth          *service.AuthService
	Notifications *service.NotificationService
	Catalogue     *service.CatalogueService
	Registration  *service.RegistrationService
	GradeCards    *service.GradeCardService
	SemesterAdmin *service.SemesterService
}

// NewContainer wires every service over db. redisClient may be nil, in which case the catalogue
// cache is kept in process and notifications are only stored.
func NewContainer(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{
		DB:            db,
		Courses:       repository.NewCourseRepository(db),
		Semesters:     repository.NewSemesterRepository(db),
		Students:      repository.NewStudentRepository(db),
		Grades:        repository.NewGradeRepository(db),
		Registrations: repository.NewRegistrationRepository(db),
		Metrics:       service.NewMetricsService(),
	}

	var cacheRepo service.CacheRepository = repository.NewMemoryCacheRepository(cfg.Catalogue.CacheTTL)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logger)
	}
	c.Cache = service.NewCacheService(cacheRepo, c.Metrics, cfg.Catalogue.CacheTTL, logger, true)

	c.Auth = service.NewAuthService(logger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	notificationRepo := repository.NewNotificationRepository(db)
	if redisClient != nil {
		c.Notifications = service.NewNotificationService(notificationRepo, redisClient, cfg.Notifications.Channel, logger)
	} else {
		c.Notifications = service.NewNotificationService(notificationRepo, nil, "", logger)
	}

	c.Catalogue = service.NewCatalogueService(c.Courses, c.Cache, cfg.Catalogue.CacheTTL, logger)
	c.Registration = service.NewRegistrationService(
		c.Registrations,
		c.Semesters,
		c.Students,
		c.Notifications,
		c.Cache,
		c.Metrics,
		cfg.Registration.SubmitRetries,
		nil,
		logger,
	)
	c.GradeCards = service.NewGradeCardService(c.Grades, c.Registration, logger)
	c.SemesterAdmin = service.NewSemesterService(c.Semesters, c.Cache, logger)
	return c
}
