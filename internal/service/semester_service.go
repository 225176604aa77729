package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

type semesterRepository interface {
	List(ctx context.Context) ([]models.Semester, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	FindActive(ctx context.Context) (*models.Semester, error)
	SetActive(ctx context.Context, id string) error
}

// SemesterService exposes semester lookups and the admin rollover.
type SemesterService struct {
	repo   semesterRepository
	cache  cacheInvalidator
	logger *zap.Logger
}

// NewSemesterService constructs SemesterService.
func NewSemesterService(repo semesterRepository, cache cacheInvalidator, logger *zap.Logger) *SemesterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, cache: cache, logger: logger}
}

// List returns all semesters.
func (s *SemesterService) List(ctx context.Context) ([]models.Semester, error) {
	semesters, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	if semesters == nil {
		semesters = []models.Semester{}
	}
	return semesters, nil
}

// Active returns the semester registrations currently apply to.
func (s *SemesterService) Active(ctx context.Context) (*models.Semester, error) {
	semester, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoActiveSemester
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active semester")
	}
	return semester, nil
}

// Activate makes id the active semester. Registrations of the previous semester are superseded,
// never deleted.
func (s *SemesterService) Activate(ctx context.Context, id string) (*models.Semester, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetails(appErrors.ErrNotFound, "semester not found", map[string]interface{}{"semester_id": id})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	if err := s.repo.SetActive(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate semester")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, catalogueCachePattern); err != nil {
			s.logger.Warn("catalogue cache invalidation failed", zap.Error(err))
		}
	}
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	s.logger.Info("semester activated", zap.String("semester_id", id), zap.String("name", semester.Name))
	return semester, nil
}
