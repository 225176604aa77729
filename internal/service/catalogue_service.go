package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type catalogueCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// CourseView is a catalogue entry with its derived availability.
type CourseView struct {
	models.Course
	Available bool `json:"available"`
	SeatsLeft int  `json:"seats_left"`
}

type cataloguePage struct {
	Courses    []CourseView      `json:"courses"`
	Pagination models.Pagination `json:"pagination"`
}

// CatalogueService is a read-only, cached view over the course catalogue.
type CatalogueService struct {
	repo   courseRepository
	cache  catalogueCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogueService constructs CatalogueService.
func NewCatalogueService(repo courseRepository, cache catalogueCache, ttl time.Duration, logger *zap.Logger) *CatalogueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogueService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns catalogue entries with pagination metadata and whether they came from the cache.
func (s *CatalogueService) List(ctx context.Context, filter models.CourseFilter) ([]CourseView, *models.Pagination, bool, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	key := fmt.Sprintf("catalogue:list:%s:%t:%d:%d", strings.ToLower(strings.TrimSpace(filter.Search)), filter.AvailableOnly, filter.Page, filter.PageSize)

	var cached cataloguePage
	if s.lookup(ctx, key, &cached) {
		pagination := cached.Pagination
		return cached.Courses, &pagination, true, nil
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	views := make([]CourseView, 0, len(courses))
	for _, course := range courses {
		views = append(views, newCourseView(course))
	}
	page := cataloguePage{
		Courses:    views,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}
	s.store(ctx, key, page)
	return page.Courses, &page.Pagination, false, nil
}

// Get returns a single catalogue entry and whether it came from the cache.
func (s *CatalogueService) Get(ctx context.Context, id string) (*CourseView, bool, error) {
	key := "catalogue:course:" + id
	var cached CourseView
	if s.lookup(ctx, key, &cached) {
		return &cached, true, nil
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.WithDetails(appErrors.ErrNotFound, "course not found", map[string]interface{}{"course_id": id})
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	view := newCourseView(*course)
	s.store(ctx, key, view)
	return &view, false, nil
}

// Invalidate drops every cached catalogue entry.
func (s *CatalogueService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, catalogueCachePattern)
}

func (s *CatalogueService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Debug("catalogue cache lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *CatalogueService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Debug("catalogue cache store failed", zap.String("key", key), zap.Error(err))
	}
}

func newCourseView(course models.Course) CourseView {
	return CourseView{Course: course, Available: course.HasSeat(), SeatsLeft: course.SeatsLeft()}
}
