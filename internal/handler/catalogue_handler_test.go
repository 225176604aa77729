package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crs-api/internal/middleware"
	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/service"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

type fakeCatalogueSrv struct {
	filter models.CourseFilter
	hit    bool
}

func (f *fakeCatalogueSrv) List(_ context.Context, filter models.CourseFilter) ([]service.CourseView, *models.Pagination, bool, error) {
	f.filter = filter
	views := []service.CourseView{{Course: models.Course{ID: "c1", Code: "CS101"}, Available: true, SeatsLeft: 4}}
	return views, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, f.hit, nil
}

func (f *fakeCatalogueSrv) Get(_ context.Context, id string) (*service.CourseView, bool, error) {
	if id != "c1" {
		return nil, false, appErrors.ErrNotFound
	}
	return &service.CourseView{Course: models.Course{ID: "c1"}}, f.hit, nil
}

func catalogueRouter(srv catalogueService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewCatalogueHandler(srv)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.GET("/courses", handler.List)
	router.GET("/courses/:id", handler.Get)
	return router
}

func TestCatalogueHandlerListReportsCacheHit(t *testing.T) {
	srv := &fakeCatalogueSrv{hit: true}
	router := catalogueRouter(srv)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses?search=cs&available=true&page=2&page_size=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cs", srv.filter.Search)
	assert.True(t, srv.filter.AvailableOnly)
	assert.Equal(t, 2, srv.filter.Page)
	assert.Equal(t, 5, srv.filter.PageSize)

	var body struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]interface{}   `json:"pagination"`
		Meta       map[string]interface{}   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, true, body.Data[0]["available"])
	assert.Equal(t, true, body.Meta["cache_hit"])
	assert.NotNil(t, body.Pagination)
}

func TestCatalogueHandlerGet(t *testing.T) {
	router := catalogueRouter(&fakeCatalogueSrv{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/c1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/c9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogueHandlerRejectsBadQuery(t *testing.T) {
	router := catalogueRouter(&fakeCatalogueSrv{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses?page=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
