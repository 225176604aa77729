package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/service"
)

func newTokenService() *service.AuthService {
	return service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Minute, Issuer: "crs"})
}

func studentRouter(auth *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", JWT(auth), StudentIdentity(), func(c *gin.Context) {
		id, _ := StudentID(c)
		c.String(http.StatusOK, id)
	})
	router.GET("/admin", JWT(auth), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func serve(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTStudentIdentity(t *testing.T) {
	auth := newTokenService()
	router := studentRouter(auth)

	token, _, err := auth.IssueToken(service.TokenSubject{UserID: "stu-1", Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	recorder := serve(router, "/me", "Bearer "+token)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if recorder.Body.String() != "stu-1" {
		t.Fatalf("unexpected student id: %s", recorder.Body.String())
	}
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	router := studentRouter(newTokenService())

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer not-a-jwt"} {
		recorder := serve(router, "/me", header)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: unexpected status %d", header, recorder.Code)
		}
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Error.Code != "UNAUTHORIZED" {
			t.Fatalf("header %q: unexpected code %s", header, body.Error.Code)
		}
	}
}

func TestRoleChecks(t *testing.T) {
	auth := newTokenService()
	router := studentRouter(auth)

	admin, _, err := auth.IssueToken(service.TokenSubject{UserID: "adm-1", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	student, _, err := auth.IssueToken(service.TokenSubject{UserID: "stu-1", Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if code := serve(router, "/admin", "Bearer "+admin).Code; code != http.StatusNoContent {
		t.Fatalf("admin: unexpected status %d", code)
	}
	if code := serve(router, "/admin", "Bearer "+student).Code; code != http.StatusForbidden {
		t.Fatalf("student on admin route: unexpected status %d", code)
	}
	if code := serve(router, "/me", "Bearer "+admin).Code; code != http.StatusForbidden {
		t.Fatalf("admin on student route: unexpected status %d", code)
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, method+" "+path)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, "/courses/c1", "")
	serve(router, "/nowhere", "")

	if len(observer.paths) != 2 {
		t.Fatalf("expected two observations, got %d", len(observer.paths))
	}
	if observer.paths[0] != "GET /courses/:id" {
		t.Fatalf("unexpected path label: %s", observer.paths[0])
	}
	if observer.paths[1] != "GET unmatched" {
		t.Fatalf("unexpected path label: %s", observer.paths[1])
	}
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})
	serve(router, "/", "")

	if meta[cacheHitKey] != true {
		t.Fatalf("expected cache hit flag, got %v", meta)
	}
	if _, ok := meta["processing_time_ms"]; !ok {
		t.Fatalf("expected processing time, got %v", meta)
	}
	if _, ok := meta["started_at"]; ok {
		t.Fatalf("start time must not be rendered")
	}
}
