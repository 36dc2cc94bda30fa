package controller_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/dataeng/api/audit"
	"github.com/dev-mohitbeniwal/dataeng/api/controller"
	"github.com/dev-mohitbeniwal/dataeng/api/db"
	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
	mocks "github.com/dev-mohitbeniwal/dataeng/api/test/mock"
	"github.com/dev-mohitbeniwal/dataeng/api/util"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asPrincipal stands in for the authentication middleware.
func asPrincipal(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.SetPrincipal(c, &model.Principal{ID: 1, Name: "root", Email: "root@example.com", Role: role, Active: true})
		c.Next()
	}
}

func noop(c *gin.Context) { c.Next() }

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthController(t *testing.T) {
	authService := new(mocks.MockAuthService)
	router := gin.New()
	controller.NewAuthController(authService).RegisterRoutes(router.Group("/api/v1"), asPrincipal(model.RoleUser), noop)

	t.Run("Login_Success", func(t *testing.T) {
		authService.On("Login", mock.Anything, "alice", "pw").
			Return(&model.TokenResponse{AccessToken: "tok", TokenType: "bearer", ExpiresIn: 1800}, nil).Once()

		w := serve(router, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"pw"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"access_token":"tok","token_type":"bearer","expires_in":1800}`, w.Body.String())
	})

	t.Run("Login_Form", func(t *testing.T) {
		authService.On("Login", mock.Anything, "alice", "pw").
			Return(&model.TokenResponse{AccessToken: "tok", TokenType: "bearer", ExpiresIn: 1800}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("username=alice&password=pw"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Login_BadCredentials", func(t *testing.T) {
		authService.On("Login", mock.Anything, "alice", "nope").
			Return(nil, echo_errors.Unauthorized("incorrect username or password", echo_errors.ErrInvalidCredentials)).Once()

		w := serve(router, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("Login_MissingFields", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/api/v1/auth/login", `{"username":"alice"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Me", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/auth/me", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"root"`)
		assert.NotContains(t, w.Body.String(), "credential_hash")
	})
}

func TestAdminController(t *testing.T) {
	principalService := new(mocks.MockPrincipalService)
	newRouter := func(role model.Role) *gin.Engine {
		r := gin.New()
		controller.NewAdminController(principalService).RegisterRoutes(r.Group("/api/v1"), asPrincipal(role))
		return r
	}
	admin := newRouter(model.RoleAdmin)

	t.Run("CacheStats_DataEngineer", func(t *testing.T) {
		principalService.On("CacheStats", mock.Anything).Return(db.CacheStats{Enabled: true, Connected: true, Status: "connected", KeyCount: 2}).Once()

		w := serve(newRouter(model.RoleDataEngineer), http.MethodGet, "/api/v1/admin/cache/stats", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"connected"`)
	})

	t.Run("CacheStats_UserForbidden", func(t *testing.T) {
		w := serve(newRouter(model.RoleUser), http.MethodGet, "/api/v1/admin/cache/stats", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("ClearCache_DataEngineerForbidden", func(t *testing.T) {
		w := serve(newRouter(model.RoleDataEngineer), http.MethodDelete, "/api/v1/admin/cache/principals", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("ClearCache", func(t *testing.T) {
		principalService.On("ClearPrincipalCache", mock.Anything, "root").Return(true).Once()

		w := serve(admin, http.MethodDelete, "/api/v1/admin/cache/principals", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"cleared":true}`, w.Body.String())
	})

	t.Run("InvalidatePrincipal", func(t *testing.T) {
		principalService.On("InvalidatePrincipal", mock.Anything, "alice", "root").Return(true).Once()

		w := serve(admin, http.MethodDelete, "/api/v1/admin/cache/principals/alice", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"username":"alice","invalidated":true}`, w.Body.String())
	})

	t.Run("CreatePrincipal_Success", func(t *testing.T) {
		principalService.On("CreatePrincipal", mock.Anything, mock.Anything, "root").
			Return(&model.Principal{ID: 9, Name: "bob", Email: "bob@example.com", Role: model.RoleUser, Active: true}, nil).Once()

		w := serve(admin, http.MethodPost, "/api/v1/admin/principals", `{"username":"bob","email":"bob@example.com","password":"s3cretpass"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":9`)
	})

	t.Run("CreatePrincipal_Conflict", func(t *testing.T) {
		principalService.On("CreatePrincipal", mock.Anything, mock.Anything, "root").
			Return(nil, echo_errors.ErrPrincipalConflict).Once()

		w := serve(admin, http.MethodPost, "/api/v1/admin/principals", `{"username":"bob","email":"bob@example.com","password":"s3cretpass"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("BulkCreatePrincipals", func(t *testing.T) {
		principalService.On("BulkCreatePrincipals", mock.Anything, mock.Anything, "root").
			Return([]*model.Principal{{ID: 9, Name: "bob"}, {ID: 10, Name: "carol"}}, nil).Once()

		w := serve(admin, http.MethodPost, "/api/v1/admin/principals/bulk",
			`{"principals":[{"username":"bob","email":"bob@example.com","password":"s3cretpass"},{"username":"carol","email":"carol@example.com","password":"s3cretpass"}]}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"carol"`)
	})

	t.Run("BulkCreatePrincipals_Empty", func(t *testing.T) {
		w := serve(admin, http.MethodPost, "/api/v1/admin/principals/bulk", `{"principals":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CreatePrincipal_BadBody", func(t *testing.T) {
		w := serve(admin, http.MethodPost, "/api/v1/admin/principals", `{"username":"bob"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("SetActive_Success", func(t *testing.T) {
		principalService.On("SetActive", mock.Anything, "alice", false, "root").
			Return(&model.Principal{ID: 7, Name: "alice", Role: model.RoleUser, Active: false}, nil).Once()

		w := serve(admin, http.MethodPut, "/api/v1/admin/principals/alice/active", `{"active":false}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_active":false`)
	})

	t.Run("SetActive_NotFound", func(t *testing.T) {
		principalService.On("SetActive", mock.Anything, "ghost", true, "root").
			Return(nil, echo_errors.ErrPrincipalNotFound).Once()

		w := serve(admin, http.MethodPut, "/api/v1/admin/principals/ghost/active", `{"active":true}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("SetActive_MissingFlag", func(t *testing.T) {
		w := serve(admin, http.MethodPut, "/api/v1/admin/principals/alice/active", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("AuditTrail", func(t *testing.T) {
		from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		to := from.Add(time.Hour)
		principalService.On("AuditTrail", mock.Anything, "alice", from, to).
			Return([]audit.AuditLog{{Action: util.EventPrincipalLogin, Principal: "alice", Granted: true}}, nil).Once()

		w := serve(admin, http.MethodGet, "/api/v1/admin/audit?principal=alice&from=2024-03-01T00:00:00Z&to=2024-03-01T01:00:00Z", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"principal":"alice"`)
	})

	t.Run("AuditTrail_BadTime", func(t *testing.T) {
		w := serve(admin, http.MethodGet, "/api/v1/admin/audit?from=yesterday", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	principalService.AssertExpectations(t)
}

func TestMonitoringController(t *testing.T) {
	router := gin.New()
	controller.NewMonitoringController(db.NewCacheStore(db.CacheConfig{Enabled: false})).RegisterRoutes(router.Group("/api/v1"))

	w := serve(router, http.MethodGet, "/api/v1/monitoring/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","cache":"disabled"}`, w.Body.String())
}
