// controller/admin_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	"github.com/dev-mohitbeniwal/dataeng/api/middleware"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
	"github.com/dev-mohitbeniwal/dataeng/api/service"
	"github.com/dev-mohitbeniwal/dataeng/api/util"
	helper_util "github.com/dev-mohitbeniwal/dataeng/api/util/helper"
)

type AdminController struct {
	principalService service.IPrincipalService
}

func NewAdminController(principalService service.IPrincipalService) *AdminController {
	return &AdminController{
		principalService: principalService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AdminController) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	admin := r.Group("/admin", authenticate)
	{
		admin.GET("/cache/stats", middleware.RequireDataEngineer(), ac.CacheStats)
		admin.DELETE("/cache/principals", middleware.RequireAdmin(), ac.ClearPrincipalCache)
		admin.DELETE("/cache/principals/:name", middleware.RequireAdmin(), ac.InvalidatePrincipal)
		admin.POST("/principals", middleware.RequireAdmin(), ac.CreatePrincipal)
		admin.POST("/principals/bulk", middleware.RequireAdmin(), ac.BulkCreatePrincipals)
		admin.PUT("/principals/:name/active", middleware.RequireAdmin(), ac.SetActive)
		admin.GET("/audit", middleware.RequireAdmin(), ac.AuditTrail)
	}
}

func (ac *AdminController) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, ac.principalService.CacheStats(c.Request.Context()))
}

func (ac *AdminController) ClearPrincipalCache(c *gin.Context) {
	actor, _ := util.GetUserIDFromContext(c)
	cleared := ac.principalService.ClearPrincipalCache(c.Request.Context(), actor)
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

func (ac *AdminController) InvalidatePrincipal(c *gin.Context) {
	actor, _ := util.GetUserIDFromContext(c)
	name := c.Param("name")
	invalidated := ac.principalService.InvalidatePrincipal(c.Request.Context(), name, actor)
	c.JSON(http.StatusOK, gin.H{"username": name, "invalidated": invalidated})
}

// CreatePrincipal endpoint
func (ac *AdminController) CreatePrincipal(c *gin.Context) {
	var req model.CreatePrincipalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid principal data", echo_errors.ErrInvalidPrincipalData)
		return
	}
	actor, _ := util.GetUserIDFromContext(c)

	created, err := ac.principalService.CreatePrincipal(c.Request.Context(), req, actor)
	if err != nil {
		ac.respondCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created.Response())
}

// BulkCreatePrincipals endpoint
func (ac *AdminController) BulkCreatePrincipals(c *gin.Context) {
	var req model.BulkCreatePrincipalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid principal data", echo_errors.ErrInvalidPrincipalData)
		return
	}
	actor, _ := util.GetUserIDFromContext(c)

	created, err := ac.principalService.BulkCreatePrincipals(c.Request.Context(), req.Principals, actor)
	if err != nil {
		ac.respondCreateError(c, err)
		return
	}

	responses := make([]model.PrincipalResponse, 0, len(created))
	for _, p := range created {
		responses = append(responses, p.Response())
	}
	c.JSON(http.StatusCreated, responses)
}

func (ac *AdminController) respondCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, echo_errors.ErrInvalidPrincipalData):
		util.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, echo_errors.ErrPrincipalConflict):
		util.RespondWithError(c, http.StatusConflict, "Principal already exists", err)
	case errors.Is(err, echo_errors.ErrDatabaseOperation):
		util.RespondWithError(c, http.StatusInternalServerError, "Database operation failed", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to create principal", echo_errors.ErrInternalServer)
	}
}

// SetActive endpoint
func (ac *AdminController) SetActive(c *gin.Context) {
	var req model.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request", echo_errors.ErrInvalidRequest)
		return
	}
	actor, _ := util.GetUserIDFromContext(c)

	updated, err := ac.principalService.SetActive(c.Request.Context(), c.Param("name"), *req.Active, actor)
	if err != nil {
		if errors.Is(err, echo_errors.ErrPrincipalNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Principal not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update principal", err)
		}
		return
	}

	c.JSON(http.StatusOK, updated.Response())
}

// AuditTrail lists audit entries, optionally for one principal.
func (ac *AdminController) AuditTrail(c *gin.Context) {
	from, err := helper_util.ParseOptionalTime(c.Query("from"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid from time", err)
		return
	}
	to, err := helper_util.ParseOptionalTime(c.Query("to"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid to time", err)
		return
	}

	logs, err := ac.principalService.AuditTrail(c.Request.Context(), c.Query("principal"), from, to)
	if err != nil {
		if errors.Is(err, echo_errors.ErrInvalidRequest) {
			util.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to query audit logs", err)
		}
		return
	}

	c.JSON(http.StatusOK, logs)
}
