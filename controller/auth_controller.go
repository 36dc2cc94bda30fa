// controller/auth_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
	"github.com/dev-mohitbeniwal/dataeng/api/service"
	"github.com/dev-mohitbeniwal/dataeng/api/util"
)

type AuthController struct {
	authService service.IAuthService
}

func NewAuthController(authService service.IAuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AuthController) RegisterRoutes(r *gin.RouterGroup, authenticate, loginLimiter gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", loginLimiter, ac.Login)
		auth.GET("/me", authenticate, ac.Me)
	}
}

// Login accepts JSON or form credentials and returns a bearer token.
func (ac *AuthController) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid login request", echo_errors.ErrInvalidRequest)
		return
	}

	token, err := ac.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if authErr, ok := echo_errors.AsAuthError(err); ok {
			util.RespondWithAuthError(c, authErr)
			return
		}
		util.RespondWithError(c, http.StatusInternalServerError, "Login failed", err)
		return
	}

	c.JSON(http.StatusOK, token)
}

// Me returns the authenticated principal.
func (ac *AuthController) Me(c *gin.Context) {
	principal, err := util.GetPrincipalFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}
	c.JSON(http.StatusOK, principal.Response())
}
