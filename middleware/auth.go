// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/service"
	"github.com/dev-mohitbeniwal/dataeng/api/util"
)

const bearerScheme = "bearer"

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves the bearer token and stores the principal on the
// request context.
func Authenticate(authService service.IAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			util.RespondWithAuthError(c, echo_errors.Unauthorized("not authenticated", echo_errors.ErrCredentialInvalid))
			return
		}

		principal, err := authService.Resolve(c.Request.Context(), token)
		if err != nil {
			if authErr, ok := echo_errors.AsAuthError(err); ok {
				util.RespondWithAuthError(c, authErr)
				return
			}
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve principal", err)
			return
		}

		util.SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireRoles must run after Authenticate.
func RequireRoles(allowed service.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := util.GetPrincipalFromContext(c)
		if err != nil {
			util.RespondWithAuthError(c, echo_errors.Unauthorized("not authenticated", err))
			return
		}
		if _, err := service.Require(principal, allowed); err != nil {
			logger.WithContext(
				zap.String("principal", principal.Name),
				zap.String("path", c.FullPath()),
			).Warn("Principal lacks required role",
				zap.String("role", string(principal.Role)),
				zap.String("allowed", allowed.String()))
			authErr, _ := echo_errors.AsAuthError(err)
			util.RespondWithAuthError(c, authErr)
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(service.AdminOnly)
}

func RequireDataEngineer() gin.HandlerFunc {
	return RequireRoles(service.AdminOrDataEngineer)
}
