// util/http_util.go
package util

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// Context keys set by the authentication middleware.
const (
	PrincipalContextKey = "principal"
	UserIDContextKey    = "userID"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RespondWithAuthError writes a 401 or 403 for an identity failure. 401
// responses carry the bearer challenge.
func RespondWithAuthError(c *gin.Context, err *echo_errors.AuthError) {
	logger.Warn("Authentication rejected",
		zap.String("outcome", err.Outcome.String()),
		zap.String("reason", err.Reason),
		zap.NamedError("cause", err.Err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	if err.Outcome == echo_errors.OutcomeUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(err.StatusCode(), gin.H{"error": err.Reason})
}

// SetPrincipal stores the resolved principal on the request.
func SetPrincipal(c *gin.Context, principal *model.Principal) {
	c.Set(PrincipalContextKey, principal)
	c.Set(UserIDContextKey, principal.Name)
}

func GetPrincipalFromContext(c *gin.Context) (*model.Principal, error) {
	value, exists := c.Get(PrincipalContextKey)
	if !exists {
		return nil, echo_errors.ErrUnauthorized
	}
	principal, ok := value.(*model.Principal)
	if !ok || principal == nil {
		return nil, errors.New("principal in context has unexpected type")
	}
	return principal, nil
}

func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get(UserIDContextKey)
	if !exists {
		return "", echo_errors.ErrUnauthorized
	}
	return userID.(string), nil
}
