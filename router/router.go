// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dev-mohitbeniwal/dataeng/api/controller"
	"github.com/dev-mohitbeniwal/dataeng/api/db"
	"github.com/dev-mohitbeniwal/dataeng/api/middleware"
	"github.com/dev-mohitbeniwal/dataeng/api/service"
)

func SetupRouter(
	controllers *controller.Controllers,
	authService service.IAuthService,
	cache *db.CacheStore,
	loginRequests int,
	loginWindow time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	authenticate := middleware.Authenticate(authService)
	loginLimiter := middleware.RateLimiter(cache, loginRequests, loginWindow)

	api := router.Group("/api/v1")

	controllers.Monitoring.RegisterRoutes(api)
	controllers.Auth.RegisterRoutes(api, authenticate, loginLimiter)
	controllers.Admin.RegisterRoutes(api, authenticate)

	return router
}
