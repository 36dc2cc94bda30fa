// controller/monitoring_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dev-mohitbeniwal/dataeng/api/db"
)

type MonitoringController struct {
	cache *db.CacheStore
}

func NewMonitoringController(cache *db.CacheStore) *MonitoringController {
	return &MonitoringController{cache: cache}
}

func (mc *MonitoringController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/monitoring/health", mc.Health)
}

// Health always reports ok; the cache is optional and only its mode is shown.
func (mc *MonitoringController) Health(c *gin.Context) {
	mode := "disabled"
	if mc.cache.Enabled() {
		mode = "unavailable"
		if _, ok := mc.cache.Connect(c.Request.Context()); ok {
			mode = "connected"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": mode})
}
