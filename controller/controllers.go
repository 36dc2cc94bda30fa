// controller/controllers.go
package controller

import (
	"github.com/dev-mohitbeniwal/dataeng/api/db"
	"github.com/dev-mohitbeniwal/dataeng/api/service"
)

type Controllers struct {
	Auth       *AuthController
	Admin      *AdminController
	Monitoring *MonitoringController
}

func InitializeControllers(services *service.Services, cache *db.CacheStore) *Controllers {
	return &Controllers{
		Auth:       NewAuthController(services.Auth),
		Admin:      NewAdminController(services.Principal),
		Monitoring: NewMonitoringController(cache),
	}
}
