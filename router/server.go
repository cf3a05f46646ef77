package router

import (
	"net/http"

	commongin "github.com/equinor/radix-common/pkg/gin"
	"github.com/gin-gonic/gin"
	"github.com/zefiro/zefiro-job/api"
	"github.com/zefiro/zefiro-job/pkg/metrics"
)

const (
	apiVersionRoute = "/api/v1"
	healthzPath     = "/healthz"
	metricsPath     = "/metrics"
)

// NewServer creates the zefiro-job admin REST service
func NewServer(controllers ...api.Controller) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.RemoveExtraSlash = true
	engine.Use(commongin.ZerologRequestLogger(), gin.Recovery())

	engine.GET(healthzPath, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	engine.GET(metricsPath, gin.WrapH(metrics.Handler()))

	v1Router := engine.Group(apiVersionRoute)
	{
		initializeAPIServer(v1Router, controllers)
	}

	return engine
}

func initializeAPIServer(router gin.IRoutes, controllers []api.Controller) {
	for _, controller := range controllers {
		for _, route := range controller.GetRoutes() {
			addHandlerRoute(router, route)
		}
	}
}

func addHandlerRoute(router gin.IRoutes, route api.Route) {
	router.Handle(route.Method, route.Path, route.Handler)
}
