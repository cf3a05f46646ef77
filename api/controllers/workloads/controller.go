package workloads

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/zefiro/zefiro-job/api"
	"github.com/zefiro/zefiro-job/api/controllers"
	workloadApi "github.com/zefiro/zefiro-job/api/workloads"
)

const workloadIDParam = "id"

type workloadController struct {
	*controllers.ControllerBase
	handler workloadApi.WorkloadHandler
}

// New create a new workload controller
func New(handler workloadApi.WorkloadHandler) api.Controller {
	return &workloadController{
		handler: handler,
	}
}

// GetRoutes List the supported routes of this controller
func (controller *workloadController) GetRoutes() []api.Route {
	return []api.Route{
		{
			Path:    "/workloads",
			Method:  http.MethodGet,
			Handler: controller.GetWorkloads,
		},
		{
			Path:    fmt.Sprintf("/workloads/:%s", workloadIDParam),
			Method:  http.MethodGet,
			Handler: controller.GetWorkload,
		},
		{
			Path:    fmt.Sprintf("/workloads/:%s/stop", workloadIDParam),
			Method:  http.MethodPost,
			Handler: controller.StopWorkload,
		},
		{
			Path:    "/registry",
			Method:  http.MethodGet,
			Handler: controller.GetRegistered,
		},
		{
			Path:    "/cleanup",
			Method:  http.MethodPost,
			Handler: controller.Cleanup,
		},
	}
}

// GetWorkloads Statuses of live and recently finished workloads
func (controller *workloadController) GetWorkloads(c *gin.Context) {
	log.Ctx(c.Request.Context()).Debug().Msg("Get workload list")
	statuses, err := controller.handler.GetWorkloads(c.Request.Context())
	if err != nil {
		controller.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// GetWorkload Status of one workload
func (controller *workloadController) GetWorkload(c *gin.Context) {
	id := c.Param(workloadIDParam)
	log.Ctx(c.Request.Context()).Debug().Msgf("Get workload %s", id)
	status, err := controller.handler.GetWorkload(c.Request.Context(), id)
	if err != nil {
		controller.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// StopWorkload Stops a queued or running workload
func (controller *workloadController) StopWorkload(c *gin.Context) {
	id := c.Param(workloadIDParam)
	logger := log.Ctx(c.Request.Context())
	logger.Info().Msgf("Stop workload %s", id)
	status, err := controller.handler.StopWorkload(c.Request.Context(), id)
	if err != nil {
		controller.HandleError(c, err)
		return
	}
	logger.Info().Msgf("Workload %s is %s", id, status.State)
	c.JSON(http.StatusOK, status)
}

// GetRegistered Workloads held in the cluster
func (controller *workloadController) GetRegistered(c *gin.Context) {
	registered, err := controller.handler.GetRegistered(c.Request.Context())
	if err != nil {
		controller.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, registered)
}

// Cleanup Deletes every registered workload from the cluster
func (controller *workloadController) Cleanup(c *gin.Context) {
	if err := controller.handler.Cleanup(c.Request.Context()); err != nil {
		controller.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
