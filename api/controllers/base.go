package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	apierrors "github.com/zefiro/zefiro-job/api/errors"
	"github.com/zefiro/zefiro-job/models/common"
)

type ControllerBase struct {
}

// HandleError Renders err as a Status response
func (controller *ControllerBase) HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := apierrors.NewFromError(err).Status()
	if status.Code >= http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
	}
	controller.statusResponse(c.Writer, status)
}

func (controller *ControllerBase) statusResponse(w http.ResponseWriter, status *common.Status) {
	body, err := json.Marshal(status)
	if err != nil {
		controller.writeResponse(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status.Code)
	_, _ = w.Write(body)
}

func (controller *ControllerBase) writeResponse(w http.ResponseWriter, statusCode int, response ...string) {
	w.WriteHeader(statusCode)
	for _, responseText := range response {
		_, _ = w.Write([]byte(responseText))
	}
}
