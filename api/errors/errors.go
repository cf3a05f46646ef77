package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zefiro/zefiro-job/models/common"
	"github.com/zefiro/zefiro-job/pkg/gateway"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type APIStatus interface {
	Status() *common.Status
}

type StatusError struct {
	ErrStatus common.Status
}

var _ error = &StatusError{}

func NotFoundMessage(kind, name string) string {
	return fmt.Sprintf("%s %s not found", kind, name)
}

func InvalidMessage(name string) string {
	return fmt.Sprintf("%s is invalid", name)
}

// Error implements the Error interface.
func (e *StatusError) Error() string {
	return e.ErrStatus.Message
}

// Status implements the APIStatus interface.
func (e *StatusError) Status() *common.Status {
	return &e.ErrStatus
}

func NewNotFound(kind, name string) *StatusError {
	return newStatusError(common.StatusReasonNotFound, http.StatusNotFound, NotFoundMessage(kind, name))
}

func NewInvalid(name string) *StatusError {
	return newStatusError(common.StatusReasonInvalid, http.StatusUnprocessableEntity, InvalidMessage(name))
}

func NewConflict(message string) *StatusError {
	return newStatusError(common.StatusReasonConflict, http.StatusConflict, message)
}

func NewUnknown(err error) *StatusError {
	return newStatusError(common.StatusReasonUnknown, http.StatusInternalServerError, err.Error())
}

func newStatusError(reason common.StatusReason, code int, message string) *StatusError {
	return &StatusError{
		common.Status{
			Status:  common.StatusFailure,
			Reason:  reason,
			Code:    code,
			Message: message,
		},
	}
}

// NewFromError Maps err to a StatusError. Wrapped gateway.ErrWorkloadNotFound becomes NotFound
func NewFromError(err error) *StatusError {
	var statusError *StatusError
	if errors.As(err, &statusError) {
		return statusError
	}
	if errors.Is(err, gateway.ErrWorkloadNotFound) {
		return newStatusError(common.StatusReasonNotFound, http.StatusNotFound, err.Error())
	}
	var apiStatus k8sErrors.APIStatus
	if errors.As(err, &apiStatus) {
		return NewFromKubernetesAPIStatus(apiStatus)
	}
	return NewUnknown(err)
}

func NewFromKubernetesAPIStatus(apiStatus k8sErrors.APIStatus) *StatusError {
	status := apiStatus.Status()
	var kind, name string
	if status.Details != nil {
		kind, name = status.Details.Kind, status.Details.Name
	}
	switch status.Reason {
	case v1.StatusReasonNotFound:
		return NewNotFound(kind, name)
	case v1.StatusReasonInvalid:
		return NewInvalid(name)
	case v1.StatusReasonConflict, v1.StatusReasonAlreadyExists:
		return NewConflict(status.Message)
	default:
		return NewUnknown(errors.New(status.Message))
	}
}

func ReasonForError(err error) common.StatusReason {
	var apiStatus APIStatus
	if errors.As(err, &apiStatus) {
		return apiStatus.Status().Reason
	}
	return common.StatusReasonUnknown
}
