package workloads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/equinor/radix-common/utils/pointers"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefiro/zefiro-job/api/controllers/testutils"
	apierrors "github.com/zefiro/zefiro-job/api/errors"
	workloadApi "github.com/zefiro/zefiro-job/api/workloads"
	"github.com/zefiro/zefiro-job/api/workloads/mock"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/models/common"
	"github.com/zefiro/zefiro-job/pkg/gateway"
)

func setupTest(handler workloadApi.WorkloadHandler) *testutils.ControllerTestUtils {
	controller := workloadController{handler: handler}
	controllerTestUtils := testutils.New(&controller)
	return &controllerTestUtils
}

func TestGetWorkloads(t *testing.T) {
	t.Run("Get workloads - success", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		handler := mock.NewMockWorkloadHandler(ctrl)
		workloadStatus := models.WorkloadStatus{
			ID:      "job-1",
			State:   common.Done,
			Created: pointers.Ptr(time.Now().Truncate(time.Second)),
			Result:  &models.CompletionResult{ExitCode: 0, Log: []models.LogEntry{{Workload: "job-1", Entry: "done"}}},
		}
		handler.
			EXPECT().
			GetWorkloads(testutils.RequestContextMatcher{}).
			Return([]models.WorkloadStatus{workloadStatus}, nil).
			Times(1)

		controllerTestUtils := setupTest(handler)
		responseChannel := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/workloads")
		response := <-responseChannel
		require.NotNil(t, response)

		assert.Equal(t, http.StatusOK, response.StatusCode)
		var returned []models.WorkloadStatus
		require.NoError(t, testutils.GetResponseBody(response, &returned))
		require.Len(t, returned, 1)
		assert.Equal(t, workloadStatus.ID, returned[0].ID)
		assert.Equal(t, common.Done, returned[0].State)
		assert.True(t, workloadStatus.Created.Equal(*returned[0].Created))
		require.NotNil(t, returned[0].Result)
		assert.Equal(t, "done", returned[0].Result.Log[0].Entry)
	})

	t.Run("Get workloads - status code 500", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		handler := mock.NewMockWorkloadHandler(ctrl)
		handler.
			EXPECT().
			GetWorkloads(testutils.RequestContextMatcher{}).
			Return(nil, errors.New("unhandled error")).
			Times(1)

		controllerTestUtils := setupTest(handler)
		responseChannel := controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/workloads")
		response := <-responseChannel
		require.NotNil(t, response)

		assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
		var returnedStatus common.Status
		require.NoError(t, testutils.GetResponseBody(response, &returnedStatus))
		assert.Equal(t, common.StatusReasonUnknown, returnedStatus.Reason)
		assert.Equal(t, "unhandled error", returnedStatus.Message)
	})
}

func TestGetWorkload(t *testing.T) {
	t.Run("Get workload - success", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		handler := mock.NewMockWorkloadHandler(ctrl)
		handler.
			EXPECT().
			GetWorkload(testutils.RequestContextMatcher{}, "job-1").
			Return(&models.WorkloadStatus{ID: "job-1", State: common.Running}, nil).
			Times(1)

		controllerTestUtils := setupTest(handler)
		response := <-controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/workloads/job-1")
		require.NotNil(t, response)

		assert.Equal(t, http.StatusOK, response.StatusCode)
		var returned models.WorkloadStatus
		require.NoError(t, testutils.GetResponseBody(response, &returned))
		assert.Equal(t, common.Running, returned.State)
	})

	t.Run("Get workload - not found", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		handler := mock.NewMockWorkloadHandler(ctrl)
		handler.
			EXPECT().
			GetWorkload(testutils.RequestContextMatcher{}, "job-2").
			Return(nil, apierrors.NewNotFound("workload", "job-2")).
			Times(1)

		controllerTestUtils := setupTest(handler)
		response := <-controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/workloads/job-2")
		require.NotNil(t, response)

		assert.Equal(t, http.StatusNotFound, response.StatusCode)
		var returnedStatus common.Status
		require.NoError(t, testutils.GetResponseBody(response, &returnedStatus))
		assert.Equal(t, common.StatusReasonNotFound, returnedStatus.Reason)
		assert.Equal(t, apierrors.NotFoundMessage("workload", "job-2"), returnedStatus.Message)
	})
}

func TestStopWorkload(t *testing.T) {
	t.Run("Stop workload - success", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		handler := mock.NewMockWorkloadHandler(ctrl)
		handler.
			EXPECT().
			StopWorkload(testutils.RequestContextMatcher{}, "job-1").
			Return(&models.WorkloadStatus{ID: "job-1", State: common.Stopped}, nil).
			Times(1)

		controllerTestUtils := setupTest(handler)
		response := <-controllerTestUtils.ExecuteRequest(context.Background(), http.MethodPost, "/api/v1/workloads/job-1/stop")
		require.NotNil(t, response)

		assert.Equal(t, http.StatusOK, response.StatusCode)
		var returned models.WorkloadStatus
		require.NoError(t, testutils.GetResponseBody(response, &returned))
		assert.Equal(t, common.Stopped, returned.State)
	})

	t.Run("Stop workload - unknown workload", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		handler := mock.NewMockWorkloadHandler(ctrl)
		handler.
			EXPECT().
			StopWorkload(testutils.RequestContextMatcher{}, "job-2").
			Return(nil, fmt.Errorf("%w: job-2", gateway.ErrWorkloadNotFound)).
			Times(1)

		controllerTestUtils := setupTest(handler)
		response := <-controllerTestUtils.ExecuteRequest(context.Background(), http.MethodPost, "/api/v1/workloads/job-2/stop")
		require.NotNil(t, response)

		assert.Equal(t, http.StatusNotFound, response.StatusCode)
		var returnedStatus common.Status
		require.NoError(t, testutils.GetResponseBody(response, &returnedStatus))
		assert.Equal(t, common.StatusReasonNotFound, returnedStatus.Reason)
	})
}

func TestCleanup(t *testing.T) {
	scenarios := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{name: "Cleanup - success", expectedCode: http.StatusNoContent},
		{name: "Cleanup - failed deletions", err: errors.New("failed to delete workload job-1"), expectedCode: http.StatusInternalServerError},
	}
	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			handler := mock.NewMockWorkloadHandler(ctrl)
			handler.
				EXPECT().
				Cleanup(testutils.RequestContextMatcher{}).
				Return(scenario.err).
				Times(1)

			controllerTestUtils := setupTest(handler)
			response := <-controllerTestUtils.ExecuteRequest(context.Background(), http.MethodPost, "/api/v1/cleanup")
			require.NotNil(t, response)
			defer response.Body.Close()
			assert.Equal(t, scenario.expectedCode, response.StatusCode)
		})
	}
}

func TestGetRegistered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	handler := mock.NewMockWorkloadHandler(ctrl)
	created := time.Now().Truncate(time.Second)
	handler.
		EXPECT().
		GetRegistered(testutils.RequestContextMatcher{}).
		Return([]models.RegisteredWorkload{{ID: "job-1", Created: created}}, nil).
		Times(1)

	controllerTestUtils := setupTest(handler)
	response := <-controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/api/v1/registry")
	require.NotNil(t, response)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	var returned []models.RegisteredWorkload
	require.NoError(t, testutils.GetResponseBody(response, &returned))
	require.Len(t, returned, 1)
	assert.Equal(t, "job-1", returned[0].ID)
	assert.True(t, created.Equal(returned[0].Created))
}

func TestHealthz(t *testing.T) {
	controllerTestUtils := testutils.New()
	response := <-controllerTestUtils.ExecuteRequest(context.Background(), http.MethodGet, "/healthz")
	require.NotNil(t, response)
	defer response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)
}
