package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefiro/zefiro-job/pkg/gateway"
)

type fakeMessage struct {
	data        []byte
	response    []byte
	code        string
	description string
}

func (m *fakeMessage) Data() []byte { return m.data }

func (m *fakeMessage) Respond(data []byte) error {
	m.response = data
	return nil
}

func (m *fakeMessage) Error(code, description string) error {
	m.code = code
	m.description = description
	return nil
}

type cancellerFunc func(ctx context.Context, id string) error

func (f cancellerFunc) Cancel(ctx context.Context, id string) error {
	return f(ctx, id)
}

func Test_Cancel(t *testing.T) {
	scenarios := []struct {
		name         string
		payload      string
		cancelErr    error
		expectedCode string
		expectedBody string
	}{
		{name: "stopped", payload: `{"id":"job-1"}`, expectedBody: `{"id":"job-1","status":"stopped"}`},
		{name: "unknown workload", payload: `{"id":"job-1"}`, cancelErr: gateway.ErrWorkloadNotFound, expectedCode: "404"},
		{name: "delete failed", payload: `{"id":"job-1"}`, cancelErr: errors.New("forbidden"), expectedCode: "500"},
		{name: "malformed payload", payload: `job-1`, expectedCode: "400"},
		{name: "missing id", payload: `{}`, expectedCode: "400"},
	}
	for _, ts := range scenarios {
		t.Run(ts.name, func(t *testing.T) {
			endpoint := newEndpoint("zefiro-job", cancellerFunc(func(_ context.Context, id string) error {
				assert.Equal(t, "job-1", id)
				return ts.cancelErr
			}))
			msg := &fakeMessage{data: []byte(ts.payload)}
			endpoint.cancel(msg)
			assert.Equal(t, ts.expectedCode, msg.code)
			if len(ts.expectedBody) > 0 {
				assert.JSONEq(t, ts.expectedBody, string(msg.response))
			}
		})
	}
}

func Test_Deliver(t *testing.T) {
	endpoint := newEndpoint("zefiro-job", nil)
	msg := &fakeMessage{data: []byte(`{}`)}
	go endpoint.deliver(msg)

	select {
	case received := <-endpoint.Messages():
		assert.Same(t, msg, received)
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func Test_DeliverAfterStop(t *testing.T) {
	endpoint := newEndpoint("zefiro-job", nil)
	require.NoError(t, endpoint.Stop())
	require.NoError(t, endpoint.Stop())
	msg := &fakeMessage{}
	endpoint.deliver(msg)
	assert.Equal(t, "503", msg.code)
}
