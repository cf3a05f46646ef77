package transport

import (
	"context"
	"encoding/json"
)

// Message A request received from the platform
type Message interface {
	// Data Raw request payload
	Data() []byte
	// Respond Replies with a success payload
	Respond(data []byte) error
	// Error Replies with an error code and description
	Error(code, description string) error
}

// Canceller Stops workloads on request
type Canceller interface {
	Cancel(ctx context.Context, id string) error
}

// Accepted Reply to a run request that was queued for submission
type Accepted struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CancelRequest Payload of a stop request
type CancelRequest struct {
	ID string `json:"id"`
}

// RespondJSON Marshals v and replies with it
func RespondJSON(msg Message, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return msg.Error("500", err.Error())
	}
	return msg.Respond(data)
}
