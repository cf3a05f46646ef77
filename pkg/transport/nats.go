package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zefiro/zefiro-job/pkg/gateway"
)

const cancelTimeout = 30 * time.Second

// NATSConfig Service registration settings
type NATSConfig struct {
	Name        string
	Version     string
	Description string
}

// NATSEndpoint NATS micro service receiving run and stop requests
type NATSEndpoint struct {
	service   micro.Service
	messages  chan Message
	canceller Canceller
	done      chan struct{}
	stopOnce  sync.Once
	logger    zerolog.Logger
}

type natsMessage struct {
	request micro.Request
}

func (m natsMessage) Data() []byte {
	return m.request.Data()
}

func (m natsMessage) Respond(data []byte) error {
	return m.request.Respond(data)
}

func (m natsMessage) Error(code, description string) error {
	return m.request.Error(code, description, nil)
}

// NewNATSEndpoint Registers the service with endpoints <name>.get for run requests and <name>.cancel for stop requests
func NewNATSEndpoint(nc *nats.Conn, cfg NATSConfig, canceller Canceller) (*NATSEndpoint, error) {
	endpoint := newEndpoint(cfg.Name, canceller)
	service, err := micro.AddService(nc, micro.Config{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register service %s: %w", cfg.Name, err)
	}
	group := service.AddGroup(cfg.Name)
	if err := group.AddEndpoint("get", micro.HandlerFunc(endpoint.handleRun)); err != nil {
		_ = service.Stop()
		return nil, fmt.Errorf("failed to add run endpoint: %w", err)
	}
	if err := group.AddEndpoint("cancel", micro.HandlerFunc(endpoint.handleCancel)); err != nil {
		_ = service.Stop()
		return nil, fmt.Errorf("failed to add cancel endpoint: %w", err)
	}
	endpoint.service = service
	endpoint.logger.Info().Str("version", cfg.Version).Msg("NATS service registered")
	return endpoint, nil
}

func newEndpoint(name string, canceller Canceller) *NATSEndpoint {
	return &NATSEndpoint{
		messages:  make(chan Message),
		canceller: canceller,
		done:      make(chan struct{}),
		logger:    log.Logger.With().Str("pkg", "transport").Str("service", name).Logger(),
	}
}

// Messages Run requests in arrival order. Each is delivered only after the previous one was taken
func (e *NATSEndpoint) Messages() <-chan Message {
	return e.messages
}

func (e *NATSEndpoint) handleRun(req micro.Request) {
	e.deliver(natsMessage{request: req})
}

func (e *NATSEndpoint) deliver(msg Message) {
	select {
	case e.messages <- msg:
	case <-e.done:
		if err := msg.Error("503", "service is shutting down"); err != nil {
			e.logger.Warn().Err(err).Msg("failed to reply")
		}
	}
}

func (e *NATSEndpoint) handleCancel(req micro.Request) {
	e.cancel(natsMessage{request: req})
}

func (e *NATSEndpoint) cancel(msg Message) {
	var request CancelRequest
	if err := json.Unmarshal(msg.Data(), &request); err != nil || len(request.ID) == 0 {
		e.reply(msg.Error("400", "expected a JSON object with an id"))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	err := e.canceller.Cancel(ctx, request.ID)
	switch {
	case errors.Is(err, gateway.ErrWorkloadNotFound):
		e.reply(msg.Error("404", err.Error()))
	case err != nil:
		e.reply(msg.Error("500", err.Error()))
	default:
		e.reply(RespondJSON(msg, Accepted{ID: request.ID, Status: "stopped"}))
	}
}

func (e *NATSEndpoint) reply(err error) {
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to reply")
	}
}

// Stop Deregisters the service. Pending deliveries are answered with an error
func (e *NATSEndpoint) Stop() error {
	e.stopOnce.Do(func() { close(e.done) })
	if e.service == nil {
		return nil
	}
	return e.service.Stop()
}
