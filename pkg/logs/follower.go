package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zefiro/zefiro-job/models"
	"github.com/zefiro/zefiro-job/pkg/gateway"
	"github.com/zefiro/zefiro-job/pkg/metrics"
	"k8s.io/apimachinery/pkg/util/wait"
)

const maxLineSize = 1024 * 1024

// LogSource Opens the log stream of a workload
type LogSource interface {
	StreamLogs(ctx context.Context, id string) (io.ReadCloser, error)
}

// StreamError Reading the log stream of a workload failed
type StreamError struct {
	ID  string
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("log stream of workload %s failed: %v", e.ID, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Options Follower settings
type Options struct {
	MaxEntries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Follower Captures the log of one workload into a Buffer
type Follower struct {
	id     string
	source LogSource
	opts   Options
	buffer *Buffer
	done   chan struct{}
	logger zerolog.Logger
}

// NewFollower Constructor
func NewFollower(id string, source LogSource, opts Options) *Follower {
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = time.Second
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = opts.InitialInterval
	}
	return &Follower{
		id:     id,
		source: source,
		opts:   opts,
		buffer: NewBuffer(opts.MaxEntries),
		done:   make(chan struct{}),
		logger: log.Logger.With().Str("pkg", "logs").Str("workload", id).Logger(),
	}
}

// Follow Reads the log until the stream ends, fails or ctx is done. Call it once
func (f *Follower) Follow(ctx context.Context) error {
	defer close(f.done)
	stream, err := f.openStream(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return f.fail(err)
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.ToValidUTF8(scanner.Text(), "\uFFFD"))
		if len(line) == 0 {
			continue
		}
		f.buffer.Append(models.LogEntry{Timestamp: time.Now().UTC(), Workload: f.id, Entry: line})
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return f.fail(err)
	}
	if dropped := f.buffer.Dropped(); dropped > 0 {
		f.logger.Warn().Int("dropped", dropped).Msg("log buffer full, oldest entries dropped")
	}
	f.logger.Debug().Msg("log stream ended")
	return nil
}

func (f *Follower) openStream(ctx context.Context) (io.ReadCloser, error) {
	backoff := wait.Backoff{
		Duration: f.opts.InitialInterval,
		Factor:   2,
		Jitter:   0.1,
		Steps:    math.MaxInt32,
		Cap:      f.opts.MaxInterval,
	}
	for {
		stream, err := f.source.StreamLogs(ctx, f.id)
		if err == nil {
			return stream, nil
		}
		if !errors.Is(err, gateway.ErrStatusUnavailable) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff.Step()):
		}
	}
}

func (f *Follower) fail(err error) error {
	streamErr := &StreamError{ID: f.id, Err: err}
	f.logger.Error().Err(err).Msg("failed to follow log")
	metrics.LogStreamErrors.Inc()
	return streamErr
}

// Entries Copy of the captured entries in arrival order
func (f *Follower) Entries() []models.LogEntry {
	return f.buffer.Entries()
}

// Done Closed when Follow has returned
func (f *Follower) Done() <-chan struct{} {
	return f.done
}
