package history

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/gs-shaykot/nex-server/pkg/variables"
)

// Inserter is the write half of the Store, split out so the recorder can be
// exercised without a database.
type Inserter interface {
	Insert(ctx context.Context, msg *ChatMessage) error
}

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 250 * time.Millisecond
)

// Recorder persists chat messages off the broadcast path. Record never
// blocks: when the queue is full the message is dropped with a log line, and
// a failed insert is retried a fixed number of times before being dropped.
// Nothing here is ever surfaced to a client.
type Recorder struct {
	store      Inserter
	logger     *slog.Logger
	queue      chan *ChatMessage
	maxRetries int
	retryDelay time.Duration

	group  *errgroup.Group
	cancel context.CancelFunc
}

func newRecorder(store Inserter, logger *slog.Logger, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Recorder{
		store:      store,
		logger:     logger,
		queue:      make(chan *ChatMessage, queueSize),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// Record enqueues a message for background persistence.
func (r *Recorder) Record(msg *ChatMessage) {
	select {
	case r.queue <- msg:
	default:
		r.logger.Warn("history queue full, dropping message",
			slog.String("room", msg.Room),
			slog.String("sender", msg.SenderEmail))
	}
}

func (r *Recorder) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case msg := <-r.queue:
			r.persist(ctx, msg)
		}
	}
}

// drain gives queued messages one last write attempt during shutdown.
func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case msg := <-r.queue:
			if err := r.store.Insert(ctx, msg); err != nil {
				r.logger.Error("dropping message on shutdown",
					slog.String("room", msg.Room),
					slog.String("error", err.Error()))
			}
		default:
			return
		}
	}
}

func (r *Recorder) persist(ctx context.Context, msg *ChatMessage) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.retryDelay):
			}
		}
		if lastErr = r.store.Insert(ctx, msg); lastErr == nil {
			return
		}
	}
	r.logger.Error("dropping message after retries",
		slog.String("room", msg.Room),
		slog.Int("attempts", r.maxRetries+1),
		slog.String("error", lastErr.Error()))
}

func (r *Recorder) start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.group, ctx = errgroup.WithContext(ctx)
	r.group.Go(func() error {
		return r.run(ctx)
	})
}

func (r *Recorder) stop() error {
	r.cancel()
	return r.group.Wait()
}

func queueSizeFromEnv() int {
	raw := variables.Env(variables.HISTORY_QUEUE_SIZE_NAME, variables.HISTORY_QUEUE_SIZE_DEFAULT)
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		return 256
	}
	return size
}

type NewRecorder_Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Store     *Store
	Logger    *slog.Logger
}

func NewRecorder(params NewRecorder_Params) *Recorder {
	recorder := newRecorder(params.Store, params.Logger, queueSizeFromEnv())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			recorder.start()
			return nil
		},
		OnStop: func(context.Context) error {
			return recorder.stop()
		},
	})
	return recorder
}
