package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/pkg/logger"
)

// NotifyWorker consumes notification events from the Redis-backed queue.
type NotifyWorker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	dispatcher func(context.Context, *WorkflowEvent) error
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

func NewNotifyWorker(cfg *config.RedisConfig) *NotifyWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[NotifyWorker] error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &NotifyWorker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetDispatcher sets the function that delivers dequeued events.
func (w *NotifyWorker) SetDispatcher(dispatcher func(context.Context, *WorkflowEvent) error) {
	w.dispatcher = dispatcher
}

// Start begins consuming events.
func (w *NotifyWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeNotify, w.handleNotifyTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[NotifyWorker] starting...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[NotifyWorker] server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *NotifyWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[NotifyWorker] shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[NotifyWorker] shutdown complete")
}

func (w *NotifyWorker) handleNotifyTask(ctx context.Context, t *asynq.Task) error {
	var event WorkflowEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		logger.Errorf("[NotifyWorker] failed to unmarshal event: %v", err)
		return err
	}

	if w.dispatcher == nil {
		logger.Warnf("[NotifyWorker] no dispatcher set")
		return nil
	}

	return w.dispatcher(ctx, &event)
}
