package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/pkg/logger"
)

const TaskTypeNotify = "notify:dispatch"

// NotifyQueue decouples notification dispatch from the request that produced
// the event. With Redis enabled the queue is asynq-backed and survives
// restarts; otherwise events are dispatched in-process.
type NotifyQueue interface {
	Enqueue(event *WorkflowEvent) error
	IsAsync() bool
	Close() error
}

var (
	globalNotifyQueue NotifyQueue
	notifyQueueOnce   sync.Once
)

// InitNotifyQueue initializes the global notification queue based on config.
func InitNotifyQueue(cfg *config.Config) NotifyQueue {
	notifyQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncNotifyQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[NotifyQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalNotifyQueue = NewSyncNotifyQueue()
			} else {
				logger.Infof("[NotifyQueue] async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalNotifyQueue = queue
			}
		} else {
			logger.Infof("[NotifyQueue] sync queue initialized (Redis disabled)")
			globalNotifyQueue = NewSyncNotifyQueue()
		}
	})
	return globalNotifyQueue
}

// GetNotifyQueue returns the global notification queue instance.
func GetNotifyQueue() NotifyQueue {
	return globalNotifyQueue
}

// QueueNotifier adapts a NotifyQueue to the Notifier interface the workflow
// engine consumes.
type QueueNotifier struct {
	queue NotifyQueue
}

func NewQueueNotifier(queue NotifyQueue) *QueueNotifier {
	return &QueueNotifier{queue: queue}
}

func (n *QueueNotifier) Notify(event *WorkflowEvent) error {
	return n.queue.Enqueue(event)
}

// AsyncNotifyQueue implements NotifyQueue using asynq (Redis-based).
type AsyncNotifyQueue struct {
	client *asynq.Client
}

func NewAsyncNotifyQueue(cfg *config.RedisConfig) (*AsyncNotifyQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the Redis connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncNotifyQueue{client: client}, nil
}

func (q *AsyncNotifyQueue) Enqueue(event *WorkflowEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotify, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[NotifyQueue] event enqueued: id=%s, kind=%s", info.ID, event.Kind)
	return nil
}

func (q *AsyncNotifyQueue) IsAsync() bool {
	return true
}

func (q *AsyncNotifyQueue) Close() error {
	return q.client.Close()
}

// SyncNotifyQueue dispatches events in-process without Redis.
type SyncNotifyQueue struct {
	dispatcher func(context.Context, *WorkflowEvent) error
}

func NewSyncNotifyQueue() *SyncNotifyQueue {
	return &SyncNotifyQueue{}
}

// SetDispatcher sets the function that delivers events in sync mode.
func (q *SyncNotifyQueue) SetDispatcher(dispatcher func(context.Context, *WorkflowEvent) error) {
	q.dispatcher = dispatcher
}

// Enqueue delivers the event in a goroutine so the originating request is
// never blocked on webhook round-trips.
func (q *SyncNotifyQueue) Enqueue(event *WorkflowEvent) error {
	if q.dispatcher == nil {
		logger.Warnf("[NotifyQueue] no dispatcher set, event dropped: %s", event.Kind)
		return nil
	}

	go func() {
		if err := q.dispatcher(context.Background(), event); err != nil {
			logger.Warnf("[NotifyQueue] dispatch failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncNotifyQueue) IsAsync() bool {
	return false
}

func (q *SyncNotifyQueue) Close() error {
	return nil
}
