package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/depflow/depflow/internal/config"
	"github.com/depflow/depflow/internal/jira"
	"github.com/depflow/depflow/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeWebhook = "webhook:event"
)

// WebhookTask carries one inbound tracker event through the queue. The
// handler acks the HTTP delivery immediately; processing happens here.
type WebhookTask struct {
	Event      jira.WebhookEvent `json:"event"`
	ReceivedAt time.Time         `json:"received_at"`
}

// TaskQueue defines the interface for webhook event processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *WebhookTask) error
	// IsAsync returns true if queue processes tasks asynchronously via Redis
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global task queue instance
var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[TaskQueue] Redis unavailable, falling back to local mode: %v", err)
				globalTaskQueue = NewLocalQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Local queue initialized (Redis disabled)")
			globalTaskQueue = NewLocalQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a webhook task to the async queue
func (q *AsyncQueue) Enqueue(task *WebhookTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeWebhook, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, event=%s", info.ID, task.Event.WebhookEvent)
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// LocalQueue implements TaskQueue without Redis: each task is processed in
// its own goroutine with a bounded deadline. Events remain independent; no
// ordering is enforced between deliveries.
type LocalQueue struct {
	mu        sync.RWMutex
	processor func(context.Context, *WebhookTask) error
	wg        sync.WaitGroup
}

// NewLocalQueue creates a new in-process queue
func NewLocalQueue() *LocalQueue {
	return &LocalQueue{}
}

// SetProcessor sets the function invoked for each task
func (q *LocalQueue) SetProcessor(processor func(context.Context, *WebhookTask) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processor = processor
}

// Enqueue processes the task in a new goroutine
func (q *LocalQueue) Enqueue(task *WebhookTask) error {
	q.mu.RLock()
	processor := q.processor
	q.mu.RUnlock()

	if processor == nil {
		logger.Warnf("[LocalQueue] No processor set, dropping event %s", task.Event.WebhookEvent)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := processor(ctx, task); err != nil {
			logger.Warnf("[LocalQueue] Event %s failed: %v", task.Event.WebhookEvent, err)
		}
	}()
	return nil
}

// IsAsync returns false for the in-process queue
func (q *LocalQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks to finish
func (q *LocalQueue) Close() error {
	q.wg.Wait()
	return nil
}
