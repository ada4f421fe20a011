package ingest

import (
	"context"
	"log"
	"time"

	"github.com/louisbranch/tubewatch/internal/youtube/atom"
)

const (
	defaultQueueSize    = 256
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 2 * time.Second
	maxRetryBackoff     = time.Minute
)

// QueueConfig adjusts queue sizing and retry behavior.
type QueueConfig struct {
	Size         int
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (c QueueConfig) normalized() QueueConfig {
	if c.Size <= 0 {
		c.Size = defaultQueueSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	return c
}

// Queue buffers notifications between the webhook handler and the
// processor so the hub gets its acknowledgement immediately.
type Queue struct {
	processor *Processor
	cfg       QueueConfig
	items     chan atom.Notification
}

// NewQueue builds a bounded notification queue.
func NewQueue(processor *Processor, cfg QueueConfig) *Queue {
	cfg = cfg.normalized()
	return &Queue{
		processor: processor,
		cfg:       cfg,
		items:     make(chan atom.Notification, cfg.Size),
	}
}

// Enqueue offers a notification without blocking. Returns false when the
// queue is full; the hub will redeliver later.
func (q *Queue) Enqueue(notification atom.Notification) bool {
	select {
	case q.items <- notification:
		return true
	default:
		return false
	}
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	return len(q.items)
}

// Consume processes queued notifications until the context ends. Failed
// notifications retry with linear backoff up to the attempt budget.
func (q *Queue) Consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notification := <-q.items:
			q.processWithRetry(ctx, notification)
		}
	}
}

func (q *Queue) processWithRetry(ctx context.Context, notification atom.Notification) {
	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		outcome, err := q.processor.Process(ctx, notification, attempt)
		if err == nil {
			log.Printf("notification processed video_id=%s outcome=%s attempt=%d", notification.VideoID, outcome, attempt)
			return
		}
		log.Printf("notification failed video_id=%s attempt=%d/%d: %v", notification.VideoID, attempt, q.cfg.MaxAttempts, err)
		if attempt == q.cfg.MaxAttempts {
			return
		}

		backoff := time.Duration(attempt) * q.cfg.RetryBackoff
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}
