// Package notify delivers outbound notifications (order responses to the
// dispatch service, catalog-changed pings) through a bounded-retry queue.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// Result reports the final outcome of one task after all attempts. It is
// the success/failure signal the retry-queue contract requires.
type Result struct {
	TaskID   string
	Name     string
	Attempts int
	Err      error
}

type task struct {
	id   string
	name string
	fn   func(context.Context) error
}

// Queue runs fire-and-forget tasks with bounded retries and exponential
// delay between attempts.
type Queue struct {
	maxAttempts int
	baseDelay   time.Duration
	callTimeout time.Duration
	onResult    func(Result)
	log         zerolog.Logger

	mu     sync.Mutex
	closed bool
	tasks  chan task
	wg     sync.WaitGroup
}

func NewQueue(maxAttempts int, baseDelay time.Duration, onResult func(Result), log zerolog.Logger) *Queue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	q := &Queue{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		callTimeout: 15 * time.Second,
		onResult:    onResult,
		log:         log,
		tasks:       make(chan task, 64),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue schedules fn for delivery and returns the task id. Enqueueing
// on a closed queue drops the task.
func (q *Queue) Enqueue(name string, fn func(context.Context) error) string {
	id := uuid.Must(uuid.NewV4()).String()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.log.Warn().Str("task", name).Msg("notify queue closed, dropping task")
		return id
	}
	select {
	case q.tasks <- task{id: id, name: name, fn: fn}:
	default:
		q.log.Warn().Str("task", name).Msg("notify queue full, dropping task")
	}
	return id
}

// Close stops intake and waits for queued tasks to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.deliver(t)
	}
}

func (q *Queue) deliver(t task) {
	var err error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), q.callTimeout)
		err = t.fn(ctx)
		cancel()
		if err == nil {
			q.report(Result{TaskID: t.id, Name: t.name, Attempts: attempt})
			return
		}
		q.log.Warn().Err(err).Str("task", t.name).Int("attempt", attempt).Msg("notification delivery failed")
		if attempt < q.maxAttempts {
			time.Sleep(q.baseDelay << (attempt - 1))
		}
	}
	q.report(Result{TaskID: t.id, Name: t.name, Attempts: q.maxAttempts, Err: err})
}

func (q *Queue) report(r Result) {
	if q.onResult != nil {
		q.onResult(r)
	}
}
