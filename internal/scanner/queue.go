package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/petrarca/composition-scanner/internal/inventory"
	"golang.org/x/sync/errgroup"
)

// TaskState is the lifecycle position of a task
type TaskState int32

const (
	TaskPending TaskState = iota
	TaskRunning
	TaskCompleted
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	}
	return fmt.Sprintf("TaskState(%d)", int32(s))
}

// Task is one unit of pipeline work
type Task interface {
	// Name describes the task for logs
	Name() string
	// Run processes the task. Errors wrapping inventory.ErrInvariant abort
	// the scan; any other error only fails this task.
	Run(ctx context.Context, sc *ScanContext) error
	// State returns the current lifecycle state
	State() TaskState

	setState(TaskState)
}

// Listener observes queue bookkeeping
type Listener interface {
	OnPush(t Task)
	OnComplete(t Task, state TaskState, err error)
}

// TaskQueue runs tasks on a fixed pool of workers. Pushing a task increments
// the outstanding count before the task becomes visible to workers, and a
// worker decrements it only after the task and everything it pushed has
// been accounted for, so a zero count means the pipeline is quiescent.
type TaskQueue struct {
	sc       *ScanContext
	workers  int
	listener Listener
	logger   *slog.Logger

	mu          sync.Mutex
	ready       *sync.Cond // signalled when items arrive or the queue closes
	idle        *sync.Cond // broadcast when outstanding drops to zero
	items       []Task
	outstanding int
	closed      bool
	fatal       error

	group *errgroup.Group
	stop  func() bool
}

// NewTaskQueue creates a queue bound to a scan context. Start launches the
// workers.
func NewTaskQueue(sc *ScanContext, workers int, listener Listener) *TaskQueue {
	if workers <= 0 {
		workers = 1
	}
	q := &TaskQueue{
		sc:       sc,
		workers:  workers,
		listener: listener,
		logger:   sc.Logger,
	}
	q.ready = sync.NewCond(&q.mu)
	q.idle = sync.NewCond(&q.mu)
	sc.queue = q
	return q
}

// Start launches the worker pool. Cancelling ctx, or a fatal task error,
// stops the workers and wakes every waiter.
func (q *TaskQueue) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	q.group = g
	q.stop = context.AfterFunc(gctx, q.shutdown)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			return q.work(gctx)
		})
	}
}

// Push enqueues a task. Tasks pushed after shutdown are dropped.
func (q *TaskQueue) Push(t Task) {
	t.setState(TaskPending)
	if q.listener != nil {
		q.listener.OnPush(t)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.outstanding++
	q.items = append(q.items, t)
	q.ready.Signal()
}

// Outstanding returns the number of pushed tasks that have not finished
func (q *TaskQueue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}

// Drain blocks until no task is outstanding. It returns the fatal task
// error or the context error when the queue was stopped early.
func (q *TaskQueue) Drain(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.idle.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.outstanding > 0 && q.fatal == nil && !q.closed && ctx.Err() == nil {
		q.idle.Wait()
	}
	if q.fatal != nil {
		return q.fatal
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.closed && q.outstanding > 0 {
		return context.Canceled
	}
	return nil
}

// Close stops the workers and waits for them to exit
func (q *TaskQueue) Close() error {
	q.shutdown()
	if q.stop != nil {
		q.stop()
	}
	if q.group == nil {
		return nil
	}
	err := q.group.Wait()
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fatal != nil {
		return q.fatal
	}
	return err
}

func (q *TaskQueue) shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	q.ready.Broadcast()
	q.idle.Broadcast()
}

func (q *TaskQueue) next() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.ready.Wait()
	}
	if q.closed {
		return nil, false
	}
	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return t, true
}

func (q *TaskQueue) work(ctx context.Context) error {
	for {
		t, ok := q.next()
		if !ok {
			return nil
		}
		if err := q.run(ctx, t); err != nil {
			return err
		}
	}
}

func (q *TaskQueue) run(ctx context.Context, t Task) error {
	t.setState(TaskRunning)
	err := t.Run(ctx, q.sc)

	state := TaskCompleted
	if err != nil {
		state = TaskFailed
	}
	t.setState(state)
	if q.listener != nil {
		q.listener.OnComplete(t, state, err)
	}

	fatal := err != nil && errors.Is(err, inventory.ErrInvariant)
	if err != nil && !fatal {
		q.logger.Warn("Task failed", "task", t.Name(), "error", err)
	}

	q.mu.Lock()
	q.outstanding--
	if fatal && q.fatal == nil {
		q.fatal = fmt.Errorf("%s: %w", t.Name(), err)
	}
	if q.outstanding == 0 || fatal {
		q.idle.Broadcast()
	}
	q.mu.Unlock()

	if fatal {
		return err
	}
	return nil
}
