// Package worker hosts the long-lived background loops, one per task
// type, that drain the unified task queue.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/queue"
	"github.com/melitools/melisync/pkg/utils"
)

// Handler executes one task of a single type. The returned message is the
// caller-visible result recorded on DONE; a returned error moves the task
// to ERROR with its text and bumps the retry counter.
type Handler interface {
	TaskType() model.TaskType
	Handle(ctx context.Context, task *model.QueueTask) (string, error)
}

// Loop is one background drain loop. It wakes on an explicit signal or on
// its periodic interval, then processes PENDING tasks of its type in FIFO
// order, strictly sequentially. Only one Loop per type may run at a time;
// a duplicate Run is refused via the active flag.
type Loop struct {
	handler Handler

	Interval  time.Duration
	BatchSize int
	// Pause throttles the external API call rate between tasks.
	Pause time.Duration

	wake   chan struct{}
	active atomic.Bool
}

func NewLoop(h Handler) *Loop {
	return &Loop{
		handler:   h,
		Interval:  30 * time.Second,
		BatchSize: 10,
		Pause:     500 * time.Millisecond,
		wake:      make(chan struct{}, 1),
	}
}

func (l *Loop) TaskType() model.TaskType {
	return l.handler.TaskType()
}

// Wake signals the loop to start a drain pass. Signals coalesce: waking an
// already-signaled loop is a no-op.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) Active() bool {
	return l.active.Load()
}

// Run blocks until ctx is canceled. If a loop for this type is already
// active the call logs and returns immediately without processing.
func (l *Loop) Run(ctx context.Context) {
	if !l.active.CompareAndSwap(false, true) {
		utils.Log.Warnf("worker[%s]: already active, refusing duplicate start", l.TaskType())
		return
	}
	defer l.active.Store(false)

	utils.Log.Infof("worker[%s]: started", l.TaskType())
	defer utils.Log.Infof("worker[%s]: stopped", l.TaskType())

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		case <-ticker.C:
		}
		l.drain(ctx)
	}
}

// drain repeatedly fetches bounded batches until the queue has no runnable
// task of this type. One bad task never stops the pass. Cancellation is
// cooperative: it is honored between tasks, never mid-handler.
func (l *Loop) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		tasks := queue.FetchDue(l.TaskType(), l.BatchSize)
		if len(tasks) == 0 {
			return
		}
		for i := range tasks {
			if ctx.Err() != nil {
				return
			}
			l.runOne(ctx, &tasks[i])
			if l.Pause > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.Pause):
				}
			}
		}
	}
}

func (l *Loop) runOne(ctx context.Context, t *model.QueueTask) {
	queue.UpdateStatus(t.TaskID, model.StatusProcessing, "processing", false)
	msg, err := l.handler.Handle(ctx, t)
	if err != nil {
		utils.Log.Warnf("worker[%s]: task %d failed: %v", l.TaskType(), t.TaskID, err)
		queue.UpdateStatus(t.TaskID, model.StatusError, err.Error(), true)
		return
	}
	queue.UpdateStatus(t.TaskID, model.StatusDone, msg, false)
}

// Registry owns the set of loops and their shared lifecycle.
type Registry struct {
	mu    sync.RWMutex
	loops map[model.TaskType]*Loop
	wg    sync.WaitGroup
}

func NewRegistry() *Registry {
	return &Registry{loops: make(map[model.TaskType]*Loop)}
}

func (r *Registry) Register(l *Loop) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loops[l.TaskType()] = l
}

func (r *Registry) Get(t model.TaskType) (*Loop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loops[t]
	return l, ok
}

// Wake signals the loop for the given type; returns false when no loop
// claims that type.
func (r *Registry) Wake(t model.TaskType) bool {
	l, ok := r.Get(t)
	if !ok {
		return false
	}
	l.Wake()
	return true
}

// StartAll launches every registered loop. Loops exit when ctx is
// canceled; Wait blocks until all of them have.
func (r *Registry) StartAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.loops {
		r.wg.Add(1)
		go func(l *Loop) {
			defer r.wg.Done()
			l.Run(ctx)
		}(l)
	}
}

func (r *Registry) Wait() {
	r.wg.Wait()
}
