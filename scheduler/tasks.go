package scheduler

import (
	"context"
	"log"
	"sync"

	"pricewatch/models"
)

// ScanFunc runs one full scan and returns the per-link results.
type ScanFunc func(ctx context.Context) ([]models.ScanResult, error)

// TaskManager runs scans asynchronously for the HTTP API. One worker
// processes the queue; scans are whole-config operations, so there is no
// point running several at once.
type TaskManager struct {
	mu    sync.RWMutex
	tasks map[string]*models.ScanTask
	queue chan *models.ScanTask
	run   ScanFunc
	done  chan struct{}
	once  sync.Once
}

func NewTaskManager(run ScanFunc) *TaskManager {
	tm := &TaskManager{
		tasks: make(map[string]*models.ScanTask),
		queue: make(chan *models.ScanTask, 16),
		run:   run,
		done:  make(chan struct{}),
	}
	go tm.worker()
	return tm
}

// Submit queues a new scan task and returns it immediately.
func (tm *TaskManager) Submit() *models.ScanTask {
	task := models.NewScanTask()

	tm.mu.Lock()
	tm.tasks[task.ID] = task
	tm.mu.Unlock()

	select {
	case tm.queue <- task:
		log.Printf("Scan task %s queued", task.ID)
	default:
		tm.complete(task, nil, "task queue is full")
	}

	tm.mu.RLock()
	defer tm.mu.RUnlock()
	snapshot := *task
	return &snapshot
}

// Get returns a copy of a task by ID. A copy, because the worker keeps
// mutating the stored task while callers serialize theirs.
func (tm *TaskManager) Get(taskID string) (*models.ScanTask, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	task, ok := tm.tasks[taskID]
	if !ok {
		return nil, false
	}
	snapshot := *task
	return &snapshot, true
}

// Stop shuts the worker down after the queued tasks finish.
func (tm *TaskManager) Stop() {
	tm.once.Do(func() {
		close(tm.queue)
		<-tm.done
	})
}

func (tm *TaskManager) worker() {
	defer close(tm.done)
	for task := range tm.queue {
		tm.mu.Lock()
		task.Start()
		tm.mu.Unlock()

		results, err := tm.run(context.Background())
		if err != nil {
			tm.complete(task, nil, err.Error())
			continue
		}
		tm.complete(task, results, "")
	}
}

func (tm *TaskManager) complete(task *models.ScanTask, results []models.ScanResult, errMsg string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if errMsg != "" {
		task.Fail(errMsg)
		log.Printf("Scan task %s failed: %s", task.ID, errMsg)
		return
	}
	task.Complete(results)
	log.Printf("Scan task %s completed (%d results)", task.ID, len(results))
}
