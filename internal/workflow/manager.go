package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"callcheck/internal/config"
	"callcheck/internal/logging"
	"callcheck/internal/services"
	"callcheck/internal/taskqueue"
)

// Handler processes one task delivery for a request identifier.
type Handler func(ctx context.Context, requestID string) error

// Manager owns the task consumption loop: it polls the queue, leases one
// task at a time, heartbeats the lease while the handler runs, and acks or
// nacks based on the outcome. Horizontal scaling is a matter of running
// more daemons against the same queue.
type Manager struct {
	logger   *slog.Logger
	cfg      *config.Config
	queue    *taskqueue.Queue
	handlers map[string]Handler

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastError string
	processed int
	failed    int
}

// NewManager builds a Manager with no handlers registered.
func NewManager(logger *slog.Logger, cfg *config.Config, queue *taskqueue.Queue) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		logger:   logger.With(logging.String(logging.FieldComponent, "workflow")),
		cfg:      cfg,
		queue:    queue,
		handlers: make(map[string]Handler),
	}
}

// Register installs the handler for a task kind. Must be called before Start.
func (m *Manager) Register(kind string, handler Handler) {
	m.handlers[kind] = handler
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if len(m.handlers) == 0 {
		return errors.New("no task handlers registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the in-flight task to
// finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	pollInterval := time.Duration(m.cfg.Workflow.QueuePollInterval) * time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if reclaimed, err := m.queue.ReclaimExpired(ctx); err != nil {
			m.logger.Warn("reclaim of expired leases failed; stuck tasks may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "lease_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"))
		} else if reclaimed > 0 {
			m.logger.Info("reclaimed expired task leases", logging.Int("count", reclaimed))
		}

		task, err := m.queue.Receive(ctx, time.Duration(m.cfg.Workflow.LeaseSeconds)*time.Second)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next task",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"))
			m.sleep(ctx, time.Duration(m.cfg.Workflow.ErrorRetryInterval)*time.Second)
			continue
		}
		if task == nil {
			m.sleep(ctx, pollInterval)
			continue
		}

		m.processTask(ctx, task)
	}
}

func (m *Manager) processTask(ctx context.Context, task *taskqueue.Task) {
	logger := m.logger.With(
		logging.String(logging.FieldRequestID, task.RequestID),
		logging.Int64(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldStage, task.Kind))

	handler, ok := m.handlers[task.Kind]
	if !ok {
		m.setLastError(fmt.Errorf("no handler for task kind %q", task.Kind))
		logger.Error("no handler registered for task kind; dropping task")
		if err := m.queue.Ack(ctx, task.ID); err != nil {
			logger.Error("failed to drop unhandled task", logging.Error(err))
		}
		return
	}

	taskCtx := services.WithRequestID(ctx, task.RequestID)
	taskCtx = services.WithTaskID(taskCtx, task.ID)

	stopHeartbeat := m.startHeartbeat(taskCtx, task.ID, logger)
	err := handler(taskCtx, task.RequestID)
	stopHeartbeat()

	if err != nil {
		m.recordFailure(err)
		logger.Error("task handler failed, scheduling redelivery",
			logging.Error(err),
			logging.Int("attempts", task.Attempts))
		delay := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
		if nackErr := m.queue.Nack(ctx, task.ID, delay); nackErr != nil {
			logger.Error("failed to nack task", logging.Error(nackErr))
		}
		return
	}

	if err := m.queue.Ack(ctx, task.ID); err != nil {
		m.setLastError(err)
		logger.Error("failed to ack completed task; duplicate delivery expected",
			logging.Error(err))
		return
	}

	m.recordSuccess()
	logger.Info("task completed")
}

// startHeartbeat extends the task lease on the configured interval until the
// returned stop function is called.
func (m *Manager) startHeartbeat(ctx context.Context, taskID int64, logger *slog.Logger) func() {
	interval := time.Duration(m.cfg.Workflow.HeartbeatInterval) * time.Second
	lease := time.Duration(m.cfg.Workflow.LeaseSeconds) * time.Second

	done := make(chan struct{})
	var once sync.Once
	var hbWG sync.WaitGroup
	hbWG.Add(1)

	go func() {
		defer hbWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.queue.Extend(ctx, taskID, lease); err != nil {
					logger.Warn("lease heartbeat failed", logging.Error(err))
				}
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
		hbWG.Wait()
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
}

func (m *Manager) recordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
}

func (m *Manager) recordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
	m.lastError = err.Error()
}

// Status is a point-in-time snapshot of the manager.
type Status struct {
	Running   bool   `json:"running"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

// Status reports the manager's current state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Running:   m.running,
		Processed: m.processed,
		Failed:    m.failed,
		LastError: m.lastError,
	}
}
