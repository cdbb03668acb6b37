package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"callcheck/internal/analyze"
	"callcheck/internal/api"
	"callcheck/internal/blob"
	"callcheck/internal/config"
	"callcheck/internal/dispatch"
	"callcheck/internal/intake"
	"callcheck/internal/logging"
	"callcheck/internal/metastore"
	"callcheck/internal/taskqueue"
	"callcheck/internal/transcribe"
	"callcheck/internal/workflow"
)

// Daemon wires the stores, the processing workflow, and the HTTP API into a
// single long-running process guarded by a file lock so only one instance
// operates on a data directory at a time.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store   *metastore.Store
	queue   *taskqueue.Queue
	blobs   blob.Store
	runner  *transcribe.Runner
	manager *workflow.Manager
	server  *api.Server
	lock    *flock.Flock

	mu      sync.Mutex
	running bool
}

// New constructs a daemon. provider supplies speech-to-text; production
// callers pass the configured whisper provider.
func New(cfg *config.Config, logger *slog.Logger, provider transcribe.Provider) (*Daemon, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := metastore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	queue, err := taskqueue.Open(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open task queue: %w", err)
	}
	blobs, err := blob.NewFSStore(cfg)
	if err != nil {
		_ = queue.Close()
		_ = store.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	timeout := time.Duration(cfg.Transcriber.TimeoutSeconds) * time.Second
	runner := transcribe.NewRunner(logger, blobs, queue, provider, timeout)

	manager := workflow.NewManager(logger, cfg, queue)
	dispatchStage := dispatch.NewStage(logger, store, blobs, runner, cfg.Transcriber.Language)
	analyzeStage := analyze.NewStage(logger, store, blobs)
	manager.Register(taskqueue.KindTranscribe, dispatchStage.Process)
	manager.Register(taskqueue.KindAnalyze, analyzeStage.Process)

	intakeSvc := intake.NewService(logger, store, queue)
	signer := blob.NewSigner(cfg)
	server := api.NewServer(logger, cfg, intakeSvc, store, queue, blobs, signer, manager)

	return &Daemon{
		cfg:     cfg,
		logger:  logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:   store,
		queue:   queue,
		blobs:   blobs,
		runner:  runner,
		manager: manager,
		server:  server,
		lock:    flock.New(filepath.Join(cfg.Paths.DataDir, "callcheckd.lock")),
	}, nil
}

// Start acquires the instance lock and brings up the workflow and the API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another instance holds %s", d.lock.Path())
	}

	if err := d.manager.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}
	if err := d.server.Start(ctx); err != nil {
		d.manager.Stop()
		_ = d.lock.Unlock()
		return err
	}

	d.running = true
	d.logger.Info("daemon started",
		logging.Int("pid", os.Getpid()),
		logging.String("data_dir", d.cfg.Paths.DataDir),
		logging.String("api", d.server.Addr()))
	return nil
}

// Stop shuts everything down in dependency order: API first, then the
// workflow, then in-flight transcription jobs, then the stores.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.server.Stop()
	d.manager.Stop()
	d.runner.Wait()
	_ = d.queue.Close()
	_ = d.store.Close()
	_ = d.lock.Unlock()
	d.logger.Info("daemon stopped")
}

// APIAddr exposes the bound API address.
func (d *Daemon) APIAddr() string {
	return d.server.Addr()
}

// Status describes the daemon process state.
type Status struct {
	Running     bool
	PID         int
	DataDir     string
	LockPath    string
	APIAddr     string
	Workflow    workflow.Status
	ActiveJobs  []string
	QueueStats  map[string]int
	RecordStats map[string]int
}

// Status reports a snapshot for the status endpoint and CLI.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()

	status := Status{
		Running:    running,
		PID:        os.Getpid(),
		DataDir:    d.cfg.Paths.DataDir,
		LockPath:   d.lock.Path(),
		APIAddr:    d.server.Addr(),
		Workflow:   d.manager.Status(),
		ActiveJobs: d.runner.ActiveJobs(),
	}
	if stats, err := d.queue.Stats(ctx); err == nil {
		status.QueueStats = stats
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.RecordStats = make(map[string]int, len(stats))
		for recordStatus, count := range stats {
			status.RecordStats[string(recordStatus)] = count
		}
	}
	return status
}
