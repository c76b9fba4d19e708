package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"montage/internal/logging"
	"montage/internal/render"
	"montage/internal/renderjob"
	"montage/internal/services"
)

const (
	workerIdlePoll          = 500 * time.Millisecond
	progressPersistInterval = 2 * time.Second
)

// Local runs render jobs in-process: submissions land in the SQLite job
// store and a single worker goroutine drains the queue through the engine.
type Local struct {
	store  *renderjob.Store
	engine Engine
	logger *slog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wake    chan struct{}
}

// NewLocal constructs a local adapter. Start must be called before submitted
// jobs make progress.
func NewLocal(store *renderjob.Store, engine Engine, logger *slog.Logger) *Local {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Local{
		store:   store,
		engine:  engine,
		logger:  logging.NewComponentLogger(logger, "renderer"),
		running: make(map[string]context.CancelFunc),
		wake:    make(chan struct{}, 1),
	}
}

// Submit implements Adapter.
func (l *Local) Submit(ctx context.Context, graph *render.Graph, opts SubmitOptions) (*renderjob.Job, error) {
	const op = "submit"
	if graph == nil {
		return nil, services.Wrap(services.ErrEmptyTimeline, "renderer", op, "no graph provided", nil)
	}
	if err := graph.Validate(); err != nil {
		return nil, services.Wrap(services.ErrEncodingFailure, "renderer", op, "graph failed validation", err)
	}
	payload, err := json.Marshal(graph)
	if err != nil {
		return nil, services.Wrap(services.ErrEncodingFailure, "renderer", op, "marshal graph", err)
	}
	job, err := l.store.Enqueue(ctx, opts.ProjectName, opts.SnapshotVersion, string(payload), opts.OutputPath)
	if err != nil {
		return nil, err
	}
	l.logger.Info("render job submitted",
		logging.String("job_id", job.JobID),
		logging.String("project", opts.ProjectName),
		logging.Int64("snapshot_version", opts.SnapshotVersion))
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return job, nil
}

// Status implements Adapter.
func (l *Local) Status(ctx context.Context, jobID string) (*renderjob.Job, error) {
	return l.store.Get(ctx, jobID)
}

// Cancel implements Adapter. A running job's context is cancelled; if the
// engine finishes before noticing, the completion wins and the artifact is
// kept.
func (l *Local) Cancel(ctx context.Context, jobID string) (*renderjob.Job, error) {
	job, err := l.store.RequestCancel(ctx, jobID)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	if cancel, ok := l.running[jobID]; ok {
		cancel()
	}
	l.mu.Unlock()
	return job, nil
}

// Start runs the worker loop until the context ends.
func (l *Local) Start(ctx context.Context) {
	for {
		job, err := l.store.NextQueued(ctx)
		if err != nil {
			l.logger.Warn("failed to claim next render job", logging.Error(err))
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-l.wake:
			case <-time.After(workerIdlePoll):
			}
			continue
		}
		l.run(ctx, job)
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (l *Local) run(ctx context.Context, job *renderjob.Job) {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	l.mu.Lock()
	l.running[job.JobID] = cancel
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.running, job.JobID)
		l.mu.Unlock()
	}()

	var graph render.Graph
	if err := json.Unmarshal([]byte(job.GraphJSON), &graph); err != nil {
		l.finishFailed(job.JobID, "stored graph is unreadable: "+err.Error())
		return
	}

	l.logger.Info("render job started",
		logging.String("job_id", job.JobID),
		logging.String("project", job.ProjectName))

	lastPersist := time.Time{}
	lastPercent := 0.0
	onProgress := func(p Progress) {
		if p.Percent >= 0 {
			lastPercent = p.Percent
		}
		if time.Since(lastPersist) < progressPersistInterval && p.Percent < 100 {
			return
		}
		lastPersist = time.Now()
		job.SetProgress(p.Stage, p.Message, lastPercent)
		if err := l.store.Update(context.Background(), job); err != nil {
			l.logger.Warn("failed to persist render progress", logging.Error(err))
		}
	}

	artifact, err := l.engine.Execute(jobCtx, &graph, job.OutputPath, onProgress)
	switch {
	case err == nil:
		// Completion always lands, even after a cancel request.
		if _, err := l.store.MarkCompleted(context.Background(), job.JobID, artifact); err != nil {
			l.logger.Warn("failed to record render completion", logging.Error(err))
			return
		}
		l.logger.Info("render job completed",
			logging.String("job_id", job.JobID),
			logging.String("artifact", artifact))
	case errors.Is(err, services.ErrCancelled) || jobCtx.Err() != nil:
		l.logger.Info("render job cancelled", logging.String("job_id", job.JobID))
	default:
		l.finishFailed(job.JobID, err.Error())
	}
}

func (l *Local) finishFailed(jobID, message string) {
	if _, err := l.store.MarkFailed(context.Background(), jobID, message); err != nil {
		l.logger.Warn("failed to record render failure", logging.Error(err))
	}
	l.logger.Error("render job failed",
		logging.String("job_id", jobID),
		logging.String("reason", message))
}

var _ Adapter = (*Local)(nil)
