package renderer_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"montage/internal/render"
	"montage/internal/renderer"
	"montage/internal/renderjob"
	"montage/internal/timecode"
	"montage/internal/timeline"
)

func testGraph(t *testing.T) *render.Graph {
	t.Helper()
	rate, err := timecode.NewFrameRate(30)
	if err != nil {
		t.Fatalf("NewFrameRate: %v", err)
	}
	tl := timeline.New(rate)
	clip := timeline.NewMediaClip(timeline.MediaVideo, "clip.mp4", 2)
	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip: %v", err)
	}
	graph, err := render.NewCompiler(nil).Compile(context.Background(), tl, render.DefaultProfile())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return graph
}

func openStore(t *testing.T) *renderjob.Store {
	t.Helper()
	store, err := renderjob.Open(filepath.Join(t.TempDir(), "render.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// stubEngine completes immediately unless blocked, in which case it waits for
// release or context cancellation.
type stubEngine struct {
	mu       sync.Mutex
	block    chan struct{}
	executed int
}

func (e *stubEngine) Execute(ctx context.Context, _ *render.Graph, outputPath string, progress func(renderer.Progress)) (string, error) {
	e.mu.Lock()
	e.executed++
	block := e.block
	e.mu.Unlock()

	if progress != nil {
		progress(renderer.Progress{Stage: "compositing", Message: "working", Percent: 50})
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return outputPath, nil
}

func waitForStatus(t *testing.T, adapter renderer.Adapter, jobID string, want renderjob.Status) *renderjob.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := adapter.Status(context.Background(), jobID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestLocalSubmitRunsToCompletion(t *testing.T) {
	store := openStore(t)
	engine := &stubEngine{}
	local := renderer.NewLocal(store, engine, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go local.Start(ctx)

	job, err := local.Submit(ctx, testGraph(t), renderer.SubmitOptions{
		ProjectName: "demo",
		OutputPath:  "/renders/demo.mp4",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	done := waitForStatus(t, local, job.JobID, renderjob.StatusCompleted)
	if done.ArtifactPath != "/renders/demo.mp4" {
		t.Fatalf("artifact = %q, want the output path", done.ArtifactPath)
	}
}

func TestLocalCancelRunningJob(t *testing.T) {
	store := openStore(t)
	engine := &stubEngine{block: make(chan struct{})}
	local := renderer.NewLocal(store, engine, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go local.Start(ctx)

	job, err := local.Submit(ctx, testGraph(t), renderer.SubmitOptions{OutputPath: "/renders/x.mp4"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitForStatus(t, local, job.JobID, renderjob.StatusProcessing)

	cancelled, err := local.Cancel(ctx, job.JobID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != renderjob.StatusCancelled {
		t.Fatalf("status after cancel = %s, want cancelled", cancelled.Status)
	}
	waitForStatus(t, local, job.JobID, renderjob.StatusCancelled)
}

func TestLocalCancelAfterCompletionReturnsCompleted(t *testing.T) {
	store := openStore(t)
	engine := &stubEngine{}
	local := renderer.NewLocal(store, engine, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go local.Start(ctx)

	job, err := local.Submit(ctx, testGraph(t), renderer.SubmitOptions{OutputPath: "/renders/y.mp4"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitForStatus(t, local, job.JobID, renderjob.StatusCompleted)

	after, err := local.Cancel(ctx, job.JobID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if after.Status != renderjob.StatusCompleted || after.ArtifactPath == "" {
		t.Fatalf("late cancel returned %s with artifact %q, want completed with artifact kept",
			after.Status, after.ArtifactPath)
	}
}

func TestLocalSubmitRejectsNilGraph(t *testing.T) {
	local := renderer.NewLocal(openStore(t), &stubEngine{}, nil)
	if _, err := local.Submit(context.Background(), nil, renderer.SubmitOptions{}); err == nil {
		t.Fatal("Submit accepted a nil graph")
	}
}

func TestLocalDrainsQueueInOrder(t *testing.T) {
	store := openStore(t)
	engine := &stubEngine{}
	local := renderer.NewLocal(store, engine, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := local.Submit(ctx, testGraph(t), renderer.SubmitOptions{OutputPath: "/renders/1.mp4"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second, err := local.Submit(ctx, testGraph(t), renderer.SubmitOptions{OutputPath: "/renders/2.mp4"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	go local.Start(ctx)
	a := waitForStatus(t, local, first.JobID, renderjob.StatusCompleted)
	b := waitForStatus(t, local, second.JobID, renderjob.StatusCompleted)
	if !a.UpdatedAt.Before(b.UpdatedAt) && !a.UpdatedAt.Equal(b.UpdatedAt) {
		t.Fatalf("first job finished after second: %v vs %v", a.UpdatedAt, b.UpdatedAt)
	}
}
