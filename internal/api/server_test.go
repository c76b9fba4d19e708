package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"montage/internal/api"
	"montage/internal/render"
	"montage/internal/renderer"
	"montage/internal/renderjob"
	"montage/internal/timecode"
	"montage/internal/timeline"
)

type instantEngine struct{}

func (instantEngine) Execute(_ context.Context, _ *render.Graph, outputPath string, progress func(renderer.Progress)) (string, error) {
	if progress != nil {
		progress(renderer.Progress{Stage: "compositing", Percent: 100})
	}
	return outputPath, nil
}

func newServer(t *testing.T) (*httptest.Server, context.CancelFunc) {
	t.Helper()
	store, err := renderjob.Open(filepath.Join(t.TempDir(), "render.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	local := renderer.NewLocal(store, instantEngine{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go local.Start(ctx)

	ts := httptest.NewServer(api.NewServer(local, store, nil).Router())
	t.Cleanup(ts.Close)
	return ts, cancel
}

func sampleGraph(t *testing.T) *render.Graph {
	t.Helper()
	rate, err := timecode.NewFrameRate(30)
	if err != nil {
		t.Fatalf("NewFrameRate: %v", err)
	}
	tl := timeline.New(rate)
	clip := timeline.NewMediaClip(timeline.MediaVideo, "a.mp4", 2)
	if err := tl.AddClip(clip); err != nil {
		t.Fatalf("AddClip: %v", err)
	}
	graph, err := render.NewCompiler(nil).Compile(context.Background(), tl, render.DefaultProfile())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return graph
}

func submitJob(t *testing.T, ts *httptest.Server) renderer.JobPayload {
	t.Helper()
	body, err := json.Marshal(renderer.SubmitRequest{
		ProjectName: "demo",
		OutputPath:  "/renders/demo.mp4",
		Graph:       sampleGraph(t),
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	resp, err := http.Post(ts.URL+"/api/v1/jobs", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit status = %d, want 202", resp.StatusCode)
	}
	var payload renderer.JobPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return payload
}

func TestSubmitAndPoll(t *testing.T) {
	ts, cancel := newServer(t)
	defer cancel()

	job := submitJob(t, ts)
	if job.JobID == "" || job.Status != string(renderjob.StatusQueued) {
		t.Fatalf("submitted job = %+v, want a queued job with an id", job)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(ts.URL + "/api/v1/jobs/" + job.JobID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		var polled renderer.JobPayload
		if err := json.NewDecoder(resp.Body).Decode(&polled); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		resp.Body.Close()
		if polled.Status == string(renderjob.StatusCompleted) {
			if polled.ArtifactPath != "/renders/demo.mp4" {
				t.Fatalf("artifact = %q", polled.ArtifactPath)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", polled.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	ts, cancel := newServer(t)
	defer cancel()

	resp, err := http.Get(ts.URL + "/api/v1/jobs/nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSubmitWithoutGraph(t *testing.T) {
	ts, cancel := newServer(t)
	defer cancel()

	resp, err := http.Post(ts.URL+"/api/v1/jobs", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCancelEndpoint(t *testing.T) {
	ts, cancel := newServer(t)
	defer cancel()

	job := submitJob(t, ts)
	resp, err := http.Post(ts.URL+"/api/v1/jobs/"+job.JobID+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatalf("Post cancel: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", resp.StatusCode)
	}
	var payload renderer.JobPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// The worker may have finished the instant job before the cancel landed;
	// either outcome is legal, but a completed job must keep its artifact.
	switch payload.Status {
	case string(renderjob.StatusCancelled):
	case string(renderjob.StatusCompleted):
		if payload.ArtifactPath == "" {
			t.Fatal("completed job lost its artifact after cancel")
		}
	default:
		t.Fatalf("status after cancel = %s", payload.Status)
	}
}

func TestListEndpoint(t *testing.T) {
	ts, cancel := newServer(t)
	defer cancel()

	submitJob(t, ts)
	submitJob(t, ts)

	resp, err := http.Get(ts.URL + "/api/v1/jobs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	var payloads []renderer.JobPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("list returned %d jobs, want 2", len(payloads))
	}
}

func TestRemoteClientAgainstServer(t *testing.T) {
	ts, cancel := newServer(t)
	defer cancel()

	remote := renderer.NewRemote(ts.URL, nil)
	job, err := remote.Submit(context.Background(), sampleGraph(t), renderer.SubmitOptions{
		ProjectName: "demo",
		OutputPath:  "/renders/demo.mp4",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		polled, err := remote.Status(context.Background(), job.JobID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if polled.Status == renderjob.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", polled.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	final, err := remote.Cancel(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if final.Status != renderjob.StatusCompleted {
		t.Fatalf("late cancel returned %s, want completed", final.Status)
	}
}
