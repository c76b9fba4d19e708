// Package renderer executes compiled render graphs. The Adapter interface is
// the boundary the editing surfaces talk to: submit a graph, poll the job,
// cancel it. Two implementations exist: Local runs the graph in-process
// through ffmpeg plus a delivery encode, Remote forwards it to a render
// queue service over HTTP.
package renderer

import (
	"context"

	"montage/internal/render"
	"montage/internal/renderjob"
)

// SubmitOptions carries job metadata alongside the compiled graph.
type SubmitOptions struct {
	ProjectName     string
	SnapshotVersion int64
	OutputPath      string
}

// Adapter is the render execution boundary. Submission is fire-and-forget;
// callers poll with the returned job id. Cancelling a job that already
// completed is not an error: the completed job is returned and its artifact
// survives.
type Adapter interface {
	Submit(ctx context.Context, graph *render.Graph, opts SubmitOptions) (*renderjob.Job, error)
	Status(ctx context.Context, jobID string) (*renderjob.Job, error)
	Cancel(ctx context.Context, jobID string) (*renderjob.Job, error)
}

// Progress is one engine progress event.
type Progress struct {
	Stage   string
	Message string
	Percent float64
}

// Engine executes one graph to completion and returns the artifact path.
// Implementations must honor context cancellation promptly.
type Engine interface {
	Execute(ctx context.Context, graph *render.Graph, outputPath string, progress func(Progress)) (string, error)
}
