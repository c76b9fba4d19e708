package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"montage/internal/render"
	"montage/internal/renderjob"
	"montage/internal/services"
)

// SubmitRequest is the wire form of a render submission.
type SubmitRequest struct {
	ProjectName     string        `json:"project_name"`
	SnapshotVersion int64         `json:"snapshot_version"`
	OutputPath      string        `json:"output_path"`
	Graph           *render.Graph `json:"graph"`
}

// JobPayload is the wire form of a render job.
type JobPayload struct {
	JobID           string    `json:"job_id"`
	ProjectName     string    `json:"project_name,omitempty"`
	SnapshotVersion int64     `json:"snapshot_version"`
	Status          string    `json:"status"`
	ArtifactPath    string    `json:"artifact_path,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ProgressStage   string    `json:"progress_stage,omitempty"`
	ProgressPercent float64   `json:"progress_percent"`
	ProgressMessage string    `json:"progress_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PayloadFromJob converts a stored job to its wire form.
func PayloadFromJob(job *renderjob.Job) JobPayload {
	return JobPayload{
		JobID:           job.JobID,
		ProjectName:     job.ProjectName,
		SnapshotVersion: job.SnapshotVersion,
		Status:          string(job.Status),
		ArtifactPath:    job.ArtifactPath,
		ErrorMessage:    job.ErrorMessage,
		ProgressStage:   job.ProgressStage,
		ProgressPercent: job.ProgressPercent,
		ProgressMessage: job.ProgressMessage,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}

// Job converts the wire form back to a job value.
func (p JobPayload) Job() *renderjob.Job {
	status, ok := renderjob.ParseStatus(p.Status)
	if !ok {
		status = renderjob.Status(p.Status)
	}
	return &renderjob.Job{
		JobID:           p.JobID,
		ProjectName:     p.ProjectName,
		SnapshotVersion: p.SnapshotVersion,
		Status:          status,
		ArtifactPath:    p.ArtifactPath,
		ErrorMessage:    p.ErrorMessage,
		ProgressStage:   p.ProgressStage,
		ProgressPercent: p.ProgressPercent,
		ProgressMessage: p.ProgressMessage,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// Remote submits render jobs to a render queue service over HTTP.
type Remote struct {
	baseURL string
	client  *http.Client
}

// NewRemote constructs a remote adapter against the given base URL.
func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Submit implements Adapter.
func (r *Remote) Submit(ctx context.Context, graph *render.Graph, opts SubmitOptions) (*renderjob.Job, error) {
	req := SubmitRequest{
		ProjectName:     opts.ProjectName,
		SnapshotVersion: opts.SnapshotVersion,
		OutputPath:      opts.OutputPath,
		Graph:           graph,
	}
	var payload JobPayload
	if err := r.do(ctx, http.MethodPost, "/api/v1/jobs", req, &payload); err != nil {
		return nil, err
	}
	return payload.Job(), nil
}

// Status implements Adapter.
func (r *Remote) Status(ctx context.Context, jobID string) (*renderjob.Job, error) {
	var payload JobPayload
	if err := r.do(ctx, http.MethodGet, "/api/v1/jobs/"+jobID, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Job(), nil
}

// Cancel implements Adapter.
func (r *Remote) Cancel(ctx context.Context, jobID string) (*renderjob.Job, error) {
	var payload JobPayload
	if err := r.do(ctx, http.MethodPost, "/api/v1/jobs/"+jobID+"/cancel", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Job(), nil
}

func (r *Remote) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("render service request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrJobNotFound, "renderer", "remote", path, nil)
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return services.Wrap(services.ErrEncodingFailure, "renderer", "remote",
			fmt.Sprintf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data))), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode render service response: %w", err)
	}
	return nil
}

var _ Adapter = (*Remote)(nil)
