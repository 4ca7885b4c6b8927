package export

import (
	"context"
	"time"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/jobs"
)

// Status is a read-only view of a job.
type Status struct {
	JobID         string       `json:"job_id"`
	Name          string       `json:"name,omitempty"`
	Kind          catalog.Kind `json:"kind"`
	State         jobs.State   `json:"state"`
	Formats       []string     `json:"formats"`
	CurrentFormat string       `json:"current_format"`
	Completed     []string     `json:"completed_formats"`
	Progress      float64      `json:"progress"`
	Processed     int          `json:"processed"`
	Total         int          `json:"total"`
	Batch         int          `json:"batch"`
	Failure       string       `json:"failure,omitempty"`
	Created       time.Time    `json:"created_at"`
	Updated       time.Time    `json:"updated_at"`
}

// Status reports the persisted state of jobID.
func (e *Engine) Status(ctx context.Context, jobID string) (Status, error) {
	job, err := e.load(ctx, jobID)
	if err != nil {
		return Status{}, err
	}
	progress := job.Progress()
	if job.State == jobs.StateCompleted {
		progress = 100
	}
	completed := []string{}
	for _, f := range job.Formats {
		if _, ok := job.Downloads[f]; ok {
			completed = append(completed, f)
		}
	}
	return Status{
		JobID:         job.ID,
		Name:          job.Name,
		Kind:          job.Kind,
		State:         job.State,
		Formats:       job.Formats,
		CurrentFormat: job.CurrentFormat,
		Completed:     completed,
		Progress:      progress,
		Processed:     job.Processed,
		Total:         job.Total,
		Batch:         job.Batch,
		Failure:       job.Failure,
		Created:       job.Created,
		Updated:       job.Updated,
	}, nil
}

// Downloads re-issues the download descriptors of a completed job.
func (e *Engine) Downloads(ctx context.Context, jobID string) ([]Download, error) {
	job, err := e.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.State != jobs.StateCompleted {
		return nil, newError(KindValidation, nil, "job %s is not completed", jobID)
	}
	res, err := e.completion(job)
	if err != nil {
		return nil, err
	}
	return res.Downloads, nil
}
