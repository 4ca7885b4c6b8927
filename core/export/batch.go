package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fbz-tec/storexport/core/jobs"
	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/output"
	"github.com/fbz-tec/storexport/core/writers"
	"github.com/fbz-tec/storexport/internal/logger"
)

// BatchResult reports the outcome of one ProcessBatch call. Exactly one of
// three shapes is populated: partial progress, a format transition, or completion.
type BatchResult struct {
	JobID     string  `json:"job_id"`
	Completed bool    `json:"completed"`
	Progress  float64 `json:"progress"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`

	CurrentFormat   string `json:"current_format,omitempty"`
	FormatCompleted string `json:"format_completed,omitempty"`
	NextFormat      string `json:"next_format,omitempty"`

	Downloads []Download `json:"downloads,omitempty"`
}

// Download describes one finished output file.
type Download struct {
	JobID       string `json:"job_id"`
	Format      string `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Token       string `json:"token"`
}

// ProcessBatch runs exactly one bounded batch of the job's current format.
// Rows are written, then the writer closed, then the job advanced.
func (e *Engine) ProcessBatch(ctx context.Context, jobID string) (BatchResult, error) {
	unlock, err := e.locker.Lock(ctx, jobID)
	if errors.Is(err, jobs.ErrLocked) {
		return BatchResult{}, newError(KindConflict, err, "a batch of this job is already running")
	}
	if err != nil {
		return BatchResult{}, newError(KindInternal, err, "cannot lock job")
	}
	defer unlock()

	job, err := e.load(ctx, jobID)
	if err != nil {
		return BatchResult{}, err
	}
	switch job.State {
	case jobs.StateCompleted:
		return e.completion(job)
	case jobs.StateFailed:
		return BatchResult{}, &Error{Kind: KindJobFailed, Message: job.Failure}
	}

	log := logger.With("job " + shortID(job.ID))
	start := time.Now()
	format := job.CurrentFormat
	ids := job.NextSlice(e.batchSize)

	rows, skipped, err := e.mapBatch(ctx, job, ids)
	if err != nil {
		return BatchResult{}, newError(KindInternal, err, "batch interrupted")
	}
	if len(rows) > 0 && !job.HeadersFixed() {
		fixHeaders(job, mapping.Keys(rows[0]))
		log.Debug("Headers fixed from first row: %v", job.Headers)
	}

	job.Processed += len(ids)
	job.Batch++
	job.State = jobs.StateWriting
	finishing := job.FormatDone()

	if len(rows) > 0 || finishing {
		if !job.HeadersFixed() {
			// every record of the job was skipped
			fixHeaders(job, job.Selection.Columns())
		}
		if err := e.write(job, format, rows, finishing); err != nil {
			return BatchResult{}, e.fail(ctx, job, err)
		}
	}
	e.metrics.ObserveBatch(string(job.Kind), format, len(ids), skipped, time.Since(start))
	log.Debug("Batch %d (%s): %d attempted, %d written, %d skipped", job.Batch, format, len(ids), len(rows), skipped)

	result := BatchResult{
		JobID:         job.ID,
		Progress:      job.Progress(),
		Processed:     job.Processed,
		Total:         job.Total,
		CurrentFormat: format,
	}

	if finishing {
		if err := e.finalize(job, format); err != nil {
			return BatchResult{}, e.fail(ctx, job, err)
		}
		if job.IsLastFormat() {
			job.State = jobs.StateCompleted
		} else {
			next := job.NextFormat()
			job.CurrentFormat = next
			job.Processed = 0
			job.Batch = 0
			result = BatchResult{
				JobID:           job.ID,
				Progress:        0,
				Processed:       0,
				Total:           job.Total,
				CurrentFormat:   next,
				FormatCompleted: format,
				NextFormat:      next,
			}
			log.Info("Format %s completed, starting %s", format, next)
		}
	}

	if err := e.save(ctx, job); err != nil {
		return BatchResult{}, err
	}

	if job.State == jobs.StateCompleted {
		e.metrics.JobFinished(string(job.Kind), string(jobs.StateCompleted))
		log.Info("Export completed: %d item(s) in %d format(s)", job.Total, len(job.Formats))
		return e.completion(job)
	}
	return result, nil
}

func (e *Engine) load(ctx context.Context, jobID string) (*jobs.Job, error) {
	job, err := e.store.Get(ctx, jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		return nil, newError(KindJobNotFound, err, "unknown or expired job %q", jobID)
	}
	if err != nil {
		return nil, newError(KindInternal, err, "cannot load job")
	}
	return job, nil
}

func (e *Engine) save(ctx context.Context, job *jobs.Job) error {
	job.Updated = e.now()
	err := e.store.Save(ctx, job)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jobs.ErrConflict):
		return newError(KindConflict, err, "job was advanced by another worker")
	case errors.Is(err, jobs.ErrNotFound):
		return newError(KindJobNotFound, err, "job disappeared during the batch")
	}
	return newError(KindInternal, err, "cannot persist job")
}

// fail moves job to the terminal failed state and returns the error to surface.
func (e *Engine) fail(ctx context.Context, job *jobs.Job, cause error) error {
	var typed *Error
	if !errors.As(cause, &typed) {
		typed = newError(KindWriter, cause, "export failed")
	}
	job.State = jobs.StateFailed
	job.Failure = typed.Error()
	logger.With("job "+shortID(job.ID)).Error("Export failed: %v", cause)
	e.metrics.JobFinished(string(job.Kind), string(jobs.StateFailed))
	if err := e.save(ctx, job); err != nil {
		logger.Warn("Could not persist failure of job %s: %v", job.ID, err)
	}
	return typed
}

// mapBatch maps each id, skipping records that cannot be loaded.
func (e *Engine) mapBatch(ctx context.Context, job *jobs.Job, ids []int64) ([]*mapping.Row, int, error) {
	rows := make([]*mapping.Row, 0, len(ids))
	skipped := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		row, err := e.mapper.Map(ctx, job.Kind, id, job.Selection)
		if err != nil {
			logger.Debug("Skipping %s %d: %v", job.Kind, id, err)
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

// fixHeaders derives the output columns: the explicit column order filtered to
// keys present in the first row when one was given, the row's own order otherwise.
func fixHeaders(job *jobs.Job, keys []string) {
	headers := keys
	if len(job.ColumnOrder) > 0 {
		present := make(map[string]bool, len(keys))
		for _, k := range keys {
			present[k] = true
		}
		var ordered []string
		for _, c := range job.ColumnOrder {
			if present[c] && !containsString(ordered, c) {
				ordered = append(ordered, c)
			}
		}
		if len(ordered) > 0 {
			headers = ordered
		}
	}
	job.Headers = headers
	job.Labels = writers.Labels(headers, job.HeaderMap)
}

// write appends rows to the format's file, opening it on first use, and
// closes it when the format is finishing. Open or first-append failures
// degrade once to CSV content at the same path.
func (e *Engine) write(job *jobs.Job, format string, rows []*mapping.Row, finishing bool) error {
	target := writers.Target{
		Path:    job.Files[format],
		Headers: job.Headers,
		Labels:  job.Labels,
		Written: job.Written[format],
		Offset:  job.Offsets[format],
	}
	log := logger.With("job " + shortID(job.ID))

	var w writers.Writer
	if job.Fallbacks[format] {
		w = writers.Fallback()
	} else {
		var fell bool
		if w, fell = writers.NewOrFallback(format); fell {
			e.markFallback(job, format)
		}
	}

	fresh := !job.Started[format]
	if fresh {
		err := w.Open(target)
		if err != nil && !job.Fallbacks[format] {
			log.Warn("Cannot open %s writer, writing CSV content instead: %v", format, err)
			e.markFallback(job, format)
			w = writers.Fallback()
			err = w.Open(target)
		}
		if err != nil {
			return newError(KindWriter, err, "cannot open %s output", format)
		}
		job.Started[format] = true
	} else if err := w.Resume(target); err != nil {
		return newError(KindWriter, err, "cannot reopen %s output", format)
	}

	if _, err := w.Append(rows); err != nil {
		w.Suspend()
		if !fresh || job.Fallbacks[format] {
			return newError(KindWriter, err, "cannot write %s rows", format)
		}
		log.Warn("Cannot write %s rows, writing CSV content instead: %v", format, err)
		e.markFallback(job, format)
		w = writers.Fallback()
		if err := w.Open(target); err != nil {
			return newError(KindWriter, err, "cannot open %s output", format)
		}
		if _, err := w.Append(rows); err != nil {
			w.Suspend()
			return newError(KindWriter, err, "cannot write %s rows", format)
		}
	}
	job.Written[format] = w.Written()

	if finishing {
		if err := w.Close(); err != nil {
			return newError(KindWriter, err, "cannot finalize %s output", format)
		}
		return nil
	}
	if err := w.Suspend(); err != nil {
		return newError(KindWriter, err, "cannot flush %s output", format)
	}
	job.Offsets[format] = w.Offset()
	return nil
}

func (e *Engine) markFallback(job *jobs.Job, format string) {
	job.Fallbacks[format] = true
	e.metrics.WriterFallback(format)
}

// finalize verifies the closed file and applies the job compression.
func (e *Engine) finalize(job *jobs.Job, format string) error {
	path := job.Files[format]
	f, err := os.Open(path)
	if err != nil {
		return newError(KindWriter, err, "%s output is missing or unreadable", format)
	}
	f.Close()

	final, err := output.CompressFile(path, job.Compression, writers.Extension(format))
	if err != nil {
		return newError(KindStorageWrite, err, "cannot compress %s output", format)
	}
	job.Downloads[format] = final
	e.metrics.FormatCompleted(format)
	return nil
}

// completion builds the download descriptors of a completed job.
func (e *Engine) completion(job *jobs.Job) (BatchResult, error) {
	res := BatchResult{
		JobID:     job.ID,
		Completed: true,
		Progress:  100,
		Processed: job.Processed,
		Total:     job.Total,
	}
	for _, f := range job.Formats {
		path, ok := job.Downloads[f]
		if !ok {
			return BatchResult{}, newError(KindInternal, nil, "completed job has no %s output", f)
		}
		token, err := e.tokens.Sign(job.ID, f)
		if err != nil {
			return BatchResult{}, newError(KindInternal, err, "cannot issue download token")
		}
		res.Downloads = append(res.Downloads, Download{
			JobID:       job.ID,
			Format:      f,
			Filename:    filepath.Base(path),
			ContentType: writers.ContentType(f),
			Token:       token,
		})
	}
	return res, nil
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// String renders a progress line for logs and the CLI.
func (r BatchResult) String() string {
	switch {
	case r.Completed:
		return fmt.Sprintf("completed: %d file(s)", len(r.Downloads))
	case r.FormatCompleted != "":
		return fmt.Sprintf("%s completed, next %s", r.FormatCompleted, r.NextFormat)
	}
	return fmt.Sprintf("%s: %d/%d (%.2f%%)", r.CurrentFormat, r.Processed, r.Total, r.Progress)
}
