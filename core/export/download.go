package export

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fbz-tec/storexport/core/jobs"
	"github.com/fbz-tec/storexport/core/validation"
	"github.com/fbz-tec/storexport/core/writers"
	"github.com/fbz-tec/storexport/internal/logger"
)

// DownloadRequest names one (job, format) descriptor and its access token.
type DownloadRequest struct {
	JobID  string `form:"job" json:"job_id" validate:"required"`
	Format string `form:"format" json:"format" validate:"required"`
	Token  string `form:"token" json:"token"`
}

// File is an open download. The caller must Close it.
type File struct {
	io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// GetDownload opens the finished file of a descriptor. Any token, state or
// path problem yields the same SecurityError without revealing the path.
func (e *Engine) GetDownload(ctx context.Context, req DownloadRequest) (*File, error) {
	format := writers.Normalize(req.Format)
	if err := e.tokens.Verify(req.Token, req.JobID, format); err != nil {
		logger.Debug("Download denied for job %s: %v", req.JobID, err)
		return nil, securityError(err)
	}

	job, err := e.store.Get(ctx, req.JobID)
	if err != nil {
		return nil, securityError(err)
	}
	path, ok := job.Downloads[format]
	if job.State != jobs.StateCompleted || !ok {
		return nil, securityError(nil)
	}

	resolved, err := validation.Contained(path, e.roots)
	if err != nil {
		logger.Warn("Download of job %s refused: file outside permitted directories", shortID(job.ID))
		return nil, securityError(err)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, securityError(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, securityError(err)
	}
	return &File{
		ReadCloser:  f,
		Filename:    filepath.Base(resolved),
		ContentType: writers.ContentType(format),
		Size:        info.Size(),
	}, nil
}
