package export

import (
	"context"
	"time"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/formatters"
	"github.com/fbz-tec/storexport/core/jobs"
	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/metrics"
	"github.com/fbz-tec/storexport/core/output"
	"github.com/fbz-tec/storexport/core/resolve"
	"github.com/google/uuid"
)

// DefaultBatchSize is the number of identifiers attempted per batch.
const DefaultBatchSize = 100

// Options configures an Engine.
type Options struct {
	// Dir receives the output files. AllowedDirs are extra download roots.
	Dir         string
	AllowedDirs []string
	BatchSize   int
	Compression string
	TimeFormat  string
	TimeZone    string

	DownloadSecret string
	DownloadTTL    time.Duration

	// Locker defaults to an in-process keyed mutex.
	Locker  jobs.Locker
	Metrics *metrics.Metrics
	Clock   func() time.Time
}

// Engine is the resumable, multi-format export orchestrator.
type Engine struct {
	src      catalog.Source
	store    jobs.Store
	locker   jobs.Locker
	resolver *resolve.Resolver
	mapper   *mapping.Mapper
	tokens   *TokenSigner
	metrics  *metrics.Metrics

	dir         string
	roots       []string
	batchSize   int
	compression string
	loc         *time.Location
	now         func() time.Time
	newID       func() string
}

// New creates an Engine reading records from src and persisting jobs in store.
func New(src catalog.Source, store jobs.Store, opts Options) (*Engine, error) {
	if opts.Dir == "" {
		return nil, newError(KindValidation, nil, "export directory is required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Compression == "" {
		opts.Compression = output.None
	}
	if err := output.ValidateCompression(opts.Compression); err != nil {
		return nil, newError(KindValidation, err, "invalid compression")
	}
	if opts.Locker == nil {
		opts.Locker = jobs.NewKeyedMutex()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = 24 * time.Hour
	}

	_, loc := formatters.UserTimeZoneFormat(opts.TimeFormat, opts.TimeZone)
	values := formatters.NewValueFormatter(opts.TimeFormat, opts.TimeZone)

	tokens := NewTokenSigner(opts.DownloadSecret, opts.DownloadTTL)
	tokens.now = opts.Clock

	return &Engine{
		src:         src,
		store:       store,
		locker:      opts.Locker,
		resolver:    resolve.New(src, resolve.WithClock(opts.Clock), resolve.WithLocation(loc)),
		mapper:      mapping.NewMapper(src, values),
		tokens:      tokens,
		metrics:     opts.Metrics,
		dir:         opts.Dir,
		roots:       append([]string{opts.Dir}, opts.AllowedDirs...),
		batchSize:   opts.BatchSize,
		compression: opts.Compression,
		loc:         loc,
		now:         opts.Clock,
		newID:       uuid.NewString,
	}, nil
}

// Run drives ProcessBatch until the job completes, reporting each result to
// progress when set.
func (e *Engine) Run(ctx context.Context, jobID string, progress func(BatchResult)) (BatchResult, error) {
	for {
		if err := ctx.Err(); err != nil {
			return BatchResult{}, err
		}
		res, err := e.ProcessBatch(ctx, jobID)
		if err != nil {
			return res, err
		}
		if progress != nil {
			progress(res)
		}
		if res.Completed {
			return res, nil
		}
	}
}
