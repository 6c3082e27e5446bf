package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/locusaudit/merchant-validation/internal/config"
	"github.com/locusaudit/merchant-validation/internal/metrics"
	"github.com/locusaudit/merchant-validation/internal/validation"
)

// Persister stores completed jobs durably. Persistence failures are logged
// and never affect the job outcome.
type Persister interface {
	SaveJob(ctx context.Context, job *Job) error
}

// Publisher announces individual validation outcomes of a completed job.
type Publisher interface {
	PublishValidated(ctx context.Context, jobID string, req validation.Request, result *validation.Result) error
}

// Orchestrator accepts batch submissions and processes them asynchronously,
// one item at a time, pacing items with a rate limiter.
type Orchestrator struct {
	validator *validation.Validator
	store     *Store
	limiter   *rate.Limiter
	maxItems  int
	persister Persister
	publisher Publisher
	collector *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator. Persister and publisher are
// optional; a nil value disables the concern.
func NewOrchestrator(validator *validation.Validator, store *Store, cfg config.BatchConfig, persister Persister, publisher Publisher, collector *metrics.Collector, logger *slog.Logger) *Orchestrator {
	limit := rate.Inf
	if cfg.ItemInterval > 0 {
		limit = rate.Every(cfg.ItemInterval)
	}
	return &Orchestrator{
		validator: validator,
		store:     store,
		limiter:   rate.NewLimiter(limit, 1),
		maxItems:  cfg.MaxItems,
		persister: persister,
		publisher: publisher,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit validates the batch as a whole, registers a PENDING job and starts
// its worker. A single malformed item rejects the entire batch before any
// processing starts.
func (o *Orchestrator) Submit(ctx context.Context, requests []validation.Request) (*Job, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("batch contains no items")
	}
	if o.maxItems > 0 && len(requests) > o.maxItems {
		return nil, fmt.Errorf("batch of %d items exceeds the limit of %d", len(requests), o.maxItems)
	}
	for i, req := range requests {
		if req.MerchantName == "" {
			return nil, fmt.Errorf("item %d is missing merchant_name", i)
		}
	}

	job := &Job{
		ID:         uuid.New().String(),
		Status:     JobPending,
		TotalItems: len(requests),
		CreatedAt:  o.now(),
	}
	o.store.Put(job)

	o.collector.BatchJobsTotal.Inc()
	o.collector.BatchSizeHistogram.Observe(float64(len(requests)))
	o.collector.ActiveBatchJobs.Inc()

	o.logger.Info("batch accepted",
		slog.String("batch_id", job.ID),
		slog.Int("total_items", job.TotalItems))

	go o.run(context.WithoutCancel(ctx), job.ID, requests)

	return o.store.Snapshot(job.ID), nil
}

// run processes the items of one job sequentially. A panic that escapes the
// loop marks the job FAILED while keeping the results accumulated so far.
func (o *Orchestrator) run(ctx context.Context, jobID string, requests []validation.Request) {
	defer o.collector.ActiveBatchJobs.Dec()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("batch worker panicked",
				slog.String("batch_id", jobID),
				slog.Any("panic", r))
			o.collector.BatchJobsFailed.Inc()
			o.store.update(jobID, func(job *Job) {
				job.Status = JobFailed
			})
		}
	}()

	o.store.update(jobID, func(job *Job) {
		job.Status = JobProcessing
	})

	for i, req := range requests {
		result := o.validator.Validate(ctx, req)
		o.store.update(jobID, func(job *Job) {
			job.Results = append(job.Results, result)
			job.ProcessedItems++
		})

		if o.publisher != nil {
			if err := o.publisher.PublishValidated(ctx, jobID, req, result); err != nil {
				o.logger.Warn("event publish failed",
					slog.String("batch_id", jobID),
					slog.String("merchant_name", req.MerchantName),
					slog.Any("error", err))
			}
		}

		if i < len(requests)-1 {
			if err := o.limiter.Wait(ctx); err != nil {
				panic(fmt.Sprintf("batch pacing interrupted: %v", err))
			}
		}
	}

	done := o.now()
	o.store.update(jobID, func(job *Job) {
		job.Status = JobCompleted
		job.CompletedAt = &done
	})
	o.collector.BatchJobsCompleted.Inc()

	if o.persister != nil {
		if err := o.persister.SaveJob(ctx, o.store.Snapshot(jobID)); err != nil {
			o.logger.Warn("batch persistence failed",
				slog.String("batch_id", jobID),
				slog.Any("error", err))
		}
	}

	o.logger.Info("batch completed",
		slog.String("batch_id", jobID),
		slog.Int("total_items", len(requests)))
}

// Lookup returns a snapshot of the job with the given identifier, falling
// back to the persister when the job is no longer held in memory.
func (o *Orchestrator) Lookup(ctx context.Context, id string) *Job {
	if job := o.store.Snapshot(id); job != nil {
		return job
	}
	if loader, ok := o.persister.(interface {
		GetJob(ctx context.Context, id string) (*Job, error)
	}); ok && o.persister != nil {
		job, err := loader.GetJob(ctx, id)
		if err != nil {
			o.logger.Warn("batch load failed",
				slog.String("batch_id", id),
				slog.Any("error", err))
			return nil
		}
		return job
	}
	return nil
}
