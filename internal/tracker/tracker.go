package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samvad-hq/gengo-go/internal/domain"
	"github.com/samvad-hq/gengo-go/internal/logger"
	"github.com/samvad-hq/gengo-go/internal/storage"
	"github.com/samvad-hq/gengo-go/pkg/mygengo"
	"github.com/samvad-hq/gengo-go/pkg/publishers"
)

// Service compares tracked jobs against the API and emits events on change.
type Service struct {
	client      JobFetcher
	store       storage.Store
	publisher   EventPublisher
	environment string
	log         logger.Logger
}

// Result summarizes one pass.
type Result struct {
	Checked   int `json:"checked"`
	Changed   int `json:"changed"`
	Forgotten int `json:"forgotten"`
	Failed    int `json:"failed"`
}

// NewService wires the tracker.
func NewService(client JobFetcher, store storage.Store, publisher EventPublisher, environment string, log logger.Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		client:      client,
		store:       store,
		publisher:   publisher,
		environment: environment,
		log:         log,
	}
}

// RunOnce checks every job in the ledger. Failures of individual jobs are
// joined; an authentication failure stops the pass since every later call
// would fail the same way.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	if s == nil || s.client == nil || s.store == nil {
		return res, fmt.Errorf("tracker service is not initialized")
	}

	jobs, err := s.store.Jobs()
	if err != nil {
		return res, fmt.Errorf("list tracked jobs: %w", err)
	}

	var errs []error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res.Checked++

		changed, forgotten, err := s.check(ctx, job)
		if changed {
			res.Changed++
		}
		if forgotten {
			res.Forgotten++
		}
		if err == nil {
			continue
		}

		res.Failed++
		errs = append(errs, err)
		s.log.ErrorObj("job check failed", "job_error", map[string]any{
			"job_id": job.ID,
			"error":  err.Error(),
		})
		if mygengo.IsAuthError(err) {
			break
		}
	}

	s.log.InfoObj("job pass completed", "tracker_result", res)
	return res, errors.Join(errs...)
}

func (s *Service) check(ctx context.Context, job domain.TrackedJob) (changed, forgotten bool, err error) {
	resp, err := s.client.Job(ctx, job.ID)
	if err != nil {
		return false, false, fmt.Errorf("fetch job %s: %w", job.ID, err)
	}

	detail, err := resp.Job()
	if err != nil {
		return false, false, fmt.Errorf("decode job %s: %w", job.ID, err)
	}
	raw := jobPayload(resp)

	if detail.Status != job.Status {
		evt := publishers.NewEvent(domain.EventStatusChange, s.environment, job.ID, job.Status, detail.Status, raw)
		if err := s.publish(ctx, evt); err != nil {
			// Ledger keeps the old status so the change is reported again next pass.
			return false, false, err
		}
		changed = true
		s.log.InfoObj("job status changed", "job_status", map[string]any{
			"job_id":   job.ID,
			"previous": job.Status,
			"status":   detail.Status,
		})
	}

	if domain.Terminal(detail.Status) {
		evt := publishers.NewEvent(domain.EventJobRemoved, s.environment, job.ID, job.Status, detail.Status, raw)
		if err := s.publish(ctx, evt); err != nil {
			return changed, false, err
		}
		if err := s.store.Forget(job.ID); err != nil {
			return changed, false, fmt.Errorf("forget job %s: %w", job.ID, err)
		}
		return changed, true, nil
	}

	if changed {
		if err := s.store.TrackJob(job.ID, detail.Status); err != nil {
			return changed, false, fmt.Errorf("update job %s: %w", job.ID, err)
		}
	}
	return changed, false, nil
}

func (s *Service) publish(ctx context.Context, evt publishers.Event) error {
	if s.publisher == nil {
		return nil
	}
	if _, err := s.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish %s for job %s: %w", evt.Type, evt.JobID, err)
	}
	return nil
}

// jobPayload extracts the inner job object, falling back to the whole payload.
func jobPayload(resp *mygengo.Response) json.RawMessage {
	var wrapper struct {
		Job json.RawMessage `json:"job"`
	}
	if err := resp.Decode(&wrapper); err != nil || len(wrapper.Job) == 0 {
		return resp.Payload
	}
	return wrapper.Job
}
