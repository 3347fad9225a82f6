package cron

import (
	"context"
	"errors"
	"fmt"
)

// Job is one unit of reconciliation work. Run must be safe to repeat: a
// cycle may be cut short by a deploy and rerun on the next tick.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

var ErrDuplicateJob = errors.New("duplicate cron job")

// Registry keeps jobs in registration order.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry registers jobs in order, ignoring nil entries.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if job.Name() == "" {
		return errors.New("cron job name required")
	}
	if _, taken := r.names[job.Name()]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name())
	}
	r.names[job.Name()] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy safe for the caller to modify.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}
