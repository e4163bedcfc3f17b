package crontab

import (
	"errors"
	"fmt"

	"crontab/internal/shared"
)

// Registry is the ordered, read-only set of jobs loaded at startup.
// Iteration follows insertion order. Safe for concurrent reads.
type Registry struct {
	order []*Job
	index map[string]*Job
}

// NewRegistry builds a registry from jobs, rejecting duplicate names.
func NewRegistry(jobs ...*Job) (*Registry, error) {
	r := &Registry{
		order: make([]*Job, 0, len(jobs)),
		index: make(map[string]*Job, len(jobs)),
	}
	for _, j := range jobs {
		if j == nil {
			return nil, fmt.Errorf("%w: nil job", shared.ErrInvalidJob)
		}
		if _, dup := r.index[j.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", shared.ErrDuplicateJobName, j.Name())
		}
		r.index[j.Name()] = j
		r.order = append(r.order, j)
	}
	return r, nil
}

// BuildRegistry converts records in order. Every record is checked and all
// problems are returned together.
func BuildRegistry(records []Record) (*Registry, error) {
	var errs []error
	jobs := make([]*Job, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		j, err := rec.Job()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[j.Name()]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", shared.ErrDuplicateJobName, j.Name()))
			continue
		}
		seen[j.Name()] = struct{}{}
		jobs = append(jobs, j)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewRegistry(jobs...)
}

// Len returns the number of jobs.
func (r *Registry) Len() int {
	return len(r.order)
}

// Get looks a job up by name.
func (r *Registry) Get(name string) (*Job, bool) {
	j, ok := r.index[name]
	return j, ok
}

// Jobs returns the jobs in insertion order.
func (r *Registry) Jobs() []*Job {
	out := make([]*Job, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns job names in insertion order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, j := range r.order {
		names[i] = j.Name()
	}
	return names
}
