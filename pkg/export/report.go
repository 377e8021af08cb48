package export

import (
	"errors"
	"fmt"
	"time"
)

// Failure is a commit or tag that did not go through.
type Failure struct {
	Changeset int
	Op        string
	Err       error
}

func (f Failure) Error() string {
	return fmt.Sprintf("changeset %d: %s: %v", f.Changeset, f.Op, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes an export run.
type Report struct {
	Changesets    int
	Revisions     int
	Commits       int
	Tags          int
	SkippedWrites int
	DroppedLabels int
	Failures      []Failure
	StartTime     time.Time
	EndTime       time.Time
}

func NewReport() *Report {
	return &Report{StartTime: time.Now()}
}

func (r *Report) AddFailure(changeset int, op string, err error) {
	r.Failures = append(r.Failures, Failure{Changeset: changeset, Op: op, Err: err})
}

func (r *Report) Complete() {
	r.EndTime = time.Now()
}

func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Err joins every recorded failure, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}
