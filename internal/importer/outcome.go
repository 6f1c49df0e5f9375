package importer

import (
	"github.com/kosarica/catalog-service/internal/staging"
)

// Status is the result of processing one staged record.
type Status string

const (
	// StatusApplied means every write for the record succeeded.
	StatusApplied Status = "applied"
	// StatusPartial means the entity was saved but a dependent write failed.
	StatusPartial Status = "partial"
	// StatusSkipped means the record was not applicable (e.g. root category).
	StatusSkipped Status = "skipped"
	// StatusDropped means a referenced entity could not be resolved.
	StatusDropped Status = "dropped"
	// StatusFailed means the destination rejected the record.
	StatusFailed Status = "failed"
)

// Outcome describes how one record was handled. Err is set for failed and
// partial outcomes and marks the batch as erroneous.
type Outcome struct {
	RecordID int64        `json:"recordId"`
	Kind     staging.Kind `json:"kind"`
	Key      string       `json:"key"`
	Status   Status       `json:"status"`
	EntityID int64        `json:"entityId,omitempty"`
	Message  string       `json:"message,omitempty"`
	Err      error        `json:"-"`
}

// Error returns the error text, or "".
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// BatchResult is the result of one transform pass. HasError is the error
// state of the pass.
type BatchResult struct {
	Drained  int       `json:"drained"`
	Outcomes []Outcome `json:"outcomes"`
	HasError bool      `json:"hasError"`
}

// Count returns how many outcomes have status s.
func (r *BatchResult) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the outcomes that carry an error.
func (r *BatchResult) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

func (r *BatchResult) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Err != nil {
		r.HasError = true
	}
}

// Merge appends the outcomes of other to r.
func (r *BatchResult) Merge(other *BatchResult) {
	if other == nil {
		return
	}
	r.Drained += other.Drained
	r.Outcomes = append(r.Outcomes, other.Outcomes...)
	r.HasError = r.HasError || other.HasError
}
