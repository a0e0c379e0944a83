package mutation

import (
	"github.com/locallibrary/catalog/pkg/validation"
)

type Status string

const (
	StatusRejected  Status = "rejected"
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Result is the terminal outcome of a create or update.
type Result struct {
	Status Status `json:"status"`
	Kind   Kind   `json:"kind"`
	// Candidate is the normalized entity built from the input. It is set for
	// rejected and committed results so the input can be shown again.
	Candidate any                  `json:"candidate,omitempty"`
	Input     validation.Values    `json:"input,omitempty"`
	Errors    []validation.Failure `json:"errors,omitempty"`
	ID        int                  `json:"id,omitempty"`
	Reference string               `json:"reference,omitempty"`
	// Existing is true when a genre create resolved to a stored genre instead
	// of inserting a new one.
	Existing bool   `json:"existing,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Err      error  `json:"-"`
}

func (r *Result) Committed() bool {
	return r.Status == StatusCommitted
}

func (r *Result) Rejected() bool {
	return r.Status == StatusRejected
}

// Recorder observes pipeline and guard outcomes.
type Recorder interface {
	ObserveMutation(kind Kind, action Action, status Status)
	ObserveDelete(kind Kind, outcome string)
}

const (
	DeleteOutcomeDeleted  = "deleted"
	DeleteOutcomeBlocked  = "blocked"
	DeleteOutcomeNotFound = "not_found"
	DeleteOutcomeError    = "error"
)

type noopRecorder struct{}

func (noopRecorder) ObserveMutation(Kind, Action, Status) {}
func (noopRecorder) ObserveDelete(Kind, string)           {}
