package core

import (
	"context"
	"time"
)

// Transition names the check run state change a delivery triggered.
type Transition string

const (
	TransitionNone     Transition = "none"
	TransitionCreate   Transition = "create"
	TransitionStart    Transition = "start"
	TransitionComplete Transition = "complete"
)

// Outcome is the business-level result of handling one delivery. It is kept
// apart from the webhook response, which is 200 for every recognised action.
type Outcome struct {
	ID             int64      `json:"id,omitempty" db:"id" yaml:"id,omitempty"`
	DeliveryID     string     `json:"delivery_id" db:"delivery_id" yaml:"delivery_id"`
	Action         string     `json:"action" db:"action" yaml:"action"`
	Transition     Transition `json:"transition" db:"transition" yaml:"transition"`
	RepoFullName   string     `json:"repo_full_name" db:"repo_full_name" yaml:"repo_full_name"`
	HeadSHA        string     `json:"head_sha" db:"head_sha" yaml:"head_sha"`
	InstallationID int64      `json:"installation_id" db:"installation_id" yaml:"installation_id"`
	GitHubStatus   int        `json:"github_status" db:"github_status" yaml:"github_status"`
	Error          string     `json:"error,omitempty" db:"error" yaml:"error,omitempty"`
	ResponseStatus int        `json:"response_status" db:"response_status" yaml:"response_status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at" yaml:"created_at"`
}

// Succeeded reports whether the GitHub call behind the outcome went through.
func (o *Outcome) Succeeded() bool {
	return o.Error == "" && o.GitHubStatus >= 200 && o.GitHubStatus < 300
}

// OutcomeRecorder receives every outcome the router produces.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome *Outcome) error
}
