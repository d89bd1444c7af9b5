// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/go-github/v73/github"
)

// Check suite and check run actions the router reacts to.
const (
	ActionRequested   = "requested"
	ActionRerequested = "rerequested"
	ActionCreated     = "created"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// WebhookEvent is the application's view of a check suite delivery. It is
// built once per inbound request and never modified afterwards.
type WebhookEvent struct {
	Action       string       `json:"action"`
	CheckSuite   CheckSuite   `json:"check_suite"`
	Repository   Repository   `json:"repository"`
	Installation Installation `json:"installation"`

	// Delivery metadata taken from the request headers.
	DeliveryID string `json:"-"`
	EventType  string `json:"-"`

	// AppID is the App that owns the check run of a check_run delivery,
	// zero for check suite deliveries.
	AppID int64 `json:"-"`
}

type CheckSuite struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	HeadSHA      string `json:"head_sha"`
	CheckRunsURL string `json:"check_runs_url"`
}

type Repository struct {
	FullName string `json:"full_name"`
	CloneURL string `json:"clone_url"`
}

type Installation struct {
	ID int64 `json:"id"`
}

// ParseCheckSuiteEvent decodes a check_suite delivery body. Deliveries that
// arrive without an X-GitHub-Event header are decoded the same way.
func ParseCheckSuiteEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if event.Action == "" {
		return nil, fmt.Errorf("%w: action is missing", ErrMalformedEvent)
	}
	return &event, nil
}

// EventFromCheckRun normalises a check_run delivery into a WebhookEvent so
// that the "created" notification GitHub sends for a new check run is routed
// like its check suite counterpart.
func EventFromCheckRun(event *github.CheckRunEvent) (*WebhookEvent, error) {
	if event.GetAction() == "" {
		return nil, fmt.Errorf("%w: action is missing", ErrMalformedEvent)
	}
	run := event.GetCheckRun()
	if run == nil {
		return nil, fmt.Errorf("%w: check_run is missing", ErrMalformedEvent)
	}

	suite := run.GetCheckSuite()
	headSHA := run.GetHeadSHA()
	if headSHA == "" {
		headSHA = suite.GetHeadSHA()
	}
	var checkRunsURL string
	if suite.GetURL() != "" {
		checkRunsURL = suite.GetURL() + "/check-runs"
	}

	return &WebhookEvent{
		Action: event.GetAction(),
		CheckSuite: CheckSuite{
			ID:           suite.GetID(),
			Status:       run.GetStatus(),
			HeadSHA:      headSHA,
			CheckRunsURL: checkRunsURL,
		},
		Repository: Repository{
			FullName: event.GetRepo().GetFullName(),
			CloneURL: event.GetRepo().GetCloneURL(),
		},
		Installation: Installation{ID: event.GetInstallation().GetID()},
		AppID:        run.GetApp().GetID(),
	}, nil
}
