package core

import "context"

// Check run statuses and conclusions sent to GitHub.
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	ConclusionSuccess = "success"
	ConclusionFailure = "failure"
)

// Conclusion maps a check result to the conclusion GitHub expects.
func Conclusion(success bool) string {
	if success {
		return ConclusionSuccess
	}
	return ConclusionFailure
}

// TokenBroker exchanges the App's identity for an installation access token.
//
//go:generate mockgen -destination=../../mocks/mock_token_broker.go -package=mocks . TokenBroker
type TokenBroker interface {
	InstallationToken(ctx context.Context, name string, installationID int64) (string, error)
}

// CheckRunClient performs the three check run state transitions. Each call
// returns the HTTP status code GitHub answered with.
//
//go:generate mockgen -destination=../../mocks/mock_check_run_client.go -package=mocks . CheckRunClient
type CheckRunClient interface {
	CreateCheckRun(ctx context.Context, fullName, headSHA string, installationID int64) (int, error)
	StartCheckRun(ctx context.Context, fullName, headSHA string, installationID int64) (int, error)
	CompleteCheckRun(ctx context.Context, fullName, headSHA string, success bool, installationID int64) (int, error)
}

// CheckRunner executes the checks for a commit. It is the seam where an
// actual CI system plugs in.
type CheckRunner interface {
	Run(ctx context.Context, event *WebhookEvent) (bool, error)
}
