package core

import "context"

// Notice is a single notification request addressed to one recipient.
type Notice struct {
	RecipientID string
	Type        string
	Title       string
	Message     string
	Link        string
	RelatedID   string
}

// Notifier is any service accepting fire-and-forget notification requests.
// Implementations must swallow delivery failures; callers never handle them.
type Notifier interface {
	Notify(ctx context.Context, notices ...Notice)
}
