package pushsender

import (
	"context"
)

// PushMessage carries one push notification to a set of device tokens.
type PushMessage struct {
	Title    string
	Body     string
	Tokens   []string
	Data     map[string]string
	ImageURL *string
}

// SendResult reports per-batch delivery outcome.
type SendResult struct {
	SuccessCount int
	FailureCount int
	FailedTokens []string
}

// Sender delivers push notifications. Implementations are best-effort: a
// failed send is reported, never retried here.
type Sender interface {
	Send(ctx context.Context, msg PushMessage) (*SendResult, error)
	Ping(ctx context.Context) error
}
