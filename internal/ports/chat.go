package ports

import (
	"context"

	"github.com/bnema/chatdrive/internal/domain"
)

// ExchangeOutcome classifies what the transport made of a chat response
// body.
type ExchangeOutcome int

const (
	// OutcomeContent: a stream payload carried assistant content.
	OutcomeContent ExchangeOutcome = iota
	// OutcomeNoContent: the stream parsed but no payload carried content.
	OutcomeNoContent
	// OutcomeUnparseable: a non-empty body with no recognizable stream lines.
	OutcomeUnparseable
	// OutcomeEmptyBody: the service answered 200 with nothing in it.
	OutcomeEmptyBody
	// OutcomeAborted: the stream was cut mid-body; delivery is unknown.
	OutcomeAborted
)

// ChatExchange is the transport-level result of posting a thread.
type ChatExchange struct {
	Content   string
	Outcome   ExchangeOutcome
	RawPrefix string
}

// ChatTransport posts the full thread to the remote chat endpoint. A stream
// cut mid-body after acceptance is reported as OutcomeAborted, not as an
// error.
type ChatTransport interface {
	SendThread(ctx context.Context, thread *domain.Thread, model, language string) (ChatExchange, error)
}
