package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

func newChatFixture(transport *fakeTransport, gauge *fakeGauge, verifier *fakeVerifier) *ChatService {
	chat := NewChatService(transport, gauge, verifier, fixedClock{now: time.Unix(1700000000, 0)}, newTestLogger())
	chat.SetModel("medium-online")
	return chat
}

func TestChatSendRequiresModel(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	chat := NewChatService(transport, &fakeGauge{}, &fakeVerifier{}, nil, newTestLogger())

	_, err := chat.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrNoModelSelected)
	assert.Zero(t, transport.calls)
}

func TestChatSendReturnsAssistantContent(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{exchange: ports.ChatExchange{Content: "hi there", Outcome: ports.OutcomeContent}}
	chat := newChatFixture(transport, &fakeGauge{points: 10}, &fakeVerifier{})

	reply, err := chat.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	thread := chat.Thread()
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, domain.RoleUser, thread.Messages[0].Role)
	assert.Equal(t, "hello", thread.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, thread.Messages[1].Role)
	assert.Equal(t, "hi there", thread.Messages[1].Content)
}

func TestChatSendAppendsUserMessageBeforeNetworkAttempt(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{err: &domain.RequestError{Status: 400}}
	chat := newChatFixture(transport, &fakeGauge{points: 10}, &fakeVerifier{})

	_, err := chat.Send(context.Background(), "hello")
	require.ErrorIs(t, err, domain.ErrChatDeliveryFailed)

	// The user message is in the thread, and the transport already saw it.
	require.Len(t, chat.Thread().Messages, 1)
	assert.Equal(t, "hello", chat.Thread().Messages[0].Content)
	require.Len(t, transport.history, 1)
	assert.Equal(t, "hello", transport.history[0].Content)
}

func TestChatSendPlaceholders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		exchange ports.ChatExchange
		want     string
	}{
		{
			name:     "empty body",
			exchange: ports.ChatExchange{Outcome: ports.OutcomeEmptyBody},
			want:     placeholderEmptyBody,
		},
		{
			name:     "unparseable body",
			exchange: ports.ChatExchange{Outcome: ports.OutcomeUnparseable, RawPrefix: `{"error":"quota"}`},
			want:     placeholderUnparseable,
		},
		{
			name:     "no content payloads",
			exchange: ports.ChatExchange{Outcome: ports.OutcomeNoContent},
			want:     placeholderNoContent,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			transport := &fakeTransport{exchange: tc.exchange}
			chat := newChatFixture(transport, &fakeGauge{points: 10}, &fakeVerifier{})

			reply, err := chat.Send(context.Background(), "hello")
			require.NoError(t, err, "a transported-but-unparseable response is not a delivery failure")
			assert.Equal(t, tc.want, reply)
			require.Len(t, chat.Thread().Messages, 2)
			assert.Equal(t, tc.want, chat.Thread().Messages[1].Content)
		})
	}
}

func TestChatSendAbortedStreamVerifiedDelivery(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{exchange: ports.ChatExchange{Outcome: ports.OutcomeAborted}}
	verifier := &fakeVerifier{verdict: true}
	chat := newChatFixture(transport, &fakeGauge{points: 42}, verifier)

	reply, err := chat.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, placeholderAbortVerified, reply)

	require.True(t, verifier.called)
	require.NotNil(t, verifier.before)
	assert.Equal(t, int64(42), verifier.before.Points)
}

func TestChatSendAbortedStreamUnverifiedFails(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{exchange: ports.ChatExchange{Outcome: ports.OutcomeAborted}}
	verifier := &fakeVerifier{verdict: false}
	chat := newChatFixture(transport, &fakeGauge{points: 42}, verifier)

	_, err := chat.Send(context.Background(), "hello")
	require.ErrorIs(t, err, domain.ErrChatDeliveryFailed)

	// The user message survives; no assistant message is synthesized.
	require.Len(t, chat.Thread().Messages, 1)
	assert.Equal(t, domain.RoleUser, chat.Thread().Messages[0].Role)
}

func TestChatSendExhaustedRetriesGoThroughVerification(t *testing.T) {
	t.Parallel()

	cause := &domain.ExhaustionError{Attempts: 6, Last: errors.New("connection reset")}
	transport := &fakeTransport{err: cause}
	verifier := &fakeVerifier{verdict: true}
	chat := newChatFixture(transport, &fakeGauge{points: 42}, verifier)

	reply, err := chat.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, placeholderAbortVerified, reply)
	assert.True(t, verifier.called)
}

func TestChatSendGaugeFailureDisablesVerification(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{exchange: ports.ChatExchange{Outcome: ports.OutcomeAborted}}
	verifier := &fakeVerifier{verdict: false}
	chat := newChatFixture(transport, &fakeGauge{err: errors.New("points down")}, verifier)

	_, err := chat.Send(context.Background(), "hello")
	require.ErrorIs(t, err, domain.ErrChatDeliveryFailed)
	require.True(t, verifier.called)
	assert.Nil(t, verifier.before)
}

func TestChatCreateThreadReplacesExistingThread(t *testing.T) {
	t.Parallel()

	chat := newChatFixture(&fakeTransport{exchange: ports.ChatExchange{Content: "ok", Outcome: ports.OutcomeContent}}, &fakeGauge{}, &fakeVerifier{})

	first := chat.CreateThread("one")
	_, err := chat.Send(context.Background(), "hello")
	require.NoError(t, err)

	second := chat.CreateThread("two")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, second.Messages)
	assert.Equal(t, second, chat.Thread())
}
