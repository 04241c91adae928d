package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

func newTestClient(t *testing.T, handler http.Handler, rotator *fakeRotator) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	executor := NewExecutor(DefaultRetryPolicy(), rotator, &recordingSleeper{}, newTestLogger())
	return NewClient(server.URL, server.Client(), rotator, executor, newTestLogger())
}

func TestClientFetchIdentity(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-a", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "acct-1", "email": "a@example.com"})
	})
	client := newTestClient(t, handler, &fakeRotator{creds: []domain.Credential{"tok-a"}})

	identity, err := client.FetchIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acct-1", identity.ID)
	assert.Equal(t, "a@example.com", identity.Email)
	assert.Equal(t, domain.Credential("tok-a"), identity.Credential)
}

func TestClientFetchIdentityRotatesOnUnauthorized(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "acct-2"})
	})
	rotator := &fakeRotator{creds: []domain.Credential{"tok-bad", "tok-good"}}
	client := newTestClient(t, handler, rotator)

	identity, err := client.FetchIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acct-2", identity.ID)
	assert.Equal(t, 1, rotator.rotations)
	assert.Equal(t, domain.Credential("tok-good"), identity.Credential)
}

func TestClientValidateCredentialReportsDefinitiveRejection(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok-good" {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "acct-1"})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	})
	rotator := &fakeRotator{creds: []domain.Credential{"tok-good", "tok-bad"}}
	client := newTestClient(t, handler, rotator)

	_, valid, err := client.ValidateCredential(context.Background(), "tok-good")
	require.NoError(t, err)
	assert.True(t, valid)

	_, valid, err = client.ValidateCredential(context.Background(), "tok-bad")
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Zero(t, rotator.rotations, "validation must not touch the pool cursor")
}

func TestClientFetchInferencePoints(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/points", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]int64{"points": 1234})
	})
	client := newTestClient(t, handler, &fakeRotator{creds: []domain.Credential{"tok-a"}})

	points, err := client.FetchInferencePoints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), points)
}

func TestClientRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int64{"points": 7})
	})
	client := newTestClient(t, handler, &fakeRotator{creds: []domain.Credential{"tok-a"}})

	points, err := client.FetchInferencePoints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), points)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientSendThreadPostsFullHistory(t *testing.T) {
	t.Parallel()

	var got chatRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("data: {\"content\":\"pong\"}\n"))
	})
	client := newTestClient(t, handler, &fakeRotator{creds: []domain.Credential{"tok-a"}})

	thread := &domain.Thread{ID: "thread-1", Title: "ping"}
	thread.Append(domain.RoleUser, "ping?")

	exchange, err := client.SendThread(context.Background(), thread, "medium-online", "en")
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeContent, exchange.Outcome)
	assert.Equal(t, "pong", exchange.Content)

	assert.Equal(t, "thread-1", got.ID)
	assert.Equal(t, "ping", got.Title)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, "medium-online", got.Model)
	require.NotNil(t, got.Sources)
	assert.Empty(t, got.Sources)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "ping?", got.Messages[0].Content)
}

func TestClientSendThreadReportsAbortedStream(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("data: {\"content\":\"par"))
		flusher.Flush()
		panic(http.ErrAbortHandler)
	})
	client := newTestClient(t, handler, &fakeRotator{creds: []domain.Credential{"tok-a"}})

	thread := &domain.Thread{ID: "thread-1"}
	thread.Append(domain.RoleUser, "ping?")

	exchange, err := client.SendThread(context.Background(), thread, "medium-online", "en")
	require.NoError(t, err, "an aborted stream is a degenerate result, not an error")
	assert.Equal(t, ports.OutcomeAborted, exchange.Outcome)
}

func TestClientSendThreadPropagatesBadRequest(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "malformed payload", http.StatusBadRequest)
	})
	client := newTestClient(t, handler, &fakeRotator{creds: []domain.Credential{"tok-a"}})

	thread := &domain.Thread{ID: "thread-1"}
	_, err := client.SendThread(context.Background(), thread, "medium-online", "en")

	var requestErr *domain.RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, http.StatusBadRequest, requestErr.Status)
}
