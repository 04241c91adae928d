package application

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeStore struct {
	lines   []string
	loadErr error
	saved   [][]domain.Credential
	saveErr error
}

func (f *fakeStore) Load(_ context.Context) ([]string, error) {
	return f.lines, f.loadErr
}

func (f *fakeStore) Save(_ context.Context, creds []domain.Credential) error {
	snapshot := make([]domain.Credential, len(creds))
	copy(snapshot, creds)
	f.saved = append(f.saved, snapshot)
	return f.saveErr
}

type fakeIdentityClient struct {
	valid       map[domain.Credential]bool
	validateErr error
	identity    domain.Identity
	fetchErr    error
	fetchCalls  int
}

func (f *fakeIdentityClient) FetchIdentity(_ context.Context) (domain.Identity, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return domain.Identity{}, f.fetchErr
	}
	return f.identity, nil
}

func (f *fakeIdentityClient) ValidateCredential(_ context.Context, cred domain.Credential) (domain.Identity, bool, error) {
	if f.validateErr != nil {
		return domain.Identity{}, false, f.validateErr
	}
	if f.valid[cred] {
		return domain.Identity{ID: "acct-1", Credential: cred}, true, nil
	}
	return domain.Identity{}, false, nil
}

type fakeTransport struct {
	exchange ports.ChatExchange
	err      error
	calls    int
	history  []domain.Message
}

func (f *fakeTransport) SendThread(_ context.Context, thread *domain.Thread, _, _ string) (ports.ChatExchange, error) {
	f.calls++
	f.history = append([]domain.Message(nil), thread.Messages...)
	return f.exchange, f.err
}

type fakeGauge struct {
	points int64
	err    error
	calls  int
}

func (f *fakeGauge) FetchInferencePoints(_ context.Context) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.points, nil
}

type fakeVerifier struct {
	verdict bool
	called  bool
	before  *domain.PointsSnapshot
}

func (f *fakeVerifier) Resolve(_ context.Context, before *domain.PointsSnapshot) bool {
	f.called = true
	f.before = before
	return f.verdict
}

type recordingSleeper struct {
	delays []time.Duration
	err    error
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
