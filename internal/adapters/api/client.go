package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

const (
	identityPath = "/me"
	chatPath     = "/chat"
	pointsPath   = "/points"

	maxBodySize      = 4 << 20
	defaultUserAgent = "chatdrive/client"
)

type Client struct {
	baseURL string
	hc      *http.Client
	creds   ports.CredentialProvider
	retry   *Executor
	log     *logrus.Logger
}

var (
	_ ports.IdentityClient = (*Client)(nil)
	_ ports.PointsGauge    = (*Client)(nil)
	_ ports.ChatTransport  = (*Client)(nil)
)

func NewClient(baseURL string, hc *http.Client, creds ports.CredentialProvider, retry *Executor, log *logrus.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 120 * time.Second}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		creds:   creds,
		retry:   retry,
		log:     log,
	}
}

type identityPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type pointsPayload struct {
	Points int64 `json:"points"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Language string        `json:"language"`
	Messages []chatMessage `json:"messages"`
	Model    string        `json:"model"`
	Sources  []string      `json:"sources"`
}

// FetchIdentity resolves the identity behind the active credential, rotating
// the pool on authorization failure.
func (c *Client) FetchIdentity(ctx context.Context) (domain.Identity, error) {
	var identity domain.Identity
	err := c.retry.Do(ctx, "identity.fetch", func(ctx context.Context) error {
		cred, ok := c.creds.ActiveCredential()
		if !ok {
			return domain.ErrNotAuthenticated
		}

		fetched, err := c.fetchIdentity(ctx, cred)
		if err != nil {
			return err
		}
		identity = fetched
		return nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("fetch identity: %w", err)
	}

	return identity, nil
}

// ValidateCredential challenges one specific credential. Transient failures
// are retried; a definitive rejection reports ok=false without error and is
// never retried.
func (c *Client) ValidateCredential(ctx context.Context, cred domain.Credential) (domain.Identity, bool, error) {
	var identity domain.Identity
	valid := false
	err := c.retry.DoFixed(ctx, "identity.validate", func(ctx context.Context) error {
		fetched, err := c.fetchIdentity(ctx, cred)
		if err != nil {
			var authErr *domain.AuthorizationError
			if errors.As(err, &authErr) {
				valid = false
				return nil
			}
			return err
		}
		identity = fetched
		valid = true
		return nil
	})
	if err != nil {
		return domain.Identity{}, false, fmt.Errorf("validate credential: %w", err)
	}

	return identity, valid, nil
}

func (c *Client) fetchIdentity(ctx context.Context, cred domain.Credential) (domain.Identity, error) {
	body, err := c.get(ctx, identityPath, cred)
	if err != nil {
		return domain.Identity{}, err
	}

	var payload identityPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity payload: %w", err)
	}

	return domain.Identity{
		ID:         payload.ID,
		Name:       payload.Name,
		Email:      payload.Email,
		Credential: cred,
	}, nil
}

// FetchInferencePoints reads the usage counter for the active account.
func (c *Client) FetchInferencePoints(ctx context.Context) (int64, error) {
	var points int64
	err := c.retry.Do(ctx, "points.fetch", func(ctx context.Context) error {
		cred, ok := c.creds.ActiveCredential()
		if !ok {
			return domain.ErrNotAuthenticated
		}

		body, err := c.get(ctx, pointsPath, cred)
		if err != nil {
			return err
		}

		var payload pointsPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("decode points payload: %w", err)
		}
		points = payload.Points
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fetch inference points: %w", err)
	}

	return points, nil
}

// SendThread posts the full thread history to the chat endpoint. A stream
// cut mid-body after the service accepted the request is reported as an
// aborted exchange, not as an error.
func (c *Client) SendThread(ctx context.Context, thread *domain.Thread, model, language string) (ports.ChatExchange, error) {
	payload := chatRequest{
		ID:       thread.ID,
		Title:    thread.Title,
		Language: language,
		Messages: make([]chatMessage, 0, len(thread.Messages)),
		Model:    model,
		Sources:  []string{},
	}
	for _, msg := range thread.Messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return ports.ChatExchange{}, fmt.Errorf("encode chat request: %w", err)
	}

	var exchange ports.ChatExchange
	err = c.retry.Do(ctx, "chat.send", func(ctx context.Context) error {
		cred, ok := c.creds.ActiveCredential()
		if !ok {
			return domain.ErrNotAuthenticated
		}

		body, err := c.post(ctx, chatPath, cred, encoded)
		if err != nil {
			return err
		}
		exchange = ParseExchange(body)
		return nil
	})
	if err != nil {
		var abortErr *domain.StreamAbortError
		if errors.As(err, &abortErr) {
			return ports.ChatExchange{Outcome: ports.OutcomeAborted, RawPrefix: rawPrefix([]byte(abortErr.Partial))}, nil
		}
		return ports.ChatExchange{}, fmt.Errorf("send thread: %w", err)
	}

	return exchange, nil
}

func (c *Client) get(ctx context.Context, path string, cred domain.Credential) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.do(req, cred)
}

func (c *Client) post(ctx context.Context, path string, cred domain.Credential, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, cred)
}

func (c *Client) do(req *http.Request, cred domain.Credential) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+string(cred))
	req.Header.Set("User-Agent", defaultUserAgent)

	response, err := c.hc.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodySize))
	if err != nil {
		if response.StatusCode == http.StatusOK {
			// The service accepted the request and started answering before
			// the connection died.
			return nil, &domain.StreamAbortError{Partial: string(body), Err: err}
		}
		return nil, classifyTransportError(err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, classifyStatus(response.StatusCode, body)
	}

	return body, nil
}

func classifyStatus(status int, body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &domain.AuthorizationError{Status: status, Body: trimmed}
	case status >= 500:
		return &domain.TransientError{Status: status, Err: fmt.Errorf("status %d: %s", status, trimmed)}
	default:
		return &domain.RequestError{Status: status, Body: trimmed}
	}
}

// classifyTransportError tags network-level failures that are worth
// retrying. Context cancellation is never transient.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.TransientError{Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &domain.TransientError{Err: err}
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return &domain.TransientError{Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &domain.TransientError{Err: err}
	}

	return err
}
