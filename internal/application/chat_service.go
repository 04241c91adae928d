package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

// Placeholder assistant replies for exchanges the service accepted but the
// client could not interpret, and for aborted-but-verified deliveries.
const (
	placeholderEmptyBody     = "[assistant reply missing: response streaming not fully implemented by the service]"
	placeholderUnparseable   = "[assistant reply could not be parsed]"
	placeholderNoContent     = "[assistant reply could not be interpreted]"
	placeholderAbortVerified = "[stream aborted mid-reply; delivery verified via usage points]"
)

// ChatService owns the live thread and drives one send at a time through the
// transport, falling back to points-based verification when the transport
// cannot say whether the message landed.
type ChatService struct {
	transport ports.ChatTransport
	gauge     ports.PointsGauge
	verifier  ports.OutcomeVerifier
	clock     ports.Clock
	log       *logrus.Logger

	model    string
	language string
	thread   *domain.Thread
}

func NewChatService(transport ports.ChatTransport, gauge ports.PointsGauge, verifier ports.OutcomeVerifier, clock ports.Clock, log *logrus.Logger) *ChatService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &ChatService{
		transport: transport,
		gauge:     gauge,
		verifier:  verifier,
		clock:     clock,
		log:       log,
		language:  "en",
	}
}

func (s *ChatService) SetModel(model string) {
	s.model = model
}

func (s *ChatService) SetLanguage(language string) {
	if language != "" {
		s.language = language
	}
}

// CreateThread starts a fresh thread, replacing any existing one.
func (s *ChatService) CreateThread(title string) *domain.Thread {
	s.thread = domain.NewThread(title, s.clock.Now())
	s.log.WithFields(logrus.Fields{
		"thread": s.thread.ID,
		"title":  title,
	}).Info("created thread")
	return s.thread
}

func (s *ChatService) Thread() *domain.Thread {
	return s.thread
}

// Send appends the user message to the thread, posts the full history and
// appends the assistant reply. The user message stays in the thread
// regardless of outcome; only a send whose delivery cannot be proven fails.
func (s *ChatService) Send(ctx context.Context, content string) (string, error) {
	if s.model == "" {
		return "", domain.ErrNoModelSelected
	}
	if s.thread == nil {
		s.CreateThread("")
	}

	before := s.samplePoints(ctx)

	s.thread.Append(domain.RoleUser, content)

	exchange, err := s.transport.SendThread(ctx, s.thread, s.model, s.language)
	if err != nil {
		var exhaustErr *domain.ExhaustionError
		if errors.As(err, &exhaustErr) {
			return s.resolveUnverified(ctx, before, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrChatDeliveryFailed, err)
	}

	if exchange.Outcome == ports.OutcomeAborted {
		return s.resolveUnverified(ctx, before, nil)
	}

	reply := replyFor(exchange)
	if exchange.Outcome != ports.OutcomeContent {
		s.log.WithFields(logrus.Fields{
			"thread":     s.thread.ID,
			"outcome":    exchange.Outcome,
			"raw_prefix": exchange.RawPrefix,
		}).Warn("response transported but not interpretable")
	}

	s.thread.Append(domain.RoleAssistant, reply)
	return reply, nil
}

// resolveUnverified is the degraded path: transport could not prove
// delivery, so the points counter is the only witness left.
func (s *ChatService) resolveUnverified(ctx context.Context, before *domain.PointsSnapshot, cause error) (string, error) {
	if s.verifier.Resolve(ctx, before) {
		s.thread.Append(domain.RoleAssistant, placeholderAbortVerified)
		return placeholderAbortVerified, nil
	}

	if cause != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrChatDeliveryFailed, cause)
	}
	return "", fmt.Errorf("%w: stream aborted and delivery not verified", domain.ErrChatDeliveryFailed)
}

// samplePoints is best effort: a failed baseline read only disables later
// verification, it never blocks the send.
func (s *ChatService) samplePoints(ctx context.Context) *domain.PointsSnapshot {
	points, err := s.gauge.FetchInferencePoints(ctx)
	if err != nil {
		s.log.WithError(err).Warn("baseline points sample failed, verification disabled for this send")
		return nil
	}

	return &domain.PointsSnapshot{Points: points, SampledAt: s.clock.Now()}
}

func replyFor(exchange ports.ChatExchange) string {
	switch exchange.Outcome {
	case ports.OutcomeContent:
		return exchange.Content
	case ports.OutcomeEmptyBody:
		return placeholderEmptyBody
	case ports.OutcomeUnparseable:
		return placeholderUnparseable
	default:
		return placeholderNoContent
	}
}
