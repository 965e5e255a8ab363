package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/pubsub"
	"github.com/campuslink/campuslink/internal/token"
)

// RegistrationSubscriber listens for user registrations and sends the
// address verification mail. Running it off the bus keeps the registration
// request path free of outbound SMTP/API latency.
type RegistrationSubscriber struct {
	sender  domain.EmailSender
	codec   *token.Codec
	baseURL string
}

// NewRegistrationSubscriber creates the subscriber.
func NewRegistrationSubscriber(sender domain.EmailSender, codec *token.Codec, baseURL string) *RegistrationSubscriber {
	return &RegistrationSubscriber{sender: sender, codec: codec, baseURL: baseURL}
}

// Start subscribes to the registration topic on the given bus.
func (s *RegistrationSubscriber) Start(ctx context.Context, sub pubsub.Subscriber) error {
	return sub.Subscribe(ctx, pubsub.TopicUserRegistered, s.handle)
}

func (s *RegistrationSubscriber) handle(ctx context.Context, msg pubsub.Message) error {
	var event pubsub.UserRegistered
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode %s payload: %w", pubsub.TopicUserRegistered, err)
	}

	verificationToken, err := s.codec.IssueEmailToken(event.Email)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email/%s", s.baseURL, verificationToken)
	body := VerificationBody(event.Username, link)

	if err := s.sender.Send(event.Email, "Verify Your Email", body); err != nil {
		// Log and swallow: a failed mail must not poison the subscription.
		slog.Error("Failed to send verification email", "to", event.Email, "error", err)
	}
	return nil
}
