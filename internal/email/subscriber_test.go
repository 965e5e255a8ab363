package email_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campuslink/campuslink/internal/email"
	"github.com/campuslink/campuslink/internal/pubsub"
	"github.com/campuslink/campuslink/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures sent mail for assertions.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	to, subject, body string
}

func (r *recordingSender) Send(to, subject, htmlBody string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{to, subject, htmlBody})
	return nil
}

func (r *recordingSender) all() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMail(nil), r.sent...)
}

func TestRegistrationSubscriber_SendsVerificationMail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := pubsub.NewWatermillBridge()
	defer bus.Close()

	sender := &recordingSender{}
	codec := token.NewCodec("mail-test-secret")
	sub := email.NewRegistrationSubscriber(sender, codec, "http://localhost:5173")
	require.NoError(t, sub.Start(ctx, bus))

	payload, err := json.Marshal(pubsub.UserRegistered{
		UserID:   "user:alice",
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, pubsub.Message{
		Topic:   pubsub.TopicUserRegistered,
		Payload: payload,
	}))

	require.Eventually(t, func() bool {
		return len(sender.all()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mail := sender.all()[0]
	assert.Equal(t, "alice@example.com", mail.to)
	assert.Equal(t, "Verify Your Email", mail.subject)
	assert.Contains(t, mail.body, "alice")

	// The embedded link must carry a token that decodes back to the address.
	start := strings.Index(mail.body, "http://localhost:5173/verify-email/")
	require.GreaterOrEqual(t, start, 0)
	rest := mail.body[start+len("http://localhost:5173/verify-email/"):]
	tokenString := rest[:strings.IndexByte(rest, '"')]

	decoded, err := codec.VerifyEmailToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", decoded)
}
