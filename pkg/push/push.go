package push

import (
	"context"
	"fmt"

	"github.com/namito/commerce-backend/pkg/config"
	"github.com/namito/commerce-backend/pkg/logger"
)

// Message is the transport-agnostic push payload.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a push message to a device token. Implementations wrap the
// actual transport (FCM in production); delivery guarantees are theirs.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the dry-run transport: it logs the message instead of sending
// it. Used in dev and whenever pushes are disabled.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds the logging transport.
func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

// Send logs the message and always succeeds.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if msg.Token == "" {
		return fmt.Errorf("push token is required")
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"push_title": msg.Title,
			"push_data":  msg.Data,
		})
		s.logg.Info(ctx, "push.dry_run")
	}
	return nil
}

// NewSender picks the transport implied by configuration. Only the dry-run
// transport ships with this service; the production FCM sender is wired by
// the deployment that owns the firebase credentials.
func NewSender(cfg config.PushConfig, logg *logger.Logger) Sender {
	if cfg.Enabled && !cfg.DryRun && logg != nil {
		logg.Warn(context.Background(), "push transport not configured, falling back to dry-run sender")
	}
	return NewLogSender(logg)
}
