// Package notify delivers "report is ready" messages.
//
// Email is the primary channel (the report CSV rides along as an
// attachment); a Telegram channel can be enabled for operator
// visibility. Delivery failures are logged and reported upward as a
// plain error; they never abort or roll back a run.
package notify

import (
	"context"
	"errors"

	"linkscout/internal/analysis"
	logx "linkscout/pkg/logx"
)

// Config controls the delivery channels.
type Config struct {
	Email    EmailConfig
	Telegram TelegramConfig
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type TelegramConfig struct {
	Enabled bool
	Token   string
	ChatID  int64
}

// Service fans one notification out to every configured channel.
type Service struct {
	channels []analysis.Notifier
	log      logx.Logger
}

func NewService(log logx.Logger, channels ...analysis.Notifier) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{channels: channels, log: log}
}

// Notify delivers n on every channel. Per-channel failures are logged
// and joined into the returned error; one broken channel does not stop
// the others.
func (s *Service) Notify(ctx context.Context, n analysis.Notification) error {
	var errs []error
	for _, ch := range s.channels {
		if err := ch.Notify(ctx, n); err != nil {
			s.log.Warn("notification channel failed",
				logx.String("schedule", n.ScheduleName),
				logx.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
