package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"linkscout/internal/analysis"
)

// EmailNotifier sends the report summary over SMTP with the CSV
// artifact attached.
type EmailNotifier struct {
	cfg EmailConfig

	// send is swappable for tests; defaults to dialing the SMTP host.
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	n := &EmailNotifier{cfg: cfg}
	n.send = n.dialAndSend
	return n
}

func (e *EmailNotifier) Notify(ctx context.Context, n analysis.Notification) error {
	msg := mail.NewMsg()
	if err := msg.From(e.cfg.From); err != nil {
		return fmt.Errorf("email from: %w", err)
	}
	if err := msg.To(n.Recipient); err != nil {
		return fmt.Errorf("email to: %w", err)
	}
	msg.Subject(fmt.Sprintf("Channel link report - %s", n.ScheduleName))
	msg.SetBodyString(mail.TypeTextHTML, reportBody(n))
	msg.AttachFile(n.ArtifactPath)

	if err := e.send(ctx, msg); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return nil
}

func (e *EmailNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(e.cfg.Host,
		mail.WithPort(e.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.cfg.Username),
		mail.WithPassword(e.cfg.Password),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func reportBody(n analysis.Notification) string {
	return fmt.Sprintf(`<h2>Channel link report</h2>
<p>Schedule: %s</p>
<p>Generated: %s</p>
<p>Links found: <strong>%d</strong></p>
<p>The full report is attached as CSV.</p>`,
		n.ScheduleName,
		time.Now().Format("2006-01-02 15:04:05"),
		n.RowCount,
	)
}
