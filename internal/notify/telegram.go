package notify

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"linkscout/internal/analysis"
)

// TelegramNotifier posts a short run summary to a fixed chat. It is a
// secondary operator channel; the recipient in the notification itself
// is only used by email.
type TelegramNotifier struct {
	bot    *tele.Bot
	chatID int64
}

func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	// Send-only: no poller, the bot never consumes updates.
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, n analysis.Notification) error {
	_ = ctx // telebot manages its own request deadlines

	text := fmt.Sprintf("Report ready: %s\nLinks: %d\nFile: %s\n%s",
		n.ScheduleName, n.RowCount, n.ArtifactPath,
		time.Now().Format("2006-01-02 15:04"))
	_, err := t.bot.Send(tele.ChatID(t.chatID), text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
