package notifier

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-service/internal/types"
)

// botAPI is the slice of tgbotapi the sender uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers notifications to "telegram:<chat id>" contacts.
// Messages with a chart go out as a photo with a MarkdownV2 caption.
type TelegramSender struct {
	bot botAPI
}

func NewTelegramSender(token string, debug bool) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}
	bot.Debug = debug

	log.Infof("telegram sender authorized as @%s", bot.Self.UserName)
	return &TelegramSender{bot: bot}, nil
}

func (t *TelegramSender) Send(ctx context.Context, rec types.TriggerRecord, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := chatIDFromContact(rec.Contact)
	if err != nil {
		return err
	}

	if len(msg.Chart) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
			Name:  "chart.png",
			Bytes: msg.Chart,
		})
		photo.Caption = msg.Markdown
		photo.ParseMode = "MarkdownV2"

		_, err := t.bot.Send(photo)
		if err == nil {
			return nil
		}
		log.Warnf("chart photo failed for chat %d, falling back to text: %v", chatID, err)
	}

	m := tgbotapi.NewMessage(chatID, msg.Markdown)
	m.ParseMode = "MarkdownV2"
	m.DisableWebPagePreview = true
	if _, err := t.bot.Send(m); err != nil {
		return errors.Wrapf(err, "could not send telegram message to chat %d", chatID)
	}
	return nil
}

func chatIDFromContact(contact string) (int64, error) {
	raw := strings.TrimPrefix(contact, "telegram:")
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid telegram contact %q", contact)
	}
	return chatID, nil
}
