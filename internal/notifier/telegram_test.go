package notifier

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramSenderText(t *testing.T) {
	bot := &fakeBot{}
	sender := &TelegramSender{bot: bot}

	err := sender.Send(context.Background(), testRecord("telegram:4242"), Message{
		Markdown: "*BTC/USD* rose *\\+5\\.00%*",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if len(bot.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(bot.sent))
	}
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent a %T, want MessageConfig", bot.sent[0])
	}
	if msg.ChatID != 4242 {
		t.Errorf("chat id = %d, want 4242", msg.ChatID)
	}
	if msg.ParseMode != "MarkdownV2" {
		t.Errorf("parse mode = %q", msg.ParseMode)
	}
}

func TestTelegramSenderPhoto(t *testing.T) {
	bot := &fakeBot{}
	sender := &TelegramSender{bot: bot}

	err := sender.Send(context.Background(), testRecord("telegram:4242"), Message{
		Markdown: "caption",
		Chart:    []byte{0x89, 0x50, 0x4e, 0x47},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if len(bot.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(bot.sent))
	}
	photo, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("sent a %T, want PhotoConfig", bot.sent[0])
	}
	if photo.Caption != "caption" {
		t.Errorf("caption = %q", photo.Caption)
	}
}

func TestTelegramSenderRejectsBadContact(t *testing.T) {
	sender := &TelegramSender{bot: &fakeBot{}}

	err := sender.Send(context.Background(), testRecord("telegram:not-a-number"), Message{Markdown: "x"})
	if err == nil {
		t.Fatal("expected an error for a malformed contact")
	}
}
