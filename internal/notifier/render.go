package notifier

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"crypto-alert-service/internal/price"
	"crypto-alert-service/internal/types"
	"crypto-alert-service/lib/helpers"
	"crypto-alert-service/lib/translation"
)

func directionVerb(d types.Direction) string {
	if d == types.DirectionFall {
		return translation.Translate("dropped")
	}
	return translation.Translate("rose")
}

// renderTrigger builds both channel renderings of one trigger notification.
func renderTrigger(cfg Config, rec types.TriggerRecord, quote *price.Quote) Message {
	verb := directionVerb(rec.Direction)

	subject := fmt.Sprintf(
		translation.Translate("%s alert: %s %s %s"),
		cfg.ServiceName, rec.Symbol, verb, helpers.FormatPercent(rec.ChangePercent),
	)

	var text strings.Builder
	fmt.Fprintf(&text, translation.Translate("%s %s %s since your alert was created.")+"\n\n",
		rec.Symbol, verb, helpers.FormatPercent(rec.ChangePercent))
	fmt.Fprintf(&text, translation.Translate("Base price:")+" $%s\n", helpers.FormatPriceUS(rec.BasePrice, false))
	fmt.Fprintf(&text, translation.Translate("Current price:")+" $%s\n", helpers.FormatPriceUS(rec.TriggerPrice, false))
	fmt.Fprintf(&text, translation.Translate("Threshold:")+" %s\n", helpers.FormatPercent(rec.ThresholdPercent))
	fmt.Fprintf(&text, translation.Translate("Triggered:")+" %s\n", humanize.Time(rec.TriggeredAt))
	if quote != nil {
		fmt.Fprintf(&text, "\n"+translation.Translate("24h change:")+" %s\n", helpers.FormatPercent(quote.PercentChange24h))
		fmt.Fprintf(&text, translation.Translate("24h volume:")+" $%s\n", humanize.Comma(int64(quote.Volume24h)))
	}
	if cfg.WebsiteURL != "" {
		fmt.Fprintf(&text, "\n"+translation.Translate("This alert will not fire again.")+"\n")
		fmt.Fprintf(&text, translation.Translate("Manage your alerts:")+" %s\n", stopLink(cfg, rec))
		fmt.Fprintf(&text, translation.Translate("Unsubscribe from all alerts:")+" %s\n", unsubscribeLink(cfg, rec))
	}

	var md strings.Builder
	fmt.Fprintf(&md, "*%s* %s *%s*\n\n",
		helpers.EscapeMarkdownV2(rec.Symbol),
		helpers.EscapeMarkdownV2(verb),
		helpers.EscapeMarkdownV2(helpers.FormatPercent(rec.ChangePercent)))
	fmt.Fprintf(&md, helpers.EscapeMarkdownV2(translation.Translate("Base price:"))+" $%s\n", helpers.FormatPriceUS(rec.BasePrice, true))
	fmt.Fprintf(&md, helpers.EscapeMarkdownV2(translation.Translate("Current price:"))+" $%s\n", helpers.FormatPriceUS(rec.TriggerPrice, true))
	fmt.Fprintf(&md, helpers.EscapeMarkdownV2(translation.Translate("Threshold:"))+" %s\n",
		helpers.EscapeMarkdownV2(helpers.FormatPercent(rec.ThresholdPercent)))
	if quote != nil {
		fmt.Fprintf(&md, helpers.EscapeMarkdownV2(translation.Translate("24h change:"))+" %s\n",
			helpers.EscapeMarkdownV2(helpers.FormatPercent(quote.PercentChange24h)))
	}
	if cfg.WebsiteURL != "" {
		fmt.Fprintf(&md, "\n[%s](%s)",
			helpers.EscapeMarkdownV2(translation.Translate("Stop this alert")),
			stopLink(cfg, rec))
	}

	return Message{
		Subject:  subject,
		Text:     text.String(),
		Markdown: md.String(),
	}
}

func stopLink(cfg Config, rec types.TriggerRecord) string {
	return fmt.Sprintf("%s/stop?token=%s", strings.TrimRight(cfg.WebsiteURL, "/"), rec.AlertToken)
}

func unsubscribeLink(cfg Config, rec types.TriggerRecord) string {
	return fmt.Sprintf("%s/unsubscribe?token=%s", strings.TrimRight(cfg.WebsiteURL, "/"), rec.UnsubscribeToken)
}
