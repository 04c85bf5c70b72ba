// Package bot sends operator alerts to Telegram: bet signals, order
// confirmations and scheduler status lines.
package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/minutebid/minutebid/types"
)

// Notifier wraps the Telegram Bot API. A Notifier built without
// credentials silently drops every message, so callers never need to
// branch on whether alerting is configured.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New connects to Telegram. Empty token or chat id yields a disabled
// notifier, not an error.
func New(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		log.Warn().Msg("Telegram credentials missing, notifications disabled")
		return &Notifier{}, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("🤖 Telegram bot connected")

	return &Notifier{api: api, chatID: chatID}, nil
}

// Status sends a simple status heartbeat.
func (n *Notifier) Status(text string) {
	n.send(fmt.Sprintf("🤖 *Status:* %s", text))
}

// OpportunityAlert sends a bet signal for one detected opportunity.
func (n *Notifier) OpportunityAlert(opp types.Opportunity) {
	msg := "⚽ *BET SIGNAL*\n\n"
	msg += fmt.Sprintf("🏟 *Match:* %s\n", opp.Match)
	msg += fmt.Sprintf("⏱ *Minute:* ~%d", opp.Minute)
	if opp.Score != "" {
		msg += fmt.Sprintf("  (%s)", opp.Score)
	}
	msg += "\n\n"
	msg += fmt.Sprintf("🔥 *Outcome:* %s\n", opp.Outcome)
	msg += fmt.Sprintf("📍 *Polymarket:* %.1f¢\n", opp.PolyProb*100)
	if opp.ReferenceProb != nil && opp.Edge != nil {
		msg += fmt.Sprintf("📊 *Reference:* %.1f%%  *Edge:* %+.1f%%\n",
			*opp.ReferenceProb*100, *opp.Edge*100)
	}
	msg += fmt.Sprintf("\n[View on Polymarket](%s)", opp.MarketURL)
	n.send(msg)
}

// OrderConfirmation sends a confirmation after a successful CLOB order.
func (n *Notifier) OrderConfirmation(opp types.Opportunity, orderID string, stake decimal.Decimal) {
	msg := "✅ *BET PLACED*\n\n"
	msg += fmt.Sprintf("🏟 *Match:* %s\n", opp.Match)
	msg += fmt.Sprintf("⏱ *Minute:* ~%d\n\n", opp.Minute)
	msg += fmt.Sprintf("🎯 *Outcome:* %s\n", opp.Outcome)
	msg += fmt.Sprintf("💰 *Stake:* $%s @ %.1f¢\n", stake.StringFixed(2), opp.PolyProb*100)
	msg += fmt.Sprintf("🧾 *Order:* `%s`", orderID)
	n.send(msg)
}

func (n *Notifier) send(text string) {
	if n.api == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		log.Error().Err(err).Msg("Telegram send failed")
	}
}
