package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/camuig/signal-desk/internal/config"
	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/signals"
)

type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool
	logger  *logger.Logger
}

func NewNotifier(cfg config.TelegramConfig, log *logger.Logger) *Notifier {
	if !cfg.Enabled {
		return &Notifier{enabled: false, logger: log}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Error("failed to create telegram bot", "error", err)
		return &Notifier{enabled: false, logger: log}
	}

	log.Info("telegram bot connected", "username", bot.Self.UserName)

	return &Notifier{
		bot:     bot,
		chatID:  cfg.ChatID,
		enabled: true,
		logger:  log,
	}
}

func (n *Notifier) Enabled() bool { return n.enabled }

func (n *Notifier) NotifyClose(trade signals.ClosedTrade, dryRun bool) {
	n.send(closeMessage(trade, dryRun))
}

func (n *Notifier) NotifyError(context string, err error) {
	n.send(fmt.Sprintf("⚠️ *Error* [%s]\n%v", context, err))
}

func closeMessage(trade signals.ClosedTrade, dryRun bool) string {
	profit, _ := trade.RealizedProfit()
	emoji := "🔴"
	if profit > 0 {
		emoji = "💰"
	}

	var b strings.Builder
	if dryRun {
		b.WriteString("🧪 [DRY RUN] ")
	}
	fmt.Fprintf(&b, "%s *CLOSE* %s", emoji, trade.Ticker)
	if name := trade.DisplayName(); name != trade.Ticker {
		fmt.Fprintf(&b, " (%s)", name)
	}
	if trade.BuyPrice != nil {
		fmt.Fprintf(&b, "\nBuy: %.2f", *trade.BuyPrice)
	}
	if trade.ClosePrice != nil {
		fmt.Fprintf(&b, "\nClose: %.2f", *trade.ClosePrice)
	}
	if trade.BuyAmount != nil {
		fmt.Fprintf(&b, "\nAmount: %g", *trade.BuyAmount)
	}
	fmt.Fprintf(&b, "\nP&L: %+.2f", profit)
	if trade.ClosedAt != nil {
		fmt.Fprintf(&b, "\nDate: %s", trade.ClosedAt.Format("2006-01-02"))
	}
	return b.String()
}

func (n *Notifier) send(text string) {
	if !n.enabled {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("send telegram message", "error", err)
	}
}
