package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/config"
)

const welcomeText = "Добро пожаловать в наш магазин! 🛍\n\nВыберите нужный раздел:"

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	// /start сбрасывает незавершённый диалог.
	if err := h.states.Clear(ctx, userID); err != nil {
		h.log.Warn("Не удалось сбросить состояние диалога",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	if missing := h.checker.MissingChannels(ctx, userID, h.channels); len(missing) > 0 {
		h.sendSubscriptionRequest(msg.Chat.ID, missing)
		return
	}

	h.sendMainMenu(msg.Chat.ID)
}

func (h *Handler) showMainMenu(cq *tgbotapi.CallbackQuery) {
	h.editText(cq, welcomeText, mainMenuKeyboard())
}

func (h *Handler) sendMainMenu(chatID int64) {
	m := tgbotapi.NewMessage(chatID, welcomeText)
	m.ReplyMarkup = mainMenuKeyboard()
	h.send(m)
}

func (h *Handler) sendSubscriptionRequest(chatID int64, missing []config.Channel) {
	var b strings.Builder
	b.WriteString("Для доступа к магазину подпишитесь на наши каналы:\n\n")
	for _, ch := range missing {
		fmt.Fprintf(&b, "📢 %s\n", ch.Name)
	}
	b.WriteString("\nПосле подписки нажмите «Проверить подписку».")

	m := tgbotapi.NewMessage(chatID, b.String())
	m.ReplyMarkup = subscriptionKeyboard(missing)
	h.send(m)
}

// checkSubscription перепроверяет подписку по нажатию кнопки.
func (h *Handler) checkSubscription(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID

	missing := h.checker.MissingChannels(ctx, userID, h.channels)
	if len(missing) > 0 {
		h.answerCallback(cq.ID, "Вы подписаны не на все каналы")

		var b strings.Builder
		b.WriteString("Вы ещё не подписаны на:\n\n")
		for _, ch := range missing {
			fmt.Fprintf(&b, "📢 %s\n", ch.Name)
		}
		b.WriteString("\nПосле подписки нажмите «Проверить подписку».")
		h.editText(cq, b.String(), subscriptionKeyboard(missing))
		return
	}

	h.answerCallback(cq.ID, "Спасибо за подписку!")
	h.editText(cq, welcomeText, mainMenuKeyboard())
}
