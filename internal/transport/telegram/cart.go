package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/config"
	"github.com/DmitriiButk/market-bot/internal/service"
	"github.com/DmitriiButk/market-bot/internal/state"
)

const cartEmptyText = "🛒 Ваша корзина пуста"

func (h *Handler) showCart(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID

	lines, err := h.cart.List(ctx, userID)
	if err != nil {
		h.log.Error("Ошибка при загрузке корзины",
			zap.Int64("user_id", userID), zap.Error(err))
		h.answerCallback(cq.ID, errDefault)
		return
	}

	if len(lines) == 0 {
		h.editText(cq, cartEmptyText, cartEmptyKeyboard())
		return
	}

	var b strings.Builder
	b.WriteString("🛒 <b>Ваша корзина:</b>\n\n")

	var total int64
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(lines)+3)
	for i, l := range lines {
		lineTotal := l.LineTotalKopecks()
		total += lineTotal
		fmt.Fprintf(&b, "%d. %s\n   %s ₽ x %d = %s ₽\n\n",
			i+1, l.Name, rubles(l.PriceKopecks), l.Quantity, rubles(lineTotal))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ %s", l.Name),
				fmt.Sprintf("remove_%d", l.ItemID)),
		))
	}
	fmt.Fprintf(&b, "💰 <b>Итого: %s ₽</b>", rubles(total))

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Оформить заказ", "checkout"),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Очистить корзину", "clear_cart"),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(mainMenuButton()))

	h.editText(cq, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// requestQuantity начинает диалог выбора количества для товара.
func (h *Handler) requestQuantity(ctx context.Context, cq *tgbotapi.CallbackQuery, productID int64) {
	product, err := h.cart.BeginQuantity(ctx, cq.From.ID, productID)
	if err != nil {
		h.log.Error("Не удалось начать выбор количества",
			zap.Int64("user_id", cq.From.ID),
			zap.Int64("product_id", productID), zap.Error(err))
		h.answerCallback(cq.ID, "Товар не найден")
		return
	}

	h.editText(cq,
		fmt.Sprintf("Сколько штук «%s» добавить в корзину?", product.Name),
		quantityKeyboard())
}

// handleQuantityChoice обрабатывает кнопки количества; «Другое» переводит
// диалог в режим ручного ввода.
func (h *Handler) handleQuantityChoice(ctx context.Context, cq *tgbotapi.CallbackQuery, choice string) {
	userID := cq.From.ID

	if choice == "other" {
		if err := h.states.SetStage(ctx, userID, state.StageAwaitingQuantity); err != nil {
			h.log.Error("Не удалось обновить состояние диалога",
				zap.Int64("user_id", userID), zap.Error(err))
			h.answerCallback(cq.ID, errDefault)
			return
		}
		h.editText(cq,
			fmt.Sprintf("Введите количество от 1 до %d:", config.MaxProductQuantity),
			cancelQuantityKeyboard())
		return
	}

	qty, err := strconv.Atoi(choice)
	if err != nil {
		h.log.Warn("Некорректный callback количества", zap.String("choice", choice))
		return
	}

	product, err := h.cart.AddSelected(ctx, userID, qty)
	if err != nil {
		h.handleAddError(cq, userID, err)
		return
	}

	h.editText(cq,
		fmt.Sprintf("✅ «%s» x %d добавлен в корзину!", product.Name, qty),
		productAddedKeyboard())
}

// handleCustomQuantity принимает количество, введённое текстом.
func (h *Handler) handleCustomQuantity(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	qty, err := service.ParseQuantity(msg.Text)
	if err != nil {
		m := tgbotapi.NewMessage(msg.Chat.ID,
			fmt.Sprintf("Пожалуйста, введите число от 1 до %d.", config.MaxProductQuantity))
		m.ReplyMarkup = cancelQuantityKeyboard()
		h.send(m)
		return
	}

	product, err := h.cart.AddSelected(ctx, userID, qty)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveFlow) {
			h.sendMainMenu(msg.Chat.ID)
			return
		}
		h.log.Error("Не удалось добавить товар в корзину",
			zap.Int64("user_id", userID), zap.Error(err))
		h.send(tgbotapi.NewMessage(msg.Chat.ID, errDefault))
		return
	}

	m := tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("✅ «%s» x %d добавлен в корзину!", product.Name, qty))
	m.ReplyMarkup = productAddedKeyboard()
	h.send(m)
}

func (h *Handler) handleAddError(cq *tgbotapi.CallbackQuery, userID int64, err error) {
	if errors.Is(err, service.ErrNoActiveFlow) {
		h.answerCallback(cq.ID, "Выбор товара устарел, откройте карточку заново")
		return
	}
	h.log.Error("Не удалось добавить товар в корзину",
		zap.Int64("user_id", userID), zap.Error(err))
	h.answerCallback(cq.ID, errDefault)
}

func (h *Handler) removeCartItem(ctx context.Context, cq *tgbotapi.CallbackQuery, itemID int64) {
	userID := cq.From.ID

	if err := h.cart.Remove(ctx, userID, itemID); err != nil {
		h.log.Error("Ошибка при удалении из корзины",
			zap.Int64("user_id", userID), zap.Int64("item_id", itemID), zap.Error(err))
		h.answerCallback(cq.ID, errDefault)
		return
	}

	h.answerCallback(cq.ID, "Товар удалён из корзины")
	h.showCart(ctx, cq)
}

func (h *Handler) clearCart(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID

	if err := h.cart.Clear(ctx, userID); err != nil {
		h.log.Error("Ошибка при очистке корзины",
			zap.Int64("user_id", userID), zap.Error(err))
		h.answerCallback(cq.ID, errDefault)
		return
	}

	h.editText(cq, cartEmptyText, cartEmptyKeyboard())
}
