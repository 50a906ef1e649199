package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/internal/service"
)

// startCheckout показывает итоги корзины перед вводом данных доставки.
func (h *Handler) startCheckout(ctx context.Context, cq *tgbotapi.CallbackQuery) {
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
	b.WriteString("📦 <b>Ваш заказ:</b>\n\n")
	var total int64
	for _, l := range lines {
		total += l.LineTotalKopecks()
		fmt.Fprintf(&b, "• %s x %d = %s ₽\n", l.Name, l.Quantity, rubles(l.LineTotalKopecks()))
	}
	fmt.Fprintf(&b, "\n💰 <b>Итого: %s ₽</b>\n\nДля оформления понадобятся имя, телефон и адрес доставки.", rubles(total))

	h.editText(cq, b.String(), tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Ввести данные доставки", "enter_delivery_data"),
		),
		backButtonRow("cart"),
	))
}

// enterDeliveryData запускает пошаговый диалог оформления.
func (h *Handler) enterDeliveryData(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	reply, err := h.checkout.Begin(ctx, cq.From.ID)
	if err != nil {
		h.log.Error("Не удалось начать оформление заказа",
			zap.Int64("user_id", cq.From.ID), zap.Error(err))
		h.answerCallback(cq.ID, errDefault)
		return
	}

	if reply.Kind == service.ReplyCartEmpty {
		h.editText(cq, cartEmptyText, cartEmptyKeyboard())
		return
	}
	h.editText(cq, "Введите ваше имя:", cancelCheckoutKeyboard())
}

func (h *Handler) handleCheckoutName(ctx context.Context, msg *tgbotapi.Message) {
	reply, err := h.checkout.HandleName(ctx, msg.From.ID, msg.Text)
	if err != nil {
		h.log.Error("Ошибка на шаге ввода имени",
			zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.send(tgbotapi.NewMessage(msg.Chat.ID, errDefault))
		return
	}
	h.sendCheckoutReply(msg.Chat.ID, reply)
}

func (h *Handler) handleCheckoutPhone(ctx context.Context, msg *tgbotapi.Message) {
	reply, err := h.checkout.HandlePhone(ctx, msg.From.ID, msg.Text)
	if err != nil {
		h.log.Error("Ошибка на шаге ввода телефона",
			zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.send(tgbotapi.NewMessage(msg.Chat.ID, errDefault))
		return
	}
	h.sendCheckoutReply(msg.Chat.ID, reply)
}

func (h *Handler) handleCheckoutAddress(ctx context.Context, msg *tgbotapi.Message) {
	reply, err := h.checkout.HandleAddress(ctx, msg.From.ID, msg.Text)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveFlow) {
			h.sendMainMenu(msg.Chat.ID)
			return
		}
		h.log.Error("Ошибка при завершении оформления",
			zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.send(tgbotapi.NewMessage(msg.Chat.ID, errDefault))
		return
	}
	h.sendCheckoutReply(msg.Chat.ID, reply)
}

// sendCheckoutReply переводит исход шага оформления в сообщение пользователю.
func (h *Handler) sendCheckoutReply(chatID int64, reply service.Reply) {
	switch reply.Kind {
	case service.ReplyPromptName:
		m := tgbotapi.NewMessage(chatID, "Введите ваше имя:")
		m.ReplyMarkup = cancelCheckoutKeyboard()
		h.send(m)

	case service.ReplyPromptPhone:
		m := tgbotapi.NewMessage(chatID, "Введите ваш номер телефона:")
		m.ReplyMarkup = cancelCheckoutKeyboard()
		h.send(m)

	case service.ReplyPromptAddress:
		m := tgbotapi.NewMessage(chatID, "Введите адрес доставки:")
		m.ReplyMarkup = cancelCheckoutKeyboard()
		h.send(m)

	case service.ReplyBadPhone:
		m := tgbotapi.NewMessage(chatID,
			"Некорректный номер телефона.\nВведите номер в формате +79991234567, 89991234567 или 9991234567:")
		m.ReplyMarkup = cancelCheckoutKeyboard()
		h.send(m)

	case service.ReplyCartEmpty:
		m := tgbotapi.NewMessage(chatID, cartEmptyText)
		m.ReplyMarkup = cartEmptyKeyboard()
		h.send(m)

	case service.ReplySucceeded:
		m := tgbotapi.NewMessage(chatID, orderSummary(reply)+
			"\n💳 Для оплаты нажмите кнопку ниже.")
		m.ParseMode = tgbotapi.ModeHTML
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("💳 Оплатить заказ", reply.PaymentURL),
			),
			tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
		)
		h.send(m)

	case service.ReplyDegradedSuccess:
		m := tgbotapi.NewMessage(chatID, orderSummary(reply)+
			"\n⚠️ Не удалось создать ссылку на оплату. Мы свяжемся с вами для оплаты заказа.")
		m.ParseMode = tgbotapi.ModeHTML
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
		)
		h.send(m)

	case service.ReplyPaymentUnavailable:
		m := tgbotapi.NewMessage(chatID, orderSummary(reply)+
			"\n⚠️ Платёжная система временно недоступна. Заказ сохранён, мы свяжемся с вами для оплаты.")
		m.ParseMode = tgbotapi.ModeHTML
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
		)
		h.send(m)

	case service.ReplyOrderFailed:
		m := tgbotapi.NewMessage(chatID,
			"❌ Не удалось оформить заказ. Пожалуйста, попробуйте позже.")
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
		)
		h.send(m)
	}
}

func orderSummary(reply service.Reply) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Заказ №%d оформлен!</b>\n\n", reply.OrderID)
	for _, l := range reply.Lines {
		fmt.Fprintf(&b, "• %s x %d = %s ₽\n", l.Name, l.Quantity, rubles(l.LineTotalKopecks()))
	}
	fmt.Fprintf(&b, "\n💰 Итого: <b>%s ₽</b>\n", rubles(reply.TotalKopecks))
	fmt.Fprintf(&b, "\n👤 %s\n📞 %s\n🏠 %s\n", reply.Name, reply.Phone, reply.Address)
	return b.String()
}
