package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/config"
	"github.com/DmitriiButk/market-bot/internal/repository"
	"github.com/DmitriiButk/market-bot/internal/service"
	"github.com/DmitriiButk/market-bot/internal/state"
	"github.com/DmitriiButk/market-bot/internal/subscription"
)

const errDefault = "Произошла ошибка. Пожалуйста, попробуйте позже."

// Handler связывает обновления Telegram с сервисами магазина. Все тексты
// сообщений и клавиатуры живут здесь, сервисы возвращают только факты.
type Handler struct {
	bot      *tgbotapi.BotAPI
	catalog  repository.CatalogRepo
	cart     *service.CartService
	checkout *service.CheckoutService
	faq      *service.FAQService
	states   state.Store
	checker  *subscription.Checker
	channels []config.Channel
	log      *zap.Logger
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	catalog repository.CatalogRepo,
	cart *service.CartService,
	checkout *service.CheckoutService,
	faq *service.FAQService,
	states state.Store,
	checker *subscription.Checker,
	channels []config.Channel,
	log *zap.Logger,
) *Handler {
	return &Handler{
		bot:      bot,
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		faq:      faq,
		states:   states,
		checker:  checker,
		channels: channels,
		log:      log,
	}
}

// Run запускает long-polling цикл до отмены контекста.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)

	h.log.Info("БОТ ЗАПУЩЕН", zap.String("username", h.bot.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			h.log.Info("БОТ ОСТАНОВЛЕН")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Паника при обработке обновления", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID
	data := cq.Data

	// Переход в меню, каталог или корзину прерывает текущий диалог.
	if data == "main_menu" || data == "catalog" || data == "cart" || data == "faq" {
		if err := h.states.Clear(ctx, userID); err != nil {
			h.log.Warn("Не удалось сбросить состояние диалога",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	switch {
	case data == "main_menu":
		h.showMainMenu(cq)
	case data == "catalog":
		h.showCategories(ctx, cq)
	case strings.HasPrefix(data, "category_"):
		h.showCategory(ctx, cq, numericSuffix(data, "category_"))
	case strings.HasPrefix(data, "subcategory_"):
		h.showSubcategoryProducts(ctx, cq, numericSuffix(data, "subcategory_"))
	case strings.HasPrefix(data, "products_page_"):
		h.handleProductsPage(ctx, cq)
	case strings.HasPrefix(data, "product_"):
		h.showProduct(ctx, cq, numericSuffix(data, "product_"))
	case strings.HasPrefix(data, "add_to_cart_"):
		h.requestQuantity(ctx, cq, numericSuffix(data, "add_to_cart_"))
	case strings.HasPrefix(data, "quantity_"):
		h.handleQuantityChoice(ctx, cq, strings.TrimPrefix(data, "quantity_"))
	case data == "cart":
		h.showCart(ctx, cq)
	case strings.HasPrefix(data, "remove_"):
		h.removeCartItem(ctx, cq, numericSuffix(data, "remove_"))
	case data == "clear_cart":
		h.clearCart(ctx, cq)
	case data == "checkout":
		h.startCheckout(ctx, cq)
	case data == "enter_delivery_data":
		h.enterDeliveryData(ctx, cq)
	case data == "faq":
		h.showFAQ(cq)
	case data == "faq_list":
		h.showFAQList(ctx, cq)
	case data == "ask_question":
		h.askQuestion(ctx, cq)
	case strings.HasPrefix(data, "uq_"):
		h.showAnswer(ctx, cq, numericSuffix(data, "uq_"))
	case data == "check_subscription":
		h.checkSubscription(ctx, cq)
	case data == "ignore":
		// номер страницы, нажатие ничего не делает
	default:
		h.log.Warn("Неизвестный callback",
			zap.Int64("user_id", userID), zap.String("data", data))
	}

	h.answerCallback(cq.ID, "")
}

// handleMessage маршрутизирует текстовый ввод по активному шагу диалога.
func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() && msg.Command() == "start" {
		h.handleStart(ctx, msg)
		return
	}

	userID := msg.From.ID
	st, err := h.states.Get(ctx, userID)
	if err != nil {
		// активного диалога нет — показываем меню
		h.sendMainMenu(msg.Chat.ID)
		return
	}

	switch st.Stage {
	case state.StageAwaitingQuantity:
		h.handleCustomQuantity(ctx, msg)
	case state.StageAwaitingName:
		h.handleCheckoutName(ctx, msg)
	case state.StageAwaitingPhone:
		h.handleCheckoutPhone(ctx, msg)
	case state.StageAwaitingAddress:
		h.handleCheckoutAddress(ctx, msg)
	case state.StageAwaitingQuestion:
		h.handleQuestionText(ctx, msg)
	default:
		h.sendMainMenu(msg.Chat.ID)
	}
}

func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.log.Warn("Не удалось ответить на callback", zap.Error(err))
	}
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.log.Error("Не удалось отправить сообщение", zap.Error(err))
	}
}

func (h *Handler) editText(cq *tgbotapi.CallbackQuery, text string, kb tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, kb)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}
		h.log.Error("Не удалось отредактировать сообщение", zap.Error(err))
	}
}

func numericSuffix(data, prefix string) int64 {
	id, _ := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id
}
