package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/internal/state"
)

const questionPreviewLen = 50

func (h *Handler) showFAQ(cq *tgbotapi.CallbackQuery) {
	h.editText(cq,
		"❓ <b>Часто задаваемые вопросы</b>\n\nПосмотрите ответы на вопросы других покупателей или задайте свой.",
		faqKeyboard())
}

// showFAQList показывает отвеченные вопросы, по кнопке на каждый.
func (h *Handler) showFAQList(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	questions, err := h.faq.ListAnswered(ctx)
	if err != nil {
		h.log.Error("Ошибка при загрузке вопросов", zap.Error(err))
		h.answerCallback(cq.ID, errDefault)
		return
	}

	if len(questions) == 0 {
		h.editText(cq, "Отвеченных вопросов пока нет. Задайте свой — мы ответим!",
			faqKeyboard())
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(questions)+1)
	for _, q := range questions {
		preview := q.Question
		if len([]rune(preview)) > questionPreviewLen {
			preview = string([]rune(preview)[:questionPreviewLen]) + "..."
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(preview, fmt.Sprintf("uq_%d", q.ID)),
		))
	}
	rows = append(rows, backButtonRow("faq"))

	h.editText(cq, "📋 Выберите вопрос:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) showAnswer(ctx context.Context, cq *tgbotapi.CallbackQuery, questionID int64) {
	q, err := h.faq.GetAnswered(ctx, questionID)
	if err != nil {
		h.log.Error("Ошибка при загрузке ответа",
			zap.Int64("question_id", questionID), zap.Error(err))
		h.answerCallback(cq.ID, errDefault)
		return
	}
	if q == nil {
		h.answerCallback(cq.ID, "Ответ на этот вопрос ещё не готов")
		return
	}

	text := fmt.Sprintf("❓ <b>Вопрос:</b>\n%s\n\n💬 <b>Ответ:</b>\n%s", q.Question, *q.Answer)
	h.editText(cq, text, tgbotapi.NewInlineKeyboardMarkup(
		backButtonRow("faq_list"),
		tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
	))
}

// askQuestion переводит диалог в режим ожидания текста вопроса.
func (h *Handler) askQuestion(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if err := h.states.SetStage(ctx, cq.From.ID, state.StageAwaitingQuestion); err != nil {
		h.log.Error("Не удалось обновить состояние диалога",
			zap.Int64("user_id", cq.From.ID), zap.Error(err))
		h.answerCallback(cq.ID, errDefault)
		return
	}

	h.editText(cq, "✍️ Напишите ваш вопрос одним сообщением:",
		tgbotapi.NewInlineKeyboardMarkup(backButtonRow("faq")))
}

func (h *Handler) handleQuestionText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	question := strings.TrimSpace(msg.Text)
	if question == "" {
		h.send(tgbotapi.NewMessage(msg.Chat.ID, "Вопрос не может быть пустым. Напишите его текстом:"))
		return
	}

	if err := h.faq.Ask(ctx, userID, question); err != nil {
		h.log.Error("Не удалось сохранить вопрос",
			zap.Int64("user_id", userID), zap.Error(err))
		h.send(tgbotapi.NewMessage(msg.Chat.ID, errDefault))
		return
	}

	if err := h.states.Clear(ctx, userID); err != nil {
		h.log.Warn("Не удалось сбросить состояние диалога",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	m := tgbotapi.NewMessage(msg.Chat.ID,
		"✅ Ваш вопрос принят! Мы ответим на него в ближайшее время.")
	m.ReplyMarkup = mainMenuKeyboard()
	h.send(m)
}
