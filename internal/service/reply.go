package service

import (
	"github.com/DmitriiButk/market-bot/internal/repository"
)

// ReplyKind — исход шага оформления заказа. Тексты сообщений и клавиатуры
// остаются на транспортном слое; сервис возвращает только факт.
type ReplyKind int

const (
	ReplyNone ReplyKind = iota

	ReplyPromptName
	ReplyPromptPhone
	ReplyPromptAddress

	ReplyBadPhone  // шаг не продвинулся, нужен повторный ввод
	ReplyCartEmpty // корзина пуста, оформление прервано

	// Терминальные исходы финализации.
	ReplySucceeded          // заказ создан, есть ссылка на оплату
	ReplyDegradedSuccess    // заказ создан, шлюз отказал — ручное сопровождение
	ReplyPaymentUnavailable // заказ создан, шлюз недоступен
	ReplyOrderFailed        // заказ не создан, общая ошибка
)

// Reply — результат шага диалога оформления.
type Reply struct {
	Kind ReplyKind

	OrderID      int64
	TotalKopecks int64
	PaymentURL   string

	// Детали для отображения итогов заказа.
	Lines   []repository.CartLine
	Name    string
	Phone   string
	Address string
}
