package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/internal/events"
	"github.com/DmitriiButk/market-bot/internal/models"
	"github.com/DmitriiButk/market-bot/internal/payments"
	"github.com/DmitriiButk/market-bot/internal/repository"
	"github.com/DmitriiButk/market-bot/internal/sheets"
	"github.com/DmitriiButk/market-bot/internal/state"
	"github.com/DmitriiButk/market-bot/pkg/metrics"
)

const (
	fieldName  = "name"
	fieldPhone = "phone"
)

// CheckoutService ведёт пользователя по шагам оформления заказа:
// имя -> телефон -> адрес -> финализация. Вся логика изоляции сбоев
// внешних систем сосредоточена здесь.
type CheckoutService struct {
	cart     repository.CartRepo
	orders   repository.OrderRepo
	states   state.Store
	gateway  payments.Gateway
	exporter sheets.Exporter
	bus      events.Bus // nil выключает публикацию событий
	log      *zap.Logger
	now      func() time.Time
}

func NewCheckoutService(
	cart repository.CartRepo,
	orders repository.OrderRepo,
	states state.Store,
	gateway payments.Gateway,
	exporter sheets.Exporter,
	bus events.Bus,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		cart:     cart,
		orders:   orders,
		states:   states,
		gateway:  gateway,
		exporter: exporter,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Begin начинает оформление. Пустая корзина прерывает оформление сразу,
// состояние диалога при этом не создаётся.
func (s *CheckoutService) Begin(ctx context.Context, userID int64) (Reply, error) {
	lines, err := s.cart.ListItems(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if len(lines) == 0 {
		return Reply{Kind: ReplyCartEmpty}, nil
	}

	if err := s.states.Set(ctx, userID, &state.State{Stage: state.StageAwaitingName}); err != nil {
		return Reply{}, err
	}
	return Reply{Kind: ReplyPromptName}, nil
}

// Cancel прерывает оформление на любом шаге. Долговременных записей к этому
// моменту ещё нет, компенсация не нужна.
func (s *CheckoutService) Cancel(ctx context.Context, userID int64) error {
	return s.states.Clear(ctx, userID)
}

// HandleName принимает имя: любой непустой текст.
func (s *CheckoutService) HandleName(ctx context.Context, userID int64, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Kind: ReplyPromptName}, nil
	}

	if err := s.states.SetField(ctx, userID, fieldName, text); err != nil {
		return Reply{}, err
	}
	if err := s.states.SetStage(ctx, userID, state.StageAwaitingPhone); err != nil {
		return Reply{}, err
	}
	return Reply{Kind: ReplyPromptPhone}, nil
}

// HandlePhone валидирует и нормализует телефон. Непригодный ввод не
// продвигает шаг, пользователь получает подсказку о формате.
func (s *CheckoutService) HandlePhone(ctx context.Context, userID int64, text string) (Reply, error) {
	normalized, err := NormalizePhone(text)
	if errors.Is(err, ErrBadPhone) {
		s.log.Info("Некорректный номер телефона при оформлении",
			zap.Int64("user_id", userID))
		return Reply{Kind: ReplyBadPhone}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	if err := s.states.SetField(ctx, userID, fieldPhone, normalized); err != nil {
		return Reply{}, err
	}
	if err := s.states.SetStage(ctx, userID, state.StageAwaitingAddress); err != nil {
		return Reply{}, err
	}
	return Reply{Kind: ReplyPromptAddress}, nil
}

// HandleAddress принимает адрес и запускает финализацию. С этого момента
// состояние диалога очищается на любом исходе.
func (s *CheckoutService) HandleAddress(ctx context.Context, userID int64, text string) (Reply, error) {
	address := strings.TrimSpace(text)
	if address == "" {
		return Reply{Kind: ReplyPromptAddress}, nil
	}

	st, err := s.states.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return Reply{}, ErrNoActiveFlow
		}
		return Reply{}, err
	}

	defer func() {
		if clearErr := s.states.Clear(ctx, userID); clearErr != nil {
			s.log.Error("Не удалось очистить состояние диалога",
				zap.Int64("user_id", userID), zap.Error(clearErr))
		}
	}()

	return s.finalize(ctx, userID, st.Field(fieldName), st.Field(fieldPhone), address)
}

// finalize выполняет шаги завершения строго по порядку: пересчёт корзины,
// атомарное создание заказа, лучшая попытка выгрузки в реестр, инициация
// платежа, сохранение платёжных реквизитов.
func (s *CheckoutService) finalize(ctx context.Context, userID int64, name, phone, address string) (Reply, error) {
	started := s.now()
	defer func() {
		metrics.CheckoutDuration.Observe(time.Since(started).Seconds())
	}()

	// Снимок корзины берётся заново: за время диалога она могла измениться.
	lines, err := s.cart.ListItems(ctx, userID)
	if err != nil {
		s.log.Error("Не удалось прочитать корзину при финализации",
			zap.Int64("user_id", userID), zap.Error(err))
		return Reply{Kind: ReplyOrderFailed}, nil
	}
	if len(lines) == 0 {
		s.log.Error("Попытка оформить заказ с пустой корзиной",
			zap.Int64("user_id", userID))
		return Reply{Kind: ReplyCartEmpty}, nil
	}

	var total int64
	for _, l := range lines {
		total += l.LineTotalKopecks()
	}

	orderID, err := s.orders.CreateOrder(ctx, userID, lines, name, phone, address, total)
	if err != nil {
		s.log.Error("Ошибка при сохранении заказа",
			zap.Int64("user_id", userID), zap.Error(err))
		return Reply{Kind: ReplyOrderFailed}, nil
	}
	metrics.OrdersCreated.Inc()

	// Заказ зафиксирован — корзина больше не нужна. Сбой не критичен.
	if err := s.cart.Clear(ctx, userID); err != nil {
		s.log.Error("Не удалось очистить корзину после заказа",
			zap.Int64("user_id", userID), zap.Int64("order_id", orderID), zap.Error(err))
	}

	// Выгрузка в реестр — побочный эффект, исход не влияет на оформление.
	if ok := s.exporter.ExportOrder(ctx, sheets.OrderSnapshot{
		OrderID:       orderID,
		UserID:        userID,
		Name:          name,
		Phone:         phone,
		Address:       address,
		TotalKopecks:  total,
		PaymentStatus: string(models.PaymentStatusPending),
		ProductsText:  productsText(lines),
		CreatedAt:     started,
	}); !ok {
		s.log.Warn("Выгрузка заказа в реестр не удалась",
			zap.Int64("order_id", orderID))
	}

	reply := Reply{
		OrderID:      orderID,
		TotalKopecks: total,
		Lines:        lines,
		Name:         name,
		Phone:        phone,
		Address:      address,
	}

	reference := payments.PaymentReference(orderID)
	result, err := s.gateway.InitPayment(ctx, payments.InitRequest{
		Reference:     reference,
		AmountKopecks: total,
		Description:   fmt.Sprintf("Заказ #%d в нашем магазине", orderID),
		CustomerPhone: phone,
	})
	if err != nil {
		// Шлюз недоступен: заказ уже зафиксирован и остаётся в силе.
		metrics.Payments.WithLabelValues("unreachable").Inc()
		s.publishOrderCreated(ctx, orderID, userID, lines, total, models.PaymentStatusFailed)
		reply.Kind = ReplyPaymentUnavailable
		return reply, nil
	}

	if !result.Success {
		// Шлюз ответил отказом: заказ в силе, оплату сопровождает менеджер.
		metrics.Payments.WithLabelValues("declined").Inc()
		s.log.Error("Платёжный шлюз отклонил платёж",
			zap.Int64("order_id", orderID),
			zap.String("error_code", result.ErrorCode),
			zap.String("message", result.Message))
		s.publishOrderCreated(ctx, orderID, userID, lines, total, models.PaymentStatusFailed)
		reply.Kind = ReplyDegradedSuccess
		return reply, nil
	}

	if err := s.orders.UpdatePaymentInfo(ctx, orderID, reference, result.PaymentURL, models.PaymentStatusPending); err != nil {
		// Заказ и платёж уже существуют, реквизиты допишет сверка.
		s.log.Error("Не удалось сохранить платёжные реквизиты",
			zap.Int64("order_id", orderID), zap.Error(err))
	}

	metrics.Payments.WithLabelValues("initiated").Inc()
	s.publishOrderCreated(ctx, orderID, userID, lines, total, models.PaymentStatusPending)

	reply.Kind = ReplySucceeded
	reply.PaymentURL = result.PaymentURL
	return reply, nil
}

func (s *CheckoutService) publishOrderCreated(ctx context.Context, orderID, userID int64, lines []repository.CartLine, total int64, status models.PaymentStatus) {
	if s.bus == nil {
		return
	}
	items := make([]events.OrderItemEvent, 0, len(lines))
	for _, l := range lines {
		items = append(items, events.OrderItemEvent{
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			PriceKopecks: l.PriceKopecks,
			Name:         l.Name,
		})
	}
	_ = s.bus.PublishOrderCreated(ctx, events.OrderCreatedEvent{
		OrderID:       orderID,
		UserID:        userID,
		Items:         items,
		TotalKopecks:  total,
		PaymentStatus: string(status),
		CreatedAt:     s.now(),
	})
}

func productsText(lines []repository.CartLine) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s x %d = %.2f ₽\n",
			l.Name, l.Quantity, float64(l.LineTotalKopecks())/100)
	}
	return b.String()
}
