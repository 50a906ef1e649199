package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/internal/events"
	"github.com/DmitriiButk/market-bot/internal/models"
	"github.com/DmitriiButk/market-bot/internal/payments"
	"github.com/DmitriiButk/market-bot/internal/repository"
	"github.com/DmitriiButk/market-bot/internal/sheets"
	"github.com/DmitriiButk/market-bot/internal/state"
)

// memStore — состояние диалогов в памяти для тестов.
type memStore struct {
	states map[int64]*state.State
}

func newMemStore() *memStore {
	return &memStore{states: map[int64]*state.State{}}
}

func (m *memStore) Get(_ context.Context, userID int64) (*state.State, error) {
	st, ok := m.states[userID]
	if !ok {
		return nil, state.ErrStateNotFound
	}
	return st, nil
}

func (m *memStore) Set(_ context.Context, userID int64, st *state.State) error {
	m.states[userID] = st
	return nil
}

func (m *memStore) SetStage(_ context.Context, userID int64, stage state.Stage) error {
	st, ok := m.states[userID]
	if !ok {
		st = &state.State{}
		m.states[userID] = st
	}
	st.Stage = stage
	return nil
}

func (m *memStore) SetField(_ context.Context, userID int64, key, value string) error {
	st, ok := m.states[userID]
	if !ok {
		st = &state.State{}
		m.states[userID] = st
	}
	if st.Scratch == nil {
		st.Scratch = map[string]string{}
	}
	st.Scratch[key] = value
	return nil
}

func (m *memStore) Clear(_ context.Context, userID int64) error {
	delete(m.states, userID)
	return nil
}

type mockCart struct {
	lines    map[int64][]repository.CartLine
	listErr  error
	clearErr error

	clearCalls int
}

func newMockCart() *mockCart {
	return &mockCart{lines: map[int64][]repository.CartLine{}}
}

func (m *mockCart) AddItem(_ context.Context, userID, productID int64, quantity int) error {
	m.lines[userID] = append(m.lines[userID], repository.CartLine{
		ProductID: productID, Quantity: quantity,
	})
	return nil
}

func (m *mockCart) ListItems(_ context.Context, userID int64) ([]repository.CartLine, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.lines[userID], nil
}

func (m *mockCart) RemoveItem(_ context.Context, _, _ int64) error { return nil }

func (m *mockCart) Clear(_ context.Context, userID int64) error {
	m.clearCalls++
	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.lines, userID)
	return nil
}

type mockOrders struct {
	nextID    int64
	createErr error
	updateErr error

	createdUserID int64
	createdLines  []repository.CartLine
	createdName   string
	createdPhone  string
	createdTotal  int64

	updatedOrderID   int64
	updatedPaymentID string
	updatedURL       string
	updateCalls      int
}

func (m *mockOrders) CreateOrder(_ context.Context, userID int64, lines []repository.CartLine, name, phone, _ string, totalKopecks int64) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.createdUserID = userID
	m.createdLines = lines
	m.createdName = name
	m.createdPhone = phone
	m.createdTotal = totalKopecks
	return m.nextID, nil
}

func (m *mockOrders) UpdatePaymentInfo(_ context.Context, orderID int64, paymentID, paymentURL string, _ models.PaymentStatus) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedOrderID = orderID
	m.updatedPaymentID = paymentID
	m.updatedURL = paymentURL
	return nil
}

func (m *mockOrders) GetWithItems(_ context.Context, _ int64) (*models.Order, error) {
	return nil, nil
}

func (m *mockOrders) Exists(_ context.Context, _ int64) (bool, error) { return false, nil }

type mockGateway struct {
	result payments.Result
	err    error

	request payments.InitRequest
	calls   int
}

func (m *mockGateway) InitPayment(_ context.Context, req payments.InitRequest) (payments.Result, error) {
	m.calls++
	m.request = req
	return m.result, m.err
}

type mockExporter struct {
	ok       bool
	calls    int
	snapshot sheets.OrderSnapshot
}

func (m *mockExporter) ExportOrder(_ context.Context, snap sheets.OrderSnapshot) bool {
	m.calls++
	m.snapshot = snap
	return m.ok
}

type mockBus struct {
	events []events.OrderCreatedEvent
}

func (m *mockBus) PublishOrderCreated(_ context.Context, e events.OrderCreatedEvent) error {
	m.events = append(m.events, e)
	return nil
}

type checkoutFixture struct {
	svc      *CheckoutService
	cart     *mockCart
	orders   *mockOrders
	states   *memStore
	gateway  *mockGateway
	exporter *mockExporter
	bus      *mockBus
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		cart:     newMockCart(),
		orders:   &mockOrders{nextID: 42},
		states:   newMemStore(),
		gateway:  &mockGateway{result: payments.Result{Success: true, PaymentURL: "https://pay.example/42"}},
		exporter: &mockExporter{ok: true},
		bus:      &mockBus{},
	}
	f.svc = NewCheckoutService(f.cart, f.orders, f.states, f.gateway, f.exporter, f.bus, zap.NewNop())
	return f
}

func (f *checkoutFixture) fillCart(userID int64) {
	f.cart.lines[userID] = []repository.CartLine{
		{ItemID: 1, ProductID: 10, Name: "Чай", PriceKopecks: 5000, Quantity: 2},
		{ItemID: 2, ProductID: 11, Name: "Кофе", PriceKopecks: 10000, Quantity: 1},
	}
}

func TestCheckout_BeginEmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	reply, err := f.svc.Begin(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ReplyCartEmpty, reply.Kind)

	_, err = f.states.Get(ctx, 1)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestCheckout_HappyPath(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	const userID int64 = 1

	f.fillCart(userID)

	reply, err := f.svc.Begin(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, ReplyPromptName, reply.Kind)

	reply, err = f.svc.HandleName(ctx, userID, "  Иван  ")
	require.NoError(t, err)
	assert.Equal(t, ReplyPromptPhone, reply.Kind)

	reply, err = f.svc.HandlePhone(ctx, userID, "8 (999) 123-45-67")
	require.NoError(t, err)
	assert.Equal(t, ReplyPromptAddress, reply.Kind)

	reply, err = f.svc.HandleAddress(ctx, userID, "Москва, Тверская 1")
	require.NoError(t, err)
	assert.Equal(t, ReplySucceeded, reply.Kind)
	assert.Equal(t, int64(42), reply.OrderID)
	assert.Equal(t, int64(20000), reply.TotalKopecks)
	assert.Equal(t, "https://pay.example/42", reply.PaymentURL)

	// Заказ сохранён с нормализованным телефоном и пересчитанной суммой.
	assert.Equal(t, "Иван", f.orders.createdName)
	assert.Equal(t, "+79991234567", f.orders.createdPhone)
	assert.Equal(t, int64(20000), f.orders.createdTotal)
	assert.Len(t, f.orders.createdLines, 2)

	// Платёж инициирован на полную сумму в копейках.
	assert.Equal(t, 1, f.gateway.calls)
	assert.Equal(t, int64(20000), f.gateway.request.AmountKopecks)
	assert.Equal(t, "+79991234567", f.gateway.request.CustomerPhone)

	// Реквизиты платежа дописаны в заказ.
	assert.Equal(t, 1, f.orders.updateCalls)
	assert.Equal(t, int64(42), f.orders.updatedOrderID)
	assert.Equal(t, "https://pay.example/42", f.orders.updatedURL)

	// Корзина очищена, выгрузка выполнена, событие опубликовано.
	assert.Equal(t, 1, f.cart.clearCalls)
	assert.Equal(t, 1, f.exporter.calls)
	require.Len(t, f.bus.events, 1)
	assert.Equal(t, string(models.PaymentStatusPending), f.bus.events[0].PaymentStatus)

	// Диалог завершён.
	_, err = f.states.Get(ctx, userID)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestCheckout_EmptyNameReprompts(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)

	_, err := f.svc.Begin(ctx, 1)
	require.NoError(t, err)

	reply, err := f.svc.HandleName(ctx, 1, "   ")
	require.NoError(t, err)
	assert.Equal(t, ReplyPromptName, reply.Kind)

	st, err := f.states.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, state.StageAwaitingName, st.Stage)
}

func TestCheckout_BadPhoneDoesNotAdvance(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)

	_, err := f.svc.Begin(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.HandleName(ctx, 1, "Иван")
	require.NoError(t, err)

	reply, err := f.svc.HandlePhone(ctx, 1, "12345")
	require.NoError(t, err)
	assert.Equal(t, ReplyBadPhone, reply.Kind)

	st, err := f.states.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, state.StageAwaitingPhone, st.Stage)
}

func TestCheckout_Cancel(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)

	_, err := f.svc.Begin(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, 1))

	_, err = f.states.Get(ctx, 1)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
	assert.Equal(t, 0, f.gateway.calls)
}

func TestCheckout_AddressWithoutFlow(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.HandleAddress(context.Background(), 1, "Москва")
	assert.ErrorIs(t, err, ErrNoActiveFlow)
}

func TestCheckout_OrderCreateFailureAbortsEverything(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)
	f.orders.createErr = errors.New("db down")

	runToAddress(t, f, 1)

	reply, err := f.svc.HandleAddress(ctx, 1, "Москва")
	require.NoError(t, err)
	assert.Equal(t, ReplyOrderFailed, reply.Kind)

	// Никаких побочных эффектов после отказа базы.
	assert.Equal(t, 0, f.cart.clearCalls)
	assert.Equal(t, 0, f.exporter.calls)
	assert.Equal(t, 0, f.gateway.calls)
	assert.Empty(t, f.bus.events)

	// Диалог всё равно завершён.
	_, err = f.states.Get(ctx, 1)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestCheckout_GatewayUnreachableKeepsOrder(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)
	f.gateway.err = errors.New("connection refused")
	f.gateway.result = payments.Result{Success: false}

	runToAddress(t, f, 1)

	reply, err := f.svc.HandleAddress(ctx, 1, "Москва")
	require.NoError(t, err)
	assert.Equal(t, ReplyPaymentUnavailable, reply.Kind)
	assert.Equal(t, int64(42), reply.OrderID)

	assert.Equal(t, 0, f.orders.updateCalls)
	require.Len(t, f.bus.events, 1)
	assert.Equal(t, string(models.PaymentStatusFailed), f.bus.events[0].PaymentStatus)
}

func TestCheckout_GatewayRefusalDegradedSuccess(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)
	f.gateway.result = payments.Result{Success: false, ErrorCode: "99", Message: "Платёж отклонён"}

	runToAddress(t, f, 1)

	reply, err := f.svc.HandleAddress(ctx, 1, "Москва")
	require.NoError(t, err)
	assert.Equal(t, ReplyDegradedSuccess, reply.Kind)
	assert.Equal(t, int64(42), reply.OrderID)
	assert.Empty(t, reply.PaymentURL)

	assert.Equal(t, 0, f.orders.updateCalls)
}

func TestCheckout_ExportFailureDoesNotBlock(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)
	f.exporter.ok = false

	runToAddress(t, f, 1)

	reply, err := f.svc.HandleAddress(ctx, 1, "Москва")
	require.NoError(t, err)
	assert.Equal(t, ReplySucceeded, reply.Kind)
	assert.Equal(t, 1, f.exporter.calls)
}

func TestCheckout_CartClearFailureDoesNotBlock(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)
	f.cart.clearErr = errors.New("redis down")

	runToAddress(t, f, 1)

	reply, err := f.svc.HandleAddress(ctx, 1, "Москва")
	require.NoError(t, err)
	assert.Equal(t, ReplySucceeded, reply.Kind)
}

func TestCheckout_PaymentInfoUpdateFailureStillSucceeds(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)
	f.orders.updateErr = errors.New("db down")

	runToAddress(t, f, 1)

	reply, err := f.svc.HandleAddress(ctx, 1, "Москва")
	require.NoError(t, err)
	assert.Equal(t, ReplySucceeded, reply.Kind)
	assert.Equal(t, "https://pay.example/42", reply.PaymentURL)
}

func TestCheckout_CartEmptiedDuringDialog(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)

	runToAddress(t, f, 1)

	// Корзина опустела между началом диалога и финализацией.
	f.cart.lines[1] = nil

	reply, err := f.svc.HandleAddress(ctx, 1, "Москва")
	require.NoError(t, err)
	assert.Equal(t, ReplyCartEmpty, reply.Kind)
	assert.Equal(t, 0, f.gateway.calls)
}

func TestCheckout_NilBusDisablesEvents(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)
	f.svc = NewCheckoutService(f.cart, f.orders, f.states, f.gateway, f.exporter, nil, zap.NewNop())

	runToAddress(t, f, 1)

	reply, err := f.svc.HandleAddress(ctx, 1, "Москва")
	require.NoError(t, err)
	assert.Equal(t, ReplySucceeded, reply.Kind)
}

func TestCheckout_StateIsolationBetweenUsers(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	f.fillCart(1)
	f.fillCart(2)

	_, err := f.svc.Begin(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.Begin(ctx, 2)
	require.NoError(t, err)

	_, err = f.svc.HandleName(ctx, 1, "Иван")
	require.NoError(t, err)
	_, err = f.svc.HandleName(ctx, 2, "Пётр")
	require.NoError(t, err)

	st1, err := f.states.Get(ctx, 1)
	require.NoError(t, err)
	st2, err := f.states.Get(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, "Иван", st1.Field("name"))
	assert.Equal(t, "Пётр", st2.Field("name"))
}

func runToAddress(t *testing.T, f *checkoutFixture, userID int64) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, userID)
	require.NoError(t, err)
	_, err = f.svc.HandleName(ctx, userID, "Иван")
	require.NoError(t, err)
	_, err = f.svc.HandlePhone(ctx, userID, "+79991234567")
	require.NoError(t, err)
}
