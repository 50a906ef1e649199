package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/config"
	"github.com/DmitriiButk/market-bot/internal/models"
	"github.com/DmitriiButk/market-bot/internal/repository"
	"github.com/DmitriiButk/market-bot/internal/state"
	"github.com/DmitriiButk/market-bot/pkg/metrics"
)

const fieldProductID = "product_id"

// CartService — операции с корзиной и диалог выбора количества.
type CartService struct {
	cart    repository.CartRepo
	catalog repository.CatalogRepo
	states  state.Store
	log     *zap.Logger
}

func NewCartService(cart repository.CartRepo, catalog repository.CatalogRepo, states state.Store, log *zap.Logger) *CartService {
	return &CartService{cart: cart, catalog: catalog, states: states, log: log}
}

// ParseQuantity разбирает пользовательский ввод количества.
// Допустимы только целые числа от 1 до MaxProductQuantity.
func ParseQuantity(text string) (int, error) {
	text = strings.TrimSpace(text)
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, ErrQuantityInvalid
		}
	}
	qty, err := strconv.Atoi(text)
	if err != nil {
		return 0, ErrQuantityInvalid
	}
	if qty < 1 || qty > config.MaxProductQuantity {
		return 0, ErrQuantityInvalid
	}
	return qty, nil
}

// BeginQuantity запоминает выбранный товар и переводит диалог в режим
// ожидания количества.
func (s *CartService) BeginQuantity(ctx context.Context, userID, productID int64) (*models.Product, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		s.log.Error("Товар не найден при добавлении в корзину",
			zap.Int64("user_id", userID), zap.Int64("product_id", productID))
		return nil, fmt.Errorf("%w: id=%d", repository.ErrProductNotFound, productID)
	}

	if err := s.states.Set(ctx, userID, &state.State{
		Stage:   state.StageAwaitingQuantity,
		Scratch: map[string]string{fieldProductID: strconv.FormatInt(productID, 10)},
	}); err != nil {
		return nil, err
	}
	return product, nil
}

// AddSelected добавляет запомненный товар в корзину и завершает диалог
// выбора количества.
func (s *CartService) AddSelected(ctx context.Context, userID int64, quantity int) (*models.Product, error) {
	st, err := s.states.Get(ctx, userID)
	if err != nil {
		return nil, ErrNoActiveFlow
	}
	productID, err := strconv.ParseInt(st.Field(fieldProductID), 10, 64)
	if err != nil {
		return nil, ErrNoActiveFlow
	}

	defer func() {
		if clearErr := s.states.Clear(ctx, userID); clearErr != nil {
			s.log.Error("Не удалось очистить состояние после добавления в корзину",
				zap.Int64("user_id", userID), zap.Error(clearErr))
		}
	}()

	return s.Add(ctx, userID, productID, quantity)
}

// Add добавляет товар в корзину; существующая позиция увеличивается.
func (s *CartService) Add(ctx context.Context, userID, productID int64, quantity int) (*models.Product, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: id=%d", repository.ErrProductNotFound, productID)
	}

	if err := s.cart.AddItem(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	metrics.CartOperations.WithLabelValues("add").Inc()
	return product, nil
}

func (s *CartService) List(ctx context.Context, userID int64) ([]repository.CartLine, error) {
	return s.cart.ListItems(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, itemID int64) error {
	if err := s.cart.RemoveItem(ctx, userID, itemID); err != nil {
		return err
	}
	metrics.CartOperations.WithLabelValues("remove").Inc()
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	if err := s.cart.Clear(ctx, userID); err != nil {
		return err
	}
	metrics.CartOperations.WithLabelValues("clear").Inc()
	return nil
}
