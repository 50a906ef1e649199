package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/internal/models"
	"github.com/DmitriiButk/market-bot/internal/repository"
	"github.com/DmitriiButk/market-bot/internal/state"
)

type mockCatalog struct {
	products map[int64]*models.Product
}

func (m *mockCatalog) ListCategories(context.Context) ([]models.ProductCategory, error) {
	return nil, nil
}

func (m *mockCatalog) ListSubcategories(context.Context, int64) ([]models.ProductSubcategory, error) {
	return nil, nil
}

func (m *mockCatalog) GetCategory(context.Context, int64) (*models.ProductCategory, error) {
	return nil, nil
}

func (m *mockCatalog) GetSubcategory(context.Context, int64) (*models.ProductSubcategory, error) {
	return nil, nil
}

func (m *mockCatalog) ListProducts(context.Context, repository.ProductListFilter) ([]models.Product, int64, error) {
	return nil, 0, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	return m.products[id], nil
}

func newCartService() (*CartService, *mockCart, *memStore) {
	cart := newMockCart()
	states := newMemStore()
	catalog := &mockCatalog{products: map[int64]*models.Product{
		10: {ID: 10, Name: "Чай", PriceKopecks: 5000, Active: true},
	}}
	return NewCartService(cart, catalog, states, zap.NewNop()), cart, states
}

func TestCartService_QuantityDialog(t *testing.T) {
	svc, cart, states := newCartService()
	ctx := context.Background()

	product, err := svc.BeginQuantity(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Чай", product.Name)

	st, err := states.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, state.StageAwaitingQuantity, st.Stage)

	added, err := svc.AddSelected(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10), added.ID)

	require.Len(t, cart.lines[1], 1)
	assert.Equal(t, 3, cart.lines[1][0].Quantity)

	// диалог завершён
	_, err = states.Get(ctx, 1)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestCartService_BeginQuantityUnknownProduct(t *testing.T) {
	svc, _, states := newCartService()

	_, err := svc.BeginQuantity(context.Background(), 1, 404)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	_, err = states.Get(context.Background(), 1)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestCartService_AddSelectedWithoutDialog(t *testing.T) {
	svc, _, _ := newCartService()

	_, err := svc.AddSelected(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNoActiveFlow)
}
