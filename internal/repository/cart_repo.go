package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DmitriiButk/market-bot/internal/models"
)

// CartLine — строка корзины, объединённая с данными товара.
type CartLine struct {
	ItemID       int64
	ProductID    int64
	Name         string
	PriceKopecks int64
	Quantity     int
	ImageURL     string
}

func (l CartLine) LineTotalKopecks() int64 {
	return l.PriceKopecks * int64(l.Quantity)
}

type CartRepo interface {
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	ListItems(ctx context.Context, userID int64) ([]CartLine, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) CartRepo { return &cartRepo{db: db} }

// AddItem добавляет товар в корзину. Если пара (user_id, product_id) уже
// существует, количество увеличивается, дубликат не создаётся.
func (r *cartRepo) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity": gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
		}),
	}).Create(&item).Error
}

func (r *cartRepo) ListItems(ctx context.Context, userID int64) ([]CartLine, error) {
	var lines []CartLine
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select(`cart_items.id AS item_id,
			cart_items.product_id,
			products.name,
			products.price_kopecks,
			cart_items.quantity,
			products.image_url`).
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.created_at").
		Scan(&lines).Error
	return lines, err
}

// RemoveItem удаляет строку корзины только если она принадлежит пользователю.
// Отсутствующая строка — не ошибка.
func (r *cartRepo) RemoveItem(ctx context.Context, userID, itemID int64) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{}).Error
}

func (r *cartRepo) Clear(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
