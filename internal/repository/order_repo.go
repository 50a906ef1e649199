package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/DmitriiButk/market-bot/internal/models"
)

type OrderRepo interface {
	// CreateOrder создаёт заказ вместе с позициями в одной транзакции.
	// Отсутствие любого товара из списка отменяет всю операцию.
	CreateOrder(ctx context.Context, userID int64, lines []CartLine, name, phone, address string, totalKopecks int64) (int64, error)
	UpdatePaymentInfo(ctx context.Context, orderID int64, paymentID, paymentURL string, status models.PaymentStatus) error
	GetWithItems(ctx context.Context, id int64) (*models.Order, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func (r *orderRepo) CreateOrder(ctx context.Context, userID int64, lines []CartLine, name, phone, address string, totalKopecks int64) (int64, error) {
	var orderID int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order := models.Order{
			UserID:        userID,
			CustomerName:  name,
			Phone:         phone,
			Address:       address,
			TotalKopecks:  totalKopecks,
			PaymentStatus: models.PaymentStatusPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, line := range lines {
			var product models.Product
			if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: id=%d", ErrProductNotFound, line.ProductID)
				}
				return err
			}

			item := models.OrderItem{
				OrderID:      order.ID,
				ProductID:    product.ID,
				Quantity:     line.Quantity,
				PriceKopecks: line.PriceKopecks, // снимок цены из корзины
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		orderID = order.ID
		return nil
	})

	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func (r *orderRepo) UpdatePaymentInfo(ctx context.Context, orderID int64, paymentID, paymentURL string, status models.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"payment_id":     paymentID,
			"payment_url":    paymentURL,
			"payment_status": status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%d", ErrOrderNotFound, orderID)
	}
	return nil
}

func (r *orderRepo) GetWithItems(ctx context.Context, id int64) (*models.Order, error) {
	var ord models.Order
	err := r.db.WithContext(ctx).Preload("Items.Product").First(&ord, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ord, err
}

func (r *orderRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&cnt).Error
	return cnt > 0, err
}
