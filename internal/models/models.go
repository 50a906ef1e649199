package models

import (
	"time"
)

// Статус платежа — строковый тип, храним как TEXT.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type ProductCategory struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"type:text;not null"`
	SortOrder int    `gorm:"not null;default:0"`
	Active    bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (ProductCategory) TableName() string { return "product_categories" }

type ProductSubcategory struct {
	ID         int64  `gorm:"primaryKey"`
	CategoryID int64  `gorm:"not null;index"`
	Name       string `gorm:"type:text;not null"`
	SortOrder  int    `gorm:"not null;default:0"`
	Active     bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Category ProductCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (ProductSubcategory) TableName() string { return "product_subcategories" }

type Product struct {
	ID            int64  `gorm:"primaryKey"`
	CategoryID    int64  `gorm:"not null;index"`
	SubcategoryID *int64 `gorm:"index"`
	Name          string `gorm:"type:text;not null"`
	Description   string `gorm:"type:text"`
	PriceKopecks  int64  `gorm:"not null;default:0"` // цена в копейках
	ImageURL      string `gorm:"type:text"`
	Active        bool   `gorm:"not null;default:true"`
	SortOrder     int    `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Category    ProductCategory     `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Subcategory *ProductSubcategory `gorm:"foreignKey:SubcategoryID;constraint:OnDelete:SET NULL"`
}

func (Product) TableName() string { return "products" }

type CartItem struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"not null;index;uniqueIndex:ux_cart_items_user_product"`
	ProductID int64 `gorm:"not null;uniqueIndex:ux_cart_items_user_product"`
	Quantity  int   `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (CartItem) TableName() string { return "cart_items" }

type UserQuestion struct {
	ID         int64   `gorm:"primaryKey"`
	UserID     int64   `gorm:"not null;index:question_user_idx"`
	Question   string  `gorm:"type:text;not null"`
	Answer     *string `gorm:"type:text"`
	IsAnswered bool    `gorm:"not null;default:false;index:question_answered_idx"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (UserQuestion) TableName() string { return "user_questions" }

type Order struct {
	ID           int64  `gorm:"primaryKey"`
	UserID       int64  `gorm:"not null;index"`
	CustomerName string `gorm:"type:text;not null"`
	Phone        string `gorm:"type:varchar(20);not null"`
	Address      string `gorm:"type:text;not null"`
	TotalKopecks int64  `gorm:"not null"`
	IsCompleted  bool   `gorm:"not null;default:false"`

	PaymentID     *string       `gorm:"type:text"`
	PaymentURL    *string       `gorm:"type:text"`
	PaymentStatus PaymentStatus `gorm:"type:text;not null;default:'pending'"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"` // каскад на позиции
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID           int64 `gorm:"primaryKey"`
	OrderID      int64 `gorm:"not null;index"`
	ProductID    int64 `gorm:"not null"`
	Quantity     int   `gorm:"not null"`
	PriceKopecks int64 `gorm:"not null"` // снимок цены на момент заказа

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (OrderItem) TableName() string { return "order_items" }
