package sheets

import (
	"context"
	"time"
)

// OrderSnapshot — плоский снимок заказа для выгрузки во внешнюю таблицу.
type OrderSnapshot struct {
	OrderID       int64
	UserID        int64
	Name          string
	Phone         string
	Address       string
	TotalKopecks  int64
	PaymentStatus string
	ProductsText  string
	CreatedAt     time.Time
}

// Exporter выгружает заказ во внешний реестр. Выгрузка — побочный эффект
// с "негарантированной доставкой": реализация не должна возвращать ошибку
// наружу, только журналировать её и сообщать false.
type Exporter interface {
	ExportOrder(ctx context.Context, snap OrderSnapshot) bool
}

// NopExporter используется, когда выгрузка не настроена.
type NopExporter struct{}

func (NopExporter) ExportOrder(context.Context, OrderSnapshot) bool { return true }
