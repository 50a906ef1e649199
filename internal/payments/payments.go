package payments

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Result — структурированный итог инициации платежа. Транспортные сбои
// возвращаются отдельной ошибкой, отказ шлюза — как Success=false.
type Result struct {
	Success    bool
	PaymentURL string
	ErrorCode  string
	Message    string
}

type InitRequest struct {
	Reference     string
	AmountKopecks int64 // сумма в минимальных единицах валюты
	Description   string
	CustomerPhone string
}

type Gateway interface {
	InitPayment(ctx context.Context, req InitRequest) (Result, error)
}

// PaymentReference строит уникальную ссылку платежа вида order_<id>_<8 hex>.
func PaymentReference(orderID int64) string {
	u := uuid.New()
	return fmt.Sprintf("order_%d_%s", orderID, hex.EncodeToString(u[:])[:8])
}
