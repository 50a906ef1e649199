package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
)

const appendURLFormat = "https://sheets.googleapis.com/v4/spreadsheets/%s/values/A1:append?valueInputOption=USER_ENTERED"

// GoogleSheetsExporter добавляет строку заказа в Google Таблицу через
// REST-метод values:append с авторизацией сервисного аккаунта.
type GoogleSheetsExporter struct {
	spreadsheetID string
	client        *http.Client
	log           *zap.Logger
}

func NewGoogleSheetsExporter(credentialsFile, spreadsheetID string, log *zap.Logger) (*GoogleSheetsExporter, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, "https://www.googleapis.com/auth/spreadsheets")
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}

	client := conf.Client(context.Background())
	client.Timeout = 15 * time.Second

	return &GoogleSheetsExporter{
		spreadsheetID: spreadsheetID,
		client:        client,
		log:           log,
	}, nil
}

func (e *GoogleSheetsExporter) ExportOrder(ctx context.Context, snap OrderSnapshot) bool {
	row := []any{
		snap.CreatedAt.Format("2006-01-02 15:04:05"),
		snap.OrderID,
		snap.UserID,
		snap.Name,
		snap.Phone,
		snap.Address,
		fmt.Sprintf("%.2f", float64(snap.TotalKopecks)/100),
		snap.PaymentStatus,
		snap.ProductsText,
	}

	body, err := json.Marshal(map[string]any{"values": [][]any{row}})
	if err != nil {
		e.log.Error("Ошибка сериализации строки заказа для Google Sheets",
			zap.Int64("order_id", snap.OrderID), zap.Error(err))
		return false
	}

	url := fmt.Sprintf(appendURLFormat, e.spreadsheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		e.log.Error("Ошибка создания запроса к Google Sheets",
			zap.Int64("order_id", snap.OrderID), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Error("Ошибка при добавлении заказа в Google Sheets",
			zap.Int64("order_id", snap.OrderID),
			zap.Int64("user_id", snap.UserID),
			zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.log.Error("Google Sheets вернул ошибку",
			zap.Int64("order_id", snap.OrderID),
			zap.Int("status", resp.StatusCode))
		return false
	}

	return true
}
