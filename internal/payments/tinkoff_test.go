package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTinkoffClient_InitPaymentSuccess(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Init", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"Success":    true,
			"PaymentURL": "https://pay.example/abc",
		})
	}))
	defer srv.Close()

	c := NewTinkoffClient("TermKey", "secret", srv.URL, "https://t.me/shop", zap.NewNop())

	result, err := c.InitPayment(context.Background(), InitRequest{
		Reference:     "order_1_deadbeef",
		AmountKopecks: 20000,
		Description:   "Заказ #1",
		CustomerPhone: "+79991234567",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "https://pay.example/abc", result.PaymentURL)

	// Сумма уходит на шлюз в копейках, без конвертации.
	assert.Equal(t, float64(20000), got["Amount"])
	assert.Equal(t, "order_1_deadbeef", got["OrderId"])
	assert.Equal(t, "TermKey", got["TerminalKey"])
	assert.Equal(t, "https://t.me/shop", got["SuccessURL"])

	data, ok := got["DATA"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "+79991234567", data["Phone"])

	// Подпись: скалярные параметры плюс пароль, сортировка по ключу, SHA-256.
	concat := "20000" + "Заказ #1" + "order_1_deadbeef" + "secret" + "https://t.me/shop" + "TermKey"
	sum := sha256.Sum256([]byte(concat))
	assert.Equal(t, hex.EncodeToString(sum[:]), got["Token"])
}

func TestTinkoffClient_InitPaymentRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Success":   false,
			"ErrorCode": "99",
			"Message":   "Платёж отклонён",
		})
	}))
	defer srv.Close()

	c := NewTinkoffClient("TermKey", "secret", srv.URL, "", zap.NewNop())

	result, err := c.InitPayment(context.Background(), InitRequest{
		Reference:     "order_2_cafebabe",
		AmountKopecks: 100,
	})

	// Отказ шлюза — не транспортная ошибка.
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "99", result.ErrorCode)
	assert.Equal(t, "Платёж отклонён", result.Message)
}

func TestTinkoffClient_InitPaymentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewTinkoffClient("TermKey", "secret", srv.URL, "", zap.NewNop())

	result, err := c.InitPayment(context.Background(), InitRequest{
		Reference:     "order_3_00000000",
		AmountKopecks: 100,
	})
	require.Error(t, err)
	assert.False(t, result.Success)
}

func TestTinkoffClient_InitPaymentUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // сервер намеренно остановлен

	c := NewTinkoffClient("TermKey", "secret", srv.URL, "", zap.NewNop())

	result, err := c.InitPayment(context.Background(), InitRequest{
		Reference:     "order_4_00000000",
		AmountKopecks: 100,
	})
	require.Error(t, err)
	assert.False(t, result.Success)
}

func TestPaymentReference(t *testing.T) {
	ref := PaymentReference(42)
	assert.Regexp(t, regexp.MustCompile(`^order_42_[0-9a-f]{8}$`), ref)

	// Ссылки уникальны даже для одного заказа.
	assert.NotEqual(t, ref, PaymentReference(42))
}
