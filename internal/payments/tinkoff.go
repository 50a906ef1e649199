package payments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type TinkoffClient struct {
	terminalKey string
	password    string
	baseURL     string
	successURL  string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[initResponse]
	log         *zap.Logger
}

type initResponse struct {
	Success    bool   `json:"Success"`
	PaymentURL string `json:"PaymentURL"`
	ErrorCode  string `json:"ErrorCode"`
	Message    string `json:"Message"`
	Details    string `json:"Details"`
}

func NewTinkoffClient(terminalKey, password, baseURL, successURL string, log *zap.Logger) *TinkoffClient {
	breaker := gobreaker.NewCircuitBreaker[initResponse](gobreaker.Settings{
		Name:    "tinkoff-init",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &TinkoffClient{
		terminalKey: terminalKey,
		password:    password,
		baseURL:     baseURL,
		successURL:  successURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		breaker:     breaker,
		log:         log,
	}
}

// InitPayment инициирует платёж. Сумма передаётся в копейках.
// Ошибка означает недоступность шлюза; отказ самого шлюза приходит
// как Result{Success: false} без ошибки.
func (c *TinkoffClient) InitPayment(ctx context.Context, req InitRequest) (Result, error) {
	payload := map[string]any{
		"TerminalKey": c.terminalKey,
		"Amount":      req.AmountKopecks,
		"OrderId":     req.Reference,
		"Description": req.Description,
	}
	if c.successURL != "" {
		payload["SuccessURL"] = c.successURL
	}
	payload["Token"] = c.signToken(payload)
	if req.CustomerPhone != "" {
		payload["DATA"] = map[string]string{"Phone": req.CustomerPhone}
	}

	resp, err := c.breaker.Execute(func() (initResponse, error) {
		return c.doInit(ctx, payload)
	})
	if err != nil {
		c.log.Error("Платёжный шлюз недоступен",
			zap.String("reference", req.Reference),
			zap.Int64("amount_kopecks", req.AmountKopecks),
			zap.Error(err))
		return Result{Success: false, Message: err.Error()}, err
	}

	return Result{
		Success:    resp.Success,
		PaymentURL: resp.PaymentURL,
		ErrorCode:  resp.ErrorCode,
		Message:    resp.Message,
	}, nil
}

func (c *TinkoffClient) doInit(ctx context.Context, payload map[string]any) (initResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return initResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Init", bytes.NewReader(body))
	if err != nil {
		return initResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return initResponse{}, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return initResponse{}, fmt.Errorf("gateway returned status %d", httpResp.StatusCode)
	}

	var resp initResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return initResponse{}, fmt.Errorf("decode gateway response: %w", err)
	}
	return resp, nil
}

// signToken считает подпись запроса: значения скалярных параметров верхнего
// уровня плюс Password сортируются по имени ключа и конкатенируются,
// от строки берётся SHA-256.
func (c *TinkoffClient) signToken(payload map[string]any) string {
	params := map[string]string{"Password": c.password}
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			params[k] = val
		case int64:
			params[k] = strconv.FormatInt(val, 10)
		}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var concat bytes.Buffer
	for _, k := range keys {
		concat.WriteString(params[k])
	}

	sum := sha256.Sum256(concat.Bytes())
	return hex.EncodeToString(sum[:])
}
