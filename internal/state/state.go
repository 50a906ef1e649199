package state

import (
	"context"
	"errors"
)

// Stage — текущий шаг диалога пользователя. Для оформления заказа шаги
// линейны: имя -> телефон -> адрес.
type Stage string

const (
	StageNone             Stage = ""
	StageAwaitingQuantity Stage = "awaiting_quantity"
	StageAwaitingName     Stage = "awaiting_name"
	StageAwaitingPhone    Stage = "awaiting_phone"
	StageAwaitingAddress  Stage = "awaiting_address"
	StageAwaitingQuestion Stage = "awaiting_question"
)

// State — промежуточные данные многошагового диалога одного пользователя.
type State struct {
	Stage   Stage             `json:"stage"`
	Scratch map[string]string `json:"scratch,omitempty"`
}

func (s *State) Field(key string) string {
	if s == nil || s.Scratch == nil {
		return ""
	}
	return s.Scratch[key]
}

var ErrStateNotFound = errors.New("conversation state not found")

// Store хранит состояние диалога по ID пользователя. Реализация обязана
// ограничивать время жизни записи, чтобы брошенные диалоги не копились.
type Store interface {
	Get(ctx context.Context, userID int64) (*State, error)
	Set(ctx context.Context, userID int64, st *State) error
	SetStage(ctx context.Context, userID int64, stage Stage) error
	SetField(ctx context.Context, userID int64, key, value string) error
	Clear(ctx context.Context, userID int64) error
}
