package subscription

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/config"
)

// ChatMemberAPI отвечает на вопрос "в каком статусе пользователь состоит
// в канале". Реализуется клиентом Telegram Bot API.
type ChatMemberAPI interface {
	ChatMemberStatus(ctx context.Context, chatID string, userID int64) (string, error)
}

var subscribedStatuses = map[string]bool{
	"creator":       true,
	"administrator": true,
	"member":        true,
}

type Checker struct {
	api ChatMemberAPI
	log *zap.Logger
}

func NewChecker(api ChatMemberAPI, log *zap.Logger) *Checker {
	return &Checker{api: api, log: log}
}

// IsSubscribed проверяет подписку пользователя на канал. Ошибки трактуются
// как "не подписан", кроме каналов со скрытым списком участников: проверить
// их невозможно, поэтому такой канал считается пройденным.
func (c *Checker) IsSubscribed(ctx context.Context, userID int64, chatID string) bool {
	status, err := c.api.ChatMemberStatus(ctx, chatID, userID)
	if err != nil {
		if strings.Contains(err.Error(), "member list is inaccessible") {
			return true
		}
		c.log.Error("Ошибка при проверке подписки",
			zap.Int64("user_id", userID),
			zap.String("chat_id", chatID),
			zap.Error(err))
		return false
	}
	return subscribedStatuses[status]
}

// MissingChannels возвращает каналы из списка, на которые пользователь
// не подписан.
func (c *Checker) MissingChannels(ctx context.Context, userID int64, channels []config.Channel) []config.Channel {
	var missing []config.Channel
	for _, ch := range channels {
		if !c.IsSubscribed(ctx, userID, ch.ChatID) {
			missing = append(missing, ch)
		}
	}
	return missing
}
