package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotMemberAPI адаптирует клиент Bot API под проверку подписки.
// ChatID канала задаётся либо числом, либо как @username.
type BotMemberAPI struct {
	bot *tgbotapi.BotAPI
}

func NewBotMemberAPI(bot *tgbotapi.BotAPI) *BotMemberAPI {
	return &BotMemberAPI{bot: bot}
}

func (a *BotMemberAPI) ChatMemberStatus(_ context.Context, chatID string, userID int64) (string, error) {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID},
	}
	if strings.HasPrefix(chatID, "@") {
		cfg.SuperGroupUsername = chatID
	} else {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return "", err
		}
		cfg.ChatID = id
	}

	member, err := a.bot.GetChatMember(cfg)
	if err != nil {
		return "", err
	}
	return member.Status, nil
}
