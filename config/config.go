package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/pkg/database"
)

const (
	ProductsPerPage    = 5
	MaxProductQuantity = 100
)

type Config struct {
	BotToken string

	DB database.Config

	Redis    Redis
	StateTTL time.Duration

	KafkaBrokers    []string
	KafkaTopicOrder string

	Payment Payment
	Sheets  Sheets

	AdminAddr string

	RequiredChannels []Channel
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Payment struct {
	TerminalKey string
	Password    string
	BaseURL     string
	SuccessURL  string
}

type Sheets struct {
	CredentialsFile string
	SpreadsheetID   string
}

// Channel — обязательный канал/группа для доступа к боту.
type Channel struct {
	ChatID     string `json:"chat_id"`
	Name       string `json:"name"`
	InviteLink string `json:"invite_link"`
}

func Load(log *zap.Logger) *Config {
	return &Config{
		BotToken: getEnv("BOT_TOKEN", log),
		DB: database.Config{
			Host:     getEnv("DB_HOST", log),
			Port:     getEnv("DB_PORT", log),
			User:     getEnv("DB_USER", log),
			Password: getEnv("DB_PASSWORD", log),
			Name:     getEnv("DB_NAME", log),
			SSLMode:  getEnv("DB_SSLMODE", log),
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", log),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       atoiDefault(os.Getenv("REDIS_DB"), 0),
		},
		StateTTL:        time.Duration(atoiDefault(os.Getenv("STATE_TTL_SECONDS"), 1800)) * time.Second,
		KafkaBrokers:    splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicOrder: envDefault("KAFKA_TOPIC_ORDERS", "orders.created"),
		Payment: Payment{
			TerminalKey: envDefault("TINKOFF_TERMINAL_KEY", "TinkoffBankTest"),
			Password:    envDefault("TINKOFF_PASSWORD", "TinkoffBankTest"),
			BaseURL:     envDefault("TINKOFF_BASE_URL", "https://securepay.tinkoff.ru/v2"),
			SuccessURL:  envDefault("PAYMENT_SUCCESS_URL", "https://t.me/market_bot"),
		},
		Sheets: Sheets{
			CredentialsFile: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"),
		},
		AdminAddr:        envDefault("ADMIN_ADDR", ":9090"),
		RequiredChannels: parseChannels(os.Getenv("REQUIRED_CHANNELS"), log),
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func envDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return def
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}

// parseChannels разбирает JSON-список обязательных каналов.
// Пустое значение выключает проверку подписки.
func parseChannels(s string, log *zap.Logger) []Channel {
	if s == "" {
		return nil
	}
	var channels []Channel
	if err := json.Unmarshal([]byte(s), &channels); err != nil {
		log.Error("Ошибка разбора REQUIRED_CHANNELS", zap.Error(err))
		panic("invalid REQUIRED_CHANNELS: " + err.Error())
	}
	return channels
}
