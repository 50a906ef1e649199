package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DmitriiButk/market-bot/config"
	"github.com/DmitriiButk/market-bot/internal/events"
	"github.com/DmitriiButk/market-bot/internal/payments"
	"github.com/DmitriiButk/market-bot/internal/repository"
	"github.com/DmitriiButk/market-bot/internal/service"
	"github.com/DmitriiButk/market-bot/internal/sheets"
	"github.com/DmitriiButk/market-bot/internal/state"
	"github.com/DmitriiButk/market-bot/internal/subscription"
	"github.com/DmitriiButk/market-bot/internal/transport/telegram"
	"github.com/DmitriiButk/market-bot/pkg/database"
	"github.com/DmitriiButk/market-bot/pkg/logger"
	"github.com/DmitriiButk/market-bot/pkg/metrics"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)

	db := database.ConnectDB(&cfg.DB, log)
	defer database.CloseDB(db, log)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	log.Info("Подключение к Redis установлено", zap.String("addr", cfg.Redis.Addr))

	repos := repository.New(db)
	states := state.NewRedisStore(rdb, cfg.StateTTL)

	// Шина событий опциональна: без брокеров публикация выключена.
	var bus events.Bus
	if len(cfg.KafkaBrokers) > 0 {
		kafkaBus := events.NewKafkaBus(cfg.KafkaBrokers, cfg.KafkaTopicOrder, log)
		defer kafkaBus.Close()
		bus = kafkaBus
	}

	gateway := payments.NewTinkoffClient(
		cfg.Payment.TerminalKey,
		cfg.Payment.Password,
		cfg.Payment.BaseURL,
		cfg.Payment.SuccessURL,
		log,
	)

	// Выгрузка в Google Sheets опциональна: без реквизитов работает заглушка.
	var exporter sheets.Exporter = sheets.NopExporter{}
	if cfg.Sheets.CredentialsFile != "" && cfg.Sheets.SpreadsheetID != "" {
		ex, err := sheets.NewGoogleSheetsExporter(cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, log)
		if err != nil {
			log.Error("Не удалось настроить выгрузку в Google Sheets", zap.Error(err))
		} else {
			exporter = ex
		}
	}

	cartSvc := service.NewCartService(repos.Cart, repos.Catalog, states, log)
	checkoutSvc := service.NewCheckoutService(repos.Cart, repos.Orders, states, gateway, exporter, bus, log)
	faqSvc := service.NewFAQService(repos.Questions, log)

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal("Не удалось создать клиент Bot API", zap.Error(err))
	}
	bot.Debug = isDev

	checker := subscription.NewChecker(telegram.NewBotMemberAPI(bot), log)

	handler := telegram.NewHandler(
		bot,
		repos.Catalog,
		cartSvc,
		checkoutSvc,
		faqSvc,
		states,
		checker,
		cfg.RequiredChannels,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adminSrv := adminServer(cfg.AdminAddr, db, log)
	go func() {
		log.Info("Запуск административного сервера", zap.String("addr", cfg.AdminAddr))
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Административный сервер завершился с ошибкой", zap.Error(err))
		}
	}()

	go handler.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Остановка бота...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка при остановке административного сервера", zap.Error(err))
	}

	log.Info("Бот остановлен")
}

// adminServer отдаёт health-чек и метрики Prometheus.
func adminServer(addr string, db *gorm.DB, log *zap.Logger) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(req.Context())
		}
		if err != nil {
			log.Error("Health-чек базы данных не прошёл", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
