package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaBus struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaBus(brokers []string, topic string, log *zap.Logger) *KafkaBus {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaBus{writer: w, log: log}
}

func (b *KafkaBus) PublishOrderCreated(ctx context.Context, e OrderCreatedEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	err = b.writer.WriteMessages(ctx, kafka.Message{
		// ключ — пользователь, чтобы события одного покупателя шли по порядку
		Key:   []byte(strconv.FormatInt(e.UserID, 10)),
		Value: value,
	})
	if err != nil {
		b.log.Error("Не удалось опубликовать событие о заказе",
			zap.Int64("order_id", e.OrderID), zap.Error(err))
		return err
	}
	return nil
}

func (b *KafkaBus) Close() error { return b.writer.Close() }
