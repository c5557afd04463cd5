package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loyalty-backend/internal/config"
	"loyalty-backend/internal/models"

	"github.com/segmentio/kafka-go"
)

// Producer streams loyalty domain messages. One writer per topic so a slow
// topic never blocks the others.
type Producer struct {
	orderCreated      *kafka.Writer
	promotionApplied  *kafka.Writer
	cardPointsChanged *kafka.Writer
	mockMode          bool
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   topic,
		})
	}
	return &Producer{
		orderCreated:      newWriter(cfg.Topics.OrderCreated),
		promotionApplied:  newWriter(cfg.Topics.PromotionApplied),
		cardPointsChanged: newWriter(cfg.Topics.CardPointsChanged),
		mockMode:          cfg.MockMode,
	}
}

// PromotionAppliedMessage carries the outcome of an akce batch: the final
// order together with the card and the akce that produced it.
type PromotionAppliedMessage struct {
	Order     models.Order `json:"order"`
	CardID    int64        `json:"card_id"`
	EventIDs  []int64      `json:"akce_ids"`
	AppliedAt time.Time    `json:"applied_at"`
}

type CardPointsChangedMessage struct {
	CardID     int64     `json:"card_id"`
	Points     int       `json:"points"`
	UsedPoints int       `json:"used_points"`
	ChangedAt  time.Time `json:"changed_at"`
}

// PublishOrderCreated streams the order creation event to Kafka
func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish(p.orderCreated, fmt.Sprintf("%d", order.ID), order)
}

// PublishPromotionApplied streams the result of an akce batch to Kafka
func (p *Producer) PublishPromotionApplied(order models.Order, cardID int64, eventIDs []int64) error {
	msg := PromotionAppliedMessage{
		Order:     order,
		CardID:    cardID,
		EventIDs:  eventIDs,
		AppliedAt: time.Now().UTC(),
	}
	return p.publish(p.promotionApplied, fmt.Sprintf("%d", order.ID), msg)
}

// PublishCardPointsChanged streams a card balance change to Kafka
func (p *Producer) PublishCardPointsChanged(cardID int64, points, usedPoints int) error {
	msg := CardPointsChangedMessage{
		CardID:     cardID,
		Points:     points,
		UsedPoints: usedPoints,
		ChangedAt:  time.Now().UTC(),
	}
	return p.publish(p.cardPointsChanged, fmt.Sprintf("%d", cardID), msg)
}

func (p *Producer) publish(w *kafka.Writer, key string, payload any) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if p.mockMode {
		fmt.Printf("Kafka mock publish [%s]: %s\n", w.Topic, string(msgBytes))
		return nil
	}
	return w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// Close shuts down all topic writers.
func (p *Producer) Close() error {
	for _, w := range []*kafka.Writer{p.orderCreated, p.promotionApplied, p.cardPointsChanged} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}
