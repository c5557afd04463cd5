package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"loyalty-backend/internal/catalog"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrEmptyOrder    = errors.New("order must contain at least one item")
)

type DBLayer interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id int64) (bool, error)
}

// Catalog resolves item prices at order time.
type Catalog interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
}

type KafkaPublisher interface {
	PublishOrderCreated(order models.Order) error
}

type OrderService struct {
	DB      DBLayer
	Catalog Catalog
	Kafka   KafkaPublisher
	Logger  *logger.Logger
}

func NewOrderService(db DBLayer, catalog Catalog, kafka KafkaPublisher, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Catalog: catalog, Kafka: kafka, Logger: log}
}

// CreateOrder prices the order once, at creation: cost is the sum of item
// price times count over all lines, rounded to whole cents. The stored
// cost is never recomputed afterwards; only promotion benefits mutate it.
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderCreateRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	order := &models.Order{
		UserID:  req.UserID,
		Comment: req.Comment,
		Date:    time.Now().UTC(),
	}

	var cost float64
	for _, line := range req.Items {
		item, err := s.Catalog.GetItem(ctx, line.ItemID)
		if errors.Is(err, catalog.ErrItemNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrItemNotFound, line.ItemID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to price item %d: %w", line.ItemID, err)
		}
		cost += item.Cost * line.Count

		orderItem := models.OrderItem{ItemID: line.ItemID, Count: line.Count}
		for _, ing := range line.Ingredients {
			orderItem.Ingredients = append(orderItem.Ingredients, models.OrderItemIngredient{
				ProductID: ing.ProductID,
				Value:     ing.Value,
			})
		}
		order.Items = append(order.Items, orderItem)
	}
	order.Cost = math.Round(cost*100) / 100

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.Logger.LogOrder("CREATE", order.ID, fmt.Sprintf("items=%d cost=%.2f", len(order.Items), order.Cost))

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCreated(*order); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish error (order created): %v", err))
		}
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.DB.ListOrdersForUser(ctx, userID)
}

func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	deleted, err := s.DB.DeleteOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	if !deleted {
		return ErrOrderNotFound
	}
	s.Logger.LogOrder("DELETE", id, "order removed")
	return nil
}
