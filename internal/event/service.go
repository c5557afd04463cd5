package event

import (
	"context"
	"errors"
	"fmt"

	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"

	"loyalty-backend/internal/event/rules"

	"github.com/google/uuid"
)

var (
	ErrCardNotFound  = errors.New("bonus card not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrEventNotFound = errors.New("akce not found")

	// ErrLocked means another promotion batch currently holds the card or
	// the order. Callers should retry.
	ErrLocked = errors.New("card or order is locked by another application")
)

type EventStore interface {
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, activeOnly bool) ([]models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	// CommitApplication writes the final card balances and the final order
	// cost in one transaction: both land or neither does.
	CommitApplication(ctx context.Context, cardID int64, points, usedPoints int, orderID int64, cost float64) error
	IsNotFound(err error) bool
}

type CardStore interface {
	GetCardByID(ctx context.Context, id int64) (*models.BonusCard, error)
}

type OrderStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
}

type Locker interface {
	LockCardAndOrder(ctx context.Context, cardID, orderID int64, holder string) (bool, error)
	UnlockCardAndOrder(ctx context.Context, cardID, orderID int64, holder string) error
}

type KafkaPublisher interface {
	PublishPromotionApplied(order models.Order, cardID int64, eventIDs []int64) error
	PublishCardPointsChanged(cardID int64, points, usedPoints int) error
}

type Service struct {
	DB     EventStore
	Cards  CardStore
	Orders OrderStore
	Lock   Locker
	Kafka  KafkaPublisher
	Logger *logger.Logger

	// CriteriaOnWorkingState evaluates criteria against the running batch
	// state instead of the originally loaded card/order. Off by default;
	// see ApplyEvents.
	CriteriaOnWorkingState bool
}

func NewService(db EventStore, cards CardStore, orders OrderStore, lock Locker, kafka KafkaPublisher, log *logger.Logger) *Service {
	return &Service{
		DB:     db,
		Cards:  cards,
		Orders: orders,
		Lock:   lock,
		Kafka:  kafka,
		Logger: log,
	}
}

// ---------------- AKCE CRUD ----------------

func (s *Service) CreateEvent(ctx context.Context, req models.EventCreateRequest) (*models.Event, error) {
	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    true,
	}
	for _, c := range req.Criteria {
		event.Criteria = append(event.Criteria, models.Criterion{Contrast: c.Contrast, Value: c.Value})
	}
	for _, b := range req.Benefits {
		event.Benefits = append(event.Benefits, models.Benefit{Action: b.Action, Value: b.Value})
	}

	// Reject unknown rule kinds at write time so the evaluator never meets
	// them at apply time.
	card := &models.BonusCard{}
	order := &models.Order{}
	for _, c := range event.Criteria {
		if _, err := rules.EvaluateCriterion(c, card, order); err != nil {
			return nil, fmt.Errorf("criterion %q: %w", c.Contrast, err)
		}
	}
	for _, b := range event.Benefits {
		if _, err := rules.ApplyBenefit(b, rules.State{Points: int(b.Value)}); err != nil {
			return nil, fmt.Errorf("benefit %q: %w", b.Action, err)
		}
	}

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create akce: %w", err)
	}
	s.Logger.LogAkce("CREATE", event.Title, fmt.Sprintf("criteria=%d benefits=%d", len(event.Criteria), len(event.Benefits)))
	return event, nil
}

func (s *Service) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		if s.DB.IsNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *Service) ListEvents(ctx context.Context, activeOnly bool) ([]models.Event, error) {
	return s.DB.ListEvents(ctx, activeOnly)
}

func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		if s.DB.IsNotFound(err) {
			return ErrEventNotFound
		}
		return err
	}
	s.Logger.LogAkce("DELETE", fmt.Sprintf("id=%d", id), "akce and its rules removed")
	return nil
}

// ---------------- AKCE APPLICATION ----------------

// ApplyEvents applies a batch of akce to a card/order pair.
//
// Criteria are checked against the card and order as loaded at the start
// of the batch, not against the deltas of earlier events in the same
// batch; benefits do thread their effects through the whole batch. The
// asymmetry is deliberate and covered by tests. Flip
// CriteriaOnWorkingState to gate on the running state instead.
//
// The batch is all-or-nothing: the first failing criterion or benefit
// aborts everything and no write is made.
func (s *Service) ApplyEvents(ctx context.Context, cardID, orderID int64, eventIDs []int64) (*models.Order, error) {
	if s.Lock != nil {
		holder := uuid.NewString()
		ok, err := s.Lock.LockCardAndOrder(ctx, cardID, orderID, holder)
		if err != nil {
			return nil, fmt.Errorf("failed to lock card/order: %w", err)
		}
		if !ok {
			return nil, ErrLocked
		}
		defer func() {
			if err := s.Lock.UnlockCardAndOrder(ctx, cardID, orderID, holder); err != nil {
				s.Logger.Error("AKCE", fmt.Sprintf("failed to unlock card %d / order %d: %v", cardID, orderID, err))
			}
		}()
	}

	card, err := s.Cards.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card %d: %w", cardID, err)
	}
	if card == nil {
		return nil, fmt.Errorf("%w: can't use akce without bonus card", ErrCardNotFound)
	}

	order, err := s.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: can't use akce without order", ErrOrderNotFound)
	}

	st := rules.State{
		Points:     card.Count,
		UsedPoints: card.UsedPoints,
		Cost:       order.Cost,
	}

	for _, eventID := range eventIDs {
		akce, err := s.DB.GetEventByID(ctx, eventID)
		if err != nil {
			if s.DB.IsNotFound(err) {
				return nil, fmt.Errorf("%w: id=%d", ErrEventNotFound, eventID)
			}
			return nil, fmt.Errorf("failed to load akce %d: %w", eventID, err)
		}

		gateCard, gateOrder := card, order
		if s.CriteriaOnWorkingState {
			workingCard := *card
			workingCard.Count = st.Points
			workingCard.UsedPoints = st.UsedPoints
			workingOrder := *order
			workingOrder.Cost = st.Cost
			gateCard, gateOrder = &workingCard, &workingOrder
		}

		for _, criterion := range akce.Criteria {
			ok, err := rules.EvaluateCriterion(criterion, gateCard, gateOrder)
			if err != nil {
				return nil, fmt.Errorf("akce %s: %w", akce.Title, err)
			}
			if !ok {
				return nil, &rules.CriterionError{
					EventTitle: akce.Title,
					Contrast:   criterion.Contrast,
					Value:      criterion.Value,
				}
			}
		}
		s.Logger.LogAkce("CRITERIA", akce.Title, "all criteria passed")

		for _, benefit := range akce.Benefits {
			st, err = rules.ApplyBenefit(benefit, st)
			if err != nil {
				return nil, fmt.Errorf("akce %s, benefit %s %v: %w", akce.Title, benefit.Action, benefit.Value, err)
			}
		}
		s.Logger.LogAkce("BENEFITS", akce.Title,
			fmt.Sprintf("points=%d used=%d cost=%.2f", st.Points, st.UsedPoints, st.Cost))
	}

	if err := s.DB.CommitApplication(ctx, cardID, st.Points, st.UsedPoints, orderID, st.Cost); err != nil {
		return nil, fmt.Errorf("failed to persist akce application: %w", err)
	}

	updated, err := s.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %d: %w", orderID, err)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishPromotionApplied(*updated, cardID, eventIDs); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish error (promotion applied): %v", err))
		}
		if st.Points != card.Count || st.UsedPoints != card.UsedPoints {
			if err := s.Kafka.PublishCardPointsChanged(cardID, st.Points, st.UsedPoints); err != nil {
				s.Logger.Error("KAFKA", fmt.Sprintf("publish error (card points changed): %v", err))
			}
		}
	}

	return updated, nil
}
