package event_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"loyalty-backend/internal/event"
	"loyalty-backend/internal/event/rules"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventStore) ListEvents(ctx context.Context, activeOnly bool) ([]models.Event, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventStore) CreateEvent(ctx context.Context, ev *models.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockEventStore) DeleteEvent(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventStore) CommitApplication(ctx context.Context, cardID int64, points, usedPoints int, orderID int64, cost float64) error {
	args := m.Called(ctx, cardID, points, usedPoints, orderID, cost)
	return args.Error(0)
}

func (m *MockEventStore) IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

type MockCardStore struct {
	mock.Mock
}

func (m *MockCardStore) GetCardByID(ctx context.Context, id int64) (*models.BonusCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BonusCard), args.Error(1)
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) LockCardAndOrder(ctx context.Context, cardID, orderID int64, holder string) (bool, error) {
	args := m.Called(ctx, cardID, orderID, holder)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) UnlockCardAndOrder(ctx context.Context, cardID, orderID int64, holder string) error {
	args := m.Called(ctx, cardID, orderID, holder)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPromotionApplied(order models.Order, cardID int64, eventIDs []int64) error {
	args := m.Called(order, cardID, eventIDs)
	return args.Error(0)
}

func (m *MockPublisher) PublishCardPointsChanged(cardID int64, points, usedPoints int) error {
	args := m.Called(cardID, points, usedPoints)
	return args.Error(0)
}

// Helpers

type fixture struct {
	db     *MockEventStore
	cards  *MockCardStore
	orders *MockOrderStore
	svc    *event.Service
}

func newFixture() *fixture {
	db := new(MockEventStore)
	cards := new(MockCardStore)
	orders := new(MockOrderStore)
	svc := event.NewService(db, cards, orders, nil, nil, logger.NewTestLogger())
	return &fixture{db: db, cards: cards, orders: orders, svc: svc}
}

func akce(id int64, title string, criteria []models.Criterion, benefits []models.Benefit) *models.Event {
	return &models.Event{ID: id, Title: title, IsActive: true, Criteria: criteria, Benefits: benefits}
}

func TestApplyEventsFixedDiscountLeavesCardAlone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	card := &models.BonusCard{ID: 1, Phone: "+420111222333", Count: 100, UsedPoints: 0}
	order := &models.Order{ID: 2, Cost: 50.0}

	f.cards.On("GetCardByID", ctx, int64(1)).Return(card, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil).Once()
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "welcome discount",
		[]models.Criterion{{Contrast: models.ContrastGreater, Value: 50}},
		[]models.Benefit{{Action: models.ActionDiscountFixed, Value: 10}},
	), nil)

	// card balances unchanged, cost down by the fixed amount
	f.db.On("CommitApplication", ctx, int64(1), 100, 0, int64(2), 40.0).Return(nil)

	updated := &models.Order{ID: 2, Cost: 40.0}
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(updated, nil).Once()

	result, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.Cost)
	f.db.AssertExpectations(t)
}

func TestApplyEventsFailedCriterionWritesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	card := &models.BonusCard{ID: 1, Count: 5}
	order := &models.Order{ID: 2, Cost: 50.0}

	f.cards.On("GetCardByID", ctx, int64(1)).Return(card, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil)
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "big spender",
		[]models.Criterion{{Contrast: models.ContrastGreater, Value: 50}},
		[]models.Benefit{{Action: models.ActionDiscountFixed, Value: 10}},
	), nil)

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})

	var critErr *rules.CriterionError
	require.ErrorAs(t, err, &critErr)
	assert.Equal(t, "big spender", critErr.EventTitle)
	assert.Equal(t, models.ContrastGreater, critErr.Contrast)

	f.db.AssertNotCalled(t, "CommitApplication",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyEventsInsufficientBalanceWritesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	card := &models.BonusCard{ID: 1, Count: 20, UsedPoints: 0}
	order := &models.Order{ID: 2, Cost: 50.0}

	f.cards.On("GetCardByID", ctx, int64(1)).Return(card, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil)
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "spend 30",
		nil,
		[]models.Benefit{{Action: models.ActionSpendPoints, Value: 30}},
	), nil)

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	assert.ErrorIs(t, err, rules.ErrInsufficientBalance)

	f.db.AssertNotCalled(t, "CommitApplication",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyEventsPercentDiscount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	card := &models.BonusCard{ID: 1, Count: 100}
	order := &models.Order{ID: 2, Cost: 200.0}

	f.cards.On("GetCardByID", ctx, int64(1)).Return(card, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil).Once()
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "20 percent off",
		nil,
		[]models.Benefit{{Action: models.ActionDiscountPercent, Value: 20}},
	), nil)
	f.db.On("CommitApplication", ctx, int64(1), 100, 0, int64(2), 160.0).Return(nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2, Cost: 160.0}, nil).Once()

	result, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, 160.0, result.Cost)
}

// Criteria gate on the card as loaded at the start of the batch, not on
// points granted by an earlier event in the same batch.
func TestApplyEventsCriteriaSeeOriginalCardNotRunningState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	card := &models.BonusCard{ID: 1, Count: 100}
	order := &models.Order{ID: 2, Cost: 50.0}

	f.cards.On("GetCardByID", ctx, int64(1)).Return(card, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil)
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "bonus grant",
		nil,
		[]models.Benefit{{Action: models.ActionAddPoints, Value: 10}},
	), nil)
	f.db.On("GetEventByID", ctx, int64(11)).Return(akce(11, "loyal customer",
		[]models.Criterion{{Contrast: models.ContrastGreater, Value: 105}},
		[]models.Benefit{{Action: models.ActionDiscountFixed, Value: 5}},
	), nil)

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10, 11})

	// running state is 110 points, but the gate sees the original 100
	var critErr *rules.CriterionError
	require.ErrorAs(t, err, &critErr)
	assert.Equal(t, "loyal customer", critErr.EventTitle)
	f.db.AssertNotCalled(t, "CommitApplication",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyEventsWorkingStateSwitchFlipsTheGate(t *testing.T) {
	f := newFixture()
	f.svc.CriteriaOnWorkingState = true
	ctx := context.Background()

	card := &models.BonusCard{ID: 1, Count: 100}
	order := &models.Order{ID: 2, Cost: 50.0}

	f.cards.On("GetCardByID", ctx, int64(1)).Return(card, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil).Once()
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "bonus grant",
		nil,
		[]models.Benefit{{Action: models.ActionAddPoints, Value: 10}},
	), nil)
	f.db.On("GetEventByID", ctx, int64(11)).Return(akce(11, "loyal customer",
		[]models.Criterion{{Contrast: models.ContrastGreater, Value: 105}},
		[]models.Benefit{{Action: models.ActionDiscountFixed, Value: 5}},
	), nil)
	f.db.On("CommitApplication", ctx, int64(1), 110, 0, int64(2), 45.0).Return(nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2, Cost: 45.0}, nil).Once()

	result, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, 45.0, result.Cost)
}

// Benefits thread through the batch even though criteria do not: a grant
// in the first event funds a spend in the second.
func TestApplyEventsBenefitsThreadAcrossBatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	card := &models.BonusCard{ID: 1, Count: 0}
	order := &models.Order{ID: 2, Cost: 50.0}

	f.cards.On("GetCardByID", ctx, int64(1)).Return(card, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil).Once()
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "grant",
		nil,
		[]models.Benefit{{Action: models.ActionAddPoints, Value: 10}},
	), nil)
	f.db.On("GetEventByID", ctx, int64(11)).Return(akce(11, "spend",
		nil,
		[]models.Benefit{{Action: models.ActionSpendPoints, Value: 10}},
	), nil)
	f.db.On("CommitApplication", ctx, int64(1), 0, 10, int64(2), 50.0).Return(nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil).Once()

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10, 11})
	require.NoError(t, err)
	f.db.AssertExpectations(t)
}

// Re-applying the same akce re-applies its delta: application is not
// idempotent on purpose.
func TestApplyEventsSecondApplicationAppliesDeltaAgain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	discount := akce(10, "minus ten",
		nil,
		[]models.Benefit{{Action: models.ActionDiscountFixed, Value: 10}},
	)
	card := &models.BonusCard{ID: 1, Count: 100}

	f.cards.On("GetCardByID", ctx, int64(1)).Return(card, nil)
	f.db.On("GetEventByID", ctx, int64(10)).Return(discount, nil)

	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2, Cost: 50.0}, nil).Once()
	f.db.On("CommitApplication", ctx, int64(1), 100, 0, int64(2), 40.0).Return(nil).Once()
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2, Cost: 40.0}, nil).Once()

	first, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, 40.0, first.Cost)

	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2, Cost: 40.0}, nil).Once()
	f.db.On("CommitApplication", ctx, int64(1), 100, 0, int64(2), 30.0).Return(nil).Once()
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2, Cost: 30.0}, nil).Once()

	second, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, 30.0, second.Cost, "second application moves the cost again")
}

func TestApplyEventsMissingCard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cards.On("GetCardByID", ctx, int64(99)).Return(nil, nil)

	_, err := f.svc.ApplyEvents(ctx, 99, 2, []int64{10})
	assert.ErrorIs(t, err, event.ErrCardNotFound)
}

func TestApplyEventsMissingOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cards.On("GetCardByID", ctx, int64(1)).Return(&models.BonusCard{ID: 1}, nil)
	f.orders.On("GetOrderByID", ctx, int64(99)).Return(nil, nil)

	_, err := f.svc.ApplyEvents(ctx, 1, 99, []int64{10})
	assert.ErrorIs(t, err, event.ErrOrderNotFound)
}

func TestApplyEventsMissingEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cards.On("GetCardByID", ctx, int64(1)).Return(&models.BonusCard{ID: 1}, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2}, nil)
	f.db.On("GetEventByID", ctx, int64(99)).Return(nil, sql.ErrNoRows)

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{99})
	assert.ErrorIs(t, err, event.ErrEventNotFound)
}

func TestApplyEventsLockedPair(t *testing.T) {
	f := newFixture()
	lock := new(MockLocker)
	f.svc.Lock = lock
	ctx := context.Background()

	lock.On("LockCardAndOrder", ctx, int64(1), int64(2), mock.AnythingOfType("string")).Return(false, nil)

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	assert.ErrorIs(t, err, event.ErrLocked)
	f.cards.AssertNotCalled(t, "GetCardByID", mock.Anything, mock.Anything)
}

func TestApplyEventsUnlocksAfterSuccess(t *testing.T) {
	f := newFixture()
	lock := new(MockLocker)
	f.svc.Lock = lock
	ctx := context.Background()

	lock.On("LockCardAndOrder", ctx, int64(1), int64(2), mock.AnythingOfType("string")).Return(true, nil)
	lock.On("UnlockCardAndOrder", ctx, int64(1), int64(2), mock.AnythingOfType("string")).Return(nil)

	f.cards.On("GetCardByID", ctx, int64(1)).Return(&models.BonusCard{ID: 1, Count: 100}, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2, Cost: 50}, nil)
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "noop", nil, nil), nil)
	f.db.On("CommitApplication", ctx, int64(1), 100, 0, int64(2), 50.0).Return(nil)

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	require.NoError(t, err)
	lock.AssertExpectations(t)
}

func TestApplyEventsPublishesPromotionApplied(t *testing.T) {
	f := newFixture()
	pub := new(MockPublisher)
	f.svc.Kafka = pub
	ctx := context.Background()

	f.cards.On("GetCardByID", ctx, int64(1)).Return(&models.BonusCard{ID: 1, Count: 100}, nil)
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&models.Order{ID: 2, Cost: 50}, nil).Once()
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "minus ten",
		nil,
		[]models.Benefit{{Action: models.ActionDiscountFixed, Value: 10}},
	), nil)
	f.db.On("CommitApplication", ctx, int64(1), 100, 0, int64(2), 40.0).Return(nil)
	updated := models.Order{ID: 2, Cost: 40.0}
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(&updated, nil).Once()
	pub.On("PublishPromotionApplied", updated, int64(1), []int64{10}).Return(nil)

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	require.NoError(t, err)
	pub.AssertExpectations(t)
	// fixed discount touched only the cost, so no balance message goes out
	pub.AssertNotCalled(t, "PublishCardPointsChanged", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyEventsPublishesCardPointsChanged(t *testing.T) {
	f := newFixture()
	pub := new(MockPublisher)
	f.svc.Kafka = pub
	ctx := context.Background()

	f.cards.On("GetCardByID", ctx, int64(1)).Return(&models.BonusCard{ID: 1, Count: 100}, nil)
	order := &models.Order{ID: 2, Cost: 50}
	f.orders.On("GetOrderByID", ctx, int64(2)).Return(order, nil)
	f.db.On("GetEventByID", ctx, int64(10)).Return(akce(10, "grant",
		nil,
		[]models.Benefit{{Action: models.ActionAddPoints, Value: 25}},
	), nil)
	f.db.On("CommitApplication", ctx, int64(1), 125, 0, int64(2), 50.0).Return(nil)
	pub.On("PublishPromotionApplied", *order, int64(1), []int64{10}).Return(nil)
	pub.On("PublishCardPointsChanged", int64(1), 125, 0).Return(nil)

	_, err := f.svc.ApplyEvents(ctx, 1, 2, []int64{10})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestCreateEventRejectsUnknownKinds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateEvent(ctx, models.EventCreateRequest{
		Title:    "broken",
		Criteria: []models.CriterionRequest{{Contrast: "divisible_by", Value: 3}},
	})
	assert.ErrorIs(t, err, rules.ErrUnknownContrast)

	_, err = f.svc.CreateEvent(ctx, models.EventCreateRequest{
		Title:    "broken",
		Benefits: []models.BenefitRequest{{Action: "double_points", Value: 2}},
	})
	assert.ErrorIs(t, err, rules.ErrUnknownAction)

	f.db.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}
