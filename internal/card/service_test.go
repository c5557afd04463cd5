package card_test

import (
	"context"
	"testing"

	"loyalty-backend/internal/card"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetCardByID(ctx context.Context, id int64) (*models.BonusCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BonusCard), args.Error(1)
}

func (m *MockDBLayer) GetCardByPhone(ctx context.Context, phone string) (*models.BonusCard, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BonusCard), args.Error(1)
}

func (m *MockDBLayer) GetCardByUserID(ctx context.Context, userID string) (*models.BonusCard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BonusCard), args.Error(1)
}

func (m *MockDBLayer) CreateCard(ctx context.Context, c *models.BonusCard) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateCard(ctx context.Context, c models.BonusCard) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockDBLayer) WriteCardBalances(ctx context.Context, id int64, points, usedPoints int) error {
	args := m.Called(ctx, id, points, usedPoints)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteCard(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func newService() (*card.CardService, *MockDBLayer) {
	db := new(MockDBLayer)
	return card.NewCardService(db, logger.NewTestLogger()), db
}

func TestCreateCardRejectsDuplicatePhone(t *testing.T) {
	svc, db := newService()
	ctx := context.Background()

	db.On("GetCardByPhone", ctx, "+420111222333").Return(&models.BonusCard{ID: 1, Phone: "+420111222333"}, nil)

	_, err := svc.CreateCard(ctx, models.CardCreateRequest{Phone: "+420111222333"})
	assert.ErrorIs(t, err, card.ErrPhoneTaken)
	db.AssertNotCalled(t, "CreateCard", mock.Anything, mock.Anything)
}

func TestCreateCardStartsEmpty(t *testing.T) {
	svc, db := newService()
	ctx := context.Background()

	db.On("GetCardByPhone", ctx, "+420111222333").Return(nil, nil)
	db.On("CreateCard", ctx, mock.AnythingOfType("*models.BonusCard")).Return(nil)

	created, err := svc.CreateCard(ctx, models.CardCreateRequest{Phone: "+420111222333"})
	require.NoError(t, err)
	assert.Zero(t, created.Count)
	assert.Zero(t, created.UsedPoints)
}

func TestGetCardForUserFallsBackToPhone(t *testing.T) {
	svc, db := newService()
	ctx := context.Background()

	userID := "2f6c9f3e-0b1a-4f29-9c55-0a2d9d8e6b11"
	db.On("GetCardByUserID", ctx, userID).Return(nil, nil)
	db.On("GetCardByPhone", ctx, "+420777888999").Return(&models.BonusCard{ID: 7, Phone: "+420777888999"}, nil)

	got, err := svc.GetCardForUser(ctx, userID, "+420777888999")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
}

func TestGetCardForUserNoLinkNoPhone(t *testing.T) {
	svc, db := newService()
	ctx := context.Background()

	db.On("GetCardByUserID", ctx, "unknown").Return(nil, nil)

	_, err := svc.GetCardForUser(ctx, "unknown", "")
	assert.ErrorIs(t, err, card.ErrCardNotFound)
	db.AssertNotCalled(t, "GetCardByPhone", mock.Anything, mock.Anything)
}

func TestUpdateCardAddsBonus(t *testing.T) {
	svc, db := newService()
	ctx := context.Background()

	db.On("GetCardByID", ctx, int64(1)).Return(&models.BonusCard{ID: 1, Phone: "+420111222333", Count: 10}, nil)
	db.On("UpdateCard", ctx, mock.MatchedBy(func(c models.BonusCard) bool {
		return c.Count == 35
	})).Return(nil)

	updated, err := svc.UpdateCard(ctx, 1, models.CardUpdateRequest{AddingBonus: 25})
	require.NoError(t, err)
	assert.Equal(t, 35, updated.Count)
	db.AssertExpectations(t)
}

func TestUpdateCardRejectsNegativeBonus(t *testing.T) {
	svc, db := newService()

	_, err := svc.UpdateCard(context.Background(), 1, models.CardUpdateRequest{AddingBonus: -5})
	assert.ErrorIs(t, err, card.ErrNegativeBonus)
	db.AssertNotCalled(t, "GetCardByID", mock.Anything, mock.Anything)
}

func TestDeleteCardMissing(t *testing.T) {
	svc, db := newService()
	ctx := context.Background()

	db.On("DeleteCard", ctx, int64(99)).Return(false, nil)

	err := svc.DeleteCard(ctx, 99)
	assert.ErrorIs(t, err, card.ErrCardNotFound)
}
