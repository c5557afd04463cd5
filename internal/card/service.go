package card

import (
	"context"
	"errors"
	"fmt"

	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"
)

var (
	ErrCardNotFound = errors.New("bonus card not found")

	// ErrPhoneTaken enforces the one-card-per-phone rule.
	ErrPhoneTaken = errors.New("a bonus card already exists for this phone number")

	ErrNegativeBonus = errors.New("adding_bonus must not be negative")
)

type DBLayer interface {
	GetCardByID(ctx context.Context, id int64) (*models.BonusCard, error)
	GetCardByPhone(ctx context.Context, phone string) (*models.BonusCard, error)
	GetCardByUserID(ctx context.Context, userID string) (*models.BonusCard, error)
	CreateCard(ctx context.Context, card *models.BonusCard) error
	UpdateCard(ctx context.Context, card models.BonusCard) error
	WriteCardBalances(ctx context.Context, id int64, points, usedPoints int) error
	DeleteCard(ctx context.Context, id int64) (bool, error)
}

type CardService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewCardService(db DBLayer, log *logger.Logger) *CardService {
	return &CardService{DB: db, Logger: log}
}

// CreateCard issues a new card for a phone number. Cards start with an
// empty point balance.
func (s *CardService) CreateCard(ctx context.Context, req models.CardCreateRequest) (*models.BonusCard, error) {
	existing, err := s.DB.GetCardByPhone(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone %s: %w", req.Phone, err)
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	card := &models.BonusCard{Phone: req.Phone}
	if err := s.DB.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	s.Logger.LogCard("CREATE", card.ID, fmt.Sprintf("phone=%s", card.Phone))
	return card, nil
}

func (s *CardService) GetCard(ctx context.Context, id int64) (*models.BonusCard, error) {
	card, err := s.DB.GetCardByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}

func (s *CardService) GetCardByPhone(ctx context.Context, phone string) (*models.BonusCard, error) {
	card, err := s.DB.GetCardByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// GetCardForUser resolves a card through the lookup fallback chain: the
// user link first, then the phone number for cards issued at the till
// before the customer registered.
func (s *CardService) GetCardForUser(ctx context.Context, userID, phone string) (*models.BonusCard, error) {
	card, err := s.DB.GetCardByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if card != nil {
		return card, nil
	}
	if phone == "" {
		return nil, ErrCardNotFound
	}
	card, err = s.DB.GetCardByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// UpdateCard applies a partial update. AddingBonus increments the active
// balance; it cannot be used to take points away.
func (s *CardService) UpdateCard(ctx context.Context, id int64, req models.CardUpdateRequest) (*models.BonusCard, error) {
	if req.AddingBonus < 0 {
		return nil, ErrNegativeBonus
	}

	card, err := s.DB.GetCardByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}

	if req.Phone != nil {
		card.Phone = *req.Phone
	}
	if req.UserID != nil {
		card.UserID = *req.UserID
	}
	card.Count += req.AddingBonus

	if err := s.DB.UpdateCard(ctx, *card); err != nil {
		return nil, fmt.Errorf("failed to update card %d: %w", id, err)
	}
	if req.AddingBonus > 0 {
		s.Logger.LogCard("ADD_POINTS", card.ID, fmt.Sprintf("+%d -> %d", req.AddingBonus, card.Count))
	}
	return card, nil
}

func (s *CardService) DeleteCard(ctx context.Context, id int64) error {
	deleted, err := s.DB.DeleteCard(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", id, err)
	}
	if !deleted {
		return ErrCardNotFound
	}
	s.Logger.LogCard("DELETE", id, "card removed")
	return nil
}
