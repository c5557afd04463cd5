package rules

import (
	"math"

	"loyalty-backend/internal/models"
)

// State is the working triple threaded through benefit application: the
// card's spendable points, its lifetime spent points and the order total.
type State struct {
	Points     int
	UsedPoints int
	Cost       float64
}

type predicate func(card *models.BonusCard, order *models.Order, value float64) bool

// Dispatch table: contrast kind -> predicate. Every kind must be present
// here; a contrast without an entry is an evaluation error, never a pass.
var contrastOperations = map[string]predicate{
	models.ContrastGreater: func(card *models.BonusCard, order *models.Order, value float64) bool {
		return float64(card.Count) > value
	},
	models.ContrastGreaterAll: func(card *models.BonusCard, order *models.Order, value float64) bool {
		return float64(card.Count+card.UsedPoints) > value
	},
	models.ContrastItemsCount: func(card *models.BonusCard, order *models.Order, value float64) bool {
		return float64(len(order.Items)) >= value
	},
	models.ContrastItemDefined: func(card *models.BonusCard, order *models.Order, value float64) bool {
		for _, item := range order.Items {
			if item.ItemID == int64(value) {
				return true
			}
		}
		return false
	},
}

// EvaluateCriterion reports whether the card/order pair satisfies the
// criterion. Pure: it only reads the already-loaded values.
func EvaluateCriterion(c models.Criterion, card *models.BonusCard, order *models.Order) (bool, error) {
	predicate, ok := contrastOperations[c.Contrast]
	if !ok {
		return false, ErrUnknownContrast
	}
	return predicate(card, order, c.Value), nil
}

type transform func(st State, value float64) (State, error)

var benefitOperations = map[string]transform{
	models.ActionAddPoints: func(st State, value float64) (State, error) {
		st.Points += int(value)
		return st, nil
	},
	models.ActionSpendPoints: func(st State, value float64) (State, error) {
		points := int(value)
		if st.Points < points {
			return st, ErrInsufficientBalance
		}
		st.Points -= points
		st.UsedPoints += points
		return st, nil
	},
	models.ActionDiscountFixed: func(st State, value float64) (State, error) {
		st.Cost = clampCost(st.Cost - value)
		return st, nil
	},
	models.ActionDiscountPercent: func(st State, value float64) (State, error) {
		st.Cost = clampCost(roundCost(st.Cost * (1 - value/100)))
		return st, nil
	},
}

// ApplyBenefit returns the state after applying one benefit. Benefits
// compose sequentially: the caller feeds each result into the next call.
func ApplyBenefit(b models.Benefit, st State) (State, error) {
	apply, ok := benefitOperations[b.Action]
	if !ok {
		return st, ErrUnknownAction
	}
	return apply(st, b.Value)
}

// roundCost fixes the currency rounding policy for percentage discounts:
// two decimal places, half away from zero.
func roundCost(cost float64) float64 {
	return math.Round(cost*100) / 100
}

// An order total never goes negative; oversized discounts bottom out at 0.
func clampCost(cost float64) float64 {
	if cost < 0 {
		return 0
	}
	return cost
}
