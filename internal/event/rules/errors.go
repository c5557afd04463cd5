package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientBalance means a spend benefit would drive the card's
	// active points below zero.
	ErrInsufficientBalance = errors.New("insufficient bonus card balance")

	// ErrUnknownContrast and ErrUnknownAction are internal-consistency
	// faults: the row carries a kind the engine has no rule for. The engine
	// fails closed instead of treating the rule as a no-op.
	ErrUnknownContrast = errors.New("unknown criterion contrast")
	ErrUnknownAction   = errors.New("unknown benefit action")
)

// CriterionError reports which criterion of which akce rejected the
// card/order pair, so the caller can explain the rejection.
type CriterionError struct {
	EventTitle string
	Contrast   string
	Value      float64
}

func (e *CriterionError) Error() string {
	return fmt.Sprintf("card or order does not satisfy %s %v for akce %s",
		e.Contrast, e.Value, e.EventTitle)
}
