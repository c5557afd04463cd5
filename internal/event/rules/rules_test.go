package rules_test

import (
	"testing"

	"loyalty-backend/internal/event/rules"
	"loyalty-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardWith(points, used int) *models.BonusCard {
	return &models.BonusCard{ID: 1, Phone: "+420111222333", Count: points, UsedPoints: used}
}

func orderWithItems(itemIDs ...int64) *models.Order {
	order := &models.Order{ID: 1, Cost: 100}
	for _, id := range itemIDs {
		order.Items = append(order.Items, models.OrderItem{ItemID: id, Count: 1})
	}
	return order
}

func TestEvaluateCriterionGreater(t *testing.T) {
	c := models.Criterion{Contrast: models.ContrastGreater, Value: 10}

	ok, err := rules.EvaluateCriterion(c, cardWith(11, 0), orderWithItems())
	require.NoError(t, err)
	assert.True(t, ok)

	// strictly greater: equality fails
	ok, err = rules.EvaluateCriterion(c, cardWith(10, 0), orderWithItems())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateCriterionGreaterAllCountsSpentPoints(t *testing.T) {
	c := models.Criterion{Contrast: models.ContrastGreaterAll, Value: 100}

	// 5 active + 96 lifetime-spent beats the threshold even though the
	// active balance alone would not
	ok, err := rules.EvaluateCriterion(c, cardWith(5, 96), orderWithItems())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rules.EvaluateCriterion(c, cardWith(5, 95), orderWithItems())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateCriterionItemsCount(t *testing.T) {
	c := models.Criterion{Contrast: models.ContrastItemsCount, Value: 2}

	ok, err := rules.EvaluateCriterion(c, cardWith(0, 0), orderWithItems(7, 8))
	require.NoError(t, err)
	assert.True(t, ok, "at-least semantics: exactly 2 items passes")

	ok, err = rules.EvaluateCriterion(c, cardWith(0, 0), orderWithItems(7))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateCriterionItemDefined(t *testing.T) {
	c := models.Criterion{Contrast: models.ContrastItemDefined, Value: 8}

	ok, err := rules.EvaluateCriterion(c, cardWith(0, 0), orderWithItems(7, 8))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rules.EvaluateCriterion(c, cardWith(0, 0), orderWithItems(7, 9))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateCriterionUnknownContrastFailsClosed(t *testing.T) {
	c := models.Criterion{Contrast: "divisible_by", Value: 3}

	ok, err := rules.EvaluateCriterion(c, cardWith(9, 0), orderWithItems())
	assert.ErrorIs(t, err, rules.ErrUnknownContrast)
	assert.False(t, ok)
}

func TestApplyBenefitAddPoints(t *testing.T) {
	st, err := rules.ApplyBenefit(
		models.Benefit{Action: models.ActionAddPoints, Value: 25},
		rules.State{Points: 10, UsedPoints: 3, Cost: 50},
	)
	require.NoError(t, err)
	assert.Equal(t, 35, st.Points)
	assert.Equal(t, 3, st.UsedPoints, "adding points never touches the spent counter")
	assert.Equal(t, 50.0, st.Cost)
}

func TestApplyBenefitSpendPointsMovesBalanceToSpent(t *testing.T) {
	st, err := rules.ApplyBenefit(
		models.Benefit{Action: models.ActionSpendPoints, Value: 10},
		rules.State{Points: 15, UsedPoints: 5, Cost: 50},
	)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Points)
	assert.Equal(t, 15, st.UsedPoints)
}

func TestApplyBenefitSpendPointsInsufficientLeavesStateUnchanged(t *testing.T) {
	before := rules.State{Points: 9, UsedPoints: 5, Cost: 50}

	after, err := rules.ApplyBenefit(
		models.Benefit{Action: models.ActionSpendPoints, Value: 10},
		before,
	)
	assert.ErrorIs(t, err, rules.ErrInsufficientBalance)
	assert.Equal(t, before, after)
}

func TestApplyBenefitSpendNeverProducesNegativeBalance(t *testing.T) {
	st := rules.State{Points: 3}
	for i := 0; i < 5; i++ {
		next, err := rules.ApplyBenefit(
			models.Benefit{Action: models.ActionSpendPoints, Value: 2},
			st,
		)
		if err != nil {
			assert.ErrorIs(t, err, rules.ErrInsufficientBalance)
			break
		}
		st = next
		assert.GreaterOrEqual(t, st.Points, 0)
	}
	assert.Equal(t, 1, st.Points)
}

func TestApplyBenefitDiscountFixed(t *testing.T) {
	st, err := rules.ApplyBenefit(
		models.Benefit{Action: models.ActionDiscountFixed, Value: 30},
		rules.State{Cost: 100},
	)
	require.NoError(t, err)
	assert.Equal(t, 70.0, st.Cost)
}

func TestApplyBenefitDiscountFixedClampsAtZero(t *testing.T) {
	st, err := rules.ApplyBenefit(
		models.Benefit{Action: models.ActionDiscountFixed, Value: 150},
		rules.State{Cost: 100},
	)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Cost)
}

func TestApplyBenefitDiscountPercentRoundsToCents(t *testing.T) {
	st, err := rules.ApplyBenefit(
		models.Benefit{Action: models.ActionDiscountPercent, Value: 15},
		rules.State{Cost: 99.99},
	)
	require.NoError(t, err)
	// 99.99 * 0.85 = 84.9915 -> 84.99
	assert.Equal(t, 84.99, st.Cost)
}

func TestApplyBenefitDiscountPercentOver100ClampsAtZero(t *testing.T) {
	st, err := rules.ApplyBenefit(
		models.Benefit{Action: models.ActionDiscountPercent, Value: 120},
		rules.State{Cost: 80},
	)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Cost)
}

func TestApplyBenefitUnknownActionFailsClosed(t *testing.T) {
	before := rules.State{Points: 10, Cost: 50}

	after, err := rules.ApplyBenefit(models.Benefit{Action: "double_points", Value: 2}, before)
	assert.ErrorIs(t, err, rules.ErrUnknownAction)
	assert.Equal(t, before, after)
}

// Discounts must not leak into the point pool and point moves must not
// change the cost.
func TestBenefitsTouchOnlyTheirOwnDimension(t *testing.T) {
	st := rules.State{Points: 40, UsedPoints: 10, Cost: 200}

	st, err := rules.ApplyBenefit(models.Benefit{Action: models.ActionDiscountPercent, Value: 50}, st)
	require.NoError(t, err)
	st, err = rules.ApplyBenefit(models.Benefit{Action: models.ActionDiscountFixed, Value: 20}, st)
	require.NoError(t, err)

	assert.Equal(t, 40, st.Points)
	assert.Equal(t, 10, st.UsedPoints)
	assert.Equal(t, 80.0, st.Cost)

	st, err = rules.ApplyBenefit(models.Benefit{Action: models.ActionSpendPoints, Value: 30}, st)
	require.NoError(t, err)
	assert.Equal(t, 80.0, st.Cost)
	assert.Equal(t, 50, st.Points+st.UsedPoints, "point pool only moves between active and spent")
}

func TestBenefitsComposeSequentially(t *testing.T) {
	st := rules.State{Points: 0, Cost: 100}

	st, err := rules.ApplyBenefit(models.Benefit{Action: models.ActionAddPoints, Value: 10}, st)
	require.NoError(t, err)

	// the spend sees the points granted a step earlier
	st, err = rules.ApplyBenefit(models.Benefit{Action: models.ActionSpendPoints, Value: 10}, st)
	require.NoError(t, err)

	assert.Equal(t, 0, st.Points)
	assert.Equal(t, 10, st.UsedPoints)
}
