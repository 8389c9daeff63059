package cart

import (
	"context"
	"testing"

	"aura-taste/internal/domain"
	"aura-taste/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pizza = domain.Product{
	ID:             "p-1",
	Key:            "margherita",
	Name:           "Margherita",
	BasePriceCents: 1000,
	Sizes:          []domain.Option{{Name: "Small", PriceCents: 800}, {Name: "Large", PriceCents: 1400}},
	Extras:         []domain.Option{{Name: "Olives", PriceCents: 100}, {Name: "Cheese", PriceCents: 150}},
}

func TestSelect_Pricing(t *testing.T) {
	sel, err := Select(pizza, "", nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), sel.UnitPriceCents)

	sel, err = Select(pizza, "Large", []string{"Olives", "Cheese", "Olives"}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1650), sel.UnitPriceCents)
	assert.Equal(t, []string{"Olives", "Cheese"}, sel.Extras)
	assert.Equal(t, "p-1", sel.ProductRef)
	assert.Equal(t, 2, sel.Quantity)
}

func TestSelect_UnknownOptions(t *testing.T) {
	_, err := Select(pizza, "Huge", nil, 1)
	assert.ErrorIs(t, err, ErrUnknownSize)

	_, err = Select(pizza, "", []string{"Pineapple"}, 1)
	assert.ErrorIs(t, err, ErrUnknownExtra)
}

func TestCustomDeal(t *testing.T) {
	items := []domain.Product{
		{ID: "a", Name: "Burger", BasePriceCents: 899},
		{ID: "b", Name: "Fries", BasePriceCents: 350},
		{ID: "a", Name: "Burger", BasePriceCents: 899},
	}
	sel, err := CustomDeal(items)
	require.NoError(t, err)
	assert.Equal(t, CustomDealRef, sel.ProductRef)
	assert.Equal(t, []string{"Burger", "Fries"}, sel.Extras)
	// 1249 * 0.9 = 1124.1
	assert.Equal(t, int64(1124), sel.UnitPriceCents)

	_, err = CustomDeal(nil)
	assert.ErrorIs(t, err, ErrEmptyDeal)
}

func TestCustomDeal_SameItemsMerge(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)
	a, _ := CustomDeal([]domain.Product{{ID: "a", Name: "Burger", BasePriceCents: 500}, {ID: "b", Name: "Fries", BasePriceCents: 300}})
	b, _ := CustomDeal([]domain.Product{{ID: "b", Name: "Fries", BasePriceCents: 300}, {ID: "a", Name: "Burger", BasePriceCents: 500}})

	_, _ = s.AddItem(ctx, a)
	snap, _ := s.AddItem(ctx, b)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, int64(1440), snap.TotalCents)
}

func TestDiscountedRounding(t *testing.T) {
	assert.Equal(t, int64(90), discounted(100, 10))
	assert.Equal(t, int64(5), discounted(5, 10))
	assert.Equal(t, int64(14), discounted(15, 10))
}
