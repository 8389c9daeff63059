package cart

import (
	"errors"
	"fmt"
	"strings"

	"aura-taste/internal/domain"
)

const (
	// CustomDealRef is the product reference of a make-your-own deal line.
	CustomDealRef  = "custom-deal"
	customDealName = "Custom Mega Deal"
	// CustomDealDiscountPercent is taken off the summed base prices.
	CustomDealDiscountPercent = 10
)

var (
	ErrUnknownSize  = errors.New("unknown size")
	ErrUnknownExtra = errors.New("unknown extra")
	ErrEmptyDeal    = errors.New("deal needs at least one item")
)

// Selection is what the shopper picked: a priced product plus options.
type Selection struct {
	ProductRef     string
	Name           string
	UnitPriceCents int64
	Quantity       int
	Size           string
	Extras         []string
	Image          string
}

// Select prices a product with the chosen size and extras. The unit price is
// the size price (or the base price when no size is chosen) plus every extra.
func Select(p domain.Product, size string, extras []string, quantity int) (Selection, error) {
	size = strings.TrimSpace(size)
	extras = NormalizeExtras(extras)

	unit := p.BasePriceCents
	if size != "" {
		opt, ok := p.Size(size)
		if !ok {
			return Selection{}, fmt.Errorf("%w: %q on %s", ErrUnknownSize, size, p.Key)
		}
		unit = opt.PriceCents
	}
	for _, name := range extras {
		opt, ok := p.Extra(name)
		if !ok {
			return Selection{}, fmt.Errorf("%w: %q on %s", ErrUnknownExtra, name, p.Key)
		}
		unit += opt.PriceCents
	}
	return Selection{
		ProductRef:     p.ID,
		Name:           p.Name,
		UnitPriceCents: unit,
		Quantity:       quantity,
		Size:           size,
		Extras:         extras,
		Image:          p.Image,
	}, nil
}

// CustomDeal bundles products into one line priced at their summed base
// prices less CustomDealDiscountPercent, rounded half up to the cent.
// Products repeated by id are counted once.
func CustomDeal(products []domain.Product) (Selection, error) {
	seen := make(map[string]struct{}, len(products))
	var (
		sum   int64
		names []string
	)
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		sum += p.BasePriceCents
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		return Selection{}, ErrEmptyDeal
	}
	return Selection{
		ProductRef:     CustomDealRef,
		Name:           customDealName,
		UnitPriceCents: discounted(sum, CustomDealDiscountPercent),
		Quantity:       1,
		Extras:         names,
	}, nil
}

func discounted(cents int64, percent int64) int64 {
	return (cents*(100-percent) + 50) / 100
}
