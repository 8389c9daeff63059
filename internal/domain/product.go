package domain

import "time"

// Option is a priced size or extra offered on a product.
type Option struct {
	Name       string `json:"name" yaml:"name"`
	PriceCents int64  `json:"price" yaml:"price"`
}

type Product struct {
	ID             string    `json:"id"`
	Key            string    `json:"key"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category"`
	BasePriceCents int64     `json:"basePrice"`
	Sizes          []Option  `json:"sizes,omitempty"`
	Extras         []Option  `json:"extras,omitempty"`
	Image          string    `json:"image,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Size returns the size option with the given name.
func (p Product) Size(name string) (Option, bool) {
	return findOption(p.Sizes, name)
}

// Extra returns the extra option with the given name.
func (p Product) Extra(name string) (Option, bool) {
	return findOption(p.Extras, name)
}

func findOption(opts []Option, name string) (Option, bool) {
	for _, o := range opts {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}
