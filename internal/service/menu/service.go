// Package menu serves the catalog grouped into display sections.
package menu

import (
	"context"
	"strings"

	"aura-taste/internal/domain"
)

// OtherSection collects products whose category is not configured.
const OtherSection = "Other"

type productRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

type categoryRepo interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type Service struct {
	products   productRepo
	categories categoryRepo
}

func New(products productRepo, categories categoryRepo) *Service {
	return &Service{products: products, categories: categories}
}

// Section is one category heading and its products.
type Section struct {
	Category string           `json:"category"`
	Products []domain.Product `json:"products"`
}

// Menu groups every product by category in category position order. Empty
// categories are omitted and unknown categories are merged into a trailing
// "Other" section.
func (s *Service) Menu(ctx context.Context) ([]Section, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return Group(categories, products), nil
}

func (s *Service) Product(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) Products(ctx context.Context, ids []string) ([]domain.Product, error) {
	return s.products.GetByIDs(ctx, ids)
}

// Group is the pure part of Menu. categories must already be in display order.
func Group(categories []domain.Category, products []domain.Product) []Section {
	index := make(map[string]int, len(categories)*2)
	sections := make([]Section, len(categories))
	for i, c := range categories {
		sections[i] = Section{Category: c.Name}
		index[normalize(c.Name)] = i
		index[normalize(c.Key)] = i
	}
	other := Section{Category: OtherSection}
	for _, p := range products {
		if i, ok := index[normalize(p.Category)]; ok {
			sections[i].Products = append(sections[i].Products, p)
			continue
		}
		other.Products = append(other.Products, p)
	}

	out := make([]Section, 0, len(sections)+1)
	for _, sec := range sections {
		if len(sec.Products) > 0 {
			out = append(out, sec)
		}
	}
	if len(other.Products) > 0 {
		out = append(out, other)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
