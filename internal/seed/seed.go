// Package seed loads the default menu, deals and branches.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"aura-taste/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed menu.yaml
var defaultMenu []byte

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type BranchWriter interface {
	Upsert(ctx context.Context, b domain.Branch) (*domain.Branch, error)
}

type categorySeed struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type productSeed struct {
	Key         string          `yaml:"key"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Category    string          `yaml:"category"`
	BasePrice   int64           `yaml:"basePrice"`
	Image       string          `yaml:"image"`
	Sizes       []domain.Option `yaml:"sizes"`
	Extras      []domain.Option `yaml:"extras"`
}

type branchSeed struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Tables  int    `yaml:"tables"`
}

// Menu is a parsed seed file. Category order in the file is display order.
type Menu struct {
	Categories []categorySeed `yaml:"categories"`
	Products   []productSeed  `yaml:"products"`
	Branches   []branchSeed   `yaml:"branches"`
}

// Default returns the embedded menu.
func Default() (Menu, error) {
	return Parse(defaultMenu)
}

// Parse decodes and checks a seed file. Every product must name a declared
// category.
func Parse(data []byte) (Menu, error) {
	var m Menu
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Menu{}, fmt.Errorf("parse menu: %w", err)
	}
	known := map[string]bool{}
	for _, c := range m.Categories {
		if c.Key == "" || c.Name == "" {
			return Menu{}, fmt.Errorf("category needs key and name: %+v", c)
		}
		known[strings.ToLower(c.Name)] = true
		known[strings.ToLower(c.Key)] = true
	}
	for _, p := range m.Products {
		if p.Key == "" || p.Name == "" || p.BasePrice <= 0 {
			return Menu{}, fmt.Errorf("product needs key, name and basePrice: %q", p.Key)
		}
		if !known[strings.ToLower(p.Category)] {
			return Menu{}, fmt.Errorf("product %q: unknown category %q", p.Key, p.Category)
		}
	}
	return m, nil
}

// Counts reports what Apply wrote.
type Counts struct {
	Categories int
	Products   int
	Branches   int
}

// Apply upserts the menu. It is idempotent via ON CONFLICT in the writers.
func Apply(ctx context.Context, m Menu, categories CategoryWriter, products ProductWriter, branches BranchWriter) (Counts, error) {
	var n Counts
	for i, c := range m.Categories {
		if _, err := categories.Upsert(ctx, domain.Category{Key: c.Key, Name: c.Name, Position: i}); err != nil {
			return n, fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
		n.Categories++
	}
	for _, p := range m.Products {
		_, err := products.Upsert(ctx, domain.Product{
			Key:            p.Key,
			Name:           p.Name,
			Description:    p.Description,
			Category:       p.Category,
			BasePriceCents: p.BasePrice,
			Image:          p.Image,
			Sizes:          p.Sizes,
			Extras:         p.Extras,
		})
		if err != nil {
			return n, fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
		n.Products++
	}
	for _, b := range m.Branches {
		if _, err := branches.Upsert(ctx, domain.Branch{Key: b.Key, Name: b.Name, Address: b.Address, Tables: b.Tables}); err != nil {
			return n, fmt.Errorf("upsert branch %s: %w", b.Key, err)
		}
		n.Branches++
	}
	return n, nil
}
