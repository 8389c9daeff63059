package menu

import (
	"context"
	"testing"

	"aura-taste/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducts struct {
	items []domain.Product
}

func (s stubProducts) List(context.Context) ([]domain.Product, error) { return s.items, nil }

func (s stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s stubProducts) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		p, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

type stubCategories []domain.Category

func (s stubCategories) List(context.Context) ([]domain.Category, error) { return s, nil }

func TestMenu_GroupsInPositionOrder(t *testing.T) {
	svc := New(
		stubProducts{items: []domain.Product{
			{ID: "1", Name: "Cola", Category: "Drinks"},
			{ID: "2", Name: "Classic", Category: "burgers"},
			{ID: "3", Name: "Mystery", Category: "Secret"},
			{ID: "4", Name: "Double", Category: "Burgers"},
			{ID: "5", Name: "Family Box", Category: "Deals"},
		}},
		stubCategories{
			{Key: "burgers", Name: "Burgers", Position: 1},
			{Key: "pizza", Name: "Pizza", Position: 2},
			{Key: "drinks", Name: "Drinks", Position: 3},
			{Key: "deals", Name: "Deals", Position: 4},
		},
	)

	sections, err := svc.Menu(context.Background())
	require.NoError(t, err)

	var names []string
	for _, s := range sections {
		names = append(names, s.Category)
	}
	assert.Equal(t, []string{"Burgers", "Drinks", "Deals", OtherSection}, names)
	assert.Len(t, sections[0].Products, 2)
	assert.Equal(t, "Mystery", sections[3].Products[0].Name)
}

func TestGroup_Empty(t *testing.T) {
	assert.Empty(t, Group(nil, nil))
}
