package lifecycle

import (
	"testing"

	"aura-taste/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AcceptsDisplayAndCompactNames(t *testing.T) {
	cases := map[string]domain.OrderStatus{
		"Pending":     domain.StatusPending,
		"InKitchen":   domain.StatusInKitchen,
		"in kitchen":  domain.StatusInKitchen,
		"IN_KITCHEN":  domain.StatusInKitchen,
		" completed ": domain.StatusCompleted,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := Parse("Cancelled")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestIndex_FollowsLifecycleOrder(t *testing.T) {
	for i, s := range Steps() {
		assert.Equal(t, i, Index(s))
	}
	assert.Equal(t, -1, Index("Lost"))
	assert.Equal(t, domain.StatusPending, Initial())
	assert.True(t, Terminal(domain.StatusCompleted))
	assert.False(t, Terminal(domain.StatusDelivering))
}

func TestForward_Transition(t *testing.T) {
	p := Forward{}

	assert.NoError(t, p.Transition(domain.StatusPending, domain.StatusApproved))
	assert.NoError(t, p.Transition(domain.StatusPending, domain.StatusCompleted), "fast-forward is allowed")
	assert.NoError(t, p.Transition(domain.StatusInKitchen, domain.StatusInKitchen))

	assert.ErrorIs(t, p.Transition(domain.StatusFinishing, domain.StatusApproved), ErrStatusRegression)
	assert.ErrorIs(t, p.Transition(domain.StatusCompleted, domain.StatusPending), ErrTerminal)
	assert.ErrorIs(t, p.Transition(domain.StatusPending, "Lost"), ErrUnknownStatus)
	assert.ErrorIs(t, p.Transition("Lost", domain.StatusPending), ErrUnknownStatus)
}

func TestPermissive_Transition(t *testing.T) {
	p := Permissive{}
	assert.NoError(t, p.Transition(domain.StatusCompleted, domain.StatusPending))
	assert.ErrorIs(t, p.Transition(domain.StatusPending, "Lost"), ErrUnknownStatus)
}

func TestPolicyFromName(t *testing.T) {
	assert.IsType(t, Permissive{}, PolicyFromName("Permissive"))
	assert.IsType(t, Forward{}, PolicyFromName("forward"))
	assert.IsType(t, Forward{}, PolicyFromName(""))
}
