package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"aura-taste/internal/domain"
	"aura-taste/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyKV struct {
	*kv.Memory
	mu      sync.Mutex
	failSet bool
	sets    int
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.sets++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *flakyKV) fail(v bool) {
	f.mu.Lock()
	f.failSet = v
	f.mu.Unlock()
}

func burger(qty int) Selection {
	return Selection{ProductRef: "burger", Name: "Burger", UnitPriceCents: 500, Quantity: qty}
}

func TestAddItem_SameSelectionMergesQuantity(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)

	_, err := s.AddItem(ctx, burger(1))
	require.NoError(t, err)
	snap, err := s.AddItem(ctx, burger(2))
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
	assert.Equal(t, int64(1500), snap.TotalCents)
	assert.Equal(t, 3, snap.Count)
}

func TestAddItem_SizeVariantsAreDistinctLines(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)

	_, _ = s.AddItem(ctx, Selection{ProductRef: "pizza", UnitPriceCents: 900, Size: "S"})
	snap, err := s.AddItem(ctx, Selection{ProductRef: "pizza", UnitPriceCents: 1400, Size: "L"})
	require.NoError(t, err)

	require.Len(t, snap.Lines, 2)
	assert.NotEqual(t, snap.Lines[0].LineID, snap.Lines[1].LineID)
	assert.Equal(t, int64(2300), snap.TotalCents)
}

func TestAddItem_ExtrasOrderDoesNotMatter(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)

	_, _ = s.AddItem(ctx, Selection{ProductRef: "burger", UnitPriceCents: 650, Extras: []string{"Cheese", "Bacon"}})
	snap, _ := s.AddItem(ctx, Selection{ProductRef: "burger", UnitPriceCents: 650, Extras: []string{"Bacon", "Cheese", "Cheese"}})

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.Equal(t, []string{"Cheese", "Bacon"}, snap.Lines[0].SelectedExtras)
}

func TestAddItem_QuantityCoercedToOne(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)

	snap, err := s.AddItem(ctx, burger(0))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Lines[0].Quantity)

	snap, err = s.AddItem(ctx, burger(-4))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)
	snap, _ := s.AddItem(ctx, burger(1))
	id := snap.Lines[0].LineID

	snap, err := s.SetQuantity(ctx, id, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Lines[0].Quantity)
	assert.Equal(t, int64(2000), s.Total())

	snap, err = s.SetQuantity(ctx, "unknown", 9)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Lines[0].Quantity)

	snap, err = s.SetQuantity(ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.TotalCents)
}

func TestRemoveLineAndClear(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)
	_, _ = s.AddItem(ctx, burger(1))
	snap, _ := s.AddItem(ctx, Selection{ProductRef: "fries", UnitPriceCents: 300})

	snap, err := s.RemoveLine(ctx, snap.Lines[0].LineID)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "fries", snap.Lines[0].ProductRef)

	_, err = s.RemoveLine(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())

	snap, err = s.Clear(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, s.Total())
}

func TestTotalMatchesLines(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)
	_, _ = s.AddItem(ctx, burger(2))
	_, _ = s.AddItem(ctx, Selection{ProductRef: "cola", UnitPriceCents: 250, Quantity: 3})
	_, _ = s.AddItem(ctx, Selection{ProductRef: "pizza", UnitPriceCents: 1199, Size: "M"})

	var want int64
	for _, l := range s.Lines() {
		want += l.UnitPriceCents * int64(l.Quantity)
	}
	assert.Equal(t, want, s.Total())
	assert.Equal(t, int64(2949), s.Total())
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := Open(ctx, store, KeyFor("session:abc"), nil)
	_, _ = s.AddItem(ctx, Selection{ProductRef: "p1", UnitPriceCents: 500, Quantity: 2})
	_, _ = s.AddItem(ctx, Selection{ProductRef: "p2", UnitPriceCents: 300, Quantity: 1, Size: "Large"})
	_, _ = s.AddItem(ctx, Selection{ProductRef: "p3", UnitPriceCents: 150, Quantity: 4})

	reopened := Open(ctx, store, KeyFor("session:abc"), nil)
	assert.Equal(t, s.Lines(), reopened.Lines())
	assert.Equal(t, int64(2200), reopened.Total())
}

func TestOpen_CorruptRecordGivesEmptyCart(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, Key, "{not json"))

	s := Open(ctx, store, Key, nil)
	assert.Empty(t, s.Lines())
	assert.True(t, s.Synced())
}

func TestOpen_DropsInvalidLines(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, Key, `[{"productRef":"a","unitPrice":100,"quantity":0},{"productRef":"b","unitPrice":200,"quantity":2}]`))

	s := Open(ctx, store, Key, nil)
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, LineID("b", "", nil), lines[0].LineID)
}

func TestLinesAreDeepCopies(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), Key, nil)
	snap, _ := s.AddItem(ctx, Selection{ProductRef: "burger", UnitPriceCents: 650, Extras: []string{"Cheese"}})

	snap.Lines[0].Quantity = 99
	snap.Lines[0].SelectedExtras[0] = "Onion"
	lines := s.Lines()
	lines[0].UnitPriceCents = 1

	fresh := s.Snapshot()
	assert.Equal(t, 1, fresh.Lines[0].Quantity)
	assert.Equal(t, []string{"Cheese"}, fresh.Lines[0].SelectedExtras)
	assert.Equal(t, int64(650), fresh.TotalCents)
}

func TestWriteFailureMarksUnsynced(t *testing.T) {
	ctx := context.Background()
	store := &flakyKV{Memory: kv.NewMemory()}
	s := Open(ctx, store, Key, nil)

	store.fail(true)
	snap, err := s.AddItem(ctx, burger(1))
	require.ErrorIs(t, err, ErrUnsynced)
	assert.False(t, snap.Synced)
	assert.Equal(t, 1, snap.Count)
	assert.False(t, s.Synced())

	store.fail(false)
	require.NoError(t, s.Flush(ctx))
	assert.True(t, s.Synced())

	reopened := Open(ctx, store, Key, nil)
	assert.Equal(t, 1, reopened.Count())
}

func TestFlush_NoopWhenSynced(t *testing.T) {
	ctx := context.Background()
	store := &flakyKV{Memory: kv.NewMemory()}
	s := Open(ctx, store, Key, nil)
	_, _ = s.AddItem(ctx, burger(1))

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, store.sets)
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := Open(ctx, store, Key, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddItem(ctx, burger(1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Count())
	assert.Equal(t, 50, Open(ctx, store, Key, nil).Count())
}

func TestLineID_Deterministic(t *testing.T) {
	a := LineID("burger", "L", []string{"Cheese", "Bacon"})
	b := LineID("burger", "L", []string{"Bacon", "Cheese"})
	c := LineID("burger", "M", []string{"Bacon", "Cheese"})
	d := LineID("burger", "", nil)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Equal(t, d, LineID(" burger ", "", []string{""}))
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "aura-cart", KeyFor(""))
	assert.Equal(t, "aura-cart:customer:42", KeyFor(domain.Principal{CustomerID: "42"}.CartOwner()))
}
