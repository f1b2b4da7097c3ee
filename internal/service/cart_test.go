package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowsalon/booking-backend/internal/models"
)

func newTestCartService(t *testing.T) *CartService {
	t.Helper()
	return NewCartService(newTestRepo(t), newGuestStore(t))
}

func testItem(price int64) *models.CartItem {
	return &models.CartItem{
		ServiceID:   uuid.New(),
		ServiceName: "Classic Manicure",
		Price:       price,
		Date:        "2026-09-01",
		TimeSlot:    "14:00",
	}
}

func TestCart_AddListTotal_User(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	require.NoError(t, svc.AddItem(ctx, owner, testItem(1500)))
	require.NoError(t, svc.AddItem(ctx, owner, testItem(2500)))

	items, err := svc.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 2)

	total, err := svc.Total(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), total)
}

func TestCart_AddValidation(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	tests := []struct {
		name string
		item *models.CartItem
	}{
		{name: "missing service", item: &models.CartItem{Price: 100, Date: "2026-09-01", TimeSlot: "14:00"}},
		{name: "negative price", item: &models.CartItem{ServiceID: uuid.New(), Price: -1, Date: "2026-09-01", TimeSlot: "14:00"}},
		{name: "missing slot", item: &models.CartItem{ServiceID: uuid.New(), Price: 100}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.AddItem(ctx, owner, tt.item), ErrValidation)
		})
	}

	assert.ErrorIs(t, svc.AddItem(ctx, Owner{}, testItem(100)), ErrValidation)
}

func TestCart_RemoveAndClear_User(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	item := testItem(1000)
	require.NoError(t, svc.AddItem(ctx, owner, item))
	require.NoError(t, svc.AddItem(ctx, owner, testItem(2000)))

	require.NoError(t, svc.RemoveItem(ctx, owner, item.ID))
	assert.ErrorIs(t, svc.RemoveItem(ctx, owner, item.ID), ErrNotFound)

	items, err := svc.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, svc.Clear(ctx, owner))
	items, err = svc.Items(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCart_GuestLifecycle(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()
	owner := GuestOwner("sess-abc123")

	require.NoError(t, svc.AddItem(ctx, owner, testItem(900)))
	require.NoError(t, svc.AddItem(ctx, owner, testItem(1100)))

	items, err := svc.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 2)

	total, err := svc.Total(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), total)

	require.NoError(t, svc.RemoveItem(ctx, owner, items[0].ID))
	items, err = svc.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, svc.Clear(ctx, owner))
	items, err = svc.Items(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCart_GuestTTLWindow(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()
	owner := GuestOwner("sess-ttl")

	t0 := time.Now().UTC()
	svc.now = func() time.Time { return t0 }
	require.NoError(t, svc.AddItem(ctx, owner, testItem(500)))

	// readable 23h after the last write
	svc.now = func() time.Time { return t0.Add(23 * time.Hour) }
	items, err := svc.Items(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// absent 25h after the last write, and deleted eagerly
	svc.now = func() time.Time { return t0.Add(25 * time.Hour) }
	items, err = svc.Items(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)

	stored, _, err := svc.Guests.Load(ctx, "sess-ttl")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCart_GuestWriteRestartsTTL(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()
	owner := GuestOwner("sess-extend")

	t0 := time.Now().UTC()
	svc.now = func() time.Time { return t0 }
	require.NoError(t, svc.AddItem(ctx, owner, testItem(500)))

	// a second write 20h later restarts the window for the whole cart
	svc.now = func() time.Time { return t0.Add(20 * time.Hour) }
	require.NoError(t, svc.AddItem(ctx, owner, testItem(700)))

	svc.now = func() time.Time { return t0.Add(30 * time.Hour) }
	items, err := svc.Items(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCart_UserExpiryAdvisoryUntilCheckout(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	t0 := time.Now().UTC()
	svc.now = func() time.Time { return t0 }
	require.NoError(t, svc.AddItem(ctx, owner, testItem(500)))

	svc.now = func() time.Time { return t0.Add(25 * time.Hour) }

	// plain reads may still see the row until the sweep runs
	items, err := svc.Items(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// checkout never honors it
	checkout, err := svc.CheckoutItems(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, checkout)

	total, err := svc.Total(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestCart_MergeGuestIntoUser(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	userOwner := UserOwner(userID)
	guestOwner := GuestOwner("sess-merge")

	require.NoError(t, svc.AddItem(ctx, userOwner, testItem(1000)))
	require.NoError(t, svc.AddItem(ctx, guestOwner, testItem(2000)))
	require.NoError(t, svc.AddItem(ctx, guestOwner, testItem(3000)))

	merged, err := svc.MergeGuestIntoUser(ctx, "sess-merge", userID)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	items, err := svc.Items(ctx, userOwner)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// user items first, guest items appended after
	assert.Equal(t, int64(1000), items[0].Price)

	guestItems, err := svc.Items(ctx, guestOwner)
	require.NoError(t, err)
	assert.Empty(t, guestItems)
}

func TestCart_MergeEmptyGuestCart(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()

	merged, err := svc.MergeGuestIntoUser(ctx, "sess-empty", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, merged)
}

func TestCart_PurgeExpired(t *testing.T) {
	t.Parallel()

	svc := newTestCartService(t)
	ctx := context.Background()

	t0 := time.Now().UTC()

	stale := testItem(500)
	stale.UserID = uuid.New()
	require.NoError(t, svc.Repo.AddCartItem(ctx, stale, t0.Add(-time.Hour)))

	fresh := testItem(700)
	fresh.UserID = uuid.New()
	require.NoError(t, svc.Repo.AddCartItem(ctx, fresh, t0.Add(time.Hour)))

	purged, err := svc.PurgeExpired(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	// the sweep is idempotent
	purged, err = svc.PurgeExpired(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)

	remaining, err := svc.Repo.CartItems(ctx, fresh.UserID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
