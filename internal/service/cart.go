package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/repo"
)

// CartTTL is the fixed window restarted by every write to a cart.
const CartTTL = 24 * time.Hour

// Owner identifies a cart as belonging to an authenticated user or to an
// anonymous session. Exactly one of the two fields is set.
type Owner struct {
	UserID     uuid.UUID
	GuestToken string
}

func UserOwner(userID uuid.UUID) Owner {
	return Owner{UserID: userID}
}

func GuestOwner(token string) Owner {
	return Owner{GuestToken: token}
}

func (o Owner) IsGuest() bool {
	return o.GuestToken != ""
}

func (o Owner) valid() bool {
	return (o.UserID != uuid.Nil) != (o.GuestToken != "")
}

// GuestStore is the session-scoped persistence behind anonymous carts.
type GuestStore interface {
	Load(ctx context.Context, token string) ([]models.CartItem, time.Time, error)
	Save(ctx context.Context, token string, items []models.CartItem, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
}

// CartService is the single cart capability over two backings: gorm rows for
// authenticated carts, a guest store for anonymous ones. TTL and total
// computation are shared; only storage differs.
//
// Guest expiry is strict on read (an expired cart is deleted and reads
// empty). Authenticated expiry is advisory on plain reads and enforced by the
// periodic purge; CheckoutItems re-validates it.
type CartService struct {
	Repo   *repo.GormRepo
	Guests GuestStore

	now func() time.Time
}

func NewCartService(r *repo.GormRepo, guests GuestStore) *CartService {
	return &CartService{Repo: r, Guests: guests, now: time.Now}
}

func (s *CartService) AddItem(ctx context.Context, owner Owner, item *models.CartItem) error {
	if !owner.valid() {
		return fmt.Errorf("%w: cart owner required", ErrValidation)
	}
	if item.ServiceID == uuid.Nil {
		return fmt.Errorf("%w: service id required", ErrValidation)
	}
	if item.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if item.Date == "" || item.TimeSlot == "" {
		return fmt.Errorf("%w: date and time slot required", ErrValidation)
	}

	expiresAt := s.now().Add(CartTTL)

	if owner.IsGuest() {
		items, _, err := s.loadGuest(ctx, owner.GuestToken)
		if err != nil {
			return err
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.CreatedAt = s.now()
		items = append(items, *item)
		// a write restarts the TTL of the whole cart, not just the new item
		for i := range items {
			items[i].ExpiresAt = expiresAt
		}
		return s.Guests.Save(ctx, owner.GuestToken, items, expiresAt)
	}

	item.UserID = owner.UserID
	return s.Repo.AddCartItem(ctx, item, expiresAt)
}

func (s *CartService) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) error {
	if !owner.valid() {
		return fmt.Errorf("%w: cart owner required", ErrValidation)
	}

	expiresAt := s.now().Add(CartTTL)

	if owner.IsGuest() {
		items, _, err := s.loadGuest(ctx, owner.GuestToken)
		if err != nil {
			return err
		}
		kept := items[:0]
		found := false
		for _, it := range items {
			if it.ID == itemID {
				found = true
				continue
			}
			kept = append(kept, it)
		}
		if !found {
			return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
		}
		if len(kept) == 0 {
			return s.Guests.Delete(ctx, owner.GuestToken)
		}
		for i := range kept {
			kept[i].ExpiresAt = expiresAt
		}
		return s.Guests.Save(ctx, owner.GuestToken, kept, expiresAt)
	}

	removed, err := s.Repo.RemoveCartItem(ctx, owner.UserID, itemID, expiresAt)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, owner Owner) error {
	if !owner.valid() {
		return fmt.Errorf("%w: cart owner required", ErrValidation)
	}
	if owner.IsGuest() {
		return s.Guests.Delete(ctx, owner.GuestToken)
	}
	return s.Repo.ClearCart(ctx, owner.UserID)
}

// Items lists the cart. Guest reads are strict; authenticated reads may
// transiently include items past their nominal TTL until the next purge.
func (s *CartService) Items(ctx context.Context, owner Owner) ([]models.CartItem, error) {
	if !owner.valid() {
		return nil, fmt.Errorf("%w: cart owner required", ErrValidation)
	}
	if owner.IsGuest() {
		items, _, err := s.loadGuest(ctx, owner.GuestToken)
		return items, err
	}
	return s.Repo.CartItems(ctx, owner.UserID)
}

// CheckoutItems is the strict read used at checkout: expired items are never
// honored, regardless of backend.
func (s *CartService) CheckoutItems(ctx context.Context, owner Owner) ([]models.CartItem, error) {
	items, err := s.Items(ctx, owner)
	if err != nil {
		return nil, err
	}
	now := s.now()
	valid := items[:0]
	for _, it := range items {
		if it.ExpiresAt.After(now) {
			valid = append(valid, it)
		}
	}
	return valid, nil
}

// Total is the sum of the valid items' prices at the moment of computation.
// It is never cached.
func (s *CartService) Total(ctx context.Context, owner Owner) (int64, error) {
	items, err := s.CheckoutItems(ctx, owner)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, it := range items {
		total += it.Price
	}
	return total, nil
}

// MergeGuestIntoUser appends the guest cart's items to the user's persisted
// cart and clears the guest cart. Resulting order is user items first, guest
// items after; no de-duplication is attempted.
func (s *CartService) MergeGuestIntoUser(ctx context.Context, guestToken string, userID uuid.UUID) (int, error) {
	if guestToken == "" || userID == uuid.Nil {
		return 0, fmt.Errorf("%w: guest token and user id required", ErrValidation)
	}

	items, _, err := s.loadGuest(ctx, guestToken)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, s.Guests.Delete(ctx, guestToken)
	}

	expiresAt := s.now().Add(CartTTL)
	if err := s.Repo.AppendCartItems(ctx, userID, items, expiresAt); err != nil {
		return 0, err
	}
	if err := s.Guests.Delete(ctx, guestToken); err != nil {
		return 0, err
	}
	return len(items), nil
}

// PurgeExpired deletes persisted cart items past their expiry. It backs the
// external cleanup trigger and is safe to run concurrently with itself and
// with live writes.
func (s *CartService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.Repo.PurgeExpiredCartItems(ctx, now)
}

// loadGuest reads a guest cart, treating an expired one as absent and
// deleting it eagerly.
func (s *CartService) loadGuest(ctx context.Context, token string) ([]models.CartItem, time.Time, error) {
	items, expiresAt, err := s.Guests.Load(ctx, token)
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(items) == 0 {
		return nil, time.Time{}, nil
	}
	if !expiresAt.After(s.now()) {
		if err := s.Guests.Delete(ctx, token); err != nil {
			return nil, time.Time{}, err
		}
		return nil, time.Time{}, nil
	}
	return items, expiresAt, nil
}
