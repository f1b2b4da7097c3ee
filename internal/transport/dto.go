package transport

import (
	"time"

	"github.com/google/uuid"
)

type ApplyDiscountRequest struct {
	Code      string `json:"code"`
	CartTotal int64  `json:"cart_total"`
}

type CreateDiscountRequest struct {
	Code      string     `json:"code"`
	Kind      string     `json:"kind"`
	Value     int64      `json:"value"`
	MinAmount *int64     `json:"min_amount,omitempty"`
	MaxUses   *int64     `json:"max_uses,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    *bool      `json:"active,omitempty"`
}

type SetDiscountActiveRequest struct {
	Active bool `json:"active"`
}

type AddCartItemRequest struct {
	ServiceID   uuid.UUID  `json:"service_id"`
	ServiceName string     `json:"service_name"`
	Price       int64      `json:"price"`
	Date        string     `json:"date"`
	TimeSlot    string     `json:"time_slot"`
	AddOns      []string   `json:"add_ons,omitempty"`
	PhotoURLs   []string   `json:"photo_urls,omitempty"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty"`
}

type MergeCartRequest struct {
	GuestToken string `json:"guest_token"`
}

type CheckoutRequest struct {
	DiscountCode string `json:"discount_code,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

type BulkEnsureUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type BulkEnsureRequest struct {
	Users []BulkEnsureUser `json:"users"`
}

type CreateServiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	DurationMin int    `json:"duration_min"`
	Category    string `json:"category"`
}

type PurgeResponse struct {
	Purged int64 `json:"purged"`
}
