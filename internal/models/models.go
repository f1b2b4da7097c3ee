package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// DiscountCode is a redeemable code reducing a cart total. Code is stored
// canonicalized to upper case; UsedCount only ever grows.
type DiscountCode struct {
	ID        uuid.UUID    `gorm:"primaryKey"                 json:"id"`
	Code      string       `gorm:"uniqueIndex;not null"       json:"code"`
	Kind      DiscountKind `gorm:"not null"                   json:"kind"`
	Value     int64        `gorm:"not null;check:value>=0"    json:"value"`
	MinAmount *int64       `json:"min_amount,omitempty"`
	MaxUses   *int64       `json:"max_uses,omitempty"`
	UsedCount int64        `gorm:"not null;default:0"         json:"used_count"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Active    bool         `gorm:"not null;default:true"      json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (d *DiscountCode) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (DiscountCode) TableName() string {
	return "discount_codes"
}

// ReferralCode is issued lazily, at most one per user, and is immutable
// once created.
type ReferralCode struct {
	ID                uuid.UUID `gorm:"primaryKey"           json:"id"`
	UserID            uuid.UUID `gorm:"uniqueIndex;not null" json:"user_id"`
	Code              string    `gorm:"uniqueIndex;not null" json:"code"`
	PointsPerReferral int64     `gorm:"not null"             json:"points_per_referral"`
	UsageCount        int64     `gorm:"not null;default:0"   json:"usage_count"`
	CreatedAt         time.Time `json:"created_at"`
}

func (r *ReferralCode) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (ReferralCode) TableName() string {
	return "referral_codes"
}

// ReferralReward records a point grant for a (referrer, referred) pair.
// The composite unique index enforces at most one reward per pair.
type ReferralReward struct {
	ID         uuid.UUID `gorm:"primaryKey"                                 json:"id"`
	ReferrerID uuid.UUID `gorm:"uniqueIndex:idx_referrer_referred;not null" json:"referrer_id"`
	ReferredID uuid.UUID `gorm:"uniqueIndex:idx_referrer_referred;not null" json:"referred_id"`
	Points     int64     `gorm:"not null;check:points>0"                    json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *ReferralReward) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (ReferralReward) TableName() string {
	return "referral_rewards"
}

// StringList is stored as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// CartItem is one booked service selection in an authenticated cart.
// ExpiresAt is refreshed on every write to the owning cart.
type CartItem struct {
	ID          uuid.UUID  `gorm:"primaryKey"      json:"id"`
	UserID      uuid.UUID  `gorm:"index;not null"  json:"user_id"`
	ServiceID   uuid.UUID  `gorm:"not null"        json:"service_id"`
	ServiceName string     `gorm:"not null"        json:"service_name"`
	Price       int64      `gorm:"not null"        json:"price"`
	Date        string     `gorm:"not null"        json:"date"`
	TimeSlot    string     `gorm:"not null"        json:"time_slot"`
	AddOns      StringList `gorm:"type:text"       json:"add_ons,omitempty"`
	PhotoURLs   StringList `gorm:"type:text"       json:"photo_urls,omitempty"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty"`
	ExpiresAt   time.Time  `gorm:"index;not null"  json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusFailed    = "failed"
)

// Booking is the persisted outcome of a confirmed checkout.
type Booking struct {
	ID             uuid.UUID `gorm:"primaryKey"     json:"id"`
	UserID         uuid.UUID `gorm:"index;not null" json:"user_id"`
	Total          int64     `gorm:"not null"       json:"total"`
	DiscountCode   string    `json:"discount_code,omitempty"`
	DiscountAmount int64     `gorm:"not null"       json:"discount_amount"`
	FinalTotal     int64     `gorm:"not null"       json:"final_total"`
	Currency       string    `gorm:"not null"       json:"currency"`
	Status         string    `gorm:"not null"       json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (Booking) TableName() string {
	return "bookings"
}

// Service is a bookable salon service in the catalog.
type Service struct {
	ID          uuid.UUID `gorm:"primaryKey"            json:"id"`
	Name        string    `gorm:"not null"              json:"name"`
	Description string    `json:"description"`
	Price       int64     `gorm:"not null"              json:"price"`
	DurationMin int       `json:"duration_min"`
	Category    string    `gorm:"default:'General'"     json:"category"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Service) TableName() string {
	return "services"
}
