// Package models defines the data structures for the Roomy matching engine.
package models

import (
	"strings"
	"time"
)

// VerificationStatusVerified is the only status whose listings are shown to students.
const VerificationStatusVerified = "Verified"

// Dorm represents a verified dorm listing.
type Dorm struct {
	ID                 string    `json:"id" db:"id"`
	Name               string    `json:"dorm_name" db:"dorm_name"`
	OwnerID            string    `json:"owner_id,omitempty" db:"owner_id"`
	Area               string    `json:"area" db:"area"`
	Address            string    `json:"address,omitempty" db:"address"`
	University         string    `json:"university" db:"university"`
	MonthlyPrice       float64   `json:"monthly_price" db:"monthly_price"`
	GenderPreference   *string   `json:"gender_preference" db:"gender_preference"`
	Amenities          []string  `json:"amenities" db:"amenities"`
	RoomTypes          []string  `json:"room_types" db:"room_types"`
	VerificationStatus string    `json:"verification_status" db:"verification_status"`
	Available          bool      `json:"available" db:"available"`
	ImageURL           string    `json:"image_url,omitempty" db:"image_url"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`

	Rooms []*Room `json:"rooms,omitempty"`
}

// IsListed reports whether the dorm can be shown to students at all.
func (d *Dorm) IsListed() bool {
	return d.VerificationStatus == VerificationStatusVerified && d.Available
}

// GenderPolicy returns the normalized gender preference, empty when unset.
func (d *Dorm) GenderPolicy() string {
	if d.GenderPreference == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*d.GenderPreference))
}

// Price returns the dorm monthly price, falling back to its cheapest room.
func (d *Dorm) Price() float64 {
	if d.MonthlyPrice > 0 {
		return d.MonthlyPrice
	}
	lowest := 0.0
	for _, r := range d.Rooms {
		if r.Price > 0 && (lowest == 0 || r.Price < lowest) {
			lowest = r.Price
		}
	}
	return lowest
}

// Room is a bookable unit inside a dorm.
type Room struct {
	ID               string  `json:"id" db:"id"`
	DormID           string  `json:"dorm_id" db:"dorm_id"`
	Name             string  `json:"name" db:"name"`
	Type             string  `json:"type" db:"type"`
	Price            float64 `json:"price" db:"price"`
	Capacity         int     `json:"capacity" db:"capacity"`
	CapacityOccupied int     `json:"capacity_occupied" db:"capacity_occupied"`
	Available        bool    `json:"available" db:"available"`
}

// HasFreeSpot reports whether at least one bed is still free.
func (r *Room) HasFreeSpot() bool {
	return r.CapacityOccupied < r.Capacity
}

// FreeSpots returns the number of free beds.
func (r *Room) FreeSpots() int {
	if r.Capacity <= r.CapacityOccupied {
		return 0
	}
	return r.Capacity - r.CapacityOccupied
}

// IsSingle reports whether the room houses a single student.
func (r *Room) IsSingle() bool {
	return r.Capacity == 1 || strings.Contains(strings.ToLower(r.Type), "single")
}

// RoomWithDorm is a room joined with its parent dorm.
type RoomWithDorm struct {
	Room
	Dorm *Dorm `json:"dorm"`
}

// PlanTier is the subscription tier of a match plan.
type PlanTier string

const (
	TierBasic    PlanTier = "basic"
	TierAdvanced PlanTier = "advanced"
	TierVIP      PlanTier = "vip"
)

// AllowsPersonality reports whether the tier is eligible for personality scoring.
func (t PlanTier) AllowsPersonality() bool {
	return t == TierAdvanced || t == TierVIP
}

// RoommateLimit returns how many roommate matches the tier may see.
func (t PlanTier) RoommateLimit() int {
	switch t {
	case TierAdvanced:
		return 3
	case TierVIP:
		return 10
	default:
		return 1
	}
}

// MatchPlan is a student's purchased matching plan.
type MatchPlan struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Tier      PlanTier  `json:"plan_type" db:"plan_type"`
	Status    string    `json:"status" db:"status"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// IsActive reports whether the plan is active and unexpired at the given time.
func (p *MatchPlan) IsActive(now time.Time) bool {
	return p != nil && p.Status == "active" && p.ExpiresAt.After(now)
}
