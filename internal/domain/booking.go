package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the wire and storage format of booking/session dates.
const DateLayout = "2006-01-02"

// BookingStatus type for booking lifecycle
type BookingStatus string

const (
	BookingScheduled BookingStatus = "scheduled"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking reserves one fixed one-hour coach slot for an application.
type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicationID primitive.ObjectID `bson:"applicationId" json:"applicationId"`
	CoachID       primitive.ObjectID `bson:"coachId" json:"coachId"`
	MemberID      primitive.ObjectID `bson:"memberId" json:"memberId"`
	Date          string             `bson:"date" json:"date"`           // YYYY-MM-DD
	StartTime     string             `bson:"startTime" json:"startTime"` // HH:MM
	EndTime       string             `bson:"endTime" json:"endTime"`
	Status        BookingStatus      `bson:"status" json:"status"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SlotHold is a short-lived claim on a slot while a member completes a
// booking. Expired holds are removed by a TTL index.
type SlotHold struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	Date      string             `bson:"date" json:"date"`
	StartTime string             `bson:"startTime" json:"startTime"`
	HolderID  primitive.ObjectID `bson:"holderId" json:"-"`
	Token     string             `bson:"token" json:"token"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time          `bson:"createdAt" json:"-"`
}

// Live reports whether the hold still blocks the slot at now. The TTL
// monitor only runs once a minute, so readers check expiry themselves.
func (h *SlotHold) Live(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}

const (
	firstSlotHour = 10
	lastSlotHour  = 19 // exclusive end of the day
)

// Slot is one fixed one-hour window.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Slots returns the fixed daily enumeration 10:00-11:00 ... 18:00-19:00.
func Slots() []Slot {
	out := make([]Slot, 0, lastSlotHour-firstSlotHour)
	for h := firstSlotHour; h < lastSlotHour; h++ {
		out = append(out, Slot{
			Start: fmt.Sprintf("%02d:00", h),
			End:   fmt.Sprintf("%02d:00", h+1),
		})
	}
	return out
}

// IsValidSlot reports whether start is the start time of a fixed slot.
func IsValidSlot(start string) bool {
	_, ok := SlotEnd(start)
	return ok
}

// SlotEnd returns the end time of the slot starting at start.
func SlotEnd(start string) (string, bool) {
	for _, s := range Slots() {
		if s.Start == start {
			return s.End, true
		}
	}
	return "", false
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
