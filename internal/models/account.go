package models

import "time"

// Account status values reported by lineup responses.
const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// TimeFormat is the timestamp layout used everywhere in the API
// (created_at, validity_date, expired_on).
const TimeFormat = "2006-01-02 15:04:05"

// DemoUser is a trial subscriber keyed by mobile number. DeviceIDs is the
// comma-joined persisted form; callers go through session.DeviceSet instead
// of splitting it by hand.
type DemoUser struct {
	ID            int64     `json:"id,omitempty"`
	MobileNumber  string    `json:"mobile_number"`
	StateID       int64     `json:"state_id"`
	DefaultPackID int64     `json:"default_pack_id"`
	DefaultPack   string    `json:"default_pack"`
	ValidityHours int       `json:"validity"`
	FileName      string    `json:"file_name,omitempty"`
	DeviceIDs     string    `json:"device_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExpiresAt derives the end of the validity window.
func (u DemoUser) ExpiresAt() time.Time {
	return u.CreatedAt.Add(time.Duration(u.ValidityHours) * time.Hour)
}
