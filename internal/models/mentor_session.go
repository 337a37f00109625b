package models

import "time"

// MentorSession is a bookable offering published by a mentor.
// AvailableSlots is a fixed menu of start times chosen by the mentor.
type MentorSession struct {
	ID             string      `json:"id"`
	MentorID       string      `json:"mentorId"`
	Title          string      `json:"title"`
	AvailableSlots []time.Time `json:"availableSlots"`
	IsActive       bool        `json:"isActive"`
	Price          float64     `json:"price"`
	TotalBookings  int         `json:"totalBookings"`
	ExpiresAt      *time.Time  `json:"expiresAt,omitempty"`
}

// IsExpired reports whether the session stopped being offered at or before now
func (s *MentorSession) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// IsBookable reports whether the session is active and not expired
func (s *MentorSession) IsBookable(now time.Time) bool {
	return s.IsActive && !s.IsExpired(now)
}
