package mongodb

import (
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
)

type studentDocument struct {
	ID                 string   `bson:"_id"`
	UserID             string   `bson:"userId"`
	SubjectsOfInterest []string `bson:"subjectsOfInterest"`
	EducationLevel     string   `bson:"educationLevel"`
}

func (d studentDocument) toModel() *models.StudentProfile {
	return &models.StudentProfile{
		ID:                 d.ID,
		UserID:             d.UserID,
		SubjectsOfInterest: d.SubjectsOfInterest,
		EducationLevel:     models.EducationLevel(d.EducationLevel),
	}
}

type mentorDocument struct {
	ID                     string   `bson:"_id"`
	UserID                 string   `bson:"userId"`
	Name                   string   `bson:"name"`
	SubjectsToTeach        []string `bson:"subjectsToTeach"`
	PreferredStudentLevels []string `bson:"preferredStudentLevels"`
	TeachingExperience     string   `bson:"teachingExperience"`
	AverageRating          *float64 `bson:"averageRating,omitempty"`
	TotalSessions          int      `bson:"totalSessions"`
	IsActive               bool     `bson:"isActive"`
	SortOrder              int64    `bson:"sortOrder"`
}

func (d mentorDocument) toModel() *models.MentorProfile {
	levels := make([]models.EducationLevel, 0, len(d.PreferredStudentLevels))
	for _, l := range d.PreferredStudentLevels {
		levels = append(levels, models.EducationLevel(l))
	}
	return &models.MentorProfile{
		ID:                     d.ID,
		UserID:                 d.UserID,
		Name:                   d.Name,
		SubjectsToTeach:        d.SubjectsToTeach,
		PreferredStudentLevels: levels,
		TeachingExperience:     models.TeachingExperience(d.TeachingExperience),
		AverageRating:          d.AverageRating,
		TotalSessions:          d.TotalSessions,
		IsActive:               d.IsActive,
	}
}

type sessionDocument struct {
	ID             string      `bson:"_id"`
	MentorID       string      `bson:"mentorId"`
	Title          string      `bson:"title"`
	AvailableSlots []time.Time `bson:"availableSlots"`
	IsActive       bool        `bson:"isActive"`
	Price          float64     `bson:"price"`
	TotalBookings  int         `bson:"totalBookings"`
	ExpiresAt      *time.Time  `bson:"expiresAt,omitempty"`
	CreatedAt      time.Time   `bson:"createdAt"`
}

func (d sessionDocument) toModel() *models.MentorSession {
	slots := make([]time.Time, 0, len(d.AvailableSlots))
	for _, t := range d.AvailableSlots {
		slots = append(slots, t.UTC())
	}
	return &models.MentorSession{
		ID:             d.ID,
		MentorID:       d.MentorID,
		Title:          d.Title,
		AvailableSlots: slots,
		IsActive:       d.IsActive,
		Price:          d.Price,
		TotalBookings:  d.TotalBookings,
		ExpiresAt:      d.ExpiresAt,
	}
}

// bookingDocument carries slotHold, which is true while the booking occupies
// its slot. The unique partial index only covers documents with slotHold.
type bookingDocument struct {
	ID                string    `bson:"_id"`
	MentorSessionID   string    `bson:"mentorSessionId"`
	MentorID          string    `bson:"mentorId"`
	StudentID         string    `bson:"studentId"`
	ScheduledDateTime time.Time `bson:"scheduledDateTime"`
	Status            string    `bson:"status"`
	Notes             string    `bson:"notes"`
	SlotHold          bool      `bson:"slotHold"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

func (d bookingDocument) toModel() *models.Booking {
	return &models.Booking{
		ID:                d.ID,
		MentorSessionID:   d.MentorSessionID,
		MentorID:          d.MentorID,
		StudentID:         d.StudentID,
		ScheduledDateTime: d.ScheduledDateTime.UTC(),
		Status:            models.BookingStatus(d.Status),
		Notes:             d.Notes,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
}

type paymentDocument struct {
	ID        string    `bson:"_id"`
	BookingID string    `bson:"bookingId"`
	Amount    float64   `bson:"amount"`
	Status    string    `bson:"status"`
	SlipKey   string    `bson:"slipKey"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d paymentDocument) toModel() *models.Payment {
	return &models.Payment{
		ID:        d.ID,
		BookingID: d.BookingID,
		Amount:    d.Amount,
		Status:    models.PaymentStatus(d.Status),
		SlipKey:   d.SlipKey,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
