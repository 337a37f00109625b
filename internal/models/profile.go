package models

import "strings"

// EducationLevel is a student's current level of study
type EducationLevel string

const (
	EducationGrade9        EducationLevel = "GRADE_9"
	EducationOrdinaryLevel EducationLevel = "ORDINARY_LEVEL"
	EducationAdvancedLevel EducationLevel = "ADVANCED_LEVEL"
	EducationUniversity    EducationLevel = "UNIVERSITY"
)

// Valid reports whether l is a known education level
func (l EducationLevel) Valid() bool {
	switch l {
	case EducationGrade9, EducationOrdinaryLevel, EducationAdvancedLevel, EducationUniversity:
		return true
	}
	return false
}

// TeachingExperience is a mentor's self-reported teaching experience bracket
type TeachingExperience string

const (
	ExperienceNone             TeachingExperience = "NONE"
	ExperienceOneToThreeYears  TeachingExperience = "ONE_TO_THREE_YEARS"
	ExperienceThreeToFiveYears TeachingExperience = "THREE_TO_FIVE_YEARS"
	ExperienceFivePlusYears    TeachingExperience = "FIVE_PLUS_YEARS"
)

// Humanize renders the bracket for display, e.g. "five plus years"
func (e TeachingExperience) Humanize() string {
	return strings.ToLower(strings.ReplaceAll(string(e), "_", " "))
}

// StudentProfile is the part of a student profile used for matching and booking
type StudentProfile struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"userId"`
	SubjectsOfInterest []string       `json:"subjectsOfInterest"`
	EducationLevel     EducationLevel `json:"educationLevel"`
}

// MentorProfile is the part of a mentor profile used for matching and booking.
// Sessions is filled by stores that load mentors together with their offerings.
type MentorProfile struct {
	ID                     string             `json:"id"`
	UserID                 string             `json:"userId"`
	Name                   string             `json:"name"`
	SubjectsToTeach        []string           `json:"subjectsToTeach"`
	PreferredStudentLevels []EducationLevel   `json:"preferredStudentLevels"`
	TeachingExperience     TeachingExperience `json:"teachingExperience"`
	AverageRating          *float64           `json:"averageRating"`
	TotalSessions          int                `json:"totalSessions"`
	IsActive               bool               `json:"isActive"`
	Sessions               []MentorSession    `json:"-"`
}

// PrefersLevel reports whether the mentor lists level among preferred student levels
func (m *MentorProfile) PrefersLevel(level EducationLevel) bool {
	for _, l := range m.PreferredStudentLevels {
		if l == level {
			return true
		}
	}
	return false
}
