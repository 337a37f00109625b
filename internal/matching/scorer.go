// Package matching scores mentors against a student profile and ranks them.
// Everything here is pure: no I/O and no clock.
package matching

import (
	"fmt"
	"strings"

	"github.com/mentorhub/mentorhub-api/internal/models"
)

// Score weights
const (
	SubjectMatchPoints   = 30.0
	EducationMatchPoints = 25.0
	RatingPointsPerStar  = 5.0
)

const (
	educationMatchFactor   = "Education level match"
	commonSubjectsPrefix   = "Common subjects: "
	highRatingFactorFmt    = "High rating: %.1f stars"
	completedSessionsFmt   = "%d completed sessions"
	teachesPrefix          = "Teaches "
	experienceReasonSuffix = " experience"
)

// ExperiencePoints returns the bonus for a level of teaching experience.
// Unknown values score 0.
func ExperiencePoints(exp models.TeachingExperience) float64 {
	switch exp {
	case models.ExperienceNone:
		return 5
	case models.ExperienceOneToThreeYears:
		return 15
	case models.ExperienceThreeToFiveYears:
		return 20
	case models.ExperienceFivePlusYears:
		return 25
	default:
		return 0
	}
}

// Score computes the compatibility of mentor for student.
func Score(student *models.StudentProfile, mentor *models.MentorProfile) models.CompatibilityResult {
	var score float64
	factors := []string{}

	common := CommonSubjects(student.SubjectsOfInterest, mentor.SubjectsToTeach)
	score += SubjectMatchPoints * float64(len(common))
	if len(common) > 0 {
		factors = append(factors, commonSubjectsPrefix+strings.Join(common, ", "))
	}

	if mentor.PrefersLevel(student.EducationLevel) {
		score += EducationMatchPoints
		factors = append(factors, educationMatchFactor)
	}

	score += ExperiencePoints(mentor.TeachingExperience)

	if mentor.AverageRating != nil && *mentor.AverageRating != 0 {
		rating := *mentor.AverageRating
		score += RatingPointsPerStar * rating
		factors = append(factors, fmt.Sprintf(highRatingFactorFmt, rating))
	}

	return models.CompatibilityResult{
		MentorID:           mentor.ID,
		Mentor:             mentor,
		CompatibilityScore: score,
		MatchingFactors:    factors,
		ReasonsToChoose:    reasonsToChoose(mentor),
	}
}

// CommonSubjects returns the subjects present in both lists, in the student's
// order and without duplicates. Comparison is exact.
func CommonSubjects(studentSubjects, mentorSubjects []string) []string {
	teaches := make(map[string]struct{}, len(mentorSubjects))
	for _, s := range mentorSubjects {
		teaches[s] = struct{}{}
	}

	common := []string{}
	seen := make(map[string]struct{}, len(studentSubjects))
	for _, s := range studentSubjects {
		if _, ok := teaches[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		common = append(common, s)
	}
	return common
}

func reasonsToChoose(mentor *models.MentorProfile) []string {
	candidates := []string{
		fmt.Sprintf(completedSessionsFmt, mentor.TotalSessions),
	}
	if len(mentor.SubjectsToTeach) > 0 {
		candidates = append(candidates, teachesPrefix+strings.Join(mentor.SubjectsToTeach, ", "))
	}
	if mentor.TeachingExperience != "" {
		candidates = append(candidates, mentor.TeachingExperience.Humanize()+experienceReasonSuffix)
	}

	reasons := make([]string, 0, len(candidates))
	for _, r := range candidates {
		if strings.TrimSpace(r) != "" {
			reasons = append(reasons, r)
		}
	}
	return reasons
}
