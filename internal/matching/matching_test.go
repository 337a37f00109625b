package matching_test

import (
	"testing"

	"github.com/mentorhub/mentorhub-api/internal/matching"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(v float64) *float64 { return &v }

func scenarioStudent() *models.StudentProfile {
	return &models.StudentProfile{
		ID:                 "student-1",
		SubjectsOfInterest: []string{"Biology", "Physics"},
		EducationLevel:     models.EducationAdvancedLevel,
	}
}

func scenarioMentor() *models.MentorProfile {
	return &models.MentorProfile{
		ID:                     "mentor-1",
		Name:                   "Dr. Perera",
		SubjectsToTeach:        []string{"Biology", "Chemistry"},
		PreferredStudentLevels: []models.EducationLevel{models.EducationAdvancedLevel},
		TeachingExperience:     models.ExperienceFivePlusYears,
		AverageRating:          rating(4.8),
		TotalSessions:          42,
		IsActive:               true,
	}
}

func TestScore_Scenario(t *testing.T) {
	result := matching.Score(scenarioStudent(), scenarioMentor())

	assert.Equal(t, "mentor-1", result.MentorID)
	assert.InDelta(t, 104.0, result.CompatibilityScore, 1e-9)
	assert.Equal(t, []string{
		"Common subjects: Biology",
		"Education level match",
		"High rating: 4.8 stars",
	}, result.MatchingFactors)
	assert.Equal(t, []string{
		"42 completed sessions",
		"Teaches Biology, Chemistry",
		"five plus years experience",
	}, result.ReasonsToChoose)
}

func TestScore_Deterministic(t *testing.T) {
	student, mentor := scenarioStudent(), scenarioMentor()

	first := matching.Score(student, mentor)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, matching.Score(student, mentor))
	}
}

func TestScore_MoreCommonSubjectsNeverLowersScore(t *testing.T) {
	student := scenarioStudent()
	mentor := scenarioMentor()
	before := matching.Score(student, mentor).CompatibilityScore

	mentor.SubjectsToTeach = append(mentor.SubjectsToTeach, "Physics")
	after := matching.Score(student, mentor).CompatibilityScore

	assert.GreaterOrEqual(t, after, before)
	assert.InDelta(t, before+matching.SubjectMatchPoints, after, 1e-9)
}

func TestScore_MinimalMentor(t *testing.T) {
	student := &models.StudentProfile{SubjectsOfInterest: []string{"Art"}, EducationLevel: models.EducationGrade9}
	mentor := &models.MentorProfile{ID: "m", IsActive: true}

	result := matching.Score(student, mentor)

	assert.Zero(t, result.CompatibilityScore)
	assert.Empty(t, result.MatchingFactors)
	assert.NotNil(t, result.MatchingFactors)
	assert.Equal(t, []string{"0 completed sessions"}, result.ReasonsToChoose)
}

func TestScore_ZeroRatingAddsNoFactor(t *testing.T) {
	mentor := scenarioMentor()
	mentor.AverageRating = rating(0)

	result := matching.Score(scenarioStudent(), mentor)

	assert.InDelta(t, 80.0, result.CompatibilityScore, 1e-9)
	assert.NotContains(t, result.MatchingFactors, "High rating: 0.0 stars")
	assert.Len(t, result.MatchingFactors, 2)
}

func TestScore_ExperiencePoints(t *testing.T) {
	tests := []struct {
		experience models.TeachingExperience
		want       float64
	}{
		{models.ExperienceNone, 5},
		{models.ExperienceOneToThreeYears, 15},
		{models.ExperienceThreeToFiveYears, 20},
		{models.ExperienceFivePlusYears, 25},
		{models.TeachingExperience("UNKNOWN"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.experience), func(t *testing.T) {
			mentor := &models.MentorProfile{TeachingExperience: tt.experience}
			student := &models.StudentProfile{}
			assert.InDelta(t, tt.want, matching.Score(student, mentor).CompatibilityScore, 1e-9)
			assert.InDelta(t, tt.want, matching.ExperiencePoints(tt.experience), 1e-9)
		})
	}
}

func TestCommonSubjects(t *testing.T) {
	assert.Equal(t, []string{"Physics", "Biology"},
		matching.CommonSubjects([]string{"Physics", "Art", "Biology", "Physics"}, []string{"Biology", "Physics"}))
	assert.Empty(t, matching.CommonSubjects([]string{"biology"}, []string{"Biology"}))
	assert.Empty(t, matching.CommonSubjects(nil, []string{"Biology"}))
}

// mentorWithScore builds an active mentor whose score against an empty
// student equals exp + 5*r.
func mentorWithScore(id string, exp models.TeachingExperience, r float64) *models.MentorProfile {
	m := &models.MentorProfile{ID: id, TeachingExperience: exp, IsActive: true}
	if r != 0 {
		m.AverageRating = rating(r)
	}
	return m
}

func TestRank_TieKeepsInputOrder(t *testing.T) {
	student := &models.StudentProfile{}
	// A and B score 50, C scores 80
	a := mentorWithScore("A", models.ExperienceFivePlusYears, 5)
	b := mentorWithScore("B", models.ExperienceFivePlusYears, 5)
	c := mentorWithScore("C", models.ExperienceThreeToFiveYears, 12)

	ranked := matching.Rank(student, []*models.MentorProfile{a, b, c}, 10)

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{ranked[0].MentorID, ranked[1].MentorID, ranked[2].MentorID})
	assert.InDelta(t, 80.0, ranked[0].CompatibilityScore, 1e-9)
	assert.InDelta(t, 50.0, ranked[1].CompatibilityScore, 1e-9)
}

func TestRank_SkipsInactiveAndAppliesLimit(t *testing.T) {
	student := &models.StudentProfile{}
	inactive := mentorWithScore("X", models.ExperienceFivePlusYears, 5)
	inactive.IsActive = false

	candidates := []*models.MentorProfile{
		inactive,
		mentorWithScore("A", models.ExperienceNone, 0),
		mentorWithScore("B", models.ExperienceFivePlusYears, 0),
		nil,
		mentorWithScore("C", models.ExperienceOneToThreeYears, 0),
	}

	ranked := matching.Rank(student, candidates, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "B", ranked[0].MentorID)
	assert.Equal(t, "C", ranked[1].MentorID)
}

func TestRank_DefaultLimitAndEmpty(t *testing.T) {
	student := &models.StudentProfile{}
	candidates := make([]*models.MentorProfile, 0, 15)
	for i := 0; i < 15; i++ {
		candidates = append(candidates, mentorWithScore(string(rune('a'+i)), models.ExperienceNone, 0))
	}

	assert.Len(t, matching.Rank(student, candidates, 0), matching.DefaultLimit)
	assert.Len(t, matching.Rank(student, candidates, -3), matching.DefaultLimit)

	empty := matching.Rank(student, nil, 5)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
