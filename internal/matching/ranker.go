package matching

import (
	"sort"

	"github.com/mentorhub/mentorhub-api/internal/models"
)

// DefaultLimit is used when the caller passes a non-positive limit.
const DefaultLimit = 10

// Rank scores every active candidate and returns the best limit results,
// highest score first. Candidates with equal scores keep their input order.
func Rank(student *models.StudentProfile, candidates []*models.MentorProfile, limit int) []models.CompatibilityResult {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]models.CompatibilityResult, 0, len(candidates))
	for _, mentor := range candidates {
		if mentor == nil || !mentor.IsActive {
			continue
		}
		results = append(results, Score(student, mentor))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompatibilityScore > results[j].CompatibilityScore
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
