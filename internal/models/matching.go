package models

import "time"

// MatchingAlgorithm identifies the scoring model reported to clients
const MatchingAlgorithm = "weighted-compatibility-v1"

// CompatibilityResult is one ranked mentor for a student. It is derived per
// request and never persisted.
type CompatibilityResult struct {
	MentorID           string          `json:"mentorId"`
	Mentor             *MentorProfile  `json:"mentor"`
	CompatibilityScore float64         `json:"compatibilityScore"`
	MatchingFactors    []string        `json:"matchingFactors"`
	ReasonsToChoose    []string        `json:"reasonsToChoose"`
	AvailableSessions  []MentorSession `json:"availableSessions"`
}

// MatchData is the payload of a matching response
type MatchData struct {
	Matches      []CompatibilityResult `json:"matches"`
	TotalMatches int                   `json:"totalMatches"`
	Algorithm    string                `json:"algorithm"`
	CalculatedAt time.Time             `json:"calculatedAt"`
}

// MatchMentorsResponse is returned by GET /students/match-mentors
type MatchMentorsResponse struct {
	Success bool      `json:"success"`
	Data    MatchData `json:"data"`
}

// NewMatchMentorsResponse builds the matching response
func NewMatchMentorsResponse(matches []CompatibilityResult, calculatedAt time.Time) MatchMentorsResponse {
	if matches == nil {
		matches = []CompatibilityResult{}
	}
	return MatchMentorsResponse{
		Success: true,
		Data: MatchData{
			Matches:      matches,
			TotalMatches: len(matches),
			Algorithm:    MatchingAlgorithm,
			CalculatedAt: calculatedAt.UTC(),
		},
	}
}
