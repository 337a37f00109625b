package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/internal/repository"
)

const mentorColumns = `
	m.id::text, m.user_id, m.name, m.subjects_to_teach, m.preferred_student_levels,
	m.teaching_experience, m.average_rating, m.total_sessions, m.is_active`

const sessionColumns = `
	s.id::text, s.mentor_id::text, s.title, s.available_slots, s.is_active,
	s.price::float8, s.total_bookings, s.expires_at`

// FindActiveMentorsWithSessions loads active mentors in sort order, then
// attaches their bookable sessions with a second query
func (c *Client) FindActiveMentorsWithSessions(ctx context.Context) (mentors []*models.MentorProfile, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findActiveMentorsWithSessions", start, err) }()

	rows, err := c.pool.Query(ctx, `SELECT `+mentorColumns+`
		FROM mentors m
		WHERE m.is_active
		ORDER BY m.sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentors: %w", err)
	}
	mentors, err = pgx.CollectRows(rows, scanMentor)
	if err != nil {
		return nil, fmt.Errorf("failed to scan mentors: %w", err)
	}
	if len(mentors) == 0 {
		return mentors, nil
	}

	byID := make(map[string]*models.MentorProfile, len(mentors))
	ids := make([]string, 0, len(mentors))
	for _, m := range mentors {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	rows, err = c.pool.Query(ctx, `SELECT `+sessionColumns+`
		FROM mentor_sessions s
		WHERE s.mentor_id::text = ANY($1)
		  AND s.is_active
		  AND (s.expires_at IS NULL OR s.expires_at > NOW())
		ORDER BY s.created_at ASC, s.id ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentor sessions: %w", err)
	}
	sessions, err := pgx.CollectRows(rows, scanSession)
	if err != nil {
		return nil, fmt.Errorf("failed to scan mentor sessions: %w", err)
	}
	for _, s := range sessions {
		if m, ok := byID[s.MentorID]; ok {
			m.Sessions = append(m.Sessions, *s)
		}
	}

	return mentors, nil
}

// FindStudentProfile resolves the student row owned by userID
func (c *Client) FindStudentProfile(ctx context.Context, userID string) (p *models.StudentProfile, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findStudentProfile", start, err) }()

	var (
		student models.StudentProfile
		level   string
	)
	err = c.pool.QueryRow(ctx, `
		SELECT id::text, user_id, subjects_of_interest, education_level
		FROM students
		WHERE user_id = $1`, userID).
		Scan(&student.ID, &student.UserID, &student.SubjectsOfInterest, &level)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	student.EducationLevel = models.EducationLevel(level)

	return &student, nil
}

// FindMentorByUserID resolves the mentor row owned by userID
func (c *Client) FindMentorByUserID(ctx context.Context, userID string) (m *models.MentorProfile, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findMentorByUserID", start, err) }()

	rows, err := c.pool.Query(ctx, `SELECT `+mentorColumns+`
		FROM mentors m
		WHERE m.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentor: %w", err)
	}
	m, err = pgx.CollectExactlyOneRow(rows, scanMentor)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}

	return m, nil
}

// FindMentorSession loads a session by ID regardless of state
func (c *Client) FindMentorSession(ctx context.Context, sessionID string) (s *models.MentorSession, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findMentorSession", start, err) }()

	if _, parseErr := uuid.Parse(sessionID); parseErr != nil {
		return nil, repository.ErrNotFound
	}

	rows, err := c.pool.Query(ctx, `SELECT `+sessionColumns+`
		FROM mentor_sessions s
		WHERE s.id = $1`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentor session: %w", err)
	}
	s, err = pgx.CollectExactlyOneRow(rows, scanSession)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}

	return s, nil
}

func scanMentor(row pgx.CollectableRow) (*models.MentorProfile, error) {
	var (
		m          models.MentorProfile
		levels     []string
		experience string
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.SubjectsToTeach, &levels,
		&experience, &m.AverageRating, &m.TotalSessions, &m.IsActive,
	)
	if err != nil {
		return nil, err
	}

	m.TeachingExperience = models.TeachingExperience(experience)
	m.PreferredStudentLevels = make([]models.EducationLevel, 0, len(levels))
	for _, l := range levels {
		m.PreferredStudentLevels = append(m.PreferredStudentLevels, models.EducationLevel(l))
	}
	return &m, nil
}

func scanSession(row pgx.CollectableRow) (*models.MentorSession, error) {
	var s models.MentorSession
	err := row.Scan(
		&s.ID, &s.MentorID, &s.Title, &s.AvailableSlots, &s.IsActive,
		&s.Price, &s.TotalBookings, &s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	for i := range s.AvailableSlots {
		s.AvailableSlots[i] = s.AvailableSlots[i].UTC()
	}
	return &s, nil
}
