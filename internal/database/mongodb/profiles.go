package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) FindActiveMentorsWithSessions(ctx context.Context) (mentors []*models.MentorProfile, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findActiveMentorsWithSessions", start, err) }()

	cursor, err := s.mentors.Find(ctx,
		bson.M{"isActive": true},
		options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query mentors: %w", err)
	}
	var mentorDocs []mentorDocument
	if err := cursor.All(ctx, &mentorDocs); err != nil {
		return nil, fmt.Errorf("failed to decode mentors: %w", err)
	}

	mentors = make([]*models.MentorProfile, 0, len(mentorDocs))
	byID := make(map[string]*models.MentorProfile, len(mentorDocs))
	ids := make([]string, 0, len(mentorDocs))
	for _, d := range mentorDocs {
		m := d.toModel()
		mentors = append(mentors, m)
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}
	if len(ids) == 0 {
		return mentors, nil
	}

	cursor, err = s.sessions.Find(ctx,
		bson.M{
			"mentorId": bson.M{"$in": ids},
			"isActive": true,
			"$or": bson.A{
				bson.M{"expiresAt": bson.M{"$exists": false}},
				bson.M{"expiresAt": nil},
				bson.M{"expiresAt": bson.M{"$gt": time.Now().UTC()}},
			},
		},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query mentor sessions: %w", err)
	}
	var sessionDocs []sessionDocument
	if err := cursor.All(ctx, &sessionDocs); err != nil {
		return nil, fmt.Errorf("failed to decode mentor sessions: %w", err)
	}
	for _, d := range sessionDocs {
		if m, ok := byID[d.MentorID]; ok {
			m.Sessions = append(m.Sessions, *d.toModel())
		}
	}

	return mentors, nil
}

func (s *Store) FindStudentProfile(ctx context.Context, userID string) (p *models.StudentProfile, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findStudentProfile", start, err) }()

	var doc studentDocument
	if err := s.students.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		return nil, notFoundIfNoDocuments(err)
	}
	return doc.toModel(), nil
}

func (s *Store) FindMentorByUserID(ctx context.Context, userID string) (m *models.MentorProfile, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findMentorByUserID", start, err) }()

	var doc mentorDocument
	if err := s.mentors.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		return nil, notFoundIfNoDocuments(err)
	}
	return doc.toModel(), nil
}

func (s *Store) FindMentorSession(ctx context.Context, sessionID string) (sess *models.MentorSession, err error) {
	start := time.Now()
	defer func() { observe(ctx, "findMentorSession", start, err) }()

	var doc sessionDocument
	if err := s.sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc); err != nil {
		return nil, notFoundIfNoDocuments(err)
	}
	return doc.toModel(), nil
}
