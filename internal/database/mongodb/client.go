// Package mongodb implements repository.Store on MongoDB. Bookings rely on a
// unique partial index over live slot holds and multi-document transactions,
// so the deployment must be a replica set.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"github.com/mentorhub/mentorhub-api/pkg/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	driverName = "mongo"

	studentsCollection = "students"
	mentorsCollection  = "mentors"
	sessionsCollection = "mentor_sessions"
	bookingsCollection = "bookings"
	paymentsCollection = "payments"

	liveSlotIndex = "uq_bookings_live_slot"
)

// Config holds the connection settings
type Config struct {
	URL      string
	Database string
}

// Store implements repository.Store on a MongoDB database
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	students *mongo.Collection
	mentors  *mongo.Collection
	sessions *mongo.Collection
	bookings *mongo.Collection
	payments *mongo.Collection
}

var _ repository.Store = (*Store)(nil)

// Connect dials MongoDB, verifies the connection and ensures indexes
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		// bad URI or options; a retry cannot fix it
		return nil, retry.Permanent(fmt.Errorf("failed to configure MongoDB client: %w", err))
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := newStore(client, cfg.Database)
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, retry.Permanent(err)
	}

	logger.Info("MongoDB store initialized", zap.String("database", cfg.Database))
	return s, nil
}

func newStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		db:       db,
		students: db.Collection(studentsCollection),
		mentors:  db.Collection(mentorsCollection),
		sessions: db.Collection(sessionsCollection),
		bookings: db.Collection(bookingsCollection),
		payments: db.Collection(paymentsCollection),
	}
}

// EnsureIndexes creates the lookup indexes and the live-slot uniqueness guard
func (s *Store) EnsureIndexes(ctx context.Context) error {
	bookingIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "mentorSessionId", Value: 1}, {Key: "scheduledDateTime", Value: 1}},
			Options: options.Index().
				SetName(liveSlotIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slotHold": true}),
		},
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "scheduledDateTime", Value: 1}},
			Options: options.Index().SetName("student_schedule_idx"),
		},
		{
			Keys:    bson.D{{Key: "mentorId", Value: 1}, {Key: "scheduledDateTime", Value: 1}},
			Options: options.Index().SetName("mentor_schedule_idx"),
		},
	}
	if _, err := s.bookings.Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	others := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.students, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetName("unique_user").SetUnique(true)}},
		{s.mentors, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetName("unique_user").SetUnique(true)}},
		{s.mentors, mongo.IndexModel{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "sortOrder", Value: 1}}, Options: options.Index().SetName("active_order_idx")}},
		{s.sessions, mongo.IndexModel{Keys: bson.D{{Key: "mentorId", Value: 1}}, Options: options.Index().SetName("mentor_idx")}},
		{s.payments, mongo.IndexModel{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetName("unique_booking").SetUnique(true)}},
	}
	for _, idx := range others {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Ping checks the primary is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	logger.Info("MongoDB connection closed")
	return nil
}

// inTransaction runs fn inside a multi-document transaction. The driver
// reruns fn while the server labels the failure TransientTransactionError.
func (s *Store) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func observe(ctx context.Context, operation string, start time.Time, err error) {
	duration := metrics.MeasureDuration(start)
	status := statusOf(err)
	metrics.RecordStoreOperation(driverName, operation, status, duration)

	if status == "error" {
		logger.LogAPICall(ctx, driverName, operation, status, duration, zap.Error(err))
		return
	}
	logger.LogAPICall(ctx, driverName, operation, status, duration)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrSlotConflict), errors.Is(err, repository.ErrNotCancellable),
		errors.Is(err, repository.ErrPaymentLocked):
		return "conflict"
	default:
		return "error"
	}
}

const transientTransactionLabel = "TransientTransactionError"

// classifyBookingInsert maps a failed booking insert. A duplicate key on the
// live slot index is a lost race; transient transaction errors are returned
// unwrapped so WithTransaction retries the body, where the retry then meets
// the winner's committed hold.
func classifyBookingInsert(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrSlotConflict
	case isTransientTransactionError(err):
		return err
	default:
		return fmt.Errorf("insert booking failed: %w", err)
	}
}

func isTransientTransactionError(err error) bool {
	var labeled mongo.LabeledError
	return errors.As(err, &labeled) && labeled.HasErrorLabel(transientTransactionLabel)
}

func notFoundIfNoDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
