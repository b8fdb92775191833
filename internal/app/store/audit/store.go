// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/larder/internal/app/system/dbretry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryHousehold = "household"
	CategoryAdmin     = "admin"
)

// Household event types
const (
	EventHouseholdCreated     = "household_created"
	EventHouseholdJoined      = "household_joined"
	EventHouseholdLeft        = "household_left"
	EventMemberAdded          = "member_added"
	EventHouseholdRetyped     = "household_retyped"
	EventHouseholdRenamed     = "household_renamed"
	EventHouseholdDeleted     = "household_deleted"
	EventOwnershipTransferred = "ownership_transferred"
	EventInviteCreated        = "invite_created"
	EventInviteRevoked        = "invite_revoked"
	EventInviteAccepted       = "invite_accepted"
)

// Admin event types
const (
	EventHouseholdRepaired = "household_repaired"
	EventFoodItemsReswept  = "food_items_reswept"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who and what
	ActorID     string `bson:"actor_id,omitempty"`
	UserID      string `bson:"user_id,omitempty"` // affected user, when not the actor
	HouseholdID string `bson:"household_id,omitempty"`

	// Context
	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureKind   string `bson:"failure_kind,omitempty"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	HouseholdID string
	ActorID     string
	Category    string
	EventType   string
	StartTime   *time.Time
	EndTime     *time.Time
	Limit       int64
	Offset      int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates the indexes Query relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{
			Keys: bson.D{
				{Key: "household_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "actor_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return dbretry.Do(ctx, func(ctx context.Context) error {
		_, err := s.c.InsertOne(ctx, event)
		if mongo.IsDuplicateKeyError(err) {
			// An earlier attempt landed.
			return nil
		}
		return err
	})
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.HouseholdID != "" {
		query["household_id"] = filter.HouseholdID
	}
	if filter.ActorID != "" {
		query["actor_id"] = filter.ActorID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}

// GetByHousehold retrieves recent audit events for one household.
func (s *Store) GetByHousehold(ctx context.Context, householdID string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{HouseholdID: householdID, Limit: limit})
}

// GetFailures retrieves recent failed operations (PartialFailure included)
// so an operator can find households that need a repair pass.
func (s *Store) GetFailures(ctx context.Context, since time.Time, limit int64) ([]Event, error) {
	query := bson.M{
		"success":   false,
		"timestamp": bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
