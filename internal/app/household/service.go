// Package household is the membership and referential-integrity engine.
//
// It creates, joins, leaves, retypes and deletes households while keeping
// five collections consistent: households, users, foodItems, activities and
// profilePictures. The store has per-document atomicity only, so every
// multi-document operation is an ordered sequence of idempotent writes.
// A failure part way through is reported as KindPartialFailure with the
// phase that failed; the recovery is to re-issue the same request (or run
// Repair / Resweep), never to roll back.
//
// Every operation takes the acting user's id explicitly. The engine holds
// no per-call state and no locks.
package household

import (
	"context"
	"errors"
	"time"

	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	userstore "github.com/dalemusser/larder/internal/app/store/users"
	"github.com/dalemusser/larder/internal/app/system/batch"
	"github.com/dalemusser/larder/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// householdRepository is the subset of householdstore.Store the engine requires.
type householdRepository interface {
	Get(ctx context.Context, id string) (models.Household, error)
	GetByMember(ctx context.Context, userID string) (models.Household, error)
	GetByInvite(ctx context.Context, token string) (models.Household, error)
	Create(ctx context.Context, h models.Household) (models.Household, error)
	UpdateField(ctx context.Context, id, field string, value any) error
	AddMember(ctx context.Context, id, userID string) error
	RemoveMembers(ctx context.Context, id string, userIDs ...string) error
	AddInvite(ctx context.Context, id, token string) error
	RemoveInvite(ctx context.Context, id, token string) error
	Delete(ctx context.Context, id string) error
}

// userRepository is the subset of userstore.Store the engine requires.
type userRepository interface {
	Get(ctx context.Context, id string) (models.User, error)
	ListByHousehold(ctx context.Context, householdID string) ([]models.User, error)
	SetHousehold(ctx context.Context, userID, householdID string) error
	LinkHousehold(ctx context.Context, userID, householdID string) (bool, error)
	ClearHousehold(ctx context.Context, userID, householdID string) error
	ClearHouseholdMany(ctx context.Context, userIDs []string, householdID string) error
}

// foodItemRepository is the subset of fooditemstore.Store the engine requires.
type foodItemRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.FoodItem, error)
	ListByHousehold(ctx context.Context, householdID string) ([]models.FoodItem, error)
	SetHousehold(ctx context.Context, ids []string, householdID string) error
	DeleteMany(ctx context.Context, ids []string) error
}

// activityRepository is the subset of activity.Store the engine requires.
type activityRepository interface {
	ListByHousehold(ctx context.Context, householdID string) ([]models.Activity, error)
	DeleteMany(ctx context.Context, ids []string) error
}

// imageRepository is the subset of imagestore.Store the engine requires.
type imageRepository interface {
	DeleteMany(ctx context.Context, ids []string) error
}

// Service is the Reconciler: the only component that writes more than one
// collection per logical operation.
type Service struct {
	households householdRepository
	users      userRepository
	foodItems  foodItemRepository
	activities activityRepository
	images     imageRepository
	log        *zap.Logger

	batchSize int
	now       func() time.Time
	newID     func() string
	newToken  func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithBatchSize caps the number of documents per batched write.
// Zero means batch.MaxOps().
func WithBatchSize(n int) Option {
	return func(s *Service) { s.batchSize = n }
}

// WithClock replaces the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs replaces the household id and invite token generators.
func WithIDs(newID, newToken func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
		if newToken != nil {
			s.newToken = newToken
		}
	}
}

func New(
	households householdRepository,
	users userRepository,
	foodItems foodItemRepository,
	activities activityRepository,
	images imageRepository,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		households: households,
		users:      users,
		foodItems:  foodItems,
		activities: activities,
		images:     images,
		log:        logger,
		now:        time.Now,
		newID:      func() string { return primitive.NewObjectID().Hex() },
		newToken:   func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) chunkSize() int {
	if s.batchSize > 0 {
		return s.batchSize
	}
	return batch.MaxOps()
}

// progress counts confirmed writes within one operation so a failure can
// be reported as StoreUnavailable (nothing written) or PartialFailure.
type progress struct {
	s           *Service
	op          string
	householdID string
	done        int
}

func (s *Service) begin(op, householdID string) *progress {
	return &progress{s: s, op: op, householdID: householdID}
}

func (p *progress) fail(phase Phase, err error) error {
	if p.done == 0 {
		e := unavailable(p.op, p.householdID, err)
		e.Phase = phase
		p.s.log.Error("household write failed",
			zap.String("op", p.op),
			zap.String("household_id", p.householdID),
			zap.String("phase", string(phase)),
			zap.Error(err))
		return e
	}
	p.s.log.Warn("household operation partially applied",
		zap.String("op", p.op),
		zap.String("household_id", p.householdID),
		zap.String("phase", string(phase)),
		zap.Int("done", p.done),
		zap.Error(err))
	return &Error{
		Kind:        KindPartialFailure,
		Op:          p.op,
		Phase:       phase,
		HouseholdID: p.householdID,
		Done:        p.done,
		Err:         err,
	}
}

// sweep applies fn to ids in chunks of at most chunkSize, strictly one
// after another. It stops at the first failing chunk; every chunk before
// it is confirmed.
func (s *Service) sweep(ctx context.Context, p *progress, ids []string, fn func(ctx context.Context, chunk []string) error) error {
	for _, chunk := range batch.Chunks(ids, s.chunkSize()) {
		if err := fn(ctx, chunk); err != nil {
			return err
		}
		p.done++
	}
	return nil
}

// loadHousehold maps the repository's not-found to ErrNotFound.
func (s *Service) loadHousehold(ctx context.Context, op, id string) (models.Household, error) {
	h, err := s.households.Get(ctx, id)
	if err != nil {
		if errors.Is(err, householdstore.ErrNotFound) {
			return models.Household{}, precondition(op, KindNotFound, id, "household does not exist")
		}
		return models.Household{}, unavailable(op, id, err)
	}
	return h, nil
}

// loadUser maps the repository's not-found to ErrUserNotFound.
func (s *Service) loadUser(ctx context.Context, op, householdID, userID string) (models.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.User{}, precondition(op, KindUserNotFound, householdID, "user "+userID+" does not exist")
		}
		return models.User{}, unavailable(op, householdID, err)
	}
	return u, nil
}

// ensureFree fails with AlreadyMember if userID belongs to a household other
// than allowed (pass "" to require no household at all). Both sides of the
// link are checked so a dangling membership also counts.
func (s *Service) ensureFree(ctx context.Context, op string, u models.User, allowed string) error {
	if u.HouseholdID != "" && u.HouseholdID != allowed {
		return precondition(op, KindAlreadyMember, u.HouseholdID, "user "+u.ID+" already belongs to a household")
	}
	other, err := s.households.GetByMember(ctx, u.ID)
	switch {
	case err == nil:
		if other.ID != allowed {
			return precondition(op, KindAlreadyMember, other.ID, "user "+u.ID+" already belongs to a household")
		}
		return nil
	case errors.Is(err, householdstore.ErrNotFound):
		return nil
	default:
		return unavailable(op, allowed, err)
	}
}

func requireOwner(op string, h models.Household, actorID string) error {
	if actorID == "" || actorID != h.OwnerID {
		return invalid(op, h.ID, "only the household owner may do this")
	}
	return nil
}

func appendUnique(ids []string, id string) []string {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

func without(ids []string, drop ...string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if !skip[x] {
			out = append(out, x)
		}
	}
	return out
}
