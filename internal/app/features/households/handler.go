// internal/app/features/households/handler.go
package households

import (
	"context"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/system/auditlog"
	"github.com/dalemusser/larder/internal/app/system/ratelimit"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.uber.org/zap"
)

// Service is the slice of household.Service the HTTP layer calls.
type Service interface {
	Get(ctx context.Context, householdID string) (models.Household, error)
	GetHouseholdForUser(ctx context.Context, userID string) (models.Household, error)
	Create(ctx context.Context, actorID, name string, typ models.HouseholdType) (models.Household, error)
	Join(ctx context.Context, actorID, householdID string) (models.Household, error)
	Leave(ctx context.Context, actorID, householdID string) (models.Household, error)
	AddMember(ctx context.Context, ownerID, newUserID string) (models.Household, error)
	Retype(ctx context.Context, actorID, householdID string, newType models.HouseholdType, selectedUserID string) ([]string, error)
	Delete(ctx context.Context, actorID, householdID string) (household.DeleteResult, error)
	Rename(ctx context.Context, ownerID, householdID, name string) (models.Household, error)
	TransferOwnership(ctx context.Context, ownerID, householdID, newOwnerID string) (models.Household, error)
	CreateInvite(ctx context.Context, ownerID, householdID string) (string, error)
	RevokeInvite(ctx context.Context, ownerID, householdID, token string) error
	AcceptInvite(ctx context.Context, actorID, token string) (models.Household, error)
	Repair(ctx context.Context, householdID string) (household.RepairResult, error)
}

// Handler is the dependency container for the households feature.
type Handler struct {
	Svc   Service
	Audit *auditlog.Logger
	Log   *zap.Logger

	// InviteLimit throttles invite acceptance; nil disables it.
	InviteLimit *ratelimit.InviteLimiter
}

// NewHandler constructs a households Handler. audit may be nil.
func NewHandler(svc Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Svc:   svc,
		Audit: audit,
		Log:   logger,
	}
}
