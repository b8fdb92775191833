// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/store/audit"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Households controls logging for membership changes made by users.
	Households string
	// Admin controls logging for operator actions (repair, resweep).
	Admin string
}

// Logger records household audit events to MongoDB (via audit.Store) and
// structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when every category is
// "log" or "off".
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// ClientIP extracts the client IP from the request, preferring proxy
// headers and stripping the port from RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.HouseholdID != "" {
		fields = append(fields, zap.String("household_id", event.HouseholdID))
	}
	if event.FailureKind != "" {
		fields = append(fields, zap.String("failure_kind", event.FailureKind))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryHousehold:
		return l.config.Households
	case audit.CategoryAdmin:
		return l.config.Admin
	default:
		return ModeAll
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == "" || setting == ModeOff {
		return
	}
	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// Household records the outcome of a membership operation. err is the
// engine error, if any; its Kind and Phase are stored with the event.
func (l *Logger) Household(ctx context.Context, r *http.Request, eventType, actorID, householdID string, err error, details map[string]string) {
	l.Log(ctx, outcome(audit.Event{
		Category:    audit.CategoryHousehold,
		EventType:   eventType,
		ActorID:     actorID,
		HouseholdID: householdID,
		Details:     details,
	}, r, err))
}

// MemberAdded records an owner adding another user.
func (l *Logger) MemberAdded(ctx context.Context, r *http.Request, ownerID, userID, householdID string, err error) {
	l.Log(ctx, outcome(audit.Event{
		Category:    audit.CategoryHousehold,
		EventType:   audit.EventMemberAdded,
		ActorID:     ownerID,
		UserID:      userID,
		HouseholdID: householdID,
	}, r, err))
}

// Admin records an operator action such as a repair pass. r may be nil
// when the action did not come over HTTP.
func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType, householdID, userID string, err error, details map[string]string) {
	l.Log(ctx, outcome(audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   eventType,
		HouseholdID: householdID,
		UserID:      userID,
		Details:     details,
	}, r, err))
}

func outcome(e audit.Event, r *http.Request, err error) audit.Event {
	if r != nil {
		e.IP = ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	if err == nil {
		e.Success = true
		return e
	}
	e.FailureKind = string(household.KindOf(err))
	if e.FailureKind == "" {
		e.FailureKind = "Internal"
	}
	if phase := household.PhaseOf(err); phase != "" {
		if e.Details == nil {
			e.Details = map[string]string{}
		}
		e.Details["phase"] = string(phase)
	}
	e.FailureReason = err.Error()
	var he *household.Error
	if errors.As(err, &he) && e.HouseholdID == "" {
		e.HouseholdID = he.HouseholdID
	}
	return e
}
