package household

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures.
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindUserNotFound     Kind = "UserNotFound"
	KindAlreadyMember    Kind = "AlreadyMember"
	KindAlreadyExists    Kind = "AlreadyExists"
	KindOwnerCannotLeave Kind = "OwnerCannotLeave"
	KindInvalidArgument  Kind = "InvalidArgument"
	KindStoreUnavailable Kind = "StoreUnavailable"
	KindPartialFailure   Kind = "PartialFailure"
)

// Retryable reports whether re-issuing the identical request is the
// expected recovery. Precondition failures are never retried.
func (k Kind) Retryable() bool {
	return k == KindStoreUnavailable || k == KindPartialFailure
}

// Phase names the write step an operation was in when it failed.
type Phase string

const (
	PhaseAddMember         Phase = "addMember"
	PhaseLinkOwner         Phase = "linkOwner"
	PhaseLinkUser          Phase = "linkUser"
	PhaseRemoveMember      Phase = "removeMember"
	PhaseUnlinkUser        Phase = "unlinkUser"
	PhaseReparentFoodItems Phase = "reparentFoodItems"
	PhasePruneMembers      Phase = "pruneMembers"
	PhasePurgeActivities   Phase = "purgeActivities"
	PhaseSetType           Phase = "setType"
	PhaseClearMembers      Phase = "clearMembers"
	PhaseDeleteImages      Phase = "deleteImages"
	PhaseDeleteFoodItems   Phase = "deleteFoodItems"
	PhaseDeleteActivities  Phase = "deleteActivities"
	PhaseDeleteHousehold   Phase = "deleteHousehold"
	PhaseRemoveInvite      Phase = "removeInvite"
	PhaseRepair            Phase = "repair"
)

// Error is the failure type returned by every Service operation.
//
// For KindPartialFailure, Phase names the step that failed and Done counts
// the writes confirmed before it (a batch counts once). Nothing is rolled
// back; re-issuing the same request finishes the work.
type Error struct {
	Kind        Kind
	Op          string
	Phase       Phase
	HouseholdID string
	Done        int
	Msg         string
	Err         error
}

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrUserNotFound     = &Error{Kind: KindUserNotFound}
	ErrAlreadyMember    = &Error{Kind: KindAlreadyMember}
	ErrAlreadyExists    = &Error{Kind: KindAlreadyExists}
	ErrOwnerCannotLeave = &Error{Kind: KindOwnerCannotLeave}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
	ErrPartialFailure   = &Error{Kind: KindPartialFailure}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("household")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Phase != "" {
		fmt.Fprintf(&b, " at %s", e.Phase)
	}
	if e.HouseholdID != "" || e.Done > 0 {
		fmt.Fprintf(&b, " (household=%s, done=%d)", e.HouseholdID, e.Done)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or "" if err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// PhaseOf returns the failed phase of err, or "".
func PhaseOf(err error) Phase {
	var e *Error
	if errors.As(err, &e) {
		return e.Phase
	}
	return ""
}

func precondition(op string, kind Kind, householdID, msg string) *Error {
	return &Error{Kind: kind, Op: op, HouseholdID: householdID, Msg: msg}
}

func invalid(op, householdID, msg string) *Error {
	return precondition(op, KindInvalidArgument, householdID, msg)
}

func unavailable(op, householdID string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Op: op, HouseholdID: householdID, Err: err}
}
