// internal/app/features/households/respond.go
package households

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/system/limits"
	"github.com/dalemusser/larder/internal/app/system/timeouts"
	"github.com/dalemusser/larder/internal/domain/models"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	Phase       string `json:"phase,omitempty"`
	HouseholdID string `json:"householdId,omitempty"`
	Done        int    `json:"done,omitempty"`
	Retryable   bool   `json:"retryable,omitempty"`
}

// householdView is the JSON shape of a household. Invites are shown to the
// owner only.
type householdView struct {
	models.Household
	Invites []string `json:"invites,omitempty"`
}

func viewFor(h models.Household, actorID string) householdView {
	v := householdView{Household: h}
	if actorID == h.OwnerID {
		v.Invites = h.Invites
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an engine error kind to an HTTP status.
func statusFor(kind household.Kind) int {
	switch kind {
	case household.KindNotFound, household.KindUserNotFound:
		return http.StatusNotFound
	case household.KindAlreadyMember, household.KindAlreadyExists, household.KindOwnerCannotLeave:
		return http.StatusConflict
	case household.KindInvalidArgument:
		return http.StatusBadRequest
	case household.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var he *household.Error
	if !errors.As(err, &he) {
		h.Log.Error("households: unexpected error", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: "Internal"})
		return
	}

	resp := errorResponse{
		Error:     err.Error(),
		Kind:      string(he.Kind),
		Retryable: he.Kind.Retryable(),
	}
	if he.Kind == household.KindPartialFailure {
		resp.Phase = string(he.Phase)
		resp.HouseholdID = he.HouseholdID
		resp.Done = he.Done
	}
	status := statusFor(he.Kind)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: string(household.KindInvalidArgument)})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// opContext detaches the operation from client disconnects: once a
// membership change starts writing it runs to completion or reports a
// partial failure. The store timeout still bounds it.
func opContext(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), d)
}

func readContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Read())
}
