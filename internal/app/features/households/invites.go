// internal/app/features/households/invites.go
package households

import (
	"net/http"

	"github.com/dalemusser/larder/internal/app/store/audit"
	"github.com/dalemusser/larder/internal/app/system/auditlog"
	"github.com/dalemusser/larder/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleCreateInvite handles POST /households/{id}/invites.
func (h *Handler) HandleCreateInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r, timeouts.Write())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	token, err := h.Svc.CreateInvite(ctx, me, id)
	h.Audit.Household(ctx, r, audit.EventInviteCreated, me, id, err, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inviteResponse{HouseholdID: id, Token: token})
}

// HandleRevokeInvite handles DELETE /households/{id}/invites/{token}.
func (h *Handler) HandleRevokeInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r, timeouts.Write())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	err := h.Svc.RevokeInvite(ctx, me, id, chi.URLParam(r, "token"))
	h.Audit.Household(ctx, r, audit.EventInviteRevoked, me, id, err, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAcceptInvite handles POST /households/invites/{token}/accept.
func (h *Handler) HandleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r, timeouts.Write())
	defer cancel()

	me := actorID(r)
	if h.InviteLimit != nil {
		if ok, reason := h.InviteLimit.Check(r, me); !ok {
			h.Log.Warn("invite accept throttled", zap.String("actor_id", me), zap.String("ip", auditlog.ClientIP(r)))
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: reason, Kind: "RateLimited", Retryable: true})
			return
		}
	}

	hh, err := h.Svc.AcceptInvite(ctx, me, chi.URLParam(r, "token"))
	h.Audit.Household(ctx, r, audit.EventInviteAccepted, me, hh.ID, err, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.InviteLimit != nil {
		h.InviteLimit.ResetActor(me)
	}
	writeJSON(w, http.StatusOK, viewFor(hh, me))
}
