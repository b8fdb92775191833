// internal/app/features/households/households.go
package households

import (
	"net/http"

	"github.com/dalemusser/larder/internal/app/store/audit"
	"github.com/dalemusser/larder/internal/app/system/actor"
	"github.com/dalemusser/larder/internal/app/system/timeouts"
	"github.com/dalemusser/larder/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type createRequest struct {
	Name string               `json:"name"`
	Type models.HouseholdType `json:"type"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

type retypeRequest struct {
	Type           models.HouseholdType `json:"type"`
	SelectedUserID string               `json:"selectedUserId"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type membersResponse struct {
	HouseholdID string               `json:"householdId"`
	Type        models.HouseholdType `json:"type"`
	Users       []string             `json:"users"`
}

type inviteResponse struct {
	HouseholdID string `json:"householdId"`
	Token       string `json:"token"`
}

func actorID(r *http.Request) string {
	id, _ := actor.FromContext(r.Context())
	return id
}

// ServeMine handles GET /households/mine.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := readContext(r)
	defer cancel()

	me := actorID(r)
	hh, err := h.Svc.GetHouseholdForUser(ctx, me)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFor(hh, me))
}

// ServeHousehold handles GET /households/{id}. Only members may read it.
func (h *Handler) ServeHousehold(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := readContext(r)
	defer cancel()

	me := actorID(r)
	hh, err := h.Svc.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !hh.HasMember(me) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "household not found", Kind: "NotFound"})
		return
	}
	writeJSON(w, http.StatusOK, viewFor(hh, me))
}

// HandleCreate handles POST /households.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	ctx, cancel := opContext(r, timeouts.Sweep())
	defer cancel()

	me := actorID(r)
	hh, err := h.Svc.Create(ctx, me, req.Name, req.Type)
	h.Audit.Household(ctx, r, audit.EventHouseholdCreated, me, hh.ID, err, map[string]string{"type": string(req.Type)})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewFor(hh, me))
}

// HandleJoin handles POST /households/{id}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r, timeouts.Write())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	hh, err := h.Svc.Join(ctx, me, id)
	h.Audit.Household(ctx, r, audit.EventHouseholdJoined, me, id, err, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFor(hh, me))
}

// HandleLeave handles POST /households/{id}/leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r, timeouts.Write())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	hh, err := h.Svc.Leave(ctx, me, id)
	h.Audit.Household(ctx, r, audit.EventHouseholdLeft, me, id, err, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFor(hh, me))
}

// HandleAddMember handles POST /households/{id}/members.
// The actor must own household {id}.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(r, &req); err != nil || req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	ctx, cancel := opContext(r, timeouts.Write())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	owned, err := h.Svc.GetHouseholdForUser(ctx, me)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if owned.ID != id || owned.OwnerID != me {
		badRequest(w, "only the household owner may add members")
		return
	}

	hh, err := h.Svc.AddMember(ctx, me, req.UserID)
	h.Audit.MemberAdded(ctx, r, me, req.UserID, id, err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFor(hh, me))
}

// HandleRetype handles POST /households/{id}/retype.
func (h *Handler) HandleRetype(w http.ResponseWriter, r *http.Request) {
	var req retypeRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	ctx, cancel := opContext(r, timeouts.Sweep())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	users, err := h.Svc.Retype(ctx, me, id, req.Type, req.SelectedUserID)
	h.Audit.Household(ctx, r, audit.EventHouseholdRetyped, me, id, err, map[string]string{"type": string(req.Type)})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, membersResponse{HouseholdID: id, Type: req.Type, Users: users})
}

// HandleDelete handles DELETE /households/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r, timeouts.Sweep())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	res, err := h.Svc.Delete(ctx, me, id)
	h.Audit.Household(ctx, r, audit.EventHouseholdDeleted, me, id, err, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRename handles PATCH /households/{id}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	ctx, cancel := opContext(r, timeouts.Write())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	hh, err := h.Svc.Rename(ctx, me, id, req.Name)
	h.Audit.Household(ctx, r, audit.EventHouseholdRenamed, me, id, err, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFor(hh, me))
}

// HandleTransferOwnership handles POST /households/{id}/owner.
func (h *Handler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(r, &req); err != nil || req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}
	ctx, cancel := opContext(r, timeouts.Write())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	hh, err := h.Svc.TransferOwnership(ctx, me, id, req.UserID)
	h.Audit.Household(ctx, r, audit.EventOwnershipTransferred, me, id, err, map[string]string{"new_owner": req.UserID})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFor(hh, me))
}

// HandleRepair handles POST /households/{id}/repair. Any member may ask
// for a repair pass; it only restores links that should already exist.
func (h *Handler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r, timeouts.Sweep())
	defer cancel()

	me, id := actorID(r), chi.URLParam(r, "id")
	hh, err := h.Svc.Get(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !hh.HasMember(me) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "household not found", Kind: "NotFound"})
		return
	}

	res, err := h.Svc.Repair(ctx, id)
	h.Audit.Admin(ctx, r, audit.EventHouseholdRepaired, id, me, err, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
