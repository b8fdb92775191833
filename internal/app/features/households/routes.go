// internal/app/features/households/routes.go
package households

import (
	"github.com/dalemusser/larder/internal/app/system/actor"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter mounted under /households. Every route needs
// an actor id.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(actor.Require)

		pr.Get("/mine", h.ServeMine)
		pr.Post("/", h.HandleCreate)
		pr.Post("/invites/{token}/accept", h.HandleAcceptInvite)

		pr.Route("/{id}", func(hr chi.Router) {
			hr.Get("/", h.ServeHousehold)
			hr.Patch("/", h.HandleRename)
			hr.Delete("/", h.HandleDelete)

			hr.Post("/join", h.HandleJoin)
			hr.Post("/leave", h.HandleLeave)
			hr.Post("/members", h.HandleAddMember)
			hr.Post("/retype", h.HandleRetype)
			hr.Post("/owner", h.HandleTransferOwnership)
			hr.Post("/repair", h.HandleRepair)

			hr.Post("/invites", h.HandleCreateInvite)
			hr.Delete("/invites/{token}", h.HandleRevokeInvite)
		})
	})

	return r
}
