package reporting

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"borrowdesk/internal/identity"
	"borrowdesk/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the reporting endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard/summary", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	summary, err := h.service.DashboardSummary(r.Context(), accountID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"summary": summary})
}
