package billing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"borrowdesk/internal/apperr"
	"borrowdesk/internal/identity"
	"borrowdesk/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the payment endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/payments/history", h.handleHistory)
	r.Post("/payments/{paymentID}/pay", h.handleMarkPaid)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	payments, err := h.service.History(r.Context(), accountID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"count": len(payments), "payments": payments})
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Invalid payment ID"))
		return
	}

	payment, err := h.service.MarkPaid(r.Context(), accountID, paymentID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{
		"message": "Payment marked as paid",
		"payment": payment,
	})
}
