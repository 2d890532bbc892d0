package borrowing

import (
	"encoding/json"
	"net/http"
	"time"

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

// Routes mounts the borrow lifecycle endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/borrow/validate", h.handleValidate)
	r.Post("/borrow/calculate", h.handleCalculate)
	r.Post("/borrow", h.handleBorrow)
	r.Get("/borrows/active", h.handleListActive)
	r.Get("/borrows/history", h.handleHistory)
	r.Get("/borrows/{borrowID}/summary", h.handleSummary)
	r.Post("/borrows/{borrowID}/submit", h.handleSubmitReturn)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	var req struct {
		BookID string `json:"bookId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookID == "" {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Please provide book ID"))
		return
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Invalid book ID"))
		return
	}

	book, err := h.service.Validate(r.Context(), accountID, bookID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{
		"message": "You can borrow this book",
		"book": web.Envelope{
			"id":          book.ID,
			"title":       book.Title,
			"author":      book.Author,
			"pricePerDay": book.PricePerDay,
		},
	})
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID       string `json:"bookId"`
		NumberOfDays int    `json:"numberOfDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookID == "" || req.NumberOfDays == 0 {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Please provide book ID and number of days"))
		return
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Invalid book ID"))
		return
	}

	breakdown, err := h.service.CalculateCost(r.Context(), bookID, req.NumberOfDays)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"calculation": breakdown})
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	var req struct {
		BookID       string `json:"bookId"`
		NumberOfDays int    `json:"numberOfDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookID == "" || req.NumberOfDays == 0 {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Please provide book ID and number of days"))
		return
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Invalid book ID"))
		return
	}

	borrow, err := h.service.Borrow(r.Context(), accountID, bookID, req.NumberOfDays)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusCreated, web.Envelope{
		"message": "Book borrowed successfully",
		"borrow":  borrow,
	})
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	borrows, err := h.service.ListActive(r.Context(), accountID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"count": len(borrows), "borrows": borrows})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	borrows, err := h.service.History(r.Context(), accountID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"count": len(borrows), "borrows": borrows})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	borrowID, err := uuid.Parse(chi.URLParam(r, "borrowID"))
	if err != nil {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Invalid borrow ID"))
		return
	}

	borrow, err := h.service.GetSummary(r.Context(), accountID, borrowID)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"borrow": borrow})
}

func (h *Handler) handleSubmitReturn(w http.ResponseWriter, r *http.Request) {
	accountID, err := identity.FromContext(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}

	borrowID, err := uuid.Parse(chi.URLParam(r, "borrowID"))
	if err != nil {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Invalid borrow ID"))
		return
	}

	var req struct {
		ReturnDate string `json:"returnDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReturnDate == "" {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Please provide return date"))
		return
	}
	returnDate, err := parseDate(req.ReturnDate)
	if err != nil {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Invalid return date"))
		return
	}

	borrow, err := h.service.SubmitReturn(r.Context(), accountID, borrowID, returnDate)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{
		"message": "Book returned successfully",
		"borrow":  borrow,
	})
}

// parseDate accepts a date-only or RFC 3339 return date.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
