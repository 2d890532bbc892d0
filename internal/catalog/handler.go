package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"borrowdesk/internal/apperr"
	"borrowdesk/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the catalog endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/books", h.handleListBooks)
	r.Get("/books/available", h.handleListAvailable)
	r.Get("/books/{bookID}", h.handleGetBook)
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"count": len(books), "books": books})
}

func (h *Handler) handleListAvailable(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAvailableBooks(r.Context())
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"count": len(books), "books": books})
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		web.Fail(w, r, apperr.New(apperr.KindValidation, "Invalid book ID"))
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		web.Fail(w, r, err)
		return
	}
	web.OK(w, http.StatusOK, web.Envelope{"book": book})
}
