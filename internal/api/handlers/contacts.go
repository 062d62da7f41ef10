package handlers

import (
	"errors"
	"net/http"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/api/middleware"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactSnapshotRequest mirrors the record shape of device contact pickers:
// every field is a list.
type ContactSnapshotRequest struct {
	Name     []string     `json:"name" validate:"required,min=1,dive,required,max=255"`
	Tel      []string     `json:"tel"`
	Email    []string     `json:"email"`
	Address  []string     `json:"address"`
	Birthday *domain.Date `json:"birthday,omitempty"`
}

func (s ContactSnapshotRequest) toDomain() domain.ContactSnapshot {
	return domain.ContactSnapshot{
		Names:     s.Name,
		Phones:    s.Tel,
		Emails:    s.Email,
		Addresses: s.Address,
		Birthday:  s.Birthday.TimePtr(),
	}
}

type ContactBatchRequest struct {
	Contacts []ContactSnapshotRequest `json:"contacts" validate:"max=5000,dive"`
}

func (b ContactBatchRequest) snapshots() []domain.ContactSnapshot {
	out := make([]domain.ContactSnapshot, len(b.Contacts))
	for i, c := range b.Contacts {
		out[i] = c.toDomain()
	}
	return out
}

type ContactRequest struct {
	Name     string       `json:"name" validate:"required,max=255"`
	PhotoURL string       `json:"photoUrl" validate:"omitempty,url"`
	Birthday *domain.Date `json:"birthday,omitempty"`
	Phones   []string     `json:"phones" validate:"max=50,dive,required,max=32"`
	Emails   []string     `json:"emails" validate:"max=50,dive,email"`
	Address  string       `json:"address" validate:"max=1000"`
}

func (c ContactRequest) toInput() service.ContactInput {
	return service.ContactInput{
		Name:     c.Name,
		PhotoURL: c.PhotoURL,
		Birthday: c.Birthday,
		Phones:   c.Phones,
		Emails:   c.Emails,
		Address:  c.Address,
	}
}

// Sync reconciles the posted address book against stored contacts.
func (h *ContactHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ContactBatchRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contacts, err := h.contactService.Sync(r.Context(), userID, req.snapshots())
	if err != nil {
		if errors.Is(err, service.ErrContactNameRequired) {
			http.Error(w, "Contact name is required", http.StatusBadRequest)
			return
		}
		internalError(w, r, err, "Contact sync failed")
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) TelegramContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	contacts, err := h.contactService.ImportFromPlatform(r.Context(), userID, claims.TelegramID)
	if err != nil {
		if errors.Is(err, service.ErrPlatformUnavailable) {
			http.Error(w, "Telegram contacts are unavailable", http.StatusServiceUnavailable)
			return
		}
		internalError(w, r, err, "Failed to import Telegram contacts")
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	contacts, err := h.contactService.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		internalError(w, r, err, "Contact search failed")
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) ImportBirthdays(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ContactBatchRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reminders, err := h.contactService.ImportBirthdays(r.Context(), userID, req.snapshots())
	if err != nil {
		internalError(w, r, err, "Birthday import failed")
		return
	}
	if reminders == nil {
		reminders = []*domain.Reminder{}
	}

	respondJSON(w, http.StatusCreated, reminders)
}

func (h *ContactHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ContactBatchRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contacts, err := h.contactService.Import(r.Context(), userID, req.snapshots())
	if err != nil {
		if errors.Is(err, service.ErrContactNameRequired) {
			http.Error(w, "Contact name is required", http.StatusBadRequest)
			return
		}
		internalError(w, r, err, "Contact import failed")
		return
	}

	respondJSON(w, http.StatusCreated, contacts)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	contacts, err := h.contactService.List(r.Context(), userID)
	if err != nil {
		internalError(w, r, err, "Failed to list contacts")
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ContactRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contact, err := h.contactService.Create(r.Context(), userID, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrContactNameRequired) {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		internalError(w, r, err, "Failed to create contact")
		return
	}

	respondJSON(w, http.StatusCreated, contact)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid contact ID", http.StatusBadRequest)
		return
	}

	contact, err := h.contactService.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			http.Error(w, "Contact not found", http.StatusNotFound)
			return
		}
		internalError(w, r, err, "Failed to load contact")
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid contact ID", http.StatusBadRequest)
		return
	}

	var req ContactRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contact, err := h.contactService.Update(r.Context(), userID, id, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContactNotFound):
			http.Error(w, "Contact not found", http.StatusNotFound)
		case errors.Is(err, service.ErrContactNameRequired):
			http.Error(w, "name is required", http.StatusBadRequest)
		default:
			internalError(w, r, err, "Failed to update contact")
		}
		return
	}

	respondJSON(w, http.StatusOK, contact)
}
