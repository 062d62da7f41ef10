package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/api/middleware"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ReminderHandler struct {
	reminderService *service.ReminderService
}

func NewReminderHandler(reminderService *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

type ReminderRequest struct {
	Title            string `json:"title" validate:"required,max=255"`
	Description      string `json:"description" validate:"max=2000"`
	Type             string `json:"type" validate:"omitempty,oneof=birthday meeting holiday anniversary other"`
	Day              int    `json:"day" validate:"min=1,max=31"`
	Month            int    `json:"month" validate:"min=1,max=12"`
	Year             *int   `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	NotifyDaysBefore int    `json:"notifyDaysBefore" validate:"min=0,max=365"`
	IsRecurring      bool   `json:"isRecurring"`
	RecurrencePeriod string `json:"recurrencePeriod" validate:"omitempty,oneof=none weekly monthly yearly"`
}

func (req ReminderRequest) toInput() service.ReminderInput {
	return service.ReminderInput{
		Title:            req.Title,
		Description:      req.Description,
		Type:             domain.ReminderType(req.Type),
		Day:              req.Day,
		Month:            req.Month,
		Year:             req.Year,
		NotifyDaysBefore: req.NotifyDaysBefore,
		IsRecurring:      req.IsRecurring,
		RecurrencePeriod: domain.RecurrencePeriod(req.RecurrencePeriod),
	}
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reminders, err := h.reminderService.List(r.Context(), userID)
	if err != nil {
		internalError(w, r, err, "Failed to list reminders")
		return
	}

	respondJSON(w, http.StatusOK, reminders)
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ReminderRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reminder, err := h.reminderService.Create(r.Context(), userID, req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, reminder)
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid reminder ID", http.StatusBadRequest)
		return
	}

	reminder, err := h.reminderService.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, reminder)
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid reminder ID", http.StatusBadRequest)
		return
	}

	var req ReminderRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reminder, err := h.reminderService.Update(r.Context(), userID, id, req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, reminder)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid reminder ID", http.StatusBadRequest)
		return
	}

	if err := h.reminderService.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReminderHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrReminderNotFound):
		http.Error(w, "Reminder not found", http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidReminder):
		http.Error(w, strings.ReplaceAll(err.Error(), "\n", ": "), http.StatusBadRequest)
	default:
		internalError(w, r, err, "Reminder operation failed")
	}
}
