package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/md-rashed-zaman/agenda/libs/httpx"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
)

// AdminHandler serves the company's own schedule and service catalogue.
type AdminHandler struct {
	engine   *booking.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAdminHandler(engine *booking.Engine, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{engine: engine, validate: newValidator(), logger: logger}
}

type scheduleResponse struct {
	CompanyID string                      `json:"company_id"`
	Schedule  availability.WeeklySchedule `json:"schedule"`
	Step      int                         `json:"slot_step_minutes"`
}

type createServiceRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gte=1,lte=1440"`
	Price           string `json:"price" validate:"required,price"`
}

type updateServiceRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=200"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gte=1,lte=1440"`
	Price           *string `json:"price" validate:"omitempty,price"`
	Active          *bool   `json:"active"`
}

func (h *AdminHandler) GetSchedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	companyID := r.Header.Get(HeaderCompanyID)
	schedule, err := h.engine.GetSchedule(r.Context(), companyID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scheduleResponse{CompanyID: companyID, Schedule: schedule, Step: h.engine.Step()})
}

// Profile is the public company page: hours and bookable services.
func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	company, err := h.engine.CompanyProfile(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, company)
}

// PutSchedule accepts either {"schedule": {...}} or the bare weekday map. A null or missing schedule
// is rejected; {"schedule": {}} closes every day.
func (h *AdminHandler) PutSchedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "invalid json body")
		return
	}
	body, err := json.Marshal(fields)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if inner, ok := fields["schedule"]; ok {
		body = inner
	}
	if len(fields) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		httpx.WriteFieldErrors(w, map[string]string{"schedule": "is required"})
		return
	}

	var schedule availability.WeeklySchedule
	if err := json.Unmarshal(body, &schedule); err != nil {
		if errors.Is(err, availability.ErrMalformedSchedule) {
			httpx.WriteFieldErrors(w, map[string]string{"schedule": err.Error()})
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "schedule must map weekday names to \"HH:MM-HH:MM\" or \"closed\"")
		return
	}

	companyID := r.Header.Get(HeaderCompanyID)
	if err := h.engine.PutSchedule(r.Context(), companyID, schedule); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scheduleResponse{CompanyID: companyID, Schedule: schedule, Step: h.engine.Step()})
}

func (h *AdminHandler) ListServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.engine.ListServices(r.Context(), r.Header.Get(HeaderCompanyID))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) CreateService(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteFieldErrors(w, fieldErrors(err))
		return
	}

	svc, err := h.engine.CreateService(r.Context(), booking.NewService{
		CompanyID:       r.Header.Get(HeaderCompanyID),
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, svc)
}

func (h *AdminHandler) UpdateService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req updateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteFieldErrors(w, fieldErrors(err))
		return
	}

	svc, err := h.engine.UpdateService(r.Context(), r.Header.Get(HeaderCompanyID), ps.ByName("id"), model.ServicePatch{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Active:          req.Active,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, svc)
}
