package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/md-rashed-zaman/agenda/libs/httpx"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
)

// IdempotencyHeader lets a client retry a reservation request without booking twice.
const IdempotencyHeader = httpx.IdempotencyKeyHeader

type ReservationHandler struct {
	engine   *booking.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

func NewReservationHandler(engine *booking.Engine, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{engine: engine, validate: newValidator(), logger: logger}
}

type slotsQuery struct {
	CompanyID string `json:"company_id" validate:"required,max=128"`
	ServiceID string `json:"service_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,date"`
}

type createReservationRequest struct {
	ClientID  string `json:"client_id" validate:"required,max=128"`
	CompanyID string `json:"company_id" validate:"required,max=128"`
	ServiceID string `json:"service_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"start_time" validate:"required,clock"`
	Notes     string `json:"notes" validate:"max=1000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,status"`
}

type companyListQuery struct {
	Date   string `json:"date" validate:"omitempty,date"`
	Status string `json:"status" validate:"omitempty,status"`
	Limit  int    `json:"limit" validate:"gte=0,lte=500"`
}

func (h *ReservationHandler) Slots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	req := slotsQuery{
		CompanyID: strings.TrimSpace(q.Get("company_id")),
		ServiceID: strings.TrimSpace(q.Get("service_id")),
		Date:      strings.TrimSpace(q.Get("date")),
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteFieldErrors(w, fieldErrors(err))
		return
	}

	slots, err := h.engine.GetAvailableSlots(r.Context(), req.CompanyID, req.ServiceID, req.Date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slots)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "invalid json body")
		return
	}
	// An authenticated caller always books for themselves.
	if id := r.Header.Get(HeaderUserID); id != "" {
		req.ClientID = id
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteFieldErrors(w, fieldErrors(err))
		return
	}

	res, err := h.engine.CreateReservation(r.Context(), booking.NewReservation{
		ClientID:       req.ClientID,
		CompanyID:      req.CompanyID,
		ServiceID:      req.ServiceID,
		Date:           req.Date,
		StartTime:      req.StartTime,
		Notes:          strings.TrimSpace(req.Notes),
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyHeader)),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.engine.ListClientReservations(r.Context(), r.Header.Get(HeaderUserID))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *ReservationHandler) GetMine(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.engine.GetClientReservation(r.Context(), r.Header.Get(HeaderUserID), ps.ByName("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) GetCompany(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.engine.GetCompanyReservation(r.Context(), r.Header.Get(HeaderCompanyID), ps.ByName("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) ListCompany(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	req := companyListQuery{
		Date:   strings.TrimSpace(q.Get("date")),
		Status: strings.TrimSpace(q.Get("status")),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteFieldErrors(w, map[string]string{"limit": "must be an integer"})
			return
		}
		req.Limit = n
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteFieldErrors(w, fieldErrors(err))
		return
	}

	list, err := h.engine.ListCompanyReservations(r.Context(), r.Header.Get(HeaderCompanyID), model.ReservationFilter{
		Date:   req.Date,
		Status: model.Status(req.Status),
		Limit:  req.Limit,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteFieldErrors(w, fieldErrors(err))
		return
	}

	res, err := h.engine.UpdateReservationStatus(r.Context(), r.Header.Get(HeaderCompanyID), ps.ByName("id"), model.Status(req.Status))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
