package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/agenda/libs/auth"
	"github.com/md-rashed-zaman/agenda/libs/auth/authtest"
	"github.com/md-rashed-zaman/agenda/libs/httpx"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/storage/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCompany = "company-1"
	testService = "6f1c3c1e-8a55-4b8e-9d1e-0c2f4a1b7e10"
	testMonday  = "2026-03-02"
)

type testAPI struct {
	handler http.Handler
	store   *memstore.Store
}

func newTestAPI(t *testing.T, verifier *auth.Verifier) *testAPI {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.PutWeeklySchedule(ctx, testCompany, availability.WeeklySchedule{time.Monday: "09:00-12:00"}))
	_, err := store.CreateService(ctx, model.Service{ID: testService, CompanyID: testCompany, Name: "Haircut", DurationMinutes: 60, Price: "50.00", Active: true})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := booking.NewEngine(store, booking.Options{Logger: logger})
	return &testAPI{handler: Routes(engine, verifier, logger), store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) doRaw(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.ErrorResponse {
	t.Helper()
	var out httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func reservationBody(start string) map[string]string {
	return map[string]string{
		"client_id":  "client-1",
		"company_id": testCompany,
		"service_id": testService,
		"date":       testMonday,
		"start_time": start,
	}
}

func TestSlotsEndpoint(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("10:00"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/public/slots?company_id="+testCompany+"&service_id="+testService+"&date="+testMonday, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var slots []struct {
		Start     string `json:"start"`
		End       string `json:"end"`
		Available bool   `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	require.Len(t, slots, 5)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "10:00", slots[0].End)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[2].Available)
	assert.True(t, slots[4].Available)
}

func TestSlotsEndpointValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/api/v1/public/slots?company_id="+testCompany+"&service_id=nope&date=03-02-2026", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, httpx.CodeBadRequest, body.Code)
	assert.Contains(t, body.Fields, "service_id")
	assert.Contains(t, body.Fields, "date")
}

func TestSlotsEndpointUnknownService(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/api/v1/public/slots?company_id=other&service_id="+testService+"&date="+testMonday, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReservationConflict(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("10:00"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, model.StatusPending, res.Status)
	assert.Equal(t, "11:00", res.End.String())
	assert.Equal(t, "50.00", res.Price)

	rec = api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("10:30"), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httpx.CodeSlotUnavailable, decodeError(t, rec).Code)
}

func TestCreateReservationValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	body := reservationBody("9:7")
	delete(body, "client_id")
	rec := api.do(t, http.MethodPost, "/api/v1/public/reservations", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeError(t, rec).Fields
	assert.Equal(t, "is required", fields["client_id"])
	assert.Contains(t, fields, "start_time")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/reservations", bytes.NewBufferString("{"))
	res := httptest.NewRecorder()
	api.handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCreateReservationIdempotencyHeader(t *testing.T) {
	api := newTestAPI(t, nil)
	headers := map[string]string{IdempotencyHeader: "abc-123"}

	first := api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("09:00"), headers)
	require.Equal(t, http.StatusCreated, first.Code)
	second := api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("09:00"), headers)
	require.Equal(t, http.StatusCreated, second.Code)

	var a, b model.Reservation
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.ID, b.ID)
}

func TestCreateReservationIdempotencyKeyReused(t *testing.T) {
	api := newTestAPI(t, nil)
	headers := map[string]string{IdempotencyHeader: "abc-123"}

	rec := api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("09:00"), headers)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("11:00"), headers)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, httpx.CodeIdempotencyReused, decodeError(t, rec).Code)

	rec = api.do(t, http.MethodGet, "/api/v1/me/reservations", nil, map[string]string{HeaderUserID: "client-1"})
	var list []model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestPublicCompanyProfile(t *testing.T) {
	api := newTestAPI(t, nil)
	_, err := api.store.CreateService(context.Background(), model.Service{ID: "0b7d3c52-3c1f-4f7e-8f61-6a3a1c9e2d44", CompanyID: testCompany, Name: "Retired", DurationMinutes: 30, Price: "10.00"})
	require.NoError(t, err)

	rec := api.do(t, http.MethodGet, "/api/v1/public/companies/"+testCompany, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var company model.Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &company))
	assert.Equal(t, testCompany, company.ID)
	assert.Equal(t, "09:00-12:00", company.Schedule[time.Monday])
	assert.Equal(t, availability.DefaultStep, company.StepMinutes)
	require.Len(t, company.Services, 1)
	assert.Equal(t, testService, company.Services[0].ID)

	rec = api.do(t, http.MethodGet, "/api/v1/public/companies/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReservationByID(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("09:00"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var res model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	rec = api.do(t, http.MethodGet, "/api/v1/me/reservations/"+res.ID, nil, map[string]string{HeaderUserID: "client-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, res.ID, got.ID)

	rec = api.do(t, http.MethodGet, "/api/v1/me/reservations/"+res.ID, nil, map[string]string{HeaderUserID: "client-2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/business/reservations/"+res.ID, nil, map[string]string{HeaderCompanyID: testCompany})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/business/reservations/"+res.ID, nil, map[string]string{HeaderCompanyID: "company-2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutScheduleRejectsMissingSchedule(t *testing.T) {
	api := newTestAPI(t, nil)
	company := map[string]string{HeaderCompanyID: testCompany}

	for _, body := range []string{`null`, `{"schedule":null}`, `{}`} {
		rec := api.doRaw(t, http.MethodPut, "/api/v1/business/schedule", body, company)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "is required", decodeError(t, rec).Fields["schedule"], body)
	}

	rec := api.doRaw(t, http.MethodPut, "/api/v1/business/schedule", `{"monday":"09:00-12:00","segunda":"closed"}`, company)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields["schedule"], "duplicate weekday")

	// The stored hours are untouched by the rejected requests.
	rec = api.do(t, http.MethodGet, "/api/v1/business/schedule", nil, company)
	require.Equal(t, http.StatusOK, rec.Code)
	var sched struct {
		Schedule availability.WeeklySchedule `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sched))
	assert.Equal(t, "09:00-12:00", sched.Schedule[time.Monday])

	rec = api.doRaw(t, http.MethodPut, "/api/v1/business/schedule", `{"schedule":{}}`, company)
	require.Equal(t, http.StatusOK, rec.Code, "an explicit empty schedule closes every day")
}

func TestCompanyRoutesRequireCompany(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/api/v1/business/reservations", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/me/reservations", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusTransitionsOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/api/v1/public/reservations", reservationBody("09:00"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var res model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	company := map[string]string{HeaderCompanyID: testCompany}
	path := "/api/v1/business/reservations/" + res.ID + "/status"

	rec = api.do(t, http.MethodPatch, path, map[string]string{"status": "confirmed"}, company)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPatch, path, map[string]string{"status": "pending"}, company)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httpx.CodeInvalidTransition, decodeError(t, rec).Code)

	rec = api.do(t, http.MethodPatch, path, map[string]string{"status": "archived"}, company)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPatch, path, map[string]string{"status": "completed"}, map[string]string{HeaderCompanyID: "company-2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/business/reservations?status=confirmed&date="+testMonday, nil, company)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, res.ID, list[0].ID)

	rec = api.do(t, http.MethodGet, "/api/v1/me/reservations", nil, map[string]string{HeaderUserID: "client-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestScheduleAndServiceAdmin(t *testing.T) {
	api := newTestAPI(t, nil)
	company := map[string]string{HeaderCompanyID: "company-new"}

	rec := api.do(t, http.MethodGet, "/api/v1/business/schedule", nil, company)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/business/services", map[string]any{"name": "Beard trim", "duration_minutes": 30, "price": "20.00"}, company)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var svc model.Service
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &svc))
	assert.True(t, svc.Active)

	// A first service gives the company the default hours.
	rec = api.do(t, http.MethodGet, "/api/v1/business/schedule", nil, company)
	require.Equal(t, http.StatusOK, rec.Code)
	var sched struct {
		Schedule availability.WeeklySchedule `json:"schedule"`
		Step     int                         `json:"slot_step_minutes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sched))
	assert.Equal(t, "08:00-18:00", sched.Schedule[time.Monday])
	assert.Equal(t, availability.DefaultStep, sched.Step)

	rec = api.do(t, http.MethodPut, "/api/v1/business/schedule", map[string]any{"schedule": map[string]string{"segunda": "10:00-14:00", "domingo": "fechado"}}, company)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPut, "/api/v1/business/schedule", map[string]string{"monday": "14:00-10:00"}, company)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPatch, "/api/v1/business/services/"+svc.ID, map[string]any{"active": false}, company)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/public/slots?company_id=company-new&service_id="+svc.ID+"&date="+testMonday, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "inactive services are not bookable")

	rec = api.do(t, http.MethodPost, "/api/v1/business/services", map[string]any{"name": "Bad", "duration_minutes": 0, "price": "-1"}, company)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeError(t, rec).Fields
	assert.Contains(t, fields, "duration_minutes")
	assert.Contains(t, fields, "price")
}

func TestTokenAuthentication(t *testing.T) {
	verifier := auth.NewVerifier("test-secret", nil)
	api := newTestAPI(t, verifier)

	rec := api.do(t, http.MethodGet, "/api/v1/business/reservations", nil, map[string]string{HeaderCompanyID: testCompany})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "headers alone are not trusted when tokens are verified")

	clientToken, err := authtest.SignHS256(auth.Claims{Sub: "client-9", Role: "client", Exp: time.Now().Add(time.Hour).Unix()}, "test-secret")
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + clientToken, HeaderCompanyID: testCompany}

	rec = api.do(t, http.MethodGet, "/api/v1/business/reservations", nil, bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code, "client tokens carry no company")

	body := reservationBody("09:00")
	body["client_id"] = "someone-else"
	rec = api.do(t, http.MethodPost, "/api/v1/public/reservations", body, bearer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "client-9", res.ClientID)

	ownerToken, err := authtest.SignHS256(auth.Claims{Sub: "owner-1", CompanyID: testCompany, Role: "owner", Exp: time.Now().Add(time.Hour).Unix()}, "test-secret")
	require.NoError(t, err)
	rec = api.do(t, http.MethodGet, "/api/v1/business/reservations", nil, map[string]string{"Authorization": "Bearer " + ownerToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = api.do(t, http.MethodGet, "/api/v1/public/slots?company_id="+testCompany+"&service_id="+testService+"&date="+testMonday, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "slot lookups stay public")
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/api/v1/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodDelete, "/api/v1/public/slots", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
