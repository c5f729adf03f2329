package handlers

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/md-rashed-zaman/agenda/libs/auth"
	"github.com/md-rashed-zaman/agenda/libs/httpx"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
)

// Routes mounts the booking API. Slot lookups are public; everything else needs an identity.
func Routes(engine *booking.Engine, verifier *auth.Verifier, logger *slog.Logger) http.Handler {
	res := NewReservationHandler(engine, logger)
	admin := NewAdminHandler(engine, logger)

	user := func(h httprouter.Handle) httprouter.Handle {
		return wrap(h, func(next http.Handler) http.Handler { return authenticate(verifier, requireUser(next)) })
	}
	// Without a verifier anonymous callers may still book by sending client_id.
	booker := func(h httprouter.Handle) httprouter.Handle {
		return wrap(h, func(next http.Handler) http.Handler { return authenticate(verifier, next) })
	}
	company := func(h httprouter.Handle) httprouter.Handle {
		return wrap(h, func(next http.Handler) http.Handler { return authenticate(verifier, requireCompany(verifier, next)) })
	}

	router := httprouter.New()
	router.GET("/api/v1/public/slots", res.Slots)
	router.POST("/api/v1/public/reservations", booker(res.Create))
	router.GET("/api/v1/public/companies/:id", admin.Profile)
	router.GET("/api/v1/me/reservations", user(res.ListMine))
	router.GET("/api/v1/me/reservations/:id", user(res.GetMine))

	router.GET("/api/v1/business/reservations", company(res.ListCompany))
	router.GET("/api/v1/business/reservations/:id", company(res.GetCompany))
	router.PATCH("/api/v1/business/reservations/:id/status", company(res.UpdateStatus))
	router.GET("/api/v1/business/schedule", company(admin.GetSchedule))
	router.PUT("/api/v1/business/schedule", company(admin.PutSchedule))
	router.GET("/api/v1/business/services", company(admin.ListServices))
	router.POST("/api/v1/business/services", company(admin.CreateService))
	router.PATCH("/api/v1/business/services/:id", company(admin.UpdateService))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "route not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	router.HandleOPTIONS = false
	return router
}

// wrap applies net/http middleware to an httprouter handle, keeping the route params.
func wrap(h httprouter.Handle, mw httpx.Middleware) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(w, r, ps)
		})).ServeHTTP(w, r)
	}
}
