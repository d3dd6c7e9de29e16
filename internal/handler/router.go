package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/service"
)

// Services bundles the service layer the router dispatches to.
type Services struct {
	Events  *service.EventService
	Bidders *service.BidderService
	Seating *service.SeatingService
	Auto    *service.AutoAssigner
}

// NewRouter builds the chi router with the global middleware stack and all
// API routes.
func NewRouter(svc Services, log *zap.Logger) http.Handler {
	events := NewEventHandler(svc.Events, log)
	bidders := NewBidderHandler(svc.Bidders, log)
	seating := NewSeatingHandler(svc.Seating, svc.Auto, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Post("/", events.CreateEvent)
		r.Get("/", events.ListEvents)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", events.GetEvent)

			r.Route("/seating", func(r chi.Router) {
				r.Put("/", events.ConfigureSeating)
				r.Get("/tables", seating.Tables)
				r.Get("/tables/{table}/occupancy", seating.Occupancy)
				r.Get("/unassigned", seating.Unassigned)
				r.Post("/auto-assign", seating.AutoAssign)
			})

			r.Route("/registrations", func(r chi.Router) {
				r.Post("/", events.CreateRegistration)
				r.Get("/", events.ListRegistrations)
				r.Post("/{regID}/guests", events.AddGuest)
			})

			r.Route("/guests", func(r chi.Router) {
				r.Get("/", events.ListGuests)
				r.Delete("/{guestID}", events.CancelGuest)
				r.Put("/{guestID}/table", seating.AssignTable)
				r.Delete("/{guestID}/table", seating.RemoveTable)
				r.Post("/{guestID}/bidder-number", bidders.Assign)
				r.Put("/{guestID}/bidder-number", bidders.Reassign)
				r.Delete("/{guestID}/bidder-number", bidders.Release)
			})

			r.Route("/bidder-numbers", func(r chi.Router) {
				r.Get("/available", bidders.Available)
				r.Get("/count", bidders.Count)
				r.Get("/{number}/check", bidders.Check)
			})
		})
	})

	return r
}
