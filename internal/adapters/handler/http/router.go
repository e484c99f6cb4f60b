package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewHandler(roundHandler *RoundHandler, notificationHandler *NotificationHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/round", roundHandler.GetRound)
		r.Post("/submit", roundHandler.Submit)

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/subscribe", notificationHandler.Subscribe)
			r.Post("/unsubscribe", notificationHandler.Unsubscribe)
			r.Post("/send-daily", notificationHandler.SendDaily)
			r.Post("/test", notificationHandler.SendTest)
		})
	})

	return r
}
