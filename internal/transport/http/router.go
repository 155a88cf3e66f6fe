package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bankprep-service/internal/auth"
)

// NewRouter assembles the full route tree. Admin routes sit behind the role
// check; everything under /api except auth requires a valid token.
func NewRouter(h *Handler, ws *WSHandler, tokens *auth.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens))

			r.Get("/me", h.profile)

			r.Get("/subjects", h.listSubjects)
			r.Get("/subjects/{subjectID}/chapters", h.listChapters)

			r.Get("/quizzes", h.listQuizzes)
			r.Get("/quizzes/{quizID}", h.getQuiz)
			r.Post("/quizzes/{quizID}/submit", h.submit)
			r.Get("/quizzes/{quizID}/leaderboard", h.leaderboard)

			r.Get("/results", h.listMyResults)
			r.Get("/results/{resultID}", h.getResult)

			r.Get("/ws/leaderboard", ws.ServeWS)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Post("/subjects", h.createSubject)
				r.Put("/subjects/{subjectID}", h.updateSubject)
				r.Delete("/subjects/{subjectID}", h.deleteSubject)
				r.Post("/subjects/{subjectID}/chapters", h.createChapter)
				r.Delete("/chapters/{chapterID}", h.deleteChapter)

				r.Post("/quizzes", h.createQuiz)
				r.Get("/quizzes/{quizID}", h.getQuizAdmin)
				r.Put("/quizzes/{quizID}", h.updateQuiz)
				r.Delete("/quizzes/{quizID}", h.deleteQuiz)

				r.Delete("/results/{resultID}", h.deleteResult)
				r.Get("/analytics", h.analyticsOverview)
			})
		})
	})

	return r
}
