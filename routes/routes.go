package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dimas292/caturnawa2025-sub004/handlers"
	"github.com/dimas292/caturnawa2025-sub004/metrics"
	"github.com/dimas292/caturnawa2025-sub004/middleware"
)

type Handlers struct {
	Competition *handlers.CompetitionHandler
	Structure   *handlers.StructureHandler
	Match       *handlers.MatchHandler
	Standings   *handlers.StandingsHandler
}

func InitRoutes(h Handlers, auth *middleware.Authenticator) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Handle("/metrics", metrics.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	router.Get("/swagger/doc.json", handlers.OpenAPIHandler)

	router.Route("/competitions", func(r chi.Router) {
		// Публичные маршруты для просмотра структуры
		r.Get("/", h.Competition.ListHandler)
		r.Get("/{competitionID}", h.Competition.GetByIDHandler)
		r.Get("/{competitionID}/rounds", h.Structure.ListRoundsHandler)

		// Защищенные маршруты только для администраторов
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(middleware.RoleAdmin))

			r.Post("/", h.Competition.CreateHandler)
			r.Post("/{competitionID}/rounds", h.Structure.EnsureRoundHandler)
			r.Post("/{competitionID}/rounds/repair", h.Structure.RepairSessionsHandler)
			r.Post("/{competitionID}/rounds/cleanup", h.Structure.CleanupDuplicatesHandler)
			r.Post("/{competitionID}/standings/recompute", h.Standings.RecomputeHandler)
		})
	})

	router.Route("/rounds", func(r chi.Router) {
		r.Get("/{roundID}/rooms", h.Structure.ListRoomsHandler)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.GetRoomHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(middleware.RoleAdmin))

			r.Put("/{matchID}/teams", h.Match.AssignTeamsHandler)
			r.Put("/{matchID}/judge", h.Match.AssignJudgeHandler)
			r.Put("/{matchID}/live", h.Match.SetLiveHandler)
			r.Delete("/{matchID}", h.Structure.DeleteRoomHandler)
		})

		// Оценки может отправлять и судья комнаты, и админ
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(middleware.RoleAdmin, middleware.RoleJudge))

			r.Post("/{matchID}/scores", h.Match.SubmitScoresHandler)
		})
	})

	router.Route("/standings", func(r chi.Router) {
		r.Get("/", h.Standings.LeaderboardHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(middleware.RoleAdmin))

			r.Post("/recompute", h.Standings.RecomputeAllHandler)
		})
	})

	return router
}
