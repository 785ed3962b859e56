package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
	authsvc "github.com/ivankudzin/eventmatch/backend/internal/services/auth"
	blocksvc "github.com/ivankudzin/eventmatch/backend/internal/services/blocks"
	convsvc "github.com/ivankudzin/eventmatch/backend/internal/services/conversations"
	discoverysvc "github.com/ivankudzin/eventmatch/backend/internal/services/discovery"
	matchsvc "github.com/ivankudzin/eventmatch/backend/internal/services/matches"
	statssvc "github.com/ivankudzin/eventmatch/backend/internal/services/stats"
	swipesvc "github.com/ivankudzin/eventmatch/backend/internal/services/swipes"
	"github.com/ivankudzin/eventmatch/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	DiscoveryService    *discoverysvc.Service
	SwipeService        *swipesvc.Service
	MatchService        *matchsvc.Service
	ConversationService *convsvc.Service
	BlockService        *blocksvc.Service
	StatsService        *statssvc.Service
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	discoveryHandler := handlers.NewDiscoveryHandler(deps.DiscoveryService, deps.Logger)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService, deps.Logger)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService, deps.Logger)
	conversationsHandler := handlers.NewConversationsHandler(deps.ConversationService, deps.Logger)
	blocksHandler := handlers.NewBlocksHandler(deps.BlockService, deps.Logger)
	statsHandler := handlers.NewStatsHandler(deps.StatsService, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	organizerRoleMW := RequireRole(string(enums.RoleOrganizer), string(enums.RoleAdmin))

	r.Get("/healthz", healthHandler.Handle)

	r.Group(func(r chi.Router) {
		r.Use(authMW)

		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Get("/profiles", discoveryHandler.Handle)
			r.Post("/like", swipeHandler.Like)
			r.Post("/pass", swipeHandler.Pass)
			r.Get("/matches", matchesHandler.ListForEvent)
			r.Get("/matches/{matchID}/messages", conversationsHandler.Messages)
			r.Post("/matches/{matchID}/messages", conversationsHandler.Send)

			r.With(organizerRoleMW).Get("/stats", statsHandler.Handle)
			r.With(organizerRoleMW).Get("/blocks", blocksHandler.List)
			r.With(organizerRoleMW).Post("/blocks", blocksHandler.Block)
			r.With(organizerRoleMW).Delete("/blocks/{userID}", blocksHandler.Unblock)
		})

		r.Get("/matches", matchesHandler.ListGrouped)
		r.Get("/matches/conversations", conversationsHandler.List)
		r.Get("/matches/{matchID}/profile", matchesHandler.CounterpartProfile)

		r.Put("/messages/{messageID}/read", conversationsHandler.MarkRead)
		r.Put("/messages/{messageID}/like", conversationsHandler.ToggleLike)
	})
}
