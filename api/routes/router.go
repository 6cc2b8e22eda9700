package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadline/threadline-backend/api/controllers"
	"github.com/threadline/threadline-backend/api/middleware"
	"github.com/threadline/threadline-backend/internal/items"
	"github.com/threadline/threadline-backend/internal/notifications"
	"github.com/threadline/threadline-backend/internal/roster"
	"github.com/threadline/threadline-backend/internal/tokens"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/logger"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         controllers.Pinger
	PubSub        controllers.Pinger
	Registry      *prometheus.Registry
	Roster        roster.Service
	Items         items.Service
	Tokens        tokens.Service
	Notifications notifications.Service
}

func NewRouter(deps Dependencies) http.Handler {
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Actor(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.Live())
		r.Get("/ready", controllers.Ready(logg, map[string]controllers.Pinger{
			"db":     deps.DB,
			"redis":  deps.Redis,
			"pubsub": deps.PubSub,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/push", func(r chi.Router) {
			r.Post("/register-token", controllers.RegisterToken(deps.Tokens, logg))
			r.Post("/send", controllers.SendPush(deps.Notifications, deps.Tokens, logg))
			r.With(middleware.RequireAdmin(logg)).Delete("/tokens", controllers.RevokeTokens(deps.Tokens, logg))
		})

		r.Route("/roster", func(r chi.Router) {
			r.Get("/", controllers.ListRoster(deps.Roster, logg))
			r.Get("/{role}", controllers.ListRoleWorkers(deps.Roster, logg))
			r.With(middleware.RequireAdmin(logg)).Group(func(r chi.Router) {
				r.Post("/{role}/workers", controllers.AddRoleWorker(deps.Roster, logg))
				r.Delete("/{role}/workers", controllers.RemoveRoleWorker(deps.Roster, logg))
				r.Post("/{role}/default", controllers.SetDefaultRoleWorker(deps.Roster, logg))
			})
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ListItems(deps.Items, logg))
			r.Post("/", controllers.CreateItem(deps.Items, logg))
			r.Get("/{itemID}", controllers.GetItem(deps.Items, logg))
			r.Post("/{itemID}/complete", controllers.CompleteItemTask(deps.Items, logg))
			r.With(middleware.RequireAdmin(logg)).Group(func(r chi.Router) {
				r.Post("/{itemID}/assign", controllers.AssignItem(deps.Items, logg))
				r.Delete("/{itemID}", controllers.DeleteItem(deps.Items, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	return r
}
