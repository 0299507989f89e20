package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dcervantes/equiplend-backend/api/controllers"
	"github.com/dcervantes/equiplend-backend/api/middleware"
	"github.com/dcervantes/equiplend-backend/internal/auth"
	equipmentsvc "github.com/dcervantes/equiplend-backend/internal/equipment"
	requestsvc "github.com/dcervantes/equiplend-backend/internal/requests"
	"github.com/dcervantes/equiplend-backend/pkg/auth/session"
	"github.com/dcervantes/equiplend-backend/pkg/config"
	"github.com/dcervantes/equiplend-backend/pkg/db"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/dcervantes/equiplend-backend/pkg/logger"
	"github.com/dcervantes/equiplend-backend/pkg/redis"
)

// limiterStore avoids handing the middleware a typed-nil client.
func limiterStore(c *redis.Client) middleware.RateLimiterStore {
	if c == nil {
		return nil
	}
	return c
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	equipmentService equipmentsvc.Service,
	requestService requestsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, limiterStore(redisClient), logg)).Post("/register", controllers.AuthRegister(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore(redisClient), logg)).Post("/login", controllers.AuthLogin(authService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
			r.Post("/logout", controllers.AuthLogout(authService, logg))
			r.Get("/me", controllers.AuthProfile(authService, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		r.Route("/equipment", func(r chi.Router) {
			r.Get("/", controllers.ListEquipment(equipmentService, logg))
			r.Get("/{equipmentID}", controllers.GetEquipment(equipmentService, logg))
			r.Get("/{equipmentID}/availability", controllers.GetEquipmentAvailability(equipmentService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))
				r.Post("/", controllers.CreateEquipment(equipmentService, logg))
				r.Put("/{equipmentID}", controllers.UpdateEquipment(equipmentService, logg))
				r.Delete("/{equipmentID}", controllers.DeleteEquipment(equipmentService, logg))
			})
		})

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", controllers.ListRequests(requestService, logg))
			r.Post("/", controllers.CreateRequest(requestService, logg))
			r.With(middleware.RequirePrivileged(logg)).Get("/pending", controllers.ListPendingRequests(requestService, logg))
			r.Get("/{requestID}", controllers.GetRequest(requestService, logg))
			r.Put("/{requestID}", controllers.TransitionRequest(requestService, logg))
			r.With(middleware.RequirePrivileged(logg)).Put("/{requestID}/approve", controllers.ApproveRequest(requestService, logg))
			// the requester may return their own loan, so no role gate here;
			// the service checks ownership
			r.Put("/{requestID}/return", controllers.ReturnRequest(requestService, logg))
		})
	})

	return r
}
