package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tourist-verify-api/internal/application/tourist"
	"github.com/tourist-verify-api/internal/application/verification"
	"github.com/tourist-verify-api/internal/config"
	"github.com/tourist-verify-api/internal/domain"
	jwtinfra "github.com/tourist-verify-api/internal/infrastructure/jwt"
	"github.com/tourist-verify-api/internal/infrastructure/sns"
	"github.com/tourist-verify-api/internal/infrastructure/whatsapp"
	"github.com/tourist-verify-api/internal/transport/http/handler"
	appmiddleware "github.com/tourist-verify-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	SessionRepo SessionRepository
	TouristRepo TouristRepository
	WhatsApp    whatsapp.Sender
	SMSSender   sns.SMSSender  // nil when SNS is unavailable
	Archive     WebhookArchive // nil disables payload archiving
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		// Without keys the admin surface stays closed rather than open.
		authMw = appmiddleware.DenyAll
	}

	// 5 requests/second, burst of 10, applied to the code-sending and
	// confirmation endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	touristSvc := tourist.NewService(deps.TouristRepo)
	verificationSvc := verification.NewService(verification.ServiceDeps{
		SessionRepo:    deps.SessionRepo,
		Tourists:       touristSvc,
		WhatsApp:       deps.WhatsApp,
		SMSSender:      deps.SMSSender,
		CodeTTL:        cfg.CodeTTL,
		MaxAttempts:    cfg.MaxConfirmAttempts,
		AllowDemoCodes: cfg.AllowDemoCodes,
	})

	healthH := handler.NewHealthHandler()
	verificationH := handler.NewVerificationHandler(verificationSvc)
	webhookH := handler.NewWebhookHandler(verificationSvc, touristSvc, deps.Archive, cfg.WebhookVerifyToken, cfg.AppEnv == "production")
	adminH := handler.NewAdminHandler(deps.SessionRepo, touristSvc, deps.Archive)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/verification/send", verificationH.Send)
		r.With(sensitiveRL.Limit).Post("/verification/confirm", verificationH.Confirm)
		r.Get("/verification/status/{id}", verificationH.Status)

		r.Get("/webhook/whatsapp", webhookH.Verify)
		r.Post("/webhook/whatsapp", webhookH.Receive)
		r.Post("/webhook/simulate", webhookH.Simulate)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin, domain.RoleOperator))

			r.Get("/admin/sessions", adminH.ListSessions)
			r.Get("/admin/tourists/{phone}", adminH.GetTourist)
			r.Get("/admin/webhooks/{date}/{id}", adminH.GetWebhookPayload)
		})
	})

	return r
}
