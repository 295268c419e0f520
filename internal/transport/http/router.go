// Package httptransport is the thin HTTP layer. Handlers decode, validate and
// delegate to domain services; business rules never live here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relief/internal/application"
	"relief/internal/draft"
	"relief/internal/fund"
	"relief/internal/identity"
	"relief/internal/profile"
	"relief/internal/session"
	"relief/internal/submission"
	"relief/internal/verification"
	adminmw "relief/pkg/platform/middleware/admin"
	authmw "relief/pkg/platform/middleware/auth"
	"relief/pkg/platform/middleware/metadata"
	requestmw "relief/pkg/platform/middleware/request"
	"relief/pkg/platform/middleware/requesttime"
)

// Services groups everything the HTTP layer delegates to.
type Services struct {
	Verification *verification.Service
	Identities   *identity.Service
	Hydrator     *session.Hydrator
	Submissions  *submission.Service
	Applications application.Store
	Profiles     profile.Store
	Drafts       *draft.Cache
	Catalog      *fund.Catalog
}

// Handler carries the delegation targets shared by all endpoints.
type Handler struct {
	svc    Services
	logger *slog.Logger
}

func NewHandler(svc Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// NewRouter wires middleware and all routes. Everything under /v1 except the
// fund catalog requires a bearer token; proxy submission additionally
// requires the admin claim.
func NewRouter(h *Handler, validator authmw.Validator, healthcheck http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestmw.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", healthcheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/funds", h.handleListFunds)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(validator, h.logger))

			r.Get("/session", h.handleSession)
			r.Post("/navigate", h.handleNavigate)

			r.Put("/profile", h.handleSaveProfile)

			r.Post("/verification/{fundCode}/domain", h.handleVerifyDomain)
			r.Post("/verification/{fundCode}/roster", h.handleVerifyRoster)
			r.Post("/verification/{fundCode}/sso", h.handleVerifySSO)

			r.Get("/identities", h.handleListIdentities)
			r.Post("/identities/{identityID}/activate", h.handleActivateIdentity)
			r.Delete("/identities/{identityID}", h.handleRemoveIdentity)

			r.Get("/applications", h.handleListApplications)
			r.Post("/applications", h.handleSubmit)

			r.Get("/funds/{fundCode}/draft", h.handleGetDraft)
			r.Patch("/funds/{fundCode}/draft", h.handlePatchDraft)
			r.Delete("/funds/{fundCode}/draft", h.handleResetDraft)

			r.Group(func(r chi.Router) {
				r.Use(adminmw.RequireAdmin(h.logger))
				r.Post("/admin/applications", h.handleSubmitProxy)
				r.Get("/admin/applications", h.handleListProxyApplications)
			})
		})
	})
	return r
}
