package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	"github.com/frahmantamala/contacthub/internal/auth"
	"github.com/frahmantamala/contacthub/internal/branding"
	"github.com/frahmantamala/contacthub/internal/category"
	"github.com/frahmantamala/contacthub/internal/contact"
	"github.com/frahmantamala/contacthub/internal/customfield"
	"github.com/frahmantamala/contacthub/internal/division"
	"github.com/frahmantamala/contacthub/internal/report"
	"github.com/frahmantamala/contacthub/internal/transport/middleware"
	"github.com/frahmantamala/contacthub/internal/transport/swagger"
	"github.com/frahmantamala/contacthub/internal/upload"
	"github.com/frahmantamala/contacthub/internal/user"
)

type Handlers struct {
	Health      *HealthHandler
	Auth        *auth.Handler
	User        *user.Handler
	Division    *division.Handler
	Category    *category.Handler
	CustomField *customfield.Handler
	Upload      *upload.Handler
	Contact     *contact.Handler
	Report      *report.Handler
	Branding    *branding.Handler
	Audit       *audit.Handler
}

type Options struct {
	Config   *internal.Config
	RBAC     *auth.RBACAuthorization
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) error {
	cfg := opts.Config
	rbac := opts.RBAC
	trustProxy := cfg.Server.TrustProxy

	loginLimit, err := middleware.RateLimit(cfg.Security.LoginRate, trustProxy, opts.Logger)
	if err != nil {
		return err
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.CORS(cfg.Server.Origins()))
	router.Use(middleware.RequestInfo(trustProxy))
	if cfg.Observability.Metrics.Enabled && opts.Registry != nil {
		router.Use(middleware.NewHTTPMetrics(opts.Registry).Handler)
		router.Handle(cfg.Observability.Metrics.Path, promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.Health.WriteError(w, internal.NewNotFoundError("Route not found", internal.ErrCodeInvalidRequest))
	})

	router.Get("/health", h.Health.Health)
	router.Get("/ping", h.Health.Ping)
	router.Get(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoggingMiddleware)
		r.Use(chiMiddleware.NoCache)

		r.With(loginLimit).Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)

		// Public, personalised when a session is present.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.OptionalAuthenticate)
			pr.Get("/branding", h.Branding.GetBranding)
			pr.Get("/branding/effective", h.Branding.GetEffectiveBranding)
			pr.Get("/branding/theme.css", h.Branding.ThemeCSS)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.Authenticate)

			pr.Get("/auth/user", h.Auth.CurrentUser)
			pr.Post("/auth/division", h.Auth.SelectDivision)

			pr.With(rbac.Require(auth.CapEditBranding)).Put("/branding", h.Branding.UpdateBranding)

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(rbac.Require(auth.CapManageUsers))
				ur.Get("/", h.User.ListUsers)
				ur.Post("/", h.User.CreateUser)
				ur.Get("/{id}", h.User.GetUser)
				ur.Patch("/{id}", h.User.UpdateUser)
				ur.Delete("/{id}", h.User.DeactivateUser)
				ur.Post("/{id}/reset-password", h.User.ResetPassword)
				ur.Get("/{id}/divisions", h.User.ListUserDivisions)
				ur.Post("/{id}/divisions", h.User.AssignUserDivisions)
			})

			pr.Route("/divisions", func(dr chi.Router) {
				dr.Get("/", h.Division.ListDivisions)
				dr.Get("/{id}", h.Division.GetDivision)
				dr.With(rbac.Require(auth.CapManageDivisions)).Post("/", h.Division.CreateDivision)
				dr.With(rbac.Require(auth.CapManageDivisions)).Patch("/{id}", h.Division.UpdateDivision)
			})

			pr.Route("/contact-categories", func(cr chi.Router) {
				cr.Get("/", h.Category.GetCategories)
				cr.With(rbac.Require(auth.CapManageCategories)).Post("/", h.Category.CreateCategory)
				cr.With(rbac.Require(auth.CapManageCategories)).Patch("/{id}", h.Category.UpdateCategory)
			})

			pr.Route("/custom-fields", func(fr chi.Router) {
				fr.Get("/", h.CustomField.ListCustomFields)
				fr.Group(func(ar chi.Router) {
					ar.Use(rbac.Require(auth.CapManageCustomFields))
					ar.Post("/", h.CustomField.CreateCustomField)
					ar.Patch("/{id}", h.CustomField.UpdateCustomField)
					ar.Delete("/{id}", h.CustomField.DeleteCustomField)
				})
			})

			pr.Route("/uploads", func(ur chi.Router) {
				ur.Get("/", h.Upload.ListUploads)
				ur.Get("/{id}", h.Upload.GetUpload)
				ur.Get("/{id}/columns", h.Upload.GetUploadColumns)
				ur.Group(func(wr chi.Router) {
					wr.Use(rbac.Require(auth.CapUploadFiles))
					wr.Post("/", h.Upload.CreateUpload)
					wr.Patch("/{id}", h.Upload.ProcessUpload)
					wr.Delete("/{id}", h.Upload.DeleteUpload)
				})
			})

			pr.Route("/contacts", func(cr chi.Router) {
				cr.Get("/", h.Contact.ListContacts)
				cr.Get("/stats", h.Report.GetContactStats)
				cr.Get("/export", h.Contact.ExportContacts)
				cr.Get("/{id}", h.Contact.GetContact)
				cr.Group(func(wr chi.Router) {
					wr.Use(rbac.Require(auth.CapEditContacts))
					wr.Post("/", h.Contact.CreateContact)
					wr.Post("/bulk-delete", h.Contact.BulkDeleteContacts)
					wr.Patch("/{id}", h.Contact.UpdateContact)
					wr.Delete("/{id}", h.Contact.DeleteContact)
				})
			})

			pr.With(rbac.Require(auth.CapViewCompanyStats)).Get("/company-stats", h.Report.GetCompanyStats)
			pr.With(rbac.Require(auth.CapViewAuditLog)).Get("/audit-logs", h.Audit.ListAuditLogs)
		})
	})

	return nil
}
