package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/admin"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/catalog"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/clients"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/depot"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/ledger"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/observability"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/jobs"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	LedgerHandler  *ledger.Handler
	ClientsHandler *clients.Handler
	CatalogHandler *catalog.Handler
	DepotHandler   *depot.Handler
	AdminHandler   *admin.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router for the keg tracker.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.LedgerHandler.MountOverview(r)
	r.Route("/client", params.LedgerHandler.MountClientDetail)
	r.Route("/movement", params.LedgerHandler.MountMovementForm)
	r.Route("/clients", params.ClientsHandler.MountRoutes)
	r.Route("/catalog", params.CatalogHandler.MountRoutes)
	r.Route("/depot", params.DepotHandler.MountRoutes)
	if params.AdminHandler != nil {
		r.Route("/admin", params.AdminHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files need no session or CSRF handling.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
