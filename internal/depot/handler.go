package depot

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/view"
)

// Handler renders the depot stock page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
}

// NewHandler constructs the depot handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions}
}

// MountRoutes registers depot routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock", h.handleStock)
}

type stockPageData struct {
	Rows []StockRow
}

func (h *Handler) handleStock(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	rows, err := h.service.ListStock(r.Context())
	if err != nil {
		h.logger.Error("list depot stock", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Stock du dépôt",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        stockPageData{Rows: rows},
	}
	if err := h.templates.Render(w, "pages/depot/stock.html", viewData); err != nil {
		h.logger.Error("render depot stock", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
