package clients

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/view"
)

// Handler wires HTTP endpoints for the client registry.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	validator *validator.Validate
}

// NewHandler constructs the clients handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
}

type clientForm struct {
	Name  string `validate:"required,max=255"`
	Email string `validate:"omitempty,email"`
}

type listPageData struct {
	Clients []Client
	Form    clientForm
	Errors  map[string]string
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, clientForm{}, map[string]string{}, http.StatusOK)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := clientForm{
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
	}
	errs := map[string]string{}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Field() {
			case "Name":
				errs["name"] = "Le nom est obligatoire"
			case "Email":
				errs["email"] = "Adresse email invalide"
			}
		}
	}
	if len(errs) == 0 {
		client := Client{Name: form.Name}
		if form.Email != "" {
			client.Email = &form.Email
		}
		if _, err := h.service.Create(r.Context(), client); err != nil {
			if err == ErrNameTaken {
				errs["name"] = "Un client porte déjà ce nom"
			} else {
				h.logger.Error("create client", slog.Any("error", err))
				errs["general"] = "Enregistrement impossible"
			}
		} else {
			if sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Client ajouté."})
			}
			http.Redirect(w, r, "/clients", http.StatusSeeOther)
			return
		}
	}
	h.renderList(w, r, form, errs, http.StatusBadRequest)
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, form clientForm, errs map[string]string, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list clients", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Clients",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        listPageData{Clients: list, Form: form, Errors: errs},
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/clients/list.html", viewData); err != nil {
		h.logger.Error("render clients", slog.Any("error", err))
	}
}
