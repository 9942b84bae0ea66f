package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/catalog"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/clients"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/view"
)

// Handler wires HTTP endpoints for the ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	directory ClientDirectory
	catalog   *catalog.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	validator *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, directory ClientDirectory, cat *catalog.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		directory: directory,
		catalog:   cat,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountOverview registers the landing page.
func (h *Handler) MountOverview(r chi.Router) {
	r.Get("/", h.handleOverview)
}

// MountClientDetail registers the per-client stock page.
func (h *Handler) MountClientDetail(r chi.Router) {
	r.Get("/{id}", h.handleClientDetail)
}

// MountMovementForm registers the movement form routes.
func (h *Handler) MountMovementForm(r chi.Router) {
	r.Get("/new", h.showMovementForm)
	r.Post("/new", h.handleMovement)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	overview, err := h.service.GetOverview(r.Context())
	if err != nil {
		h.logger.Error("build overview", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Suivi des fûts",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        overview,
	}
	if err := h.templates.Render(w, "pages/home.html", viewData); err != nil {
		h.logger.Error("render overview", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type clientDetailData struct {
	Summary   ClientSummary
	Movements []MovementDetail
}

func (h *Handler) handleClientDetail(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderNotFound(w, r)
		return
	}

	summary, err := h.service.Summary(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.logger.Error("client summary", slog.Int64("client_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	history, err := h.service.History(r.Context(), id)
	if err != nil {
		h.logger.Error("client history", slog.Int64("client_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       summary.ClientName,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        clientDetailData{Summary: summary, Movements: history},
	}
	if err := h.templates.Render(w, "pages/clients/detail.html", viewData); err != nil {
		h.logger.Error("render client detail", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type movementForm struct {
	ClientID      int64  `validate:"required,gt=0"`
	VariantID     int64  `validate:"required,gt=0"`
	Type          string `validate:"required,oneof=OUT IN DEFECT FULL"`
	Qty           int    `validate:"required,gt=0"`
	UnitPriceTTC  string `validate:"omitempty"`
	DepositPerKeg string `validate:"omitempty"`
	Notes         string `validate:"max=2000"`
	Code          string `validate:"omitempty,uuid4"`
}

type movementPageData struct {
	Form     movementForm
	Errors   map[string]string
	Clients  []clients.Client
	Variants []catalog.VariantWithProduct
}

func (h *Handler) showMovementForm(w http.ResponseWriter, r *http.Request) {
	form := movementForm{Type: string(MovementOut), Qty: 1, Code: uuid.NewString()}
	h.renderMovementForm(w, r, form, map[string]string{}, http.StatusOK)
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form, errs := h.parseMovementForm(r)
	if len(errs) == 0 {
		input := RecordInput{
			ClientID:  form.ClientID,
			VariantID: form.VariantID,
			Type:      MovementType(form.Type),
			Qty:       form.Qty,
			Notes:     strings.TrimSpace(form.Notes),
			Code:      form.Code,
		}
		var convErr error
		input.UnitPriceTTC, convErr = parseOptionalDecimal(form.UnitPriceTTC)
		if convErr != nil {
			errs["unit_price_ttc"] = "Prix invalide"
		}
		input.DepositPerKeg, convErr = parseOptionalDecimal(form.DepositPerKeg)
		if convErr != nil {
			errs["deposit_per_keg"] = "Consigne invalide"
		}
		if len(errs) == 0 {
			if _, err := h.service.Record(r.Context(), input); err != nil {
				h.assignRecordError(err, errs)
				if errs["general"] != "" {
					h.logger.Error("record movement", slog.Any("error", err))
				}
			} else {
				if sess != nil {
					sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Mouvement enregistré."})
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
		}
	}
	// A fresh nonce, the old one may already be burned.
	form.Code = uuid.NewString()
	h.renderMovementForm(w, r, form, errs, http.StatusBadRequest)
}

func (h *Handler) assignRecordError(err error, errs map[string]string) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		errs["qty"] = "Reprise supérieure aux fûts en possession du client"
	case errors.Is(err, ErrInvalidQuantity):
		errs["qty"] = "La quantité doit être positive"
	case errors.Is(err, ErrInvalidMovementType):
		errs["type"] = "Type de mouvement invalide"
	case errors.Is(err, shared.ErrNotFound):
		errs["client_id"] = "Client ou variante inconnu"
	case errors.Is(err, shared.ErrIdempotencyConflict):
		errs["general"] = "Ce mouvement a déjà été enregistré"
	default:
		errs["general"] = "Enregistrement impossible"
	}
}

func (h *Handler) parseMovementForm(r *http.Request) (movementForm, map[string]string) {
	errs := make(map[string]string)
	form := movementForm{
		Type:          r.PostFormValue("type"),
		UnitPriceTTC:  strings.TrimSpace(r.PostFormValue("unit_price_ttc")),
		DepositPerKeg: strings.TrimSpace(r.PostFormValue("deposit_per_keg")),
		Notes:         r.PostFormValue("notes"),
		Code:          r.PostFormValue("code"),
	}
	if id, err := strconv.ParseInt(r.PostFormValue("client_id"), 10, 64); err == nil {
		form.ClientID = id
	} else {
		errs["client_id"] = "Client obligatoire"
	}
	if id, err := strconv.ParseInt(r.PostFormValue("variant_id"), 10, 64); err == nil {
		form.VariantID = id
	} else {
		errs["variant_id"] = "Variante obligatoire"
	}
	if qty, err := strconv.Atoi(r.PostFormValue("qty")); err == nil {
		form.Qty = qty
	} else {
		errs["qty"] = "Quantité invalide"
	}
	if len(errs) > 0 {
		return form, errs
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Field() {
			case "ClientID":
				errs["client_id"] = "Client obligatoire"
			case "VariantID":
				errs["variant_id"] = "Variante obligatoire"
			case "Type":
				errs["type"] = "Type de mouvement invalide"
			case "Qty":
				errs["qty"] = "La quantité doit être positive"
			case "Notes":
				errs["notes"] = "Notes trop longues"
			case "Code":
				errs["general"] = "Formulaire expiré, merci de réessayer"
			}
		}
	}
	return form, errs
}

func parseOptionalDecimal(value string) (decimal.NullDecimal, error) {
	if value == "" {
		return decimal.NullDecimal{}, nil
	}
	// Accept the French decimal comma.
	value = strings.ReplaceAll(value, ",", ".")
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func (h *Handler) renderMovementForm(w http.ResponseWriter, r *http.Request, form movementForm, errs map[string]string, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	clientList, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("list clients for form", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	variants, err := h.catalog.ListVariants(r.Context())
	if err != nil {
		h.logger.Error("list variants for form", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Nouveau mouvement",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: movementPageData{
			Form:     form,
			Errors:   errs,
			Clients:  clientList,
			Variants: variants,
		},
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/movements/form.html", viewData); err != nil {
		h.logger.Error("render movement form", slog.Any("error", err))
	}
}

func (h *Handler) renderNotFound(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	viewData := view.TemplateData{
		Title:       "Introuvable",
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
	}
	w.WriteHeader(http.StatusNotFound)
	if err := h.templates.Render(w, "pages/errors/404.html", viewData); err != nil {
		h.logger.Error("render 404", slog.Any("error", err))
	}
}
