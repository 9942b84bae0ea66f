package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/platform/httpx"
)

// Handler exposes schema diagnostics for deployments migrated from the
// old spreadsheet-era database.
type Handler struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewHandler constructs the admin handler.
func NewHandler(logger *slog.Logger, pool *pgxpool.Pool) *Handler {
	return &Handler{logger: logger, pool: pool}
}

// MountRoutes registers admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/diag", h.handleDiag)
	r.Post("/patch", h.handlePatch)
}

type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

func (h *Handler) handleDiag(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pool.Query(r.Context(), `SELECT table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`)
	if err != nil {
		h.logger.Error("schema diag", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	defer rows.Close()

	tables := map[string][]columnInfo{}
	for rows.Next() {
		var table, column, dataType, nullable string
		if err := rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			h.logger.Error("schema diag scan", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		tables[table] = append(tables[table], columnInfo{Name: column, Type: dataType, Nullable: nullable == "YES"})
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("schema diag rows", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// handlePatch brings a legacy schema up to date. Older databases lack
// the deposit_eur column on variants; adding it is idempotent.
func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	result, err := EnsureSchema(r.Context(), h.pool)
	if err != nil {
		h.logger.Error("schema patch", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"patched": result})
}

// PatchResult reports what EnsureSchema changed.
type PatchResult struct {
	AddedDepositEUR  bool `json:"added_deposit_eur"`
	AddedAllowedSize bool `json:"added_allowed_sizes"`
}

// EnsureSchema applies the idempotent legacy-schema fixes. Also run at
// startup so a restored old dump does not take the app down.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) (PatchResult, error) {
	var result PatchResult

	missing, err := columnMissing(ctx, pool, "variants", "deposit_eur")
	if err != nil {
		return result, err
	}
	if missing {
		if _, err := pool.Exec(ctx, `ALTER TABLE variants ADD COLUMN deposit_eur NUMERIC(10,2)`); err != nil {
			return result, err
		}
		result.AddedDepositEUR = true
	}

	missing, err = columnMissing(ctx, pool, "products", "allowed_sizes_l")
	if err != nil {
		return result, err
	}
	if missing {
		if _, err := pool.Exec(ctx, `ALTER TABLE products ADD COLUMN allowed_sizes_l INT[] NOT NULL DEFAULT '{20}'`); err != nil {
			return result, err
		}
		result.AddedAllowedSize = true
	}

	return result, nil
}

func columnMissing(ctx context.Context, pool *pgxpool.Pool, table, column string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM information_schema.columns
WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2)`, table, column).Scan(&exists)
	if err != nil {
		return false, err
	}
	return !exists, nil
}
