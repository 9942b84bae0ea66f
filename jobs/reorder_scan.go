package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/depot"
)

// StockLister is the slice of the depot module the scan needs.
type StockLister interface {
	ListBelowMin(ctx context.Context) ([]depot.StockRow, error)
}

// Mailer enqueues the alert mail produced by a scan.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// ReorderScanJob flags depot stock sitting under its reorder threshold
// and mails the order list to the manager.
type ReorderScanJob struct {
	Stock   StockLister
	Mail    Mailer
	Logger  *slog.Logger
	AlertTo string
}

// NewReorderScanJob initialises the reorder scan handler.
func NewReorderScanJob(stock StockLister, mail Mailer, logger *slog.Logger, alertTo string) *ReorderScanJob {
	return &ReorderScanJob{Stock: stock, Mail: mail, Logger: logger, AlertTo: alertTo}
}

// Handle executes the reorder scan.
func (j *ReorderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Stock == nil {
		return errors.New("reorder scan: handler not configured")
	}

	rows, err := j.Stock.ListBelowMin(ctx)
	if err != nil {
		j.Logger.Error("reorder scan failed", slog.Any("error", err))
		return err
	}
	if len(rows) == 0 {
		j.Logger.Info("reorder scan clean")
		return nil
	}

	var lines []string
	for _, row := range rows {
		j.Logger.Warn("stock below reorder threshold",
			slog.Int64("variant_id", row.VariantID),
			slog.String("product", row.ProductName),
			slog.Int("size_l", row.SizeL),
			slog.Int("qty", row.Qty),
			slog.Int("min_qty", row.MinQty),
		)
		lines = append(lines, fmt.Sprintf("%s %dL : %d en stock (seuil %d)", row.ProductName, row.SizeL, row.Qty, row.MinQty))
	}

	if j.Mail == nil || j.AlertTo == "" {
		return nil
	}
	_, err = j.Mail.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      j.AlertTo,
		Subject: fmt.Sprintf("Réassort fûts : %d référence(s) sous le seuil", len(rows)),
		Body:    strings.Join(lines, "\n"),
	})
	if err != nil {
		j.Logger.Error("enqueue reorder alert", slog.Any("error", err))
		return err
	}
	return nil
}
