package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/depot"
)

type stubStock struct {
	rows []depot.StockRow
	err  error
}

func (s *stubStock) ListBelowMin(ctx context.Context) ([]depot.StockRow, error) {
	return s.rows, s.err
}

type stubMailer struct {
	sent []SendEmailPayload
}

func (m *stubMailer) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	m.sent = append(m.sent, payload)
	return &asynq.TaskInfo{}, nil
}

func TestReorderScanNoAlertsWhenClean(t *testing.T) {
	mail := &stubMailer{}
	job := NewReorderScanJob(&stubStock{}, mail, slog.Default(), "patron@lecentral.example")

	err := job.Handle(context.Background(), NewReorderScanTask())
	require.NoError(t, err)
	require.Empty(t, mail.sent)
}

func TestReorderScanMailsOrderList(t *testing.T) {
	stock := &stubStock{rows: []depot.StockRow{
		{VariantID: 1, ProductName: "Coreff Blonde", SizeL: 30, Qty: 2, MinQty: 5},
		{VariantID: 2, ProductName: "Coreff Blonde", SizeL: 20, Qty: 0, MinQty: 2},
	}}
	mail := &stubMailer{}
	job := NewReorderScanJob(stock, mail, slog.Default(), "patron@lecentral.example")

	err := job.Handle(context.Background(), NewReorderScanTask())
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	require.Equal(t, "patron@lecentral.example", mail.sent[0].To)
	require.Contains(t, mail.sent[0].Body, "Coreff Blonde 30L : 2 en stock (seuil 5)")
	require.Contains(t, mail.sent[0].Subject, "2")
}

func TestReorderScanPropagatesListError(t *testing.T) {
	job := NewReorderScanJob(&stubStock{err: errors.New("db down")}, nil, slog.Default(), "")

	err := job.Handle(context.Background(), NewReorderScanTask())
	require.Error(t, err)
}
