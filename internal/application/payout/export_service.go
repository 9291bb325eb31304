package payout

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/infrastructure/telemetry"
)

// ErrArchiveUnavailable is returned by Archive when no object storage is configured
var ErrArchiveUnavailable = errors.New("export archive storage is not configured")

// ExportHeader is the column order of the payout CSV
var ExportHeader = []string{"receipt_id", "party_user_id", "currency", "amount_cents", "status", "created_at", "paid_at"}

const monthLayout = "2006-01"

// ExportWindow is a half-open [From, To) range of instruction creation times
type ExportWindow struct {
	From  time.Time
	To    time.Time
	Label string
}

// ParseExportWindow turns a month or an explicit range into a window.
// Month wins when both are given.
func ParseExportWindow(req ExportRequest) (ExportWindow, error) {
	if req.Month != "" {
		start, err := time.ParseInLocation(monthLayout, req.Month, time.UTC)
		if err != nil {
			return ExportWindow{}, shared.NewDomainError(shared.CodeInvalidInput, "month must be formatted as YYYY-MM")
		}
		return ExportWindow{From: start, To: start.AddDate(0, 1, 0), Label: req.Month}, nil
	}
	if req.From == nil || req.To == nil {
		return ExportWindow{}, shared.NewDomainError(shared.CodeInvalidInput, "either month or both from and to are required")
	}
	from, to := req.From.UTC(), req.To.UTC()
	if !from.Before(to) {
		return ExportWindow{}, shared.NewDomainError(shared.CodeInvalidInput, "from must be before to")
	}
	return ExportWindow{
		From:  from,
		To:    to,
		Label: from.Format("20060102") + "-" + to.Format("20060102"),
	}, nil
}

// ExportService produces the flat payout export and archives it
type ExportService struct {
	instructions payout.PayoutInstructionRepository
	storage      ArchiveStorage
	metrics      *telemetry.PayoutMetrics
	settings     Settings
	logger       *zap.Logger
}

// NewExportService creates a new ExportService. storage may be nil when archiving is unused.
func NewExportService(
	instructions payout.PayoutInstructionRepository,
	storage ArchiveStorage,
	metrics *telemetry.PayoutMetrics,
	settings Settings,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		instructions: instructions,
		storage:      storage,
		metrics:      metrics,
		settings:     settings,
		logger:       logger,
	}
}

// Export returns rows for instructions created inside the window, oldest first
func (s *ExportService) Export(ctx context.Context, req ExportRequest) ([]ExportRow, ExportWindow, error) {
	window, err := ParseExportWindow(req)
	if err != nil {
		return nil, ExportWindow{}, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "ExportService", "Export", "window", window.Label)
	defer span.End()

	items, err := s.instructions.FindCreatedBetween(ctx, window.From, window.To)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, ExportWindow{}, fmt.Errorf("failed to load payout instructions: %w", err)
	}

	rows := make([]ExportRow, len(items))
	for i, ins := range items {
		rows[i] = ExportRow{
			ReceiptID:   ins.ReceiptID,
			PartyUserID: ins.PartyUserID,
			Currency:    ins.Currency.String(),
			AmountCents: ins.AmountCents,
			Status:      ins.Status.String(),
			CreatedAt:   ins.CreatedAt,
			PaidAt:      ins.PaidAt,
		}
	}
	s.metrics.RecordExport(ctx, len(rows))
	telemetry.SetAttributes(span, telemetry.SpanAttrRowCount, len(rows))
	telemetry.SetOK(span)
	return rows, window, nil
}

// WriteCSV writes the header and one record per row
func (s *ExportService) WriteCSV(w io.Writer, rows []ExportRow) error {
	return WriteCSV(w, rows)
}

// WriteCSV writes the header and one record per row. Times are RFC 3339 in
// UTC and an unpaid row has an empty paid_at.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		paidAt := ""
		if r.PaidAt != nil {
			paidAt = r.PaidAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			r.ReceiptID.String(),
			r.PartyUserID.String(),
			r.Currency,
			strconv.FormatInt(r.AmountCents, 10),
			r.Status,
			r.CreatedAt.UTC().Format(time.RFC3339),
			paidAt,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Archive renders the export and uploads it to object storage
func (s *ExportService) Archive(ctx context.Context, req ExportRequest) (*ArchiveResponse, error) {
	if s.storage == nil {
		return nil, ErrArchiveUnavailable
	}
	rows, window, err := s.Export(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	key := ArchiveKey(s.settings.ArchivePrefix, window)
	if err := s.storage.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.settings.ArchiveURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign export url: %w", err)
	}

	s.logger.Info("Payout export archived", zap.String("key", key), zap.Int("rows", len(rows)))
	return &ArchiveResponse{Key: key, URL: url, ExpiresAt: expiresAt, Rows: len(rows)}, nil
}

// ArchiveKey names the stored object, e.g. payouts/payouts-2024-05.csv
func ArchiveKey(prefix string, window ExportWindow) string {
	name := ExportFilename(window)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// ExportFilename is the download name for a window
func ExportFilename(window ExportWindow) string {
	return "payouts-" + window.Label + ".csv"
}
