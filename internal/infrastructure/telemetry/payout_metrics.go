package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
var (
	AttrCurrency = attribute.Key("currency")
	AttrRole     = attribute.Key("party_role")
	AttrOutcome  = attribute.Key("outcome")
)

// PayoutMetrics groups the business instruments for distributions and payments.
type PayoutMetrics struct {
	distributions    *Counter
	distributedCents *Counter
	roundingCents    *Counter
	markPaid         *Counter
	conflicts        *Counter
	exportRows       *Counter
	distributeTime   *Histogram
}

// NewPayoutMetrics registers the payout instruments on meter.
func NewPayoutMetrics(meter metric.Meter) (*PayoutMetrics, error) {
	var (
		m   PayoutMetrics
		err error
	)
	if m.distributions, err = NewCounter(meter, "payout.distributions", "Receipts distributed into payout instructions", "{receipt}"); err != nil {
		return nil, err
	}
	if m.distributedCents, err = NewCounter(meter, "payout.distributed_amount", "Minor units allocated to parties", "{minor_unit}"); err != nil {
		return nil, err
	}
	if m.roundingCents, err = NewCounter(meter, "payout.rounding_amount", "Minor units assigned to the primary party as remainder", "{minor_unit}"); err != nil {
		return nil, err
	}
	if m.markPaid, err = NewCounter(meter, "payout.mark_paid", "Mark-paid requests by outcome", "{request}"); err != nil {
		return nil, err
	}
	if m.conflicts, err = NewCounter(meter, "payout.conflicts", "State conflicts on receipts and instructions", "{conflict}"); err != nil {
		return nil, err
	}
	if m.exportRows, err = NewCounter(meter, "payout.export_rows", "Rows written to payout exports", "{row}"); err != nil {
		return nil, err
	}
	if m.distributeTime, err = NewHistogram(meter, "payout.distribute.duration", "Distribution latency", "s", SmallDurationBuckets...); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordDistribution counts one committed distribution. A nil receiver is a no-op.
func (m *PayoutMetrics) RecordDistribution(ctx context.Context, currency string, totalCents, roundingCents int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrCurrency.String(currency)}
	m.distributions.Inc(ctx, attrs...)
	m.distributedCents.Add(ctx, totalCents, attrs...)
	if roundingCents > 0 {
		m.roundingCents.Add(ctx, roundingCents, attrs...)
	}
	m.distributeTime.RecordDuration(ctx, elapsed, attrs...)
}

// RecordMarkPaid counts a mark-paid call with outcome applied, noop or conflict.
func (m *PayoutMetrics) RecordMarkPaid(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.markPaid.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordConflict counts a rejected state transition.
func (m *PayoutMetrics) RecordConflict(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.conflicts.Inc(ctx, AttrOutcome.String(operation))
}

// RecordExport counts exported rows.
func (m *PayoutMetrics) RecordExport(ctx context.Context, rows int) {
	if m == nil {
		return
	}
	m.exportRows.Add(ctx, int64(rows))
}
