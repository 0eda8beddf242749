// Package clickhouse stores settlement audit records for reporting.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"payment-gateway/internal/audit"
	"payment-gateway/internal/config"
)

// ReplacingMergeTree collapses redelivered events for the same payment.
const createSettlementAuditSQL = `
CREATE TABLE IF NOT EXISTS settlement_audit (
    event_id    String,
    payment_id  String,
    order_id    String,
    merchant_id String,
    method      LowCardinality(String),
    status      LowCardinality(String),
    amount      Int64,
    currency    LowCardinality(String),
    error_code  String,
    settled_at  DateTime64(3, 'UTC'),
    audited_at  DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree(audited_at)
ORDER BY (merchant_id, payment_id)`

const insertSettlementAuditSQL = `
INSERT INTO settlement_audit
    (event_id, payment_id, order_id, merchant_id, method, status, amount, currency, error_code, settled_at, audited_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const settlementSummarySQL = `
SELECT method, status, count() AS payments, sum(amount) AS amount
FROM settlement_audit FINAL
WHERE settled_at >= ?
GROUP BY method, status
ORDER BY method, status`

const recentFailuresSQL = `
SELECT payment_id, method, error_code, amount, settled_at
FROM settlement_audit FINAL
WHERE status = 'failed'
ORDER BY settled_at DESC
LIMIT ?`

// Open connects to ClickHouse and pings it.
func Open(ctx context.Context, cfg config.ClickHouseConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

// SettlementAudit implements audit.Sink on a ClickHouse table.
type SettlementAudit struct {
	conn driver.Conn
}

func NewSettlementAudit(conn driver.Conn) *SettlementAudit {
	return &SettlementAudit{conn: conn}
}

// EnsureSchema creates the audit table if it does not exist.
func (s *SettlementAudit) EnsureSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, createSettlementAuditSQL); err != nil {
		return fmt.Errorf("failed to create settlement_audit: %w", err)
	}
	return nil
}

func (s *SettlementAudit) InsertSettlement(ctx context.Context, rec audit.Record) error {
	err := s.conn.Exec(ctx, insertSettlementAuditSQL,
		rec.EventID,
		rec.PaymentID,
		rec.OrderID,
		rec.MerchantID,
		rec.Method,
		rec.Status,
		rec.Amount,
		rec.Currency,
		rec.ErrorCode,
		rec.SettledAt,
		rec.AuditedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement audit for %s: %w", rec.PaymentID, err)
	}
	return nil
}

// SummaryRow aggregates settled payments for one method and status.
type SummaryRow struct {
	Method   string
	Status   string
	Payments uint64
	Amount   int64
}

// Summary aggregates settlements since the given instant.
func (s *SettlementAudit) Summary(ctx context.Context, since time.Time) ([]SummaryRow, error) {
	rows, err := s.conn.Query(ctx, settlementSummarySQL, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query settlement summary: %w", err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.Method, &r.Status, &r.Payments, &r.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FailureRow is one failed settlement.
type FailureRow struct {
	PaymentID string
	Method    string
	ErrorCode string
	Amount    int64
	SettledAt time.Time
}

// RecentFailures lists the latest failed settlements, newest first.
func (s *SettlementAudit) RecentFailures(ctx context.Context, limit int) ([]FailureRow, error) {
	rows, err := s.conn.Query(ctx, recentFailuresSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent failures: %w", err)
	}
	defer rows.Close()

	var out []FailureRow
	for rows.Next() {
		var r FailureRow
		if err := rows.Scan(&r.PaymentID, &r.Method, &r.ErrorCode, &r.Amount, &r.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan failure row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SuccessRate returns the percentage of successful settlements in rows.
func SuccessRate(rows []SummaryRow) float64 {
	var ok, total uint64
	for _, r := range rows {
		total += r.Payments
		if r.Status == "success" {
			ok += r.Payments
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total) * 100
}
