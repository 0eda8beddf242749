// Package memory keeps every repository in process memory. It backs the
// memory storage driver and the HTTP end-to-end tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"payment-gateway/internal/core/domain"
)

var ErrDuplicateID = errors.New("duplicate id")

type storedOrder struct {
	order domain.Order
	seq   uint64
}

type storedPayment struct {
	payment domain.Payment
	seq     uint64
}

// Store holds all tables behind one lock so each repository call is atomic.
type Store struct {
	mu        sync.RWMutex
	seq       uint64
	merchants map[uuid.UUID]domain.Merchant
	orders    map[string]storedOrder
	payments  map[string]storedPayment
	jobs      map[string]domain.SettlementJob
}

func NewStore() *Store {
	return &Store{
		merchants: make(map[uuid.UUID]domain.Merchant),
		orders:    make(map[string]storedOrder),
		payments:  make(map[string]storedPayment),
		jobs:      make(map[string]domain.SettlementJob),
	}
}

func (s *Store) Merchants() *MerchantRepository { return &MerchantRepository{s: s} }
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{s: s} }
func (s *Store) Jobs() *SettlementJobRepository { return &SettlementJobRepository{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

type MerchantRepository struct{ s *Store }

func (r *MerchantRepository) FindByCredentials(_ context.Context, apiKey, apiSecret string) (*domain.Merchant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.merchants {
		if m.APIKey == apiKey && m.APISecret == apiSecret {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *MerchantRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if m, ok := r.s.merchants[id]; ok {
		return &m, nil
	}
	return nil, nil
}

func (r *MerchantRepository) FindByEmail(_ context.Context, email string) (*domain.Merchant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.merchants {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *MerchantRepository) Create(_ context.Context, m domain.Merchant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.merchants[m.ID]; ok {
		return fmt.Errorf("merchant %s: %w", m.ID, ErrDuplicateID)
	}
	for _, existing := range r.s.merchants {
		if existing.Email == m.Email || existing.APIKey == m.APIKey {
			return fmt.Errorf("merchant %s: email or api key already registered", m.ID)
		}
	}
	r.s.merchants[m.ID] = m
	return nil
}

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.orders[id]
	return ok, nil
}

func (r *OrderRepository) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; ok {
		return nil, fmt.Errorf("order %s: %w", o.ID, ErrDuplicateID)
	}
	o.Notes = maps.Clone(o.Notes)
	r.s.orders[o.ID] = storedOrder{order: o, seq: r.s.nextSeq()}
	return cloneOrder(o), nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if so, ok := r.s.orders[id]; ok {
		return cloneOrder(so.order), nil
	}
	return nil, nil
}

func (r *OrderRepository) GetByIDForMerchant(_ context.Context, id string, merchantID uuid.UUID) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if so, ok := r.s.orders[id]; ok && so.order.MerchantID == merchantID {
		return cloneOrder(so.order), nil
	}
	return nil, nil
}

func (r *OrderRepository) ListByMerchant(_ context.Context, merchantID uuid.UUID) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var rows []storedOrder
	for _, so := range r.s.orders {
		if so.order.MerchantID == merchantID {
			rows = append(rows, so)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return newer(rows[i].order.CreatedAt, rows[i].seq, rows[j].order.CreatedAt, rows[j].seq) })

	orders := make([]domain.Order, 0, len(rows))
	for _, so := range rows {
		orders = append(orders, *cloneOrder(so.order))
	}
	return orders, nil
}

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.payments[id]
	return ok, nil
}

func (r *PaymentRepository) Create(_ context.Context, p domain.Payment) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[p.ID]; ok {
		return nil, fmt.Errorf("payment %s: %w", p.ID, ErrDuplicateID)
	}
	if _, ok := r.s.orders[p.OrderID]; !ok {
		return nil, fmt.Errorf("payment %s references unknown order %s", p.ID, p.OrderID)
	}
	r.s.payments[p.ID] = storedPayment{payment: p, seq: r.s.nextSeq()}
	return &p, nil
}

func (r *PaymentRepository) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sp, ok := r.s.payments[id]; ok {
		p := sp.payment
		return &p, nil
	}
	return nil, nil
}

func (r *PaymentRepository) ListByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	return r.list(func(p domain.Payment) bool { return p.OrderID == orderID }), nil
}

func (r *PaymentRepository) ListByMerchant(_ context.Context, merchantID uuid.UUID) ([]domain.Payment, error) {
	return r.list(func(p domain.Payment) bool { return p.MerchantID == merchantID }), nil
}

func (r *PaymentRepository) list(match func(domain.Payment) bool) []domain.Payment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var rows []storedPayment
	for _, sp := range r.s.payments {
		if match(sp.payment) {
			rows = append(rows, sp)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return newer(rows[i].payment.CreatedAt, rows[i].seq, rows[j].payment.CreatedAt, rows[j].seq)
	})

	payments := make([]domain.Payment, 0, len(rows))
	for _, sp := range rows {
		payments = append(payments, sp.payment)
	}
	return payments
}

func (r *PaymentRepository) HasActivePayment(_ context.Context, orderID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sp := range r.s.payments {
		if sp.payment.OrderID != orderID {
			continue
		}
		if sp.payment.Status == domain.PaymentProcessing || sp.payment.Status == domain.PaymentSuccess {
			return true, nil
		}
	}
	return false, nil
}

func (r *PaymentRepository) UpdateOutcome(_ context.Context, id string, outcome domain.Outcome) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.payments[id]
	if !ok || !domain.CanTransition(sp.payment.Status, outcome.Status) {
		return nil, nil
	}
	sp.payment.Status = outcome.Status
	sp.payment.ErrorCode = outcome.ErrorCode
	sp.payment.ErrorDescription = outcome.ErrorDescription
	sp.payment.UpdatedAt = time.Now().UTC()
	r.s.payments[id] = sp

	p := sp.payment
	return &p, nil
}

func (r *PaymentRepository) Stats(_ context.Context, merchantID uuid.UUID) (domain.PaymentStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var stats domain.PaymentStats
	for _, sp := range r.s.payments {
		p := sp.payment
		if p.MerchantID != merchantID {
			continue
		}
		stats.TotalTransactions++
		switch p.Status {
		case domain.PaymentSuccess:
			stats.SuccessfulCount++
			stats.TotalAmount += p.Amount
		case domain.PaymentFailed:
			stats.FailedCount++
		case domain.PaymentProcessing:
			stats.ProcessingCount++
		}
	}
	return stats, nil
}

type SettlementJobRepository struct{ s *Store }

func (r *SettlementJobRepository) Enqueue(_ context.Context, job domain.SettlementJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[job.PaymentID]; ok {
		return fmt.Errorf("settlement job %s: %w", job.PaymentID, ErrDuplicateID)
	}
	job.ClaimedAt, job.CompletedAt = nil, nil
	r.s.jobs[job.PaymentID] = job
	return nil
}

func (r *SettlementJobRepository) ClaimDue(_ context.Context, now time.Time, limit int) ([]domain.SettlementJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var due []domain.SettlementJob
	for _, job := range r.s.jobs {
		if job.ClaimedAt == nil && !job.DueAt.After(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DueAt.Before(due[j].DueAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	for i := range due {
		claimedAt := now
		due[i].ClaimedAt = &claimedAt
		r.s.jobs[due[i].PaymentID] = due[i]
	}
	return due, nil
}

func (r *SettlementJobRepository) Complete(_ context.Context, paymentID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.jobs[paymentID]
	if !ok {
		return nil
	}
	job.CompletedAt = &at
	r.s.jobs[paymentID] = job
	return nil
}

// Pending counts jobs not yet completed.
func (r *SettlementJobRepository) Pending() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, job := range r.s.jobs {
		if job.CompletedAt == nil {
			n++
		}
	}
	return n
}

func cloneOrder(o domain.Order) *domain.Order {
	o.Notes = maps.Clone(o.Notes)
	return &o
}

// newer orders rows by creation time descending, falling back to insertion order.
func newer(a time.Time, aSeq uint64, b time.Time, bSeq uint64) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aSeq > bSeq
}
