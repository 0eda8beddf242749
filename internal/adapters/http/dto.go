package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"payment-gateway/internal/core/domain"
	"payment-gateway/internal/core/ports"
)

// flexString accepts a JSON string or number. Checkout forms send card
// expiry fields either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

type createOrderRequest struct {
	Amount   *int64         `json:"amount"`
	Currency string         `json:"currency"`
	Receipt  string         `json:"receipt"`
	Notes    map[string]any `json:"notes"`
}

type cardRequest struct {
	Number      flexString `json:"number"`
	ExpiryMonth flexString `json:"expiry_month"`
	ExpiryYear  flexString `json:"expiry_year"`
	CVV         flexString `json:"cvv"`
	HolderName  string     `json:"holder_name"`
}

type createPaymentRequest struct {
	OrderID string       `json:"order_id"`
	Method  string       `json:"method"`
	VPA     string       `json:"vpa"`
	Card    *cardRequest `json:"card"`
}

func (req createPaymentRequest) toInput() ports.CreatePaymentInput {
	in := ports.CreatePaymentInput{
		OrderID: req.OrderID,
		Method:  domain.PaymentMethod(req.Method),
		VPA:     req.VPA,
	}
	if req.Card != nil {
		in.Card = &ports.CardInput{
			Number:      string(req.Card.Number),
			ExpiryMonth: string(req.Card.ExpiryMonth),
			ExpiryYear:  string(req.Card.ExpiryYear),
			CVV:         string(req.Card.CVV),
			HolderName:  req.Card.HolderName,
		}
	}
	return in
}

type orderResponse struct {
	ID         string         `json:"id"`
	MerchantID string         `json:"merchant_id"`
	Amount     int64          `json:"amount"`
	Currency   string         `json:"currency"`
	Receipt    string         `json:"receipt"`
	Notes      map[string]any `json:"notes"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	notes := o.Notes
	if notes == nil {
		notes = map[string]any{}
	}
	return orderResponse{
		ID:         o.ID,
		MerchantID: o.MerchantID.String(),
		Amount:     o.Amount,
		Currency:   o.Currency,
		Receipt:    o.Receipt,
		Notes:      notes,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func newOrderListResponse(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}

// paymentResponse never carries card number or CVV; the domain type does
// not hold them.
type paymentResponse struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	MerchantID       string    `json:"merchant_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	VPA              *string   `json:"vpa"`
	CardNetwork      *string   `json:"card_network"`
	CardLast4        *string   `json:"card_last4"`
	ErrorCode        *string   `json:"error_code"`
	ErrorDescription *string   `json:"error_description"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		MerchantID:       p.MerchantID.String(),
		Amount:           p.Amount,
		Currency:         p.Currency,
		Method:           string(p.Method),
		Status:           string(p.Status),
		VPA:              p.VPA,
		CardNetwork:      p.CardNetwork,
		CardLast4:        p.CardLast4,
		ErrorCode:        p.ErrorCode,
		ErrorDescription: p.ErrorDescription,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func newPaymentListResponse(payments []domain.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, newPaymentResponse(&payments[i]))
	}
	return out
}

type statsResponse struct {
	TotalTransactions int64   `json:"total_transactions"`
	TotalAmount       int64   `json:"total_amount"`
	SuccessRate       float64 `json:"success_rate"`
	Successful        int64   `json:"successful"`
	Failed            int64   `json:"failed"`
	Processing        int64   `json:"processing"`
}

func newStatsResponse(s domain.PaymentStats) statsResponse {
	return statsResponse{
		TotalTransactions: s.TotalTransactions,
		TotalAmount:       s.TotalAmount,
		SuccessRate:       s.SuccessRate(),
		Successful:        s.SuccessfulCount,
		Failed:            s.FailedCount,
		Processing:        s.ProcessingCount,
	}
}
