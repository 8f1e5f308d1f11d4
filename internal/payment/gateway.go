// Package payment holds the payment-gateway contract the circulation core
// charges late fees through, plus the simulated gateway used outside of
// production.
package payment

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxPaymentAmount is the per-transaction ceiling the gateway accepts.
const MaxPaymentAmount = 1000.00

// ChargeResult is the outcome of a charge attempt. A declined charge has
// Approved=false and a reason in Message; TransactionID is set only on
// approval.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	Message       string
}

// RefundResult is the outcome of a refund attempt.
type RefundResult struct {
	Approved bool
	Message  string
}

// Status is the record returned by a transaction-status lookup.
type Status struct {
	TransactionID string  `json:"transaction_id,omitempty"`
	Status        string  `json:"status"`
	Message       string  `json:"message,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Timestamp     int64   `json:"timestamp,omitempty"`
}

// Gateway is the external payment-processing abstraction. A non-nil error is
// a transport/service fault; business declines come back as unapproved
// results with a reason.
type Gateway interface {
	ProcessPayment(patronID string, amount float64, description string) (*ChargeResult, error)
	RefundPayment(transactionID string, amount float64) (*RefundResult, error)
	VerifyPaymentStatus(transactionID string) (*Status, error)
}

var patronIDPattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidTransactionID reports whether id has the shape the gateway issues
// (txn_ prefix). Callers use it to reject malformed ids before any call.
func ValidTransactionID(id string) bool {
	return strings.HasPrefix(id, "txn_")
}

// SimulatedGateway approves everything a real processor plausibly would and
// fabricates transaction ids from the patron id and a timestamp. It never
// returns a fault on its own.
type SimulatedGateway struct {
	apiKey         string
	processLatency time.Duration
	refundLatency  time.Duration
}

// NewSimulatedGateway returns a gateway with realistic processing latency.
func NewSimulatedGateway(apiKey string) *SimulatedGateway {
	return &SimulatedGateway{
		apiKey:         apiKey,
		processLatency: 500 * time.Millisecond,
		refundLatency:  300 * time.Millisecond,
	}
}

// NewSimulatedGatewayWithLatency is NewSimulatedGateway with explicit
// latencies; tests pass zero.
func NewSimulatedGatewayWithLatency(apiKey string, process, refund time.Duration) *SimulatedGateway {
	return &SimulatedGateway{apiKey: apiKey, processLatency: process, refundLatency: refund}
}

func (g *SimulatedGateway) ProcessPayment(patronID string, amount float64, description string) (*ChargeResult, error) {
	if !patronIDPattern.MatchString(patronID) {
		return &ChargeResult{Message: "Invalid patron ID format"}, nil
	}
	if amount <= 0 {
		return &ChargeResult{Message: "Invalid amount: must be greater than 0"}, nil
	}
	if amount > MaxPaymentAmount {
		return &ChargeResult{Message: "Payment declined: amount exceeds limit"}, nil
	}

	time.Sleep(g.processLatency)

	return &ChargeResult{
		Approved:      true,
		TransactionID: fmt.Sprintf("txn_%s_%d", patronID, time.Now().Unix()),
		Message:       fmt.Sprintf("Payment of $%.2f processed successfully", amount),
	}, nil
}

func (g *SimulatedGateway) RefundPayment(transactionID string, amount float64) (*RefundResult, error) {
	if !ValidTransactionID(transactionID) {
		return &RefundResult{Message: "Invalid transaction ID"}, nil
	}
	if amount <= 0 {
		return &RefundResult{Message: "Invalid refund amount"}, nil
	}

	time.Sleep(g.refundLatency)

	return &RefundResult{
		Approved: true,
		Message:  fmt.Sprintf("Refund of $%.2f processed successfully", amount),
	}, nil
}

func (g *SimulatedGateway) VerifyPaymentStatus(transactionID string) (*Status, error) {
	if !ValidTransactionID(transactionID) {
		return &Status{
			Status:  "not_found",
			Message: "Transaction not found",
		}, nil
	}
	// The simulation keeps no ledger; any well-formed id reads back as a
	// completed charge.
	return &Status{
		TransactionID: transactionID,
		Status:        "completed",
		Amount:        10.50,
		Timestamp:     time.Now().Unix(),
	}, nil
}
