package services

import (
	"fmt"
	"log"

	"library/internal/payment"
	"library/internal/repositories"
)

// PaymentResult extends Result with the gateway transaction id of a
// successful charge. Empty on any failure.
type PaymentResult struct {
	Result
	TransactionID string `json:"transaction_id,omitempty"`
}

// PaymentService settles and refunds late fees through a payment gateway.
// Validation and fee lookup happen before the gateway is touched; the
// gateway is called at most once per invocation and its faults are converted
// into failure results, never propagated.
type PaymentService interface {
	PayLateFees(patronID string, bookID uint, gateway payment.Gateway) PaymentResult
	RefundLateFeePayment(transactionID string, amount float64, gateway payment.Gateway) Result
}

type paymentService struct {
	store          repositories.CatalogStore
	circulation    CirculationService
	defaultGateway func() payment.Gateway
}

// NewPaymentService wires the payment orchestrator. defaultGateway supplies
// the gateway used when a call passes nil; the composition root decides what
// that default is.
func NewPaymentService(
	store repositories.CatalogStore,
	circulation CirculationService,
	defaultGateway func() payment.Gateway,
) PaymentService {
	return &paymentService{
		store:          store,
		circulation:    circulation,
		defaultGateway: defaultGateway,
	}
}

func paymentFailure(message string) PaymentResult {
	return PaymentResult{Result: failure(message)}
}

// PayLateFees charges the patron the fee owed on their active loan of the
// book. Every guard runs before the gateway call.
func (s *paymentService) PayLateFees(patronID string, bookID uint, gateway payment.Gateway) PaymentResult {
	if gateway == nil {
		gateway = s.defaultGateway()
	}

	if !patronIDPattern.MatchString(patronID) {
		return paymentFailure(msgInvalidPatronID)
	}

	feeInfo, err := s.circulation.CalculateLateFee(patronID, bookID)
	if err != nil {
		log.Printf("[ERROR] PayLateFees: fee lookup failed for patron %s / book %d: %v", patronID, bookID, err)
		return paymentFailure("Unable to calculate late fees.")
	}
	if feeInfo == nil {
		return paymentFailure("Unable to calculate late fees.")
	}

	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		log.Printf("[ERROR] PayLateFees: book lookup failed for id %d: %v", bookID, err)
		return paymentFailure("Book not found.")
	}
	if book == nil {
		return paymentFailure("Book not found.")
	}

	if feeInfo.FeeAmount <= 0 {
		return paymentFailure("No late fees to pay for this book.")
	}

	description := fmt.Sprintf("Late fees for '%s'", book.Title)
	charge, err := gateway.ProcessPayment(patronID, feeInfo.FeeAmount, description)
	if err != nil {
		log.Printf("[ERROR] PayLateFees: gateway fault for patron %s: %v", patronID, err)
		return paymentFailure("Payment processing error: " + err.Error())
	}
	if !charge.Approved {
		return paymentFailure("Payment failed: " + charge.Message)
	}

	log.Printf("[INFO] PayLateFees: patron %s paid $%.2f for book %d (txn=%s)",
		patronID, feeInfo.FeeAmount, bookID, charge.TransactionID)
	return PaymentResult{
		Result:        success("Payment successful: " + charge.Message),
		TransactionID: charge.TransactionID,
	}
}

// RefundLateFeePayment refunds a prior fee payment. The transaction id shape
// and both amount bounds are checked before any gateway call.
func (s *paymentService) RefundLateFeePayment(transactionID string, amount float64, gateway payment.Gateway) Result {
	if gateway == nil {
		gateway = s.defaultGateway()
	}

	if !payment.ValidTransactionID(transactionID) {
		return failure("Invalid transaction ID.")
	}
	if amount <= 0 {
		return failure("Refund amount must be greater than 0.")
	}
	if amount > MaxLateFee {
		return failure("Refund amount exceeds maximum late fee.")
	}

	refund, err := gateway.RefundPayment(transactionID, amount)
	if err != nil {
		log.Printf("[ERROR] RefundLateFeePayment: gateway fault for txn %s: %v", transactionID, err)
		return failure("Refund processing error: " + err.Error())
	}
	if !refund.Approved {
		return failure("Refund failed: " + refund.Message)
	}

	log.Printf("[INFO] RefundLateFeePayment: refunded $%.2f on txn %s", amount, transactionID)
	return success(refund.Message)
}
